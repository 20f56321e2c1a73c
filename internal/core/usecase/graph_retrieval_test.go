package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

func plainSpec() domain.PromptSpec {
	return domain.PromptSpec{Instructions: queryInstructions, Suffix: querySuffix}
}

func TestGraphRetrieverExecutesValidatedQuery(t *testing.T) {
	store := &graphStoreFake{
		schema: testSchema(),
		result: domain.GraphResult{
			Columns: []string{"p.title"},
			Rows:    []map[string]any{{"p.title": "A"}, {"p.title": "B"}},
		},
	}
	gen := &queryGeneratorFake{query: "```cypher\nMATCH (p:Publication) RETURN p.title\n```"}
	r := NewGraphRetriever(store, gen, 10)

	result, err := r.Retrieve(context.Background(), plainSpec(), "List publication titles")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	want := "MATCH (p:Publication) RETURN p.title"
	if len(store.validated) != 1 || store.validated[0] != want {
		t.Fatalf("unexpected validated queries %v", store.validated)
	}
	if len(store.executed) != 1 || store.executed[0] != want {
		t.Fatalf("unexpected executed queries %v", store.executed)
	}
	if result.Query != want || len(result.Rows) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.Contains(gen.prompts[0], "(:Author)-[:AUTHORED]->(:Publication)") {
		t.Fatalf("prompt does not carry the live schema:\n%s", gen.prompts[0])
	}
}

func TestGraphRetrieverNeverExecutesInvalidQuery(t *testing.T) {
	store := &graphStoreFake{schema: testSchema(), validateErr: errors.New("unknown label Journal")}
	r := NewGraphRetriever(store, &queryGeneratorFake{query: "MATCH (j:Journal) RETURN j"}, 10)

	_, err := r.Retrieve(context.Background(), plainSpec(), "q")
	if !domain.IsKind(err, domain.ErrRetrieval) {
		t.Fatalf("expected retrieval fault, got %v", err)
	}
	if len(store.executed) != 0 {
		t.Fatalf("invalid query must not be executed, got %v", store.executed)
	}
}

func TestGraphRetrieverFaultKinds(t *testing.T) {
	boom := errors.New("boom")

	_, err := NewGraphRetriever(&graphStoreFake{schema: testSchema()}, &queryGeneratorFake{err: boom}, 10).
		Retrieve(context.Background(), plainSpec(), "q")
	if !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected generation fault, got %v", err)
	}

	_, err = NewGraphRetriever(&graphStoreFake{schema: testSchema()}, &queryGeneratorFake{query: "  "}, 10).
		Retrieve(context.Background(), plainSpec(), "q")
	if !domain.IsKind(err, domain.ErrGeneration) {
		t.Fatalf("expected generation fault for blank query, got %v", err)
	}

	_, err = NewGraphRetriever(&graphStoreFake{schema: testSchema(), execErr: boom}, &queryGeneratorFake{query: "MATCH (n) RETURN n"}, 10).
		Retrieve(context.Background(), plainSpec(), "q")
	if !domain.IsKind(err, domain.ErrRetrieval) {
		t.Fatalf("expected retrieval fault from execution, got %v", err)
	}

	_, err = NewGraphRetriever(&graphStoreFake{schemaErr: boom}, &queryGeneratorFake{query: "MATCH (n) RETURN n"}, 10).
		Retrieve(context.Background(), plainSpec(), "q")
	if !domain.IsKind(err, domain.ErrRetrieval) {
		t.Fatalf("expected retrieval fault from schema, got %v", err)
	}
}

func TestGraphRetrieverTruncatesRows(t *testing.T) {
	rows := make([]map[string]any, 25)
	for i := range rows {
		rows[i] = map[string]any{"n": i}
	}
	store := &graphStoreFake{schema: testSchema(), result: domain.GraphResult{Rows: rows}}
	result, err := NewGraphRetriever(store, &queryGeneratorFake{query: "MATCH (n) RETURN n"}, 10).
		Retrieve(context.Background(), plainSpec(), "q")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(result.Rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(result.Rows))
	}
}

func TestExtractQuery(t *testing.T) {
	cases := map[string]string{
		"MATCH (n) RETURN n":                      "MATCH (n) RETURN n",
		"```\nMATCH (n) RETURN n\n```":            "MATCH (n) RETURN n",
		"```cypher\nMATCH (n) RETURN n\n```":      "MATCH (n) RETURN n",
		"Here you go:\n```Cypher\nMATCH (n)\n```": "MATCH (n)",
		"Cypher query: MATCH (a:Author) RETURN a": "MATCH (a:Author) RETURN a",
	}
	for in, want := range cases {
		if got := ExtractQuery(in); got != want {
			t.Fatalf("ExtractQuery(%q) = %q, want %q", in, got, want)
		}
	}
}
