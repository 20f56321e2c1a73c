package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exemplars.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path
}

func TestExemplarsCommandListsFile(t *testing.T) {
	path := writeCorpus(t, `
- question: "How many publications are there?"
  query: "MATCH (p:Publication) RETURN count(p)"
- question: "Who wrote the most?"
  query: "MATCH (a:Author)-[:AUTHORED]->(p:Publication) RETURN a.name, count(p) AS n ORDER BY n DESC LIMIT 1"
`)

	out, err := runCmd(t, "exemplars", "--file", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, " 1. How many publications are there?") || !strings.Contains(out, " 2. Who wrote the most?") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestExemplarsCommandPrintsJSON(t *testing.T) {
	path := writeCorpus(t, `- question: "q"
  query: "MATCH (n) RETURN n"
`)

	out, err := runCmd(t, "exemplars", "--json", "--file", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `"question": "q"`) {
		t.Fatalf("expected JSON output, got:\n%s", out)
	}
}

func TestExemplarsCommandRejectsInvalidFile(t *testing.T) {
	path := writeCorpus(t, "- question: \"\"\n  query: \"\"\n")

	if _, err := runCmd(t, "exemplars", "--file", path); err == nil {
		t.Fatalf("expected error for invalid corpus")
	}
}

func TestValidateExemplarsReportsFailures(t *testing.T) {
	schema := domain.GraphSchema{
		NodeProperties: map[string][]domain.Property{
			"Publication": {{Name: "title", Type: "STRING"}},
		},
	}
	corpus := []domain.Exemplar{
		{Question: "titles", Query: "MATCH (p:Publication) RETURN p.title"},
		{Question: "delete", Query: "MATCH (p:Publication) DETACH DELETE p"},
	}

	var out bytes.Buffer
	err := validateExemplars(&out, schema, corpus)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected one failure, got %v", err)
	}
	if !strings.Contains(out.String(), "ok    1. titles") || !strings.Contains(out.String(), "FAIL  2. delete") {
		t.Fatalf("unexpected report:\n%s", out.String())
	}
}

func TestInteractionsCommandRequiresDSN(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")

	_, err := runCmd(t, "interactions")
	if err == nil || !strings.Contains(err.Error(), "POSTGRES_DSN") {
		t.Fatalf("expected missing DSN error, got %v", err)
	}
}

func TestAskCommandRequiresQuestion(t *testing.T) {
	if _, err := runCmd(t, "ask"); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestPrintInteractions(t *testing.T) {
	var out bytes.Buffer
	err := printInteractions(&out, []domain.Interaction{
		{
			ID:         "i-1",
			Question:   strings.Repeat("x", 100),
			Strategy:   domain.StrategyGraphQuery,
			DurationMS: 42,
			CreatedAt:  time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
		},
		{ID: "i-2", Question: "q", Faulted: true, FaultKind: "classification"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := out.String()
	for _, want := range []string{"STRATEGY", "2024-03-05 10:00:00", string(domain.StrategyGraphQuery), "classification", strings.Repeat("x", 77) + "..."} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in:\n%s", want, text)
		}
	}
}
