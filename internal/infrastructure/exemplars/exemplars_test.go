package exemplars

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/graph/neo4j"
)

func TestLoadEmbeddedCorpus(t *testing.T) {
	items, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 20 {
		t.Fatalf("expected 20 exemplars, got %d", len(items))
	}
	if !strings.HasPrefix(items[0].Query, "MATCH (a:Author)-[:AUTHORED]->(p:Publication)") {
		t.Fatalf("unexpected first exemplar %+v", items[0])
	}
}

func TestEmbeddedCorpusPassesValidation(t *testing.T) {
	schema := domain.GraphSchema{
		NodeProperties: map[string][]domain.Property{
			"Author": {{Name: "name", Type: "STRING"}},
			"Publication": {
				{Name: "publisher", Type: "STRING"},
				{Name: "title", Type: "STRING"},
				{Name: "venue", Type: "STRING"},
				{Name: "year", Type: "INTEGER"},
			},
		},
		Relationships: []domain.RelationshipPattern{
			{Start: "Author", Type: "AUTHORED", End: "Publication"},
			{Start: "Publication", Type: "CITED", End: "Publication"},
		},
	}
	items, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, item := range items {
		if err := neo4j.ValidateQuery(schema, item.Query); err != nil {
			t.Errorf("exemplar %q rejected: %v", item.Question, err)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	data := "- question: How many authors?\n  query: MATCH (a:Author) RETURN count(a)\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	items, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 1 || items[0].Question != "How many authors?" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestParseRejectsIncompleteCorpus(t *testing.T) {
	for _, raw := range []string{"[]", "- question: only a question\n", "not: [a list"} {
		if _, err := Parse([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
