package neo4j

import (
	"errors"
	"strings"
	"testing"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

func bibliographySchema() domain.GraphSchema {
	return domain.GraphSchema{
		NodeProperties: map[string][]domain.Property{
			"Author": {{Name: "name", Type: "STRING"}, {Name: "omid", Type: "STRING"}},
			"Publication": {
				{Name: "omid", Type: "STRING"},
				{Name: "title", Type: "STRING"},
				{Name: "venue", Type: "STRING"},
				{Name: "year", Type: "INTEGER"},
			},
		},
		RelationshipProperties: map[string][]domain.Property{
			"CITED": {{Name: "creation", Type: "STRING"}},
		},
		Relationships: []domain.RelationshipPattern{
			{Start: "Author", Type: "AUTHORED", End: "Publication"},
			{Start: "Publication", Type: "CITED", End: "Publication"},
		},
	}
}

func TestValidateQueryAcceptsDeclaredVocabulary(t *testing.T) {
	queries := []string{
		"MATCH (a:Author)-[:AUTHORED]->(p:Publication) WHERE p.year = 2020 RETURN a.name, p.title",
		"MATCH (p:Publication)-[c:CITED]->(q:Publication) RETURN p.title, c.creation, q.title LIMIT 5",
		"MATCH (p:Publication {omid: 'omid:br/0601'}) RETURN p {.title, .venue}",
		"MATCH (a:`Author`)-[:AUTHORED]->(p) RETURN a.name, count(p) AS publications ORDER BY publications DESC",
		"MATCH (p:Publication) WHERE p.title CONTAINS 'CREATE TABLE; SET x' RETURN p.title",
		"MATCH (a:Author)-[:AUTHORED|CITED*1..2]->(p:Publication) RETURN DISTINCT p.title // set nothing",
		"MATCH (p:Publication) WITH p.title AS t, date.truncate('year', date()) AS d RETURN t",
		"MATCH (p:Publication) WITH p AS x RETURN x.title",
		"MATCH (n) WHERE n:Publication OR n:Author RETURN {label: n.title, year: n.year}",
		"MATCH (p:Publication) WHERE p.year IN [2019, 2020] RETURN p.title",
	}
	for _, query := range queries {
		if err := ValidateQuery(bibliographySchema(), query); err != nil {
			t.Errorf("ValidateQuery(%q) error = %v", query, err)
		}
	}
}

func TestValidateQueryRejects(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "unknown label", query: "MATCH (j:Journal) RETURN j", want: "Journal"},
		{name: "unknown label in chain", query: "MATCH (p:Publication:Journal) RETURN p", want: "Journal"},
		{name: "unknown relationship", query: "MATCH (a:Author)-[:WROTE]->(p:Publication) RETURN p.title", want: "WROTE"},
		{name: "unknown property on label", query: "MATCH (a:Author) RETURN a.title", want: "a.title"},
		{name: "unknown property on unlabeled", query: "MATCH (n) RETURN n.isbn", want: "n.isbn"},
		{name: "unknown inline key", query: "MATCH (p:Publication {doi: ''}) RETURN p", want: "doi"},
		{name: "unknown projection key", query: "MATCH (p:Publication) RETURN p {.title, .doi}", want: "p.doi"},
		{name: "unknown relationship property", query: "MATCH ()-[c:CITED]->() RETURN c.weight", want: "c.weight"},
		{name: "write", query: "MATCH (p:Publication) SET p.title = 'x' RETURN p", want: "SET"},
		{name: "delete", query: "MATCH (p:Publication) DETACH DELETE p", want: "DETACH"},
		{name: "create", query: "CREATE (a:Author {name: 'x'})", want: "CREATE"},
		{name: "procedure", query: "CALL db.labels()", want: "CALL"},
		{name: "load csv", query: "LOAD CSV FROM 'file:///x' AS row RETURN row", want: "LOAD CSV"},
		{name: "empty", query: "  // nothing here\n", want: "empty"},
		{name: "unknown property on alias", query: "MATCH (p:Publication) WITH p AS x RETURN x.isbn", want: "x.isbn"},
		{name: "unknown property after unwind", query: "MATCH (p:Publication) WITH collect(p) AS ps UNWIND ps AS q RETURN q.isbn", want: "q.isbn"},
		{name: "unknown label predicate", query: "MATCH (p) WHERE p:Journal RETURN p.title", want: "Journal"},
		{name: "unknown label in predicate chain", query: "MATCH (p) WHERE p:Publication|Journal RETURN p.title", want: "Journal"},
		{name: "dynamic property access", query: "MATCH (p:Publication) RETURN p['isbn']", want: "dynamic property access on p"},
		{name: "parameterised property access", query: "MATCH (p:Publication) RETURN p[$key]", want: "dynamic property access on p"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateQuery(bibliographySchema(), tc.query)
			if !errors.Is(err, ErrQueryRejected) {
				t.Fatalf("expected rejection, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}
