package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

type classifierFake struct {
	label string
	err   error
	calls int
}

func (f *classifierFake) ClassifyStrategy(context.Context, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.label, nil
}

type subQueryFake struct {
	items    []domain.SubQuery
	err      error
	question string
}

func (f *subQueryFake) GenerateSubQueries(_ context.Context, question string) ([]domain.SubQuery, error) {
	f.question = question
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

// embedderFake maps known texts to fixed vectors; unknown texts get a zero vector.
type embedderFake struct {
	vectors    map[string][]float32
	dims       int
	err        error
	queryErr   error
	batchCalls int
	queries    []string
}

func (f *embedderFake) vector(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	return make([]float32, f.dims)
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batchCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.vector(text)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.vector(text), nil
}

type vectorIndexFake struct {
	hits  []domain.VectorHit
	err   error
	limit int
}

func (f *vectorIndexFake) Search(_ context.Context, _ []float32, limit int) ([]domain.VectorHit, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.VectorHit(nil), f.hits...), nil
}

type graphStoreFake struct {
	schema      domain.GraphSchema
	schemaErr   error
	validateErr error
	result      domain.GraphResult
	execErr     error

	validated []string
	executed  []string
}

func (f *graphStoreFake) Schema(context.Context) (domain.GraphSchema, error) {
	if f.schemaErr != nil {
		return domain.GraphSchema{}, f.schemaErr
	}
	return f.schema, nil
}

func (f *graphStoreFake) Validate(_ context.Context, _ domain.GraphSchema, query string) error {
	f.validated = append(f.validated, query)
	return f.validateErr
}

func (f *graphStoreFake) Execute(_ context.Context, query string) (domain.GraphResult, error) {
	f.executed = append(f.executed, query)
	if f.execErr != nil {
		return domain.GraphResult{}, f.execErr
	}
	return f.result, nil
}

type queryGeneratorFake struct {
	query   string
	err     error
	prompts []string
}

func (f *queryGeneratorFake) GenerateQuery(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.query, nil
}

type textGeneratorFake struct {
	answer  string
	err     error
	calls   int
	prompts []string
}

func (f *textGeneratorFake) GenerateText(_ context.Context, _ string, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type recorderFake struct {
	recorded []domain.Interaction
	err      error
}

func (f *recorderFake) RecordInteraction(_ context.Context, interaction domain.Interaction) error {
	f.recorded = append(f.recorded, interaction)
	return f.err
}

type observerFake struct {
	stages     []string
	strategies []domain.Strategy
	documents  []int
}

func (f *observerFake) ObserveStage(stage string, _ time.Duration, _ error) {
	f.stages = append(f.stages, stage)
}

func (f *observerFake) ObserveStrategy(strategy domain.Strategy) {
	f.strategies = append(f.strategies, strategy)
}

func (f *observerFake) ObserveDocuments(count int) {
	f.documents = append(f.documents, count)
}

func testSchema() domain.GraphSchema {
	return domain.GraphSchema{
		NodeProperties: map[string][]domain.Property{
			"Author":      {{Name: "name", Type: "STRING"}},
			"Publication": {{Name: "title", Type: "STRING"}, {Name: "omid", Type: "STRING"}, {Name: "year", Type: "INTEGER"}},
		},
		RelationshipProperties: map[string][]domain.Property{},
		Relationships: []domain.RelationshipPattern{
			{Start: "Author", Type: "AUTHORED", End: "Publication"},
			{Start: "Publication", Type: "CITED", End: "Publication"},
		},
	}
}

func testExemplars(n int) []domain.Exemplar {
	out := make([]domain.Exemplar, n)
	for i := range out {
		out[i] = domain.Exemplar{
			Question: fmt.Sprintf("exemplar question %d", i),
			Query:    fmt.Sprintf("MATCH (p:Publication) RETURN p.title LIMIT %d", i+1),
		}
	}
	return out
}

func publicationHit(omid, title, venue string, score float64) domain.VectorHit {
	var content strings.Builder
	if title != "" {
		content.WriteString("\ntitle: " + title)
	}
	if venue != "" {
		content.WriteString("\nvenue: " + venue)
	}
	return domain.VectorHit{
		Content: content.String(),
		Metadata: map[string]any{
			"omid":      omid,
			"year":      float64(2021),
			"publisher": "Elsevier",
		},
		Score: score,
	}
}
