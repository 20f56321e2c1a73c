package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
)

type GraphRetriever struct {
	store     ports.GraphStore
	generator ports.QueryGenerator
	rowLimit  int
}

func NewGraphRetriever(store ports.GraphStore, generator ports.QueryGenerator, rowLimit int) *GraphRetriever {
	if rowLimit <= 0 {
		rowLimit = 10
	}
	return &GraphRetriever{
		store:     store,
		generator: generator,
		rowLimit:  rowLimit,
	}
}

// Retrieve generates a query from spec, validates it against the live
// schema and executes it. Invalid queries are never executed.
func (r *GraphRetriever) Retrieve(ctx context.Context, spec domain.PromptSpec, question string) (domain.GraphResult, error) {
	schema, err := r.store.Schema(ctx)
	if err != nil {
		return domain.GraphResult{}, domain.WrapError(domain.ErrRetrieval, "graph schema", err)
	}

	prompt, err := spec.Render(schema.Describe(), question)
	if err != nil {
		return domain.GraphResult{}, domain.WrapError(domain.ErrGeneration, "render query prompt", err)
	}

	generated, err := r.generator.GenerateQuery(ctx, prompt)
	if err != nil {
		return domain.GraphResult{}, domain.WrapError(domain.ErrGeneration, "generate query", err)
	}
	query := ExtractQuery(generated)
	if query == "" {
		return domain.GraphResult{}, domain.WrapError(domain.ErrGeneration, "generate query", fmt.Errorf("model returned no query"))
	}

	if err := r.store.Validate(ctx, schema, query); err != nil {
		return domain.GraphResult{}, domain.WrapError(domain.ErrRetrieval, "validate query", err)
	}

	result, err := r.store.Execute(ctx, query)
	if err != nil {
		return domain.GraphResult{}, domain.WrapError(domain.ErrRetrieval, "execute query", err)
	}
	result.Query = query
	if len(result.Rows) > r.rowLimit {
		result.Rows = result.Rows[:r.rowLimit]
	}
	if result.Rows == nil {
		result.Rows = []map[string]any{}
	}
	return result, nil
}

var fencedBlock = regexp.MustCompile("(?s)```(?:[a-zA-Z]+[ \\t]*\\n)?\\s*(.*?)```")

// ExtractQuery strips code fences and answer prefixes from generated text.
func ExtractQuery(text string) string {
	text = strings.TrimSpace(text)
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	for _, prefix := range []string{"Cypher query:", "Cypher Query:", "cypher"} {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	return strings.TrimSpace(text)
}
