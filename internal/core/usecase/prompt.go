package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

const queryInstructions = `Task: Generate Cypher statement to query a graph database.
Instructions:
Use only the provided relationship types and properties in the schema.
Do not use any other relationship types or properties that are not provided.
Note: Do not include any explanations or apologies in your responses.
Do not respond to any questions that might ask anything else than for you to construct a Cypher statement.
Do not include any text except the generated Cypher statement.`

const querySuffix = `Question: {{.Question}}
Cypher query:`

// PromptRequest selects the assembly mode. With Grounded set, Articles are
// enumerated in rank order and the generated query must use their identifiers.
type PromptRequest struct {
	Question string
	Articles []domain.ArticleRef
	Grounded bool
}

type exemplarSource interface {
	Select(ctx context.Context, question string) ([]domain.Exemplar, error)
}

type PromptAssembler struct {
	selector exemplarSource
}

func NewPromptAssembler(selector exemplarSource) *PromptAssembler {
	return &PromptAssembler{selector: selector}
}

func (a *PromptAssembler) Build(ctx context.Context, req PromptRequest) (domain.PromptSpec, error) {
	if strings.TrimSpace(req.Question) == "" {
		return domain.PromptSpec{}, domain.WrapError(domain.ErrInvalidInput, "build prompt", fmt.Errorf("question is empty"))
	}

	exemplars, err := a.selector.Select(ctx, req.Question)
	if err != nil {
		return domain.PromptSpec{}, err
	}

	instructions := queryInstructions
	if req.Grounded {
		instructions += "\n\n" + groundingBlock(req.Articles)
	}
	return domain.PromptSpec{
		Instructions: instructions,
		Exemplars:    exemplars,
		Suffix:       querySuffix,
		Grounded:     req.Grounded,
	}, nil
}

func groundingBlock(articles []domain.ArticleRef) string {
	var b strings.Builder
	b.WriteString("A context is provided from a vector search with the following publication IDs (omid), ordered by relevance:\n")
	if len(articles) == 0 {
		b.WriteString("(no publications were found)\n")
	}
	for _, ref := range articles {
		title := ref.Title
		if title == "" {
			title = "unknown"
		}
		fmt.Fprintf(&b, "omid: %s, title: %s\n", ref.Identifier, title)
	}
	b.WriteString("Using these publication IDs, create Cypher statements to query the graph.\n")
	b.WriteString("Note that Articles are referred to as Publications in the database.")
	return b.String()
}
