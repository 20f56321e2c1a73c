package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
)

type Decomposer struct {
	generator ports.SubQueryGenerator
}

func NewDecomposer(generator ports.SubQueryGenerator) *Decomposer {
	return &Decomposer{generator: generator}
}

// Decompose splits a compound question into a similarity sub-query and a
// structured sub-query. The first item seen for each purpose wins.
func (d *Decomposer) Decompose(ctx context.Context, question string) (domain.Decomposition, error) {
	items, err := d.generator.GenerateSubQueries(ctx, question)
	if err != nil {
		return domain.Decomposition{}, domain.WrapError(domain.ErrClassification, "decompose", err)
	}
	if len(items) < 2 {
		return domain.Decomposition{}, domain.WrapError(domain.ErrClassification, "decompose",
			fmt.Errorf("expected at least 2 sub-queries, got %d", len(items)))
	}

	var out domain.Decomposition
	haveSimilarity, haveStructure := false, false
	for idx, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			return domain.Decomposition{}, domain.WrapError(domain.ErrClassification, "decompose",
				fmt.Errorf("sub-query %d is empty", idx))
		}
		switch item.Purpose {
		case domain.PurposeSimilarity:
			if !haveSimilarity {
				out.Similarity = domain.SubQuery{Text: text, Purpose: domain.PurposeSimilarity}
				haveSimilarity = true
			}
		case domain.PurposeStructured:
			if !haveStructure {
				out.Structured = domain.SubQuery{Text: text, Purpose: domain.PurposeStructured}
				haveStructure = true
			}
		default:
			return domain.Decomposition{}, domain.WrapError(domain.ErrClassification, "decompose",
				fmt.Errorf("sub-query %d has unknown purpose %q", idx, item.Purpose))
		}
	}

	if !haveSimilarity || !haveStructure {
		return domain.Decomposition{}, domain.WrapError(domain.ErrClassification, "decompose",
			fmt.Errorf("decomposition must include one similarity and one structured sub-query"))
	}
	return out, nil
}
