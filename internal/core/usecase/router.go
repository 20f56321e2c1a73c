package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
)

// Router picks the retrieval strategy for a question. There is no fallback:
// an unusable label is a classification fault.
type Router struct {
	classifier ports.StrategyClassifier
}

func NewRouter(classifier ports.StrategyClassifier) *Router {
	return &Router{classifier: classifier}
}

func (r *Router) Route(ctx context.Context, question string) (domain.Strategy, error) {
	if strings.TrimSpace(question) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "route", fmt.Errorf("question is empty"))
	}

	label, err := r.classifier.ClassifyStrategy(ctx, question)
	if err != nil {
		return "", domain.WrapError(domain.ErrClassification, "route", err)
	}
	strategy, err := domain.ParseStrategy(label)
	if err != nil {
		return "", domain.WrapError(domain.ErrClassification, "route", err)
	}
	return strategy, nil
}
