package ports

import (
	"context"
	"time"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

// StrategyClassifier returns a raw strategy label for a question.
type StrategyClassifier interface {
	ClassifyStrategy(ctx context.Context, question string) (string, error)
}

// SubQueryGenerator splits a question into purpose-tagged sub-queries.
type SubQueryGenerator interface {
	GenerateSubQueries(ctx context.Context, question string) ([]domain.SubQuery, error)
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type VectorIndex interface {
	Search(ctx context.Context, queryVector []float32, limit int) ([]domain.VectorHit, error)
}

type GraphStore interface {
	Schema(ctx context.Context) (domain.GraphSchema, error)
	Validate(ctx context.Context, schema domain.GraphSchema, query string) error
	Execute(ctx context.Context, query string) (domain.GraphResult, error)
}

// QueryGenerator turns a rendered prompt into a graph query text.
type QueryGenerator interface {
	GenerateQuery(ctx context.Context, prompt string) (string, error)
}

type TextGenerator interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, interaction domain.Interaction) error
}

// StageObserver receives per-stage timings from the orchestrator.
type StageObserver interface {
	ObserveStage(stage string, duration time.Duration, err error)
	ObserveStrategy(strategy domain.Strategy)
	ObserveDocuments(count int)
}
