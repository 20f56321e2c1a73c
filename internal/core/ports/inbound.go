package ports

import (
	"context"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

// QuestionAnswerer runs the full pipeline and surfaces faults to the caller.
type QuestionAnswerer interface {
	Run(ctx context.Context, question string) (domain.PipelineContext, error)
}

// ChatResponder is the user-facing boundary; it never returns a fault.
type ChatResponder interface {
	Reply(ctx context.Context, msg domain.ChatMessage) domain.ChatReply
}

type SchemaReader interface {
	Schema(ctx context.Context) (domain.GraphSchema, error)
}

// InteractionLister reads back the audit trail, newest first.
type InteractionLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.Interaction, error)
}
