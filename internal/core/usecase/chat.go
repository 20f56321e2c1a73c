package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
)

const ApologyMessage = "I'm sorry, I do not understand the question. Please provide a valid query related to the graph database schema."

// ChatService is the user-facing boundary. Faults never cross it: the caller
// always receives a well-formed assistant reply.
type ChatService struct {
	answerer  ports.QuestionAnswerer
	recorders []ports.InteractionRecorder
	now       func() time.Time
	newID     func() string
}

func NewChatService(answerer ports.QuestionAnswerer, recorders ...ports.InteractionRecorder) *ChatService {
	return &ChatService{
		answerer:  answerer,
		recorders: recorders,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *ChatService) Reply(ctx context.Context, msg domain.ChatMessage) domain.ChatReply {
	start := s.now()
	pc, err := s.answerer.Run(ctx, msg.Content)

	content := pc.Answer
	if err != nil || !pc.Answered() {
		content = ApologyMessage
	}
	reply := domain.NewChatReply(s.newID(), content, s.now())

	s.record(ctx, domain.Interaction{
		ID:         reply.ID,
		Question:   msg.Content,
		Strategy:   pc.Strategy,
		Answer:     reply.Content,
		Faulted:    err != nil,
		FaultKind:  domain.FaultKind(err),
		DurationMS: s.now().Sub(start).Milliseconds(),
		CreatedAt:  start.UTC(),
	})
	return reply
}

func (s *ChatService) record(ctx context.Context, interaction domain.Interaction) {
	for _, recorder := range s.recorders {
		if recorder == nil {
			continue
		}
		if err := recorder.RecordInteraction(ctx, interaction); err != nil {
			slog.Warn("interaction_record_failed", "interaction_id", interaction.ID, "error", err)
		}
	}
}
