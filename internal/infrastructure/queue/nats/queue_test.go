package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
)

func TestInteractionEventRoundTrip(t *testing.T) {
	in := domain.Interaction{
		ID:         "i-1",
		Question:   "Find similar articles about oxidative stress",
		Strategy:   domain.StrategyVectorSearch,
		Answer:     "Three publications discuss oxidative stress.",
		DurationMS: 1200,
		CreatedAt:  time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC),
	}
	data, err := encodeInteraction(in)
	if err != nil {
		t.Fatalf("encodeInteraction() error = %v", err)
	}
	out, err := decodeInteraction(data)
	if err != nil {
		t.Fatalf("decodeInteraction() error = %v", err)
	}
	if out.ID != in.ID || out.Strategy != in.Strategy || !out.CreatedAt.Equal(in.CreatedAt) {
		t.Fatalf("unexpected interaction %+v", out)
	}
}

func TestDecodeInteractionRejectsInvalidEvents(t *testing.T) {
	for _, raw := range []string{`not json`, `{"question":"no id"}`} {
		if _, err := decodeInteraction([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestClassifyNATSError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "no servers", err: fmt.Errorf("nats publish: %w", nats.ErrNoServers), retryable: true, record: true},
		{name: "closed", err: nats.ErrConnectionClosed, retryable: true, record: true},
		{name: "payload", err: nats.ErrMaxPayload, retryable: false, record: false},
		{name: "canceled", err: context.Canceled, retryable: false, record: false},
		{name: "other", err: errors.New("boom"), retryable: false, record: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			class := classifyNATSError(tc.err)
			if class.Retryable != tc.retryable || class.RecordFailure != tc.record {
				t.Fatalf("unexpected classification %+v", class)
			}
		})
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	if err := wrapTemporaryIfNeeded(nats.ErrTimeout); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if err := wrapTemporaryIfNeeded(nats.ErrBadSubject); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}
