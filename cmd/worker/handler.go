package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/observability/metrics"
)

const recordTimeout = 30 * time.Second

// newRecordHandler persists one interaction event. Failed inserts are
// counted and logged by the subscriber, never redelivered.
func newRecordHandler(
	repo ports.InteractionRecorder,
	workerMetrics *metrics.WorkerMetrics,
	now func() time.Time,
) func(context.Context, domain.Interaction) error {
	return func(ctx context.Context, interaction domain.Interaction) error {
		recordCtx, cancel := context.WithTimeout(ctx, recordTimeout)
		defer cancel()

		start := now()
		workerMetrics.StartRecord()
		err := repo.RecordInteraction(recordCtx, interaction)
		workerMetrics.FinishRecord(serviceName, now().Sub(start), err)
		if err != nil {
			return err
		}

		repliedAt := interaction.CreatedAt.Add(time.Duration(interaction.DurationMS) * time.Millisecond)
		workerMetrics.ObserveEventLag(serviceName, now().Sub(repliedAt))
		slog.Debug("interaction_recorded", "interaction_id", interaction.ID)
		return nil
	}
}
