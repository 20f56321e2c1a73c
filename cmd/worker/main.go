package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/bootstrap"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/config"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/queue/nats"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/resilience"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/observability/logging"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/observability/metrics"
)

const serviceName = "worker"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	if cfg.NATSURL == "" || cfg.PostgresDSN == "" {
		slog.Error("worker_misconfigured", "error", "NATS_URL and POSTGRES_DSN are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, db, err := bootstrap.OpenInteractionStore(ctx, cfg.PostgresDSN)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		Name:               "graphrag-worker",
		ResilienceExecutor: resilience.NewExecutor(cfg.Resilience()),
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer queue.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	if cfg.MetricsEnabled {
		metricsServer := &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           workerMetrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("worker_metrics_failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	if err := queue.SubscribeInteractions(ctx, newRecordHandler(repo, workerMetrics, time.Now)); err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
	slog.Info("worker_stopped")
}
