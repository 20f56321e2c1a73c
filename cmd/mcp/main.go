package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/adapters/mcp"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/bootstrap"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/config"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	cfg.MetricsEnabled = false
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	s := mcpadapter.NewServer(mcpadapter.Deps{
		Chat:             app.Chat,
		Schema:           app.Graph,
		Interactions:     app.Interactions,
		InteractionLimit: cfg.InteractionListLimit,
	})

	slog.Info("mcp_stdio_listening", "server", mcpadapter.ServerName)
	if err := server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
