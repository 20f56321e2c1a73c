package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/config"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/usecase"
	embeddingcache "github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/cache/redis"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/exemplars"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/graph/neo4j"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/llm/ollama"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/queue/nats"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/repository/postgres"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/resilience"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/vector/qdrant"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/observability/metrics"
)

const metricsService = "api"

type App struct {
	Config config.Config

	Chat         *usecase.ChatService
	Pipeline     *usecase.Pipeline
	Graph        *neo4j.Store
	Exemplars    *usecase.ExampleSelector
	Interactions ports.InteractionLister
	HTTPMetrics  *metrics.HTTPServerMetrics

	closers []func()
}

// New wires the answering pipeline. Redis, Postgres and NATS are attached
// only when their connection settings are present.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	var observer ports.StageObserver
	resilienceCfg := cfg.Resilience()
	if cfg.MetricsEnabled {
		app.HTTPMetrics = metrics.NewHTTPServerMetrics(metricsService)
		pipelineMetrics := metrics.NewPipelineMetrics(app.HTTPMetrics.Registerer(), metricsService)
		resilienceCfg.OnStateChange = pipelineMetrics.ObserveBreaker
		observer = pipelineMetrics
	}
	executor := resilience.NewExecutor(resilienceCfg)

	ollamaClient := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	generator := ollama.NewGenerator(ollamaClient)

	embedder, err := app.embedder(ctx, ollama.NewEmbedder(ollamaClient))
	if err != nil {
		return nil, err
	}

	store, err := neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword, neo4j.Options{
		Database:           cfg.Neo4jDatabase,
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init graph store: %w", err)
	}
	app.Graph = store
	app.closers = append(app.closers, func() { _ = store.Close(context.Background()) })

	index, err := vectorIndex(cfg, store)
	if err != nil {
		return nil, err
	}

	corpus, err := exemplars.Load(cfg.ExemplarsPath)
	if err != nil {
		return nil, fmt.Errorf("load exemplars: %w", err)
	}
	app.Exemplars = usecase.NewExampleSelector(embedder, corpus)
	if err := app.Exemplars.Warm(ctx); err != nil {
		slog.Warn("exemplar_warmup_failed", "count", len(corpus), "error", err)
	}

	app.Pipeline = usecase.NewPipeline(
		usecase.NewRouter(ollama.NewStrategyClassifier(ollamaClient)),
		usecase.NewDecomposer(ollama.NewSubQueryGenerator(ollamaClient)),
		usecase.NewVectorRetriever(embedder, index),
		usecase.NewPromptAssembler(app.Exemplars),
		usecase.NewGraphRetriever(store, generator, cfg.GraphResultLimit),
		usecase.NewResponseFormatter(generator),
		observer,
	)

	recorders, err := app.recorders(ctx, executor)
	if err != nil {
		return nil, err
	}
	app.Chat = usecase.NewChatService(app.Pipeline, recorders...)

	slog.Info("pipeline_ready",
		"vector_backend", cfg.VectorBackend,
		"exemplars", len(corpus),
		"embedding_cache", cfg.RedisURL != "",
		"interaction_recorders", len(recorders),
	)
	ok = true
	return app, nil
}

func (a *App) embedder(ctx context.Context, base *ollama.Embedder) (ports.Embedder, error) {
	if a.Config.RedisURL == "" {
		return base, nil
	}
	client, err := embeddingcache.NewClient(ctx, a.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	ttl := time.Duration(a.Config.EmbedCacheTTLSeconds) * time.Second
	return embeddingcache.NewCachedEmbedder(base, client, base.Model(), ttl), nil
}

func vectorIndex(cfg config.Config, store *neo4j.Store) (ports.VectorIndex, error) {
	switch cfg.VectorBackend {
	case "", "neo4j":
		return neo4j.NewVectorIndex(store, cfg.Neo4jVectorIndex, cfg.Neo4jVectorTextProps, cfg.Neo4jEmbeddingProperty), nil
	case "qdrant":
		return qdrant.New(cfg.QdrantURL, cfg.QdrantCollection), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}

// recorders publishes to NATS when configured; otherwise interactions go
// straight to Postgres. The repository also backs the read side.
func (a *App) recorders(ctx context.Context, executor *resilience.Executor) ([]ports.InteractionRecorder, error) {
	var out []ports.InteractionRecorder

	if a.Config.NATSURL != "" {
		queue, err := nats.NewWithOptions(a.Config.NATSURL, a.Config.NATSSubject, nats.Options{
			Name:               "graphrag-api",
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init interaction queue: %w", err)
		}
		a.closers = append(a.closers, queue.Close)
		out = append(out, queue)
	}

	if a.Config.PostgresDSN != "" {
		repo, err := a.openRepository(ctx)
		if err != nil {
			return nil, err
		}
		a.Interactions = repo
		if a.Config.NATSURL == "" {
			out = append(out, repo)
		}
	}
	return out, nil
}

func (a *App) openRepository(ctx context.Context) (*postgres.InteractionRepository, error) {
	repo, db, err := OpenInteractionStore(ctx, a.Config.PostgresDSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	return repo, nil
}

// OpenInteractionStore is used by the recorder worker, which needs the
// repository without the rest of the pipeline.
func OpenInteractionStore(ctx context.Context, dsn string) (*postgres.InteractionRepository, *sql.DB, error) {
	db, err := postgres.OpenDB(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewInteractionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, db, nil
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
