package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/infrastructure/resilience"
)

type Config struct {
	APIPort  string
	LogLevel string

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int
	APIRequestTimeoutSecs int
	MetricsEnabled        bool
	WorkerMetricsPort     string
	InteractionListLimit  int

	Neo4jURI               string
	Neo4jUsername          string
	Neo4jPassword          string
	Neo4jDatabase          string
	Neo4jVectorIndex       string
	Neo4jVectorTextProps   []string
	Neo4jEmbeddingProperty string

	VectorBackend    string
	QdrantURL        string
	QdrantCollection string

	OllamaURL        string
	OllamaGenModel   string
	OllamaEmbedModel string

	GraphResultLimit int
	ExemplarsPath    string

	RedisURL             string
	EmbedCacheTTLSeconds int

	PostgresDSN string

	NATSURL     string
	NATSSubject string

	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	BreakerEnabled      bool
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration

	NATSPublishMaxAttempts int
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "5001"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 0),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 0),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),
		APIRequestTimeoutSecs: mustEnvInt("API_REQUEST_TIMEOUT_SECONDS", 180),
		MetricsEnabled:        mustEnvBool("METRICS_ENABLED", true),
		WorkerMetricsPort:     mustEnv("WORKER_METRICS_PORT", "9090"),
		InteractionListLimit:  mustEnvInt("INTERACTION_LIST_LIMIT", 20),

		Neo4jURI:               mustEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUsername:          mustEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword:          mustEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:          mustEnv("NEO4J_DATABASE", "neo4j"),
		Neo4jVectorIndex:       mustEnv("NEO4J_VECTOR_INDEX", "publication_title_vector"),
		Neo4jVectorTextProps:   mustEnvList("NEO4J_VECTOR_TEXT_PROPERTIES", []string{"title", "venue"}),
		Neo4jEmbeddingProperty: mustEnv("NEO4J_EMBEDDING_PROPERTY", "embedding_vectors"),

		VectorBackend:    strings.ToLower(mustEnv("VECTOR_BACKEND", "neo4j")),
		QdrantURL:        mustEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: mustEnv("QDRANT_COLLECTION", "publications"),

		OllamaURL:        mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaGenModel:   mustEnv("OLLAMA_GEN_MODEL", "llama3.1:8b"),
		OllamaEmbedModel: mustEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),

		GraphResultLimit: mustEnvInt("GRAPH_RESULT_LIMIT", 10),
		ExemplarsPath:    mustEnv("EXEMPLARS_PATH", ""),

		RedisURL:             mustEnv("REDIS_URL", ""),
		EmbedCacheTTLSeconds: mustEnvInt("EMBED_CACHE_TTL_SECONDS", 86400),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "graphrag.interactions"),

		RetryMaxAttempts:    mustEnvInt("RESILIENCE_RETRY_MAX_ATTEMPTS", 1),
		RetryInitialBackoff: time.Duration(mustEnvInt("RESILIENCE_RETRY_INITIAL_BACKOFF_MS", 100)) * time.Millisecond,
		BreakerEnabled:      mustEnvBool("RESILIENCE_BREAKER_ENABLED", true),
		BreakerMinRequests:  mustEnvInt("RESILIENCE_BREAKER_MIN_REQUESTS", 10),
		BreakerFailureRatio: mustEnvFloat("RESILIENCE_BREAKER_FAILURE_RATIO", 0.5),
		BreakerOpenTimeout:  time.Duration(mustEnvInt("RESILIENCE_BREAKER_OPEN_TIMEOUT_SECONDS", 30)) * time.Second,

		NATSPublishMaxAttempts: mustEnvInt("RESILIENCE_NATS_MAX_ATTEMPTS", 3),
	}
}

// Resilience maps the env settings onto the executor policy.
func (c Config) Resilience() resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = c.RetryMaxAttempts
	out.RetryInitialBackoff = c.RetryInitialBackoff
	out.BreakerEnabled = c.BreakerEnabled
	if c.BreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(c.BreakerMinRequests)
	}
	out.BreakerFailureRatio = c.BreakerFailureRatio
	out.BreakerOpenTimeout = c.BreakerOpenTimeout
	if c.NATSPublishMaxAttempts > 0 {
		nats := out.Backends[resilience.BackendNATS]
		nats.MaxAttempts = c.NATSPublishMaxAttempts
		out.Backends[resilience.BackendNATS] = nats
	}
	return out
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
