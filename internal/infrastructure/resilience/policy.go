package resilience

import (
	"strings"
	"time"
)

// Backend names prefix every operation passed to Executor.Execute, as in
// "ollama.embed" or "neo4j.execute".
const (
	BackendOllama = "ollama"
	BackendNeo4j  = "neo4j"
	BackendNATS   = "nats"
)

// Policy is the retry and breaker tuning of one backend. Zero fields inherit
// the base values of Config.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// Config holds the base policy and per-backend overrides. The base retries
// once: a failed model or graph call surfaces as a fault of the request.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32

	Backends map[string]Policy

	// OnStateChange, when set, is told about every breaker transition.
	OnStateChange func(operation, from, to string)
}

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    1,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,

		Backends: map[string]Policy{
			// interaction records are published after the reply is built
			BackendNATS: {MaxAttempts: 3, InitialBackoff: 50 * time.Millisecond},
		},
	}
}

// Backend returns the backend prefix of an operation name.
func Backend(operation string) string {
	backend, _, _ := strings.Cut(operation, ".")
	return backend
}

// PolicyFor resolves the effective policy of an operation.
func (c Config) PolicyFor(operation string) Policy {
	base := c.normalize()
	out := Policy{
		MaxAttempts:             base.RetryMaxAttempts,
		InitialBackoff:          base.RetryInitialBackoff,
		MaxBackoff:              base.RetryMaxBackoff,
		Multiplier:              base.RetryMultiplier,
		BreakerMinRequests:      base.BreakerMinRequests,
		BreakerFailureRatio:     base.BreakerFailureRatio,
		BreakerOpenTimeout:      base.BreakerOpenTimeout,
		BreakerHalfOpenMaxCalls: base.BreakerHalfOpenMaxCalls,
	}

	override, ok := base.Backends[Backend(operation)]
	if !ok {
		return out
	}
	if override.MaxAttempts > 0 {
		out.MaxAttempts = override.MaxAttempts
	}
	if override.InitialBackoff > 0 {
		out.InitialBackoff = override.InitialBackoff
	}
	if override.MaxBackoff > 0 {
		out.MaxBackoff = override.MaxBackoff
	}
	if override.Multiplier >= 1.0 {
		out.Multiplier = override.Multiplier
	}
	if out.MaxBackoff < out.InitialBackoff {
		out.MaxBackoff = out.InitialBackoff
	}
	if override.BreakerMinRequests > 0 {
		out.BreakerMinRequests = override.BreakerMinRequests
	}
	if override.BreakerFailureRatio > 0 && override.BreakerFailureRatio <= 1 {
		out.BreakerFailureRatio = override.BreakerFailureRatio
	}
	if override.BreakerOpenTimeout > 0 {
		out.BreakerOpenTimeout = override.BreakerOpenTimeout
	}
	if override.BreakerHalfOpenMaxCalls > 0 {
		out.BreakerHalfOpenMaxCalls = override.BreakerHalfOpenMaxCalls
	}
	return out
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}
	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}
	return out
}
