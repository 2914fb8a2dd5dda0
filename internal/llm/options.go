package llm

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// RetryPolicy controls retries against a single provider. Attempts reset
// when the orchestrator falls back to the next provider.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy matches the documented defaults: three attempts with
// exponential backoff starting at 100ms, capped at 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 100 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
	}
}

// backoffFor computes the delay before retry attempt n (1-based: the delay
// taken after the n-th failed attempt).
func (p RetryPolicy) backoffFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseBackoff * (1 << (attempt - 1))
	if d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer enables span emission around generation.
func WithTracer(tracer trace.Tracer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tracer = tracer
	}
}

// WithRetryPolicy overrides the per-provider retry policy.
func WithRetryPolicy(policy RetryPolicy) OrchestratorOption {
	return func(o *Orchestrator) {
		if policy.MaxAttempts > 0 {
			o.retry = policy
		}
	}
}

// WithFallbackDepth bounds how many providers past the first candidate the
// orchestrator will try. Zero disables fallback.
func WithFallbackDepth(depth int) OrchestratorOption {
	return func(o *Orchestrator) {
		if depth >= 0 {
			o.fallbackDepth = depth
		}
	}
}

// WithCache enables the response cache.
func WithCache(cache *Cache) OrchestratorOption {
	return func(o *Orchestrator) {
		o.cache = cache
	}
}

// WithRateGate enables per-provider rate limiting.
func WithRateGate(gate *RateGate) OrchestratorOption {
	return func(o *Orchestrator) {
		o.rateGate = gate
	}
}

// withSleep replaces the backoff sleep, for tests.
func withSleep(sleep func(ctx context.Context, d time.Duration) error) OrchestratorOption {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}
