package llm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateGate enforces per-provider token bucket rate limits with a bounded
// wait. Exceeding the wait bound surfaces as a retryable rate limit error
// rather than blocking the caller indefinitely.
type RateGate struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
	maxWait  time.Duration
}

// NewRateGate creates a rate gate issuing rps tokens per second with the
// given burst, waiting at most maxWait for a token.
func NewRateGate(rps float64, burst int, maxWait time.Duration) *RateGate {
	return &RateGate{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		maxWait:  maxWait,
	}
}

func (g *RateGate) limiter(providerName string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[providerName]
	if !ok {
		l = rate.NewLimiter(g.rps, g.burst)
		g.limiters[providerName] = l
	}
	return l
}

// Wait blocks until the provider's limiter grants a token, the bounded wait
// elapses, or ctx is cancelled. A wait timeout returns a retryable rate
// limit error; caller cancellation passes through unchanged.
func (g *RateGate) Wait(ctx context.Context, providerName string) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	if err := g.limiter(providerName).Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return NewRateLimitError(providerName)
	}
	return nil
}
