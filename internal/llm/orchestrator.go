package llm

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/threatsim/threatsim/internal/prompt"
	"github.com/threatsim/threatsim/internal/types"
)

// GenerateRequest asks the orchestrator for one piece of content.
type GenerateRequest struct {
	// Provider names the preferred provider; empty lets selection decide.
	Provider string

	// Model overrides the provider's default model when set.
	Model string

	Prompt      prompt.RenderedPrompt
	ContentType prompt.ContentType
	Temperature float64
	MaxTokens   int
}

// Response is the orchestration-level result of one generation.
type Response struct {
	Content        string            `json:"content"`
	Provider       string            `json:"provider"`
	Model          string            `json:"model"`
	Usage          TokenUsage        `json:"usage"`
	GenerationTime time.Duration     `json:"generation_time"`
	Cached         bool              `json:"cached"`
	Safety         map[string]string `json:"safety,omitempty"`
}

// Orchestrator routes generation requests through provider selection,
// response caching, rate limiting, per-provider retry, and ordered
// fallback. Retry attempts reset for each provider in the fallback chain;
// fatal errors abort immediately with no fallback.
type Orchestrator struct {
	registry      *Registry
	cache         *Cache
	rateGate      *RateGate
	retry         RetryPolicy
	fallbackDepth int
	logger        *slog.Logger
	tracer        trace.Tracer
	sleep         func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator creates an orchestrator over a provider registry.
func NewOrchestrator(registry *Registry, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		registry:      registry,
		retry:         DefaultRetryPolicy(),
		fallbackDepth: 2,
		logger:        slog.Default(),
		sleep:         ctxSleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ctxSleep waits for d or until ctx is cancelled.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Generate produces one completion. Candidate providers are tried in
// selection order up to the fallback depth; within each candidate the
// retry policy governs attempts with exponential backoff. A cache hit
// returns immediately without touching providers or rate limiters.
func (o *Orchestrator) Generate(ctx context.Context, req GenerateRequest) (*Response, error) {
	if o.tracer != nil {
		var span trace.Span
		ctx, span = o.tracer.Start(ctx, "llm.generate",
			trace.WithAttributes(
				attribute.String("content_type", string(req.ContentType)),
				attribute.String("preferred_provider", req.Provider),
			))
		defer span.End()
	}

	var cacheKey string
	if o.cache != nil {
		cacheKey = CacheKey(req)
		if resp := o.cache.Get(cacheKey); resp != nil {
			o.logger.Debug("cache hit", "content_type", req.ContentType)
			return resp, nil
		}
	}

	candidates, err := o.registry.Select(req.ContentType, req.Provider)
	if err != nil {
		return nil, err
	}

	maxCandidates := o.fallbackDepth + 1
	if maxCandidates > len(candidates) {
		maxCandidates = len(candidates)
	}

	var lastErr error
	for depth := 0; depth < maxCandidates; depth++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		cand := candidates[depth]
		if depth > 0 {
			o.logger.Info("falling back to next provider",
				"provider", cand.Provider.Name(),
				"depth", depth,
				"cause", lastErr)
		}

		resp, err := o.tryProvider(ctx, cand, req)
		if err == nil {
			if o.cache != nil {
				o.cache.Put(cacheKey, resp)
			}
			return resp, nil
		}

		if IsFatal(err) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}

	return nil, types.WrapError(types.LLM_NO_PROVIDER_AVAILABLE,
		"all candidate providers exhausted", lastErr)
}

// tryProvider runs the full retry loop against one provider. Each attempt
// passes the rate gate first; a bounded-wait timeout counts as a retryable
// attempt failure.
func (o *Orchestrator) tryProvider(ctx context.Context, cand Candidate, req GenerateRequest) (*Response, error) {
	providerName := cand.Provider.Name()
	creq := o.buildCompletionRequest(cand, req)

	var lastErr error
	for attempt := 1; attempt <= o.retry.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if o.rateGate != nil {
			if err := o.rateGate.Wait(ctx, providerName); err != nil {
				lastErr = err
				if !IsRetryable(err) {
					return nil, err
				}
				if err := o.backoff(ctx, attempt); err != nil {
					return nil, err
				}
				continue
			}
		}

		start := time.Now()
		cresp, err := cand.Provider.Complete(ctx, creq)
		if err == nil {
			return &Response{
				Content:        cresp.Content,
				Provider:       providerName,
				Model:          cresp.Model,
				Usage:          cresp.Usage,
				GenerationTime: time.Since(start),
			}, nil
		}

		err = TranslateError(providerName, err)
		lastErr = err

		o.logger.Warn("completion attempt failed",
			"provider", providerName,
			"attempt", attempt,
			"error", err)

		if IsFatal(err) || !IsRetryable(err) {
			return nil, err
		}
		if attempt < o.retry.MaxAttempts {
			if err := o.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	return nil, lastErr
}

func (o *Orchestrator) backoff(ctx context.Context, attempt int) error {
	return o.sleep(ctx, o.retry.backoffFor(attempt))
}

func (o *Orchestrator) buildCompletionRequest(cand Candidate, req GenerateRequest) CompletionRequest {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = cand.Capabilities.MaxTokens
	}
	return CompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   maxTokens,
		Messages: []Message{
			NewSystemMessage(req.Prompt.System),
			NewUserMessage(req.Prompt.User),
		},
	}
}

// GenerateVariants runs one Generate per request concurrently and returns
// responses in request order. The first error cancels the remaining
// generations.
func (o *Orchestrator) GenerateVariants(ctx context.Context, reqs []GenerateRequest) ([]*Response, error) {
	responses := make([]*Response, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			resp, err := o.Generate(gctx, req)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}
