package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threatsim/threatsim/internal/prompt"
	"github.com/threatsim/threatsim/internal/types"
)

func noSleep() OrchestratorOption {
	return withSleep(func(ctx context.Context, d time.Duration) error { return nil })
}

func testRequest() GenerateRequest {
	return GenerateRequest{
		ContentType: prompt.ContentEmailPhishing,
		Prompt: prompt.RenderedPrompt{
			System: "system prompt",
			User:   "user prompt",
		},
		Temperature: 0.7,
		MaxTokens:   1024,
	}
}

func registryWith(t *testing.T, providers ...*fakeProvider) *Registry {
	t.Helper()
	r := NewRegistry()
	for i, p := range providers {
		require.NoError(t, r.Register(p, Capabilities{Priority: i, Available: true}))
	}
	return r
}

func TestOrchestrator_GenerateSuccess(t *testing.T) {
	p := newFakeProvider("primary", fakeOutcome{content: "generated email"})
	o := NewOrchestrator(registryWith(t, p), noSleep())

	resp, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "generated email", resp.Content)
	assert.Equal(t, "primary", resp.Provider)
	assert.False(t, resp.Cached)
	assert.Equal(t, 1, p.callCount())
}

func TestOrchestrator_RetriesTransientErrors(t *testing.T) {
	p := newFakeProvider("primary",
		fakeOutcome{err: NewTransientError("primary", nil)},
		fakeOutcome{err: NewTransientError("primary", nil)},
		fakeOutcome{content: "third time lucky"},
	)
	o := NewOrchestrator(registryWith(t, p), noSleep())

	resp, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "third time lucky", resp.Content)
	assert.Equal(t, 3, p.callCount())
}

func TestOrchestrator_RetryBudgetExhausted(t *testing.T) {
	p := newFakeProvider("primary", fakeOutcome{err: NewTransientError("primary", nil)})
	o := NewOrchestrator(registryWith(t, p), noSleep(),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond}))

	_, err := o.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, types.LLM_NO_PROVIDER_AVAILABLE, types.CodeOf(err))
	assert.Equal(t, 3, p.callCount())
}

func TestOrchestrator_FatalErrorNoRetryNoFallback(t *testing.T) {
	primary := newFakeProvider("primary", fakeOutcome{err: NewFatalError("primary", "content filtered", nil)})
	backup := newFakeProvider("backup", fakeOutcome{content: "should not be used"})
	o := NewOrchestrator(registryWith(t, primary, backup), noSleep())

	_, err := o.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, types.LLM_PROVIDER_FATAL, types.CodeOf(err))
	assert.Equal(t, 1, primary.callCount())
	assert.Equal(t, 0, backup.callCount())
}

func TestOrchestrator_FallbackResetsAttempts(t *testing.T) {
	primary := newFakeProvider("primary", fakeOutcome{err: NewTransientError("primary", nil)})
	backup := newFakeProvider("backup",
		fakeOutcome{err: NewTransientError("backup", nil)},
		fakeOutcome{content: "from backup"},
	)
	o := NewOrchestrator(registryWith(t, primary, backup), noSleep())

	resp, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "from backup", resp.Content)
	assert.Equal(t, "backup", resp.Provider)
	// Full retry budget against the primary, fresh budget for the backup.
	assert.Equal(t, 3, primary.callCount())
	assert.Equal(t, 2, backup.callCount())
}

func TestOrchestrator_FallbackDepthBounds(t *testing.T) {
	first := newFakeProvider("a", fakeOutcome{err: NewTransientError("a", nil)})
	second := newFakeProvider("b", fakeOutcome{err: NewTransientError("b", nil)})
	third := newFakeProvider("c", fakeOutcome{content: "unreachable"})
	o := NewOrchestrator(registryWith(t, first, second, third), noSleep(),
		WithFallbackDepth(1))

	_, err := o.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, 0, third.callCount())
}

func TestOrchestrator_NonRetryableFallsBackWithoutRetry(t *testing.T) {
	primary := newFakeProvider("primary",
		fakeOutcome{err: types.NewError(types.LLM_PROVIDER_INVALID_INPUT, "bad request")})
	backup := newFakeProvider("backup", fakeOutcome{content: "from backup"})
	o := NewOrchestrator(registryWith(t, primary, backup), noSleep())

	resp, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "from backup", resp.Content)
	assert.Equal(t, 1, primary.callCount())
}

func TestOrchestrator_CacheHitSkipsProvider(t *testing.T) {
	p := newFakeProvider("primary", fakeOutcome{content: "cached content"})
	o := NewOrchestrator(registryWith(t, p), noSleep(),
		WithCache(NewCache(time.Minute)))

	first, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Content, second.Content)

	// Exactly one provider call across both generations.
	assert.Equal(t, 1, p.callCount())
}

func TestOrchestrator_CacheKeyedByRequest(t *testing.T) {
	p := newFakeProvider("primary", fakeOutcome{content: "a"}, fakeOutcome{content: "b"})
	o := NewOrchestrator(registryWith(t, p), noSleep(),
		WithCache(NewCache(time.Minute)))

	_, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	other := testRequest()
	other.Prompt.User = "a different user prompt"
	_, err = o.Generate(context.Background(), other)
	require.NoError(t, err)

	assert.Equal(t, 2, p.callCount())
}

func TestOrchestrator_CacheScopedToPreferredProvider(t *testing.T) {
	a := newFakeProvider("alpha", fakeOutcome{content: "from alpha"})
	b := newFakeProvider("beta", fakeOutcome{content: "from beta"})
	o := NewOrchestrator(registryWith(t, a, b), noSleep(),
		WithCache(NewCache(time.Minute)))

	reqA := testRequest()
	reqA.Provider = "alpha"
	first, err := o.Generate(context.Background(), reqA)
	require.NoError(t, err)
	assert.Equal(t, "from alpha", first.Content)

	// The same prompt with a different provider override must not be
	// served alpha's cached response.
	reqB := testRequest()
	reqB.Provider = "beta"
	second, err := o.Generate(context.Background(), reqB)
	require.NoError(t, err)
	assert.Equal(t, "from beta", second.Content)
	assert.False(t, second.Cached)
	assert.Equal(t, 1, a.callCount())
	assert.Equal(t, 1, b.callCount())
}

func TestOrchestrator_RateGateBoundedWait(t *testing.T) {
	p := newFakeProvider("primary", fakeOutcome{content: "never generated"})
	// Burst of zero never grants a token, so every wait fails fast.
	o := NewOrchestrator(registryWith(t, p), noSleep(),
		WithRateGate(NewRateGate(1, 0, 10*time.Millisecond)),
		WithFallbackDepth(0))

	_, err := o.Generate(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, 0, p.callCount())
}

func TestOrchestrator_RateGateAllowsWithinBudget(t *testing.T) {
	p := newFakeProvider("primary", fakeOutcome{content: "ok"})
	o := NewOrchestrator(registryWith(t, p), noSleep(),
		WithRateGate(NewRateGate(100, 10, time.Second)))

	resp, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestOrchestrator_ContextCancellation(t *testing.T) {
	p := newFakeProvider("primary", fakeOutcome{content: "unused"})
	o := NewOrchestrator(registryWith(t, p), noSleep())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Generate(ctx, testRequest())
	require.ErrorIs(t, err, context.Canceled)
}

func TestOrchestrator_GenerateVariantsPreservesOrder(t *testing.T) {
	p := newFakeProvider("primary")
	o := NewOrchestrator(registryWith(t, p), noSleep())

	reqs := make([]GenerateRequest, 3)
	for i := range reqs {
		reqs[i] = testRequest()
	}

	responses, err := o.GenerateVariants(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, responses, 3)
	for _, resp := range responses {
		require.NotNil(t, resp)
		assert.Equal(t, "default", resp.Content)
	}
	assert.Equal(t, 3, p.callCount())
}

func TestOrchestrator_GenerateVariantsPropagatesError(t *testing.T) {
	p := newFakeProvider("primary", fakeOutcome{err: NewFatalError("primary", "filtered", nil)})
	o := NewOrchestrator(registryWith(t, p), noSleep())

	_, err := o.GenerateVariants(context.Background(), []GenerateRequest{testRequest(), testRequest()})
	require.Error(t, err)
	assert.Equal(t, types.LLM_PROVIDER_FATAL, types.CodeOf(err))
}

func TestCache_Expiry(t *testing.T) {
	cache := NewCache(time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	key := CacheKey(testRequest())
	cache.Put(key, &Response{Content: "stored"})
	require.NotNil(t, cache.Get(key))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, cache.Get(key))
	assert.Equal(t, 0, cache.Len())
}

func TestIsRetryableAndIsFatal(t *testing.T) {
	assert.True(t, IsRetryable(NewRateLimitError("p")))
	assert.True(t, IsRetryable(NewTransientError("p", nil)))
	assert.True(t, IsRetryable(NewTimeoutError("slow")))
	assert.False(t, IsRetryable(NewAuthError("p", nil)))
	assert.False(t, IsRetryable(nil))

	assert.True(t, IsFatal(NewAuthError("p", nil)))
	assert.True(t, IsFatal(NewFatalError("p", "filtered", nil)))
	assert.False(t, IsFatal(NewRateLimitError("p")))
}

func TestTranslateError(t *testing.T) {
	assert.Equal(t, types.LLM_PROVIDER_UNAUTHORIZED,
		types.CodeOf(TranslateError("p", errAs("invalid api key"))))
	assert.Equal(t, types.LLM_PROVIDER_RATE_LIMITED,
		types.CodeOf(TranslateError("p", errAs("429 too many requests"))))
	assert.Equal(t, types.LLM_TIMEOUT_EXCEEDED,
		types.CodeOf(TranslateError("p", errAs("context deadline exceeded"))))
	assert.Equal(t, types.LLM_PROVIDER_FATAL,
		types.CodeOf(TranslateError("p", errAs("flagged by content filter"))))
	assert.Equal(t, types.LLM_PROVIDER_TRANSIENT,
		types.CodeOf(TranslateError("p", errAs("something else went wrong"))))

	// Already-classified errors pass through untouched.
	original := NewRateLimitError("p")
	assert.Same(t, original, TranslateError("p", original).(*types.SimError))

	// Context errors pass through so cancellation never reads as a
	// retryable provider failure.
	assert.Equal(t, context.Canceled, TranslateError("p", context.Canceled))
	assert.Equal(t, context.DeadlineExceeded, TranslateError("p", context.DeadlineExceeded))

	assert.NoError(t, TranslateError("p", nil))
}

type stringError string

func (e stringError) Error() string { return string(e) }

func errAs(msg string) error { return stringError(msg) }
