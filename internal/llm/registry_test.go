package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threatsim/threatsim/internal/prompt"
	"github.com/threatsim/threatsim/internal/types"
)

// fakeProvider is a scriptable in-package provider for orchestration tests.
type fakeProvider struct {
	mu       sync.Mutex
	name     string
	outcomes []fakeOutcome
	calls    int
	healthy  bool
}

type fakeOutcome struct {
	content string
	err     error
}

func newFakeProvider(name string, outcomes ...fakeOutcome) *fakeProvider {
	return &fakeProvider{name: name, outcomes: outcomes, healthy: true}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Models(ctx context.Context) ([]ModelInfo, error) {
	return []ModelInfo{{Name: "fake-model"}}, nil
}

func (p *fakeProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.calls
	p.calls++
	if idx >= len(p.outcomes) {
		if len(p.outcomes) == 0 {
			return &CompletionResponse{Content: "default", Model: req.Model}, nil
		}
		idx = len(p.outcomes) - 1
	}

	outcome := p.outcomes[idx]
	if outcome.err != nil {
		return nil, outcome.err
	}
	return &CompletionResponse{Content: outcome.content, Model: req.Model}, nil
}

func (p *fakeProvider) Health(ctx context.Context) types.HealthStatus {
	if p.healthy {
		return types.Healthy("")
	}
	return types.Unhealthy("down")
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	p := newFakeProvider("anthropic")

	require.NoError(t, r.Register(p, Capabilities{Available: true}))

	got, err := r.Get("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", got.Name())
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("anthropic"), Capabilities{Available: true}))

	err := r.Register(newFakeProvider("anthropic"), Capabilities{Available: true})
	require.Error(t, err)
	assert.Equal(t, types.LLM_PROVIDER_EXISTS, types.CodeOf(err))
}

func TestRegistry_RegisterNil(t *testing.T) {
	r := NewRegistry()
	err := r.Register(nil, Capabilities{})
	require.Error(t, err)
	assert.Equal(t, types.LLM_PROVIDER_INVALID_INPUT, types.CodeOf(err))
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope")
	require.Error(t, err)
	assert.Equal(t, types.LLM_PROVIDER_NOT_FOUND, types.CodeOf(err))
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("openai"), Capabilities{Available: true}))
	require.NoError(t, r.Register(newFakeProvider("anthropic"), Capabilities{Available: true}))

	assert.Equal(t, []string{"anthropic", "openai"}, r.List())
}

func TestRegistry_SelectOrdersByPriority(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("slow"), Capabilities{Priority: 5, Available: true}))
	require.NoError(t, r.Register(newFakeProvider("fast"), Capabilities{Priority: 1, Available: true}))

	candidates, err := r.Select(prompt.ContentEmailPhishing, "")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "fast", candidates[0].Provider.Name())
	assert.Equal(t, "slow", candidates[1].Provider.Name())
}

func TestRegistry_SelectPrefersNamedProvider(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("fast"), Capabilities{Priority: 1, Available: true}))
	require.NoError(t, r.Register(newFakeProvider("slow"), Capabilities{Priority: 5, Available: true}))

	candidates, err := r.Select(prompt.ContentEmailPhishing, "slow")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "slow", candidates[0].Provider.Name())
}

func TestRegistry_SelectSkipsUnavailable(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("up"), Capabilities{Available: true}))
	require.NoError(t, r.Register(newFakeProvider("down"), Capabilities{Available: true}))
	require.NoError(t, r.SetAvailable("down", false))

	candidates, err := r.Select(prompt.ContentEmailPhishing, "down")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "up", candidates[0].Provider.Name())
}

func TestRegistry_SelectFiltersByContentType(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeProvider("email-only"), Capabilities{
		ContentTypes: []prompt.ContentType{prompt.ContentEmailPhishing},
		Available:    true,
	}))

	_, err := r.Select(prompt.ContentVoiceScript, "")
	require.Error(t, err)
	assert.Equal(t, types.LLM_NO_PROVIDER_AVAILABLE, types.CodeOf(err))

	candidates, err := r.Select(prompt.ContentEmailPhishing, "")
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestRegistry_SelectEmpty(t *testing.T) {
	r := NewRegistry()
	_, err := r.Select(prompt.ContentEmailPhishing, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, NewNoProviderError("")))
}

func TestRegistry_Health(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.Health(context.Background()).IsUnhealthy())

	up := newFakeProvider("up")
	require.NoError(t, r.Register(up, Capabilities{Available: true}))
	assert.True(t, r.Health(context.Background()).IsHealthy())

	down := newFakeProvider("down")
	down.healthy = false
	require.NoError(t, r.Register(down, Capabilities{Available: true}))
	assert.True(t, r.Health(context.Background()).IsDegraded())

	up.healthy = false
	assert.True(t, r.Health(context.Background()).IsUnhealthy())
}
