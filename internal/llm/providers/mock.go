package providers

import (
	"context"
	"sync"

	"github.com/threatsim/threatsim/internal/llm"
	"github.com/threatsim/threatsim/internal/types"
)

// MockProvider is a scriptable in-memory provider for tests and dry runs.
// Outcomes are consumed in order; once the script is exhausted the last
// outcome repeats. The zero-script mock echoes a canned response.
type MockProvider struct {
	mu       sync.Mutex
	name     string
	outcomes []MockOutcome
	calls    []llm.CompletionRequest
	next     int
}

// MockOutcome is one scripted Complete result.
type MockOutcome struct {
	Content string
	Err     error
}

// NewMockProvider creates a mock named "mock" with the given response
// contents, each returned in order as a successful completion.
func NewMockProvider(responses []string) *MockProvider {
	outcomes := make([]MockOutcome, 0, len(responses))
	for _, r := range responses {
		outcomes = append(outcomes, MockOutcome{Content: r})
	}
	return &MockProvider{name: "mock", outcomes: outcomes}
}

// NewScriptedProvider creates a named mock with explicit outcomes.
func NewScriptedProvider(name string, outcomes ...MockOutcome) *MockProvider {
	return &MockProvider{name: name, outcomes: outcomes}
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return p.name
}

// Models returns a single fake model.
func (p *MockProvider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	return []llm.ModelInfo{
		{Name: "mock-model", ContextWindow: 8192, MaxOutput: 4096},
	}, nil
}

// Complete returns the next scripted outcome and records the request.
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, req)

	if len(p.outcomes) == 0 {
		return &llm.CompletionResponse{
			Content: "mock response",
			Model:   req.Model,
		}, nil
	}

	outcome := p.outcomes[p.next]
	if p.next < len(p.outcomes)-1 {
		p.next++
	}

	if outcome.Err != nil {
		return nil, outcome.Err
	}
	return &llm.CompletionResponse{
		Content: outcome.Content,
		Model:   req.Model,
	}, nil
}

// Health always reports healthy.
func (p *MockProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("mock provider")
}

// Calls returns a copy of every recorded request.
func (p *MockProvider) Calls() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.CompletionRequest(nil), p.calls...)
}

// CallCount returns how many Complete calls the mock has served.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
