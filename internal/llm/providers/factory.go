package providers

import (
	"fmt"

	"github.com/threatsim/threatsim/internal/llm"
	"github.com/threatsim/threatsim/internal/types"
)

// New creates a provider from configuration, keyed by cfg.Name.
func New(cfg llm.ProviderConfig) (llm.Provider, error) {
	switch cfg.Name {
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "openai":
		return NewOpenAIProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	case "mock":
		return NewMockProvider(nil), nil
	default:
		return nil, types.NewError(types.LLM_PROVIDER_INVALID_INPUT,
			fmt.Sprintf("unknown provider: %q", cfg.Name))
	}
}
