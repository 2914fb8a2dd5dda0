package llm

import (
	"context"
	"time"

	"github.com/threatsim/threatsim/internal/prompt"
	"github.com/threatsim/threatsim/internal/types"
)

// Role identifies the author of a message in a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a completion conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// CompletionRequest is the provider-level request shape.
type CompletionRequest struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	Temperature   float64   `json:"temperature,omitempty"`
	MaxTokens     int       `json:"max_tokens,omitempty"`
	TopP          float64   `json:"top_p,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

// TokenUsage reports token consumption for one completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is what a provider returns for one request.
type CompletionResponse struct {
	Content      string     `json:"content"`
	Model        string     `json:"model"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        TokenUsage `json:"usage"`
}

// Provider is the unified abstraction over LLM services (Anthropic, OpenAI,
// local models). Complete is blocking; cancellation flows through ctx.
type Provider interface {
	// Name returns the provider name (e.g. "anthropic", "openai", "ollama").
	Name() string

	// Models returns metadata about the models this provider serves.
	Models(ctx context.Context) ([]ModelInfo, error)

	// Complete sends a completion request and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Health checks provider connectivity.
	Health(ctx context.Context) types.HealthStatus
}

// ModelInfo contains metadata about an LLM model.
type ModelInfo struct {
	Name          string `json:"name"`
	ContextWindow int    `json:"context_window"`
	MaxOutput     int    `json:"max_output"`
}

// ProviderConfig carries per-provider connection settings.
type ProviderConfig struct {
	Name         string  `json:"name" mapstructure:"name"`
	APIKey       string  `json:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL      string  `json:"base_url,omitempty" mapstructure:"base_url"`
	DefaultModel string  `json:"default_model,omitempty" mapstructure:"default_model"`
	Temperature  float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxTokens    int     `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
}

// Capabilities describes what a registered provider can serve. Selection
// prefers lower Priority values; unavailable providers are skipped.
type Capabilities struct {
	ContentTypes []prompt.ContentType `json:"content_types,omitempty"`
	MaxTokens    int                  `json:"max_tokens,omitempty"`
	LatencyHint  time.Duration        `json:"latency_hint,omitempty"`
	Priority     int                  `json:"priority"`
	Available    bool                 `json:"available"`
}

// Supports reports whether the capability set covers a content type. An
// empty ContentTypes list means the provider serves everything.
func (c Capabilities) Supports(ct prompt.ContentType) bool {
	if len(c.ContentTypes) == 0 {
		return true
	}
	for _, t := range c.ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}
