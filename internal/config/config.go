// Package config defines the threatsim configuration model: providers,
// retry and rate limit settings, caching, safety, and engine limits.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/threatsim/threatsim/internal/llm"
	"github.com/threatsim/threatsim/internal/types"
)

// Config is the root configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Safety  SafetyConfig  `mapstructure:"safety" yaml:"safety"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LLMConfig configures providers and orchestration behavior.
type LLMConfig struct {
	DefaultProvider string               `mapstructure:"default_provider" yaml:"default_provider"`
	Providers       []llm.ProviderConfig `mapstructure:"providers" yaml:"providers"`
	Retry           RetryConfig          `mapstructure:"retry" yaml:"retry"`
	RateLimit       RateLimitConfig      `mapstructure:"rate_limit" yaml:"rate_limit"`
	Cache           CacheConfig          `mapstructure:"cache" yaml:"cache"`
	FallbackDepth   int                  `mapstructure:"fallback_depth" yaml:"fallback_depth" validate:"min=0,max=10"`
}

// RetryConfig governs per-provider retry behavior.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts" validate:"min=1,max=10"`
	BaseBackoff time.Duration `mapstructure:"base_backoff" yaml:"base_backoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
}

// RateLimitConfig governs per-provider token buckets.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled" yaml:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"min=0"`
	Burst             int           `mapstructure:"burst" yaml:"burst" validate:"min=0"`
	MaxWait           time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
}

// CacheConfig governs the response cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// SafetyConfig governs the safety gate.
type SafetyConfig struct {
	MinContentLength int `mapstructure:"min_content_length" yaml:"min_content_length" validate:"min=0"`
}

// EngineConfig governs simulation execution limits.
type EngineConfig struct {
	MaxStages    int           `mapstructure:"max_stages" yaml:"max_stages" validate:"min=1,max=50"`
	StageTimeout time.Duration `mapstructure:"stage_timeout" yaml:"stage_timeout"`
}

// LoggingConfig governs log output.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			DefaultProvider: "anthropic",
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseBackoff: 100 * time.Millisecond,
				MaxBackoff:  2 * time.Second,
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 2,
				Burst:             4,
				MaxWait:           30 * time.Second,
			},
			Cache: CacheConfig{
				Enabled: true,
				TTL:     15 * time.Minute,
			},
			FallbackDepth: 2,
		},
		Safety: SafetyConfig{
			MinContentLength: 50,
		},
		Engine: EngineConfig{
			MaxStages:    10,
			StageTimeout: 2 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks structural constraints plus cross-field rules the tag
// language cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "configuration failed validation", err)
	}

	if c.LLM.Retry.BaseBackoff > c.LLM.Retry.MaxBackoff && c.LLM.Retry.MaxBackoff > 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"retry base_backoff cannot exceed max_backoff")
	}
	if c.LLM.RateLimit.Enabled && c.LLM.RateLimit.RequestsPerSecond <= 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"rate limiting enabled with non-positive requests_per_second")
	}

	seen := make(map[string]bool, len(c.LLM.Providers))
	for _, p := range c.LLM.Providers {
		if p.Name == "" {
			return types.NewError(types.CONFIG_VALIDATION_FAILED, "provider with empty name")
		}
		if seen[p.Name] {
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				"duplicate provider "+p.Name)
		}
		seen[p.Name] = true
	}
	if c.LLM.DefaultProvider != "" && len(c.LLM.Providers) > 0 && !seen[c.LLM.DefaultProvider] {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"default_provider "+c.LLM.DefaultProvider+" is not a configured provider")
	}

	return nil
}
