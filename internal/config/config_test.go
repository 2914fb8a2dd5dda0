package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threatsim/threatsim/internal/llm"
	"github.com/threatsim/threatsim/internal/types"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidate_BackoffOrdering(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Retry.BaseBackoff = 5 * time.Second
	cfg.LLM.Retry.MaxBackoff = time.Second

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
}

func TestValidate_RateLimitNeedsPositiveRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.RateLimit.Enabled = true
	cfg.LLM.RateLimit.RequestsPerSecond = 0

	require.Error(t, cfg.Validate())
}

func TestValidate_DuplicateProviders(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Providers = []llm.ProviderConfig{
		{Name: "anthropic"},
		{Name: "anthropic"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate provider")
}

func TestValidate_DefaultProviderMustBeConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.DefaultProvider = "openai"
	cfg.LLM.Providers = []llm.ProviderConfig{{Name: "anthropic"}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_provider")
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"

	require.Error(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "threatsim.yaml")
	doc := `
llm:
  default_provider: mock
  fallback_depth: 1
  providers:
    - name: mock
  retry:
    max_attempts: 5
    base_backoff: 50ms
    max_backoff: 1s
  cache:
    enabled: true
    ttl: 5m
engine:
  max_stages: 6
  stage_timeout: 30s
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.LLM.DefaultProvider)
	assert.Equal(t, 5, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.LLM.Retry.BaseBackoff)
	assert.Equal(t, 5*time.Minute, cfg.LLM.Cache.TTL)
	assert.Equal(t, 6, cfg.Engine.MaxStages)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, 50, DefaultConfig().Safety.MinContentLength)
	assert.Equal(t, 50, cfg.Safety.MinContentLength)
}

func TestLoad_EnvInterpolation(t *testing.T) {
	t.Setenv("TEST_THREATSIM_KEY", "sk-test-123")

	dir := t.TempDir()
	path := filepath.Join(dir, "threatsim.yaml")
	doc := `
llm:
  default_provider: anthropic
  providers:
    - name: anthropic
      api_key: ${TEST_THREATSIM_KEY}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.LLM.Providers, 1)
	assert.Equal(t, "sk-test-123", cfg.LLM.Providers[0].APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestLoadWithDefaults_MissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}
