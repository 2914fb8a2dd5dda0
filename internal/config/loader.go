package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/threatsim/threatsim/internal/types"
)

// Load reads configuration from a YAML file, layering file values over the
// defaults. Strings support ${VAR} environment interpolation so API keys
// stay out of config files.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED, "failed to unmarshal config", err)
	}

	interpolateConfig(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithDefaults behaves like Load but returns the defaults when the
// file does not exist.
func LoadWithDefaults(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// interpolateString replaces ${VAR} with the environment value. Unset
// variables interpolate to the empty string.
func interpolateString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(name)
	})
}

// interpolateConfig applies env interpolation to the string fields that
// plausibly hold secrets or endpoints.
func interpolateConfig(cfg *Config) {
	for i := range cfg.LLM.Providers {
		cfg.LLM.Providers[i].APIKey = interpolateString(cfg.LLM.Providers[i].APIKey)
		cfg.LLM.Providers[i].BaseURL = interpolateString(cfg.LLM.Providers[i].BaseURL)
	}
}
