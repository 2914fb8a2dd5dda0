package main

import (
	"log/slog"

	"github.com/threatsim/threatsim/internal/config"
	"github.com/threatsim/threatsim/internal/engine"
	"github.com/threatsim/threatsim/internal/llm"
	"github.com/threatsim/threatsim/internal/llm/providers"
	"github.com/threatsim/threatsim/internal/prompt"
	"github.com/threatsim/threatsim/internal/safety"
)

// runtime bundles the wired simulation stack.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *llm.Registry
	engine   *engine.Engine
	library  *prompt.Library
}

// buildRuntime wires providers, orchestrator, safety gate, template
// library, and engine from configuration.
func buildRuntime(cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	registry := llm.NewRegistry()
	for i, pcfg := range cfg.LLM.Providers {
		provider, err := providers.New(pcfg)
		if err != nil {
			logger.Warn("skipping provider", "provider", pcfg.Name, "error", err)
			continue
		}
		caps := llm.Capabilities{
			MaxTokens: pcfg.MaxTokens,
			Priority:  i,
			Available: true,
		}
		if err := registry.Register(provider, caps); err != nil {
			return nil, err
		}
	}

	orchOpts := []llm.OrchestratorOption{
		llm.WithLogger(logger),
		llm.WithRetryPolicy(llm.RetryPolicy{
			MaxAttempts: cfg.LLM.Retry.MaxAttempts,
			BaseBackoff: cfg.LLM.Retry.BaseBackoff,
			MaxBackoff:  cfg.LLM.Retry.MaxBackoff,
		}),
		llm.WithFallbackDepth(cfg.LLM.FallbackDepth),
	}
	if cfg.LLM.Cache.Enabled {
		orchOpts = append(orchOpts, llm.WithCache(llm.NewCache(cfg.LLM.Cache.TTL)))
	}
	if cfg.LLM.RateLimit.Enabled {
		orchOpts = append(orchOpts, llm.WithRateGate(llm.NewRateGate(
			cfg.LLM.RateLimit.RequestsPerSecond,
			cfg.LLM.RateLimit.Burst,
			cfg.LLM.RateLimit.MaxWait,
		)))
	}
	orchestrator := llm.NewOrchestrator(registry, orchOpts...)

	library := prompt.NewLibrary()
	if err := prompt.RegisterBuiltins(library); err != nil {
		return nil, err
	}
	builder := prompt.NewBuilder(library)

	checks := []safety.Check{
		safety.NewFramingCheck(),
		safety.NewProhibitedContentCheck(),
		safety.NewPlaceholderCheck(),
		safety.NewMinLengthCheck(cfg.Safety.MinContentLength),
		safety.NewMarkerCheck(),
	}
	gate := safety.NewPipeline(checks...).WithLogger(logger)

	eng := engine.NewEngine(builder, orchestrator, gate,
		engine.WithLogger(logger),
		engine.WithStageTimeout(cfg.Engine.StageTimeout),
		engine.WithMaxStages(cfg.Engine.MaxStages),
	)

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		engine:   eng,
		library:  library,
	}, nil
}
