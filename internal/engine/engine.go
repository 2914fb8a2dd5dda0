// Package engine runs multi-stage threat simulations: it walks a scenario's
// declared stages in order, builds the prompt for each stage from the
// committed outputs of earlier stages, routes generation through the
// orchestrator behind the safety gate, and records the run as an
// append-only stage log.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/threatsim/threatsim/internal/llm"
	"github.com/threatsim/threatsim/internal/prompt"
	"github.com/threatsim/threatsim/internal/safety"
	"github.com/threatsim/threatsim/internal/scenario"
	"github.com/threatsim/threatsim/internal/types"
)

// Engine executes threat scenarios. Safe for concurrent Execute calls;
// each run is tracked in the active set until it reaches a terminal state.
type Engine struct {
	builder      *prompt.Builder
	orchestrator *llm.Orchestrator
	gate         safety.Gate

	stageTimeout time.Duration
	maxStages    int
	logger       *slog.Logger
	tracer       trace.Tracer
	now          func() time.Time

	mu     sync.Mutex
	active map[types.ID]*activeRun
}

// activeRun is the engine-owned snapshot of one in-flight run. The
// executing goroutine is the single writer of the SimulationResult itself;
// concurrent observers only ever read this snapshot, under e.mu.
type activeRun struct {
	scenarioName string
	status       Status
	stages       int
	cancelled    bool
}

// ActiveSimulation is a point-in-time view of one in-flight run.
type ActiveSimulation struct {
	ID              types.ID `json:"id"`
	ScenarioName    string   `json:"scenario_name"`
	Status          Status   `json:"status"`
	StagesCompleted int      `json:"stages_completed"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer enables span emission around runs and stages.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithStageTimeout bounds the wall time of each stage.
func WithStageTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.stageTimeout = d
		}
	}
}

// WithMaxStages caps how many stages a scenario may declare.
func WithMaxStages(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxStages = n
		}
	}
}

// NewEngine creates a simulation engine.
func NewEngine(builder *prompt.Builder, orchestrator *llm.Orchestrator, gate safety.Gate, opts ...Option) *Engine {
	e := &Engine{
		builder:      builder,
		orchestrator: orchestrator,
		gate:         gate,
		stageTimeout: 2 * time.Minute,
		maxStages:    10,
		logger:       slog.Default(),
		now:          time.Now,
		active:       make(map[types.ID]*activeRun),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a scenario to completion. The only error path is upfront
// validation; every failure after the run starts is recorded on the
// returned result instead of escaping as an error. Cancellation is
// cooperative at stage boundaries: stages already committed stay committed.
func (e *Engine) Execute(ctx context.Context, sc *scenario.ThreatScenario) (*SimulationResult, error) {
	if sc == nil {
		return nil, types.NewError(types.SCENARIO_VALIDATION_FAILED, "scenario cannot be nil")
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if len(sc.Stages) > e.maxStages {
		return nil, types.NewError(types.SCENARIO_VALIDATION_FAILED,
			"scenario declares more stages than the engine allows")
	}

	result := newResult(sc, e.now())

	e.register(result.ID, sc.Name)
	defer e.unregister(result.ID)

	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "engine.execute",
			trace.WithAttributes(
				attribute.String("simulation_id", result.ID.String()),
				attribute.String("threat_type", sc.ThreatType.String()),
				attribute.Int("stages", len(sc.Stages))))
		defer span.End()
	}

	result.transition(StatusRunning)
	e.trackProgress(result.ID, StatusRunning, 0)
	e.logger.Info("simulation started",
		"simulation_id", result.ID,
		"scenario", sc.Name,
		"stages", len(sc.Stages))

	for i := range sc.Stages {
		// Cancellation is honored between stages, never mid-generation:
		// both the caller's context and a Cancel request are checked here,
		// and an in-flight provider call is left to finish on its own.
		if err := ctx.Err(); err != nil {
			return e.cancelled(result, err), nil
		}
		if e.cancelRequested(result.ID) {
			return e.cancelled(result, nil), nil
		}

		stage, err := e.runStage(ctx, sc, result, i)
		if err != nil {
			// A caller cancellation that surfaced through the provider call
			// is still a cancellation, not a stage failure.
			if ctx.Err() != nil && errors.Is(err, context.Canceled) {
				return e.cancelled(result, err), nil
			}
			result.fail(err.Error(), e.now())
			e.logger.Error("simulation failed",
				"simulation_id", result.ID,
				"stage", sc.Stages[i].Type,
				"error", err)
			return result, nil
		}
		result.commitStage(stage)
		e.trackProgress(result.ID, result.Status, len(result.Stages))
	}

	result.complete(e.now())
	e.logger.Info("simulation completed",
		"simulation_id", result.ID,
		"stages", len(result.Stages),
		"duration", result.Duration())
	return result, nil
}

// runStage builds, checks, generates, and re-checks one stage.
func (e *Engine) runStage(ctx context.Context, sc *scenario.ThreatScenario, result *SimulationResult, index int) (SimulationStage, error) {
	stageSpec := sc.Stages[index]
	start := e.now()

	stageCtx := ctx
	if e.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, e.stageTimeout)
		defer cancel()
	}

	if e.tracer != nil {
		var span trace.Span
		stageCtx, span = e.tracer.Start(stageCtx, "engine.stage",
			trace.WithAttributes(
				attribute.Int("index", index),
				attribute.String("type", stageSpec.Type.String())))
		defer span.End()
	}

	built, err := e.builder.Build(prompt.BuildRequest{
		Scenario:   sc,
		StageIndex: index,
		Prior:      priorStages(result),
		Variants:   sc.Parameters.VariantCount,
	})
	if err != nil {
		return SimulationStage{}, err
	}

	reqs := make([]llm.GenerateRequest, 0, len(built.Prompts))
	for _, p := range built.Prompts {
		checked, err := e.gate.PreCheck(stageCtx, safety.PromptInput{
			Prompt:      p,
			ContentType: built.ContentType,
			Scenario:    sc,
		})
		if err != nil {
			return SimulationStage{}, err
		}
		reqs = append(reqs, llm.GenerateRequest{
			Provider:    sc.Parameters.Provider,
			Model:       sc.Parameters.Model,
			Prompt:      checked,
			ContentType: built.ContentType,
			Temperature: sc.Parameters.Temperature,
			MaxTokens:   sc.Parameters.MaxTokens,
		})
	}

	var responses []*llm.Response
	if len(reqs) == 1 {
		resp, err := e.orchestrator.Generate(stageCtx, reqs[0])
		if err != nil {
			return SimulationStage{}, err
		}
		responses = []*llm.Response{resp}
	} else {
		responses, err = e.orchestrator.GenerateVariants(stageCtx, reqs)
		if err != nil {
			return SimulationStage{}, err
		}
	}

	for _, resp := range responses {
		if err := e.gate.PostCheck(stageCtx, resp); err != nil {
			return SimulationStage{}, err
		}
	}

	primary := responses[0]
	variants := make([]string, 0, len(responses)-1)
	for _, resp := range responses[1:] {
		variants = append(variants, resp.Content)
	}

	return SimulationStage{
		Type:        stageSpec.Type,
		ContentType: built.ContentType,
		Status:      StageOK,
		Content:     primary.Content,
		Variants:    variants,
		Provider:    primary.Provider,
		Model:       primary.Model,
		Usage:       primary.Usage,
		Safety:      primary.Safety,
		Cached:      primary.Cached,
		StartTime:   start,
		EndTime:     e.now(),
	}, nil
}

// priorStages exposes only committed stages to the context builder.
func priorStages(result *SimulationResult) []prompt.PriorStage {
	prior := make([]prompt.PriorStage, 0, len(result.Stages))
	for _, stage := range result.Stages {
		prior = append(prior, prompt.PriorStage{
			Type:    stage.Type,
			Content: stage.Content,
		})
	}
	return prior
}

// cancelled records a cancellation on the result and logs it.
func (e *Engine) cancelled(result *SimulationResult, cause error) *SimulationResult {
	result.fail(cancelReason(cause), e.now())
	e.logger.Warn("simulation cancelled",
		"simulation_id", result.ID,
		"stages_completed", len(result.Stages))
	return result
}

func cancelReason(cause error) string {
	if cause == nil {
		return types.NewError(types.SIMULATION_CANCELLED, "cancellation requested").Error()
	}
	return types.WrapError(types.SIMULATION_CANCELLED, "simulation cancelled before completion", cause).Error()
}

func (e *Engine) register(id types.ID, scenarioName string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active[id] = &activeRun{scenarioName: scenarioName, status: StatusCreated}
}

func (e *Engine) unregister(id types.ID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.active, id)
}

// trackProgress publishes the run's status and committed stage count to
// the snapshot concurrent observers read.
func (e *Engine) trackProgress(id types.ID, status Status, stages int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if run, ok := e.active[id]; ok {
		run.status = status
		run.stages = stages
	}
}

func (e *Engine) cancelRequested(id types.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	run, ok := e.active[id]
	return ok && run.cancelled
}

// ActiveSimulations lists in-flight runs. Completed runs drop out of the
// set unconditionally when Execute returns.
func (e *Engine) ActiveSimulations() []ActiveSimulation {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]ActiveSimulation, 0, len(e.active))
	for id, run := range e.active {
		out = append(out, ActiveSimulation{
			ID:              id,
			ScenarioName:    run.scenarioName,
			Status:          run.status,
			StagesCompleted: run.stages,
		})
	}
	return out
}

// Cancel requests cooperative cancellation of an active run. The request
// takes effect at the next stage boundary; a generation already in flight
// finishes or times out on its own. Returns false when the simulation is
// not in the active set.
func (e *Engine) Cancel(id types.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	run, ok := e.active[id]
	if !ok {
		return false
	}
	run.cancelled = true
	return true
}
