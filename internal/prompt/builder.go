package prompt

import (
	"fmt"

	"github.com/threatsim/threatsim/internal/scenario"
	"github.com/threatsim/threatsim/internal/types"
)

// BuildRequest describes one stage's prompt construction.
type BuildRequest struct {
	Scenario   *scenario.ThreatScenario
	StageIndex int

	// Prior holds the committed outputs of strictly earlier stages, in
	// commit order. The builder never sees uncommitted or later stages.
	Prior []PriorStage

	// Custom parameters override scenario defaults where keys collide.
	Custom map[string]any

	// Variants requests variation expansion (1..MaxVariants, default 1).
	Variants int
}

// BuildResult carries the rendered prompts for one stage. Prompts[0] is the
// base rendering; any further entries are variation expansions.
type BuildResult struct {
	Prompts     []RenderedPrompt
	ContentType ContentType
	Context     *Context
}

// Builder merges scenario data, prior stage outputs, and variation
// parameters into rendered prompts. Deterministic given identical inputs.
type Builder struct {
	library    *Library
	strategies *StrategyTable
	renderer   *Renderer
}

// NewBuilder creates a Builder over the given template library with the
// default strategy table.
func NewBuilder(library *Library) *Builder {
	return &Builder{
		library:    library,
		strategies: NewStrategyTable(),
		renderer:   NewRenderer(),
	}
}

// WithStrategies replaces the strategy table.
func (b *Builder) WithStrategies(table *StrategyTable) *Builder {
	b.strategies = table
	return b
}

// Build produces the rendered (system, user) prompt pairs for one stage.
// Every declared template variable must resolve; an unresolved variable
// fails the build rather than substituting a blank.
func (b *Builder) Build(req BuildRequest) (*BuildResult, error) {
	sc := req.Scenario
	if sc == nil {
		return nil, types.NewError(types.SCENARIO_VALIDATION_FAILED, "scenario cannot be nil")
	}
	if req.StageIndex < 0 || req.StageIndex >= len(sc.Stages) {
		return nil, types.NewError(types.SCENARIO_VALIDATION_FAILED,
			fmt.Sprintf("stage index %d out of range (scenario has %d stages)", req.StageIndex, len(sc.Stages)))
	}

	stage := sc.Stages[req.StageIndex]
	strategy := b.strategies.Lookup(sc.ThreatType, stage.Type)

	tmpl, err := b.library.Get(strategy.ContentType)
	if err != nil {
		return nil, err
	}

	ctx := b.buildContext(sc, stage, strategy, req)
	variants := expandVariants(ctx, req.Variants)

	prompts := make([]RenderedPrompt, 0, len(variants))
	for _, variant := range variants {
		vars := variant.Vars()
		if len(variant.Variation) > 0 {
			vars["stage_directive"] = fmt.Sprintf("%s Variation emphasis: %s.",
				vars["stage_directive"], variationDescriptor(variant.Variation))
		}

		rendered, err := b.renderer.Render(tmpl, vars)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, rendered)
	}

	return &BuildResult{
		Prompts:     prompts,
		ContentType: strategy.ContentType,
		Context:     ctx,
	}, nil
}

// buildContext extracts scenario fields into a fresh context, then applies
// stage overrides and caller-supplied custom parameters on top.
func (b *Builder) buildContext(sc *scenario.ThreatScenario, stage scenario.StageSpec, strategy StageStrategy, req BuildRequest) *Context {
	directive := strategy.Directive
	if stage.Description != "" {
		directive = fmt.Sprintf("%s (%s)", directive, stage.Description)
	}

	ctx := &Context{
		ThreatType:        sc.ThreatType.String(),
		DeliveryVector:    sc.DeliveryVector,
		Difficulty:        sc.Difficulty,
		StageType:         stage.Type.String(),
		StageDirective:    directive,
		Role:              sc.TargetProfile.Role,
		Department:        sc.TargetProfile.Department,
		Seniority:         sc.TargetProfile.Seniority,
		TechnicalLevel:    sc.TargetProfile.TechnicalLevel,
		Industry:          sc.TargetProfile.Industry,
		Organization:      sc.TargetProfile.Organization,
		SecurityAwareness: sc.TargetProfile.SecurityAwareness,
		UrgencyLevel:      sc.BehavioralPattern.UrgencyLevel,
		Tone:              sc.BehavioralPattern.Tone,
		Triggers:          append([]string(nil), sc.BehavioralPattern.PsychologicalTriggers...),
		Tactics:           append([]string(nil), sc.BehavioralPattern.Tactics...),
		MITRETechniques:   append([]string(nil), sc.BehavioralPattern.MITRETechniques...),
		PriorStages:       append([]PriorStage(nil), req.Prior...),
		Custom:            make(map[string]any),
	}

	for k, v := range sc.Parameters.Custom {
		ctx.applyParam(k, v)
	}
	for k, v := range stage.Overrides {
		ctx.applyParam(k, v)
	}
	for k, v := range req.Custom {
		ctx.applyParam(k, v)
	}

	return ctx
}

// applyParam routes well-known keys onto context fields; everything else
// lands in the custom map.
func (c *Context) applyParam(key string, value any) {
	switch key {
	case "tone":
		if s, ok := value.(string); ok {
			c.Tone = s
			return
		}
	case "urgency_level":
		if n, ok := asInt(value); ok {
			c.UrgencyLevel = n
			return
		}
	case "organization", "company_name":
		if s, ok := value.(string); ok {
			c.Organization = s
			return
		}
	case "industry":
		if s, ok := value.(string); ok {
			c.Industry = s
			return
		}
	}
	c.Custom[key] = value
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
