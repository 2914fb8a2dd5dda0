package safety

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/threatsim/threatsim/internal/llm"
	"github.com/threatsim/threatsim/internal/prompt"
	"github.com/threatsim/threatsim/internal/scenario"
	"github.com/threatsim/threatsim/internal/types"
)

// Action is what a check decided about the content it saw.
type Action string

const (
	// ActionAllow passes content through unchanged.
	ActionAllow Action = "allow"

	// ActionRewrite replaces the content before the next check sees it.
	ActionRewrite Action = "rewrite"

	// ActionAnnotate lets content through with a safety annotation attached.
	ActionAnnotate Action = "annotate"

	// ActionReject blocks the content and fails the check chain.
	ActionReject Action = "reject"
)

// PromptInput is what pre-generation checks inspect.
type PromptInput struct {
	Prompt      prompt.RenderedPrompt
	ContentType prompt.ContentType
	Scenario    *scenario.ThreatScenario
}

// Result is one check's verdict.
type Result struct {
	Action Action
	Reason string

	// ModifiedPrompt replaces the prompt on ActionRewrite from a prompt check.
	ModifiedPrompt *prompt.RenderedPrompt

	// ModifiedContent replaces response content on ActionRewrite from a
	// response check.
	ModifiedContent string

	// Annotations are merged into the response safety metadata.
	Annotations map[string]string
}

// Allow is the pass-through result.
func Allow() Result {
	return Result{Action: ActionAllow}
}

// Check inspects prompts before generation and responses after it. A check
// that only cares about one side returns Allow() for the other.
type Check interface {
	Name() string
	CheckPrompt(ctx context.Context, input PromptInput) (Result, error)
	CheckResponse(ctx context.Context, content string) (Result, error)
}

// Gate is the safety contract the engine holds: every prompt passes
// PreCheck before generation and every response passes PostCheck before it
// is committed to a stage.
type Gate interface {
	PreCheck(ctx context.Context, input PromptInput) (prompt.RenderedPrompt, error)
	PostCheck(ctx context.Context, resp *llm.Response) error
}

// Pipeline runs an ordered list of checks. Rejection short-circuits;
// rewrites feed the next check; annotations accumulate onto the response.
type Pipeline struct {
	checks []Check
	tracer trace.Tracer
	logger *slog.Logger
}

// NewPipeline creates a pipeline over the given checks, in order.
func NewPipeline(checks ...Check) *Pipeline {
	return &Pipeline{
		checks: checks,
		logger: slog.Default(),
	}
}

// WithTracer sets the OpenTelemetry tracer.
func (p *Pipeline) WithTracer(tracer trace.Tracer) *Pipeline {
	p.tracer = tracer
	return p
}

// WithLogger sets the logger.
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// PreCheck runs every check against the prompt. The returned prompt
// carries any rewrites; rejection surfaces as SAFETY_REJECTED.
func (p *Pipeline) PreCheck(ctx context.Context, input PromptInput) (prompt.RenderedPrompt, error) {
	current := input
	for _, check := range p.checks {
		var span trace.Span
		if p.tracer != nil {
			ctx, span = p.tracer.Start(ctx, "safety.precheck",
				trace.WithAttributes(attribute.String("check", check.Name())))
		}

		result, err := check.CheckPrompt(ctx, current)
		if span != nil {
			span.SetAttributes(
				attribute.String("action", string(result.Action)),
				attribute.String("reason", result.Reason))
			span.End()
		}
		if err != nil {
			return current.Prompt, err
		}

		switch result.Action {
		case ActionReject:
			return current.Prompt, types.NewError(types.SAFETY_REJECTED,
				"prompt rejected by "+check.Name()+": "+result.Reason)
		case ActionRewrite:
			if result.ModifiedPrompt != nil {
				current.Prompt = *result.ModifiedPrompt
			}
			p.logger.InfoContext(ctx, "safety check rewrote prompt",
				"check", check.Name(),
				"reason", result.Reason)
		case ActionAnnotate:
			p.logger.WarnContext(ctx, "safety check flagged prompt",
				"check", check.Name(),
				"reason", result.Reason)
		}
	}
	return current.Prompt, nil
}

// PostCheck runs every check against the generated response, in place.
// Annotations land in resp.Safety; rejection surfaces as SAFETY_REJECTED.
func (p *Pipeline) PostCheck(ctx context.Context, resp *llm.Response) error {
	if resp == nil {
		return nil
	}

	for _, check := range p.checks {
		var span trace.Span
		if p.tracer != nil {
			ctx, span = p.tracer.Start(ctx, "safety.postcheck",
				trace.WithAttributes(attribute.String("check", check.Name())))
		}

		result, err := check.CheckResponse(ctx, resp.Content)
		if span != nil {
			span.SetAttributes(
				attribute.String("action", string(result.Action)),
				attribute.String("reason", result.Reason))
			span.End()
		}
		if err != nil {
			return err
		}

		if len(result.Annotations) > 0 {
			if resp.Safety == nil {
				resp.Safety = make(map[string]string)
			}
			for k, v := range result.Annotations {
				resp.Safety[k] = v
			}
		}

		switch result.Action {
		case ActionReject:
			return types.NewError(types.SAFETY_REJECTED,
				"response rejected by "+check.Name()+": "+result.Reason)
		case ActionRewrite:
			if result.ModifiedContent != "" {
				resp.Content = result.ModifiedContent
			}
			p.logger.InfoContext(ctx, "safety check rewrote response",
				"check", check.Name(),
				"reason", result.Reason)
		case ActionAnnotate:
			p.logger.WarnContext(ctx, "safety check flagged response",
				"check", check.Name(),
				"reason", result.Reason)
		}
	}

	if resp.Safety == nil {
		resp.Safety = map[string]string{"verdict": "clear"}
	} else if _, flagged := resp.Safety["verdict"]; !flagged {
		resp.Safety["verdict"] = "clear"
	}
	return nil
}
