package safety

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threatsim/threatsim/internal/llm"
	"github.com/threatsim/threatsim/internal/prompt"
	"github.com/threatsim/threatsim/internal/types"
)

func promptInput(system, user string) PromptInput {
	return PromptInput{
		Prompt:      prompt.RenderedPrompt{System: system, User: user},
		ContentType: prompt.ContentEmailPhishing,
	}
}

func TestFramingCheck_RewritesUnframedPrompt(t *testing.T) {
	pipeline := NewPipeline(NewFramingCheck())

	out, err := pipeline.PreCheck(context.Background(),
		promptInput("You write convincing emails.", "write one"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.System, educationalFraming))
	assert.Contains(t, out.System, "You write convincing emails.")
}

func TestFramingCheck_LeavesFramedPromptAlone(t *testing.T) {
	pipeline := NewPipeline(NewFramingCheck())
	system := "You create content for authorized security awareness training."

	out, err := pipeline.PreCheck(context.Background(), promptInput(system, "write one"))
	require.NoError(t, err)
	assert.Equal(t, system, out.System)
}

func TestProhibitedContentCheck_Rejects(t *testing.T) {
	pipeline := NewPipeline(NewProhibitedContentCheck())

	resp := &llm.Response{Content: "Please enter your real password to continue the training exercise."}
	err := pipeline.PostCheck(context.Background(), resp)
	require.Error(t, err)
	assert.Equal(t, types.SAFETY_REJECTED, types.CodeOf(err))
}

func TestProhibitedContentCheck_AllowsCleanContent(t *testing.T) {
	pipeline := NewPipeline(NewProhibitedContentCheck())

	resp := &llm.Response{Content: "This training simulation demonstrates common urgency tactics."}
	require.NoError(t, pipeline.PostCheck(context.Background(), resp))
}

func TestPlaceholderCheck_RejectsRealDomains(t *testing.T) {
	pipeline := NewPipeline(NewPlaceholderCheck())

	resp := &llm.Response{Content: "Visit payroll-update.acmecorp.com to verify your details."}
	err := pipeline.PostCheck(context.Background(), resp)
	require.Error(t, err)
	assert.Equal(t, types.SAFETY_REJECTED, types.CodeOf(err))
	assert.Contains(t, err.Error(), "acmecorp.com")
}

func TestPlaceholderCheck_AllowsExampleDomains(t *testing.T) {
	pipeline := NewPipeline(NewPlaceholderCheck())

	resp := &llm.Response{Content: "Visit hr.example.com for this training simulation, or example.org."}
	require.NoError(t, pipeline.PostCheck(context.Background(), resp))
}

func TestMinLengthCheck_AnnotatesShortContent(t *testing.T) {
	pipeline := NewPipeline(NewMinLengthCheck(50))

	resp := &llm.Response{Content: "too short"}
	require.NoError(t, pipeline.PostCheck(context.Background(), resp))

	assert.Equal(t, "flagged", resp.Safety["verdict"])
	assert.Equal(t, "below_minimum_length", resp.Safety["quality"])
}

func TestMarkerCheck_FlagsMissingMarkers(t *testing.T) {
	pipeline := NewPipeline(NewMarkerCheck())

	resp := &llm.Response{Content: strings.Repeat("urgent wire transfer request. ", 5)}
	require.NoError(t, pipeline.PostCheck(context.Background(), resp))
	assert.Equal(t, "flagged", resp.Safety["verdict"])
	assert.Equal(t, "missing", resp.Safety["markers"])
}

func TestPipeline_CleanContentGetsClearVerdict(t *testing.T) {
	pipeline := NewPipeline(DefaultChecks()...)

	resp := &llm.Response{
		Content: "Subject: Security awareness training simulation. This exercise email " +
			"from it-support at example.com demonstrates urgency and authority tactics. " +
			"Training notes: watch for mismatched sender domains.",
	}
	require.NoError(t, pipeline.PostCheck(context.Background(), resp))
	assert.Equal(t, "clear", resp.Safety["verdict"])
}

func TestPipeline_RejectionShortCircuits(t *testing.T) {
	pipeline := NewPipeline(DefaultChecks()...)

	resp := &llm.Response{Content: "password: hunter2"}
	err := pipeline.PostCheck(context.Background(), resp)
	require.Error(t, err)
	assert.Equal(t, types.SAFETY_REJECTED, types.CodeOf(err))
}

func TestPipeline_EmptyPipelinePassesThrough(t *testing.T) {
	pipeline := NewPipeline()

	input := promptInput("system", "user")
	out, err := pipeline.PreCheck(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, input.Prompt, out)

	resp := &llm.Response{Content: "anything"}
	require.NoError(t, pipeline.PostCheck(context.Background(), resp))
	assert.Equal(t, "clear", resp.Safety["verdict"])
}

func TestPipeline_NilResponse(t *testing.T) {
	pipeline := NewPipeline(DefaultChecks()...)
	require.NoError(t, pipeline.PostCheck(context.Background(), nil))
}
