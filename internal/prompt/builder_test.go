package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threatsim/threatsim/internal/scenario"
	"github.com/threatsim/threatsim/internal/types"
)

func builderScenario() *scenario.ThreatScenario {
	return &scenario.ThreatScenario{
		ID:             types.NewID(),
		Name:           "wire transfer drill",
		ThreatType:     scenario.ThreatPhishing,
		DeliveryVector: "email",
		TargetProfile: scenario.TargetProfile{
			Role:              "accounts payable clerk",
			Department:        "finance",
			Seniority:         "junior",
			TechnicalLevel:    "low",
			Industry:          "manufacturing",
			Organization:      "Example Corp",
			SecurityAwareness: 4,
		},
		BehavioralPattern: scenario.BehavioralPattern{
			PsychologicalTriggers: []string{"urgency", "authority"},
			Tactics:               []string{"impersonation"},
			UrgencyLevel:          8,
			Tone:                  "urgent",
		},
		Difficulty: 6,
		Stages: []scenario.StageSpec{
			{Type: scenario.StageReconnaissance},
			{Type: scenario.StageInitialContact},
		},
	}
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	lib := NewLibrary()
	require.NoError(t, RegisterBuiltins(lib))
	return NewBuilder(lib)
}

func TestBuilder_Build(t *testing.T) {
	b := newTestBuilder(t)
	sc := builderScenario()

	result, err := b.Build(BuildRequest{Scenario: sc, StageIndex: 1})
	require.NoError(t, err)

	// Phishing with no stage-specific entry falls to the threat default.
	assert.Equal(t, ContentEmailPhishing, result.ContentType)
	require.Len(t, result.Prompts, 1)

	user := result.Prompts[0].User
	assert.Contains(t, user, "accounts payable clerk")
	assert.Contains(t, user, "finance")
	assert.Contains(t, user, "urgency, authority")
	assert.Contains(t, user, "Example Corp")
	assert.Contains(t, user, "none (first stage)")
	assert.NotContains(t, user, "{{")
}

func TestBuilder_BuildDeterministic(t *testing.T) {
	b := newTestBuilder(t)
	sc := builderScenario()
	req := BuildRequest{Scenario: sc, StageIndex: 0, Variants: 3}

	first, err := b.Build(req)
	require.NoError(t, err)
	second, err := b.Build(req)
	require.NoError(t, err)

	assert.Equal(t, first.Prompts, second.Prompts)
}

func TestBuilder_BuildIncludesPriorStages(t *testing.T) {
	b := newTestBuilder(t)
	sc := builderScenario()

	result, err := b.Build(BuildRequest{
		Scenario:   sc,
		StageIndex: 1,
		Prior: []PriorStage{
			{Type: scenario.StageReconnaissance, Content: "target posts on example.com forums"},
		},
	})
	require.NoError(t, err)

	user := result.Prompts[0].User
	assert.Contains(t, user, "[1] reconnaissance: target posts on example.com forums")
	assert.NotContains(t, user, "none (first stage)")
}

func TestBuilder_BuildCustomOverrides(t *testing.T) {
	b := newTestBuilder(t)
	sc := builderScenario()
	sc.Parameters.Custom = map[string]any{"tone": "casual", "invoice_number": "INV-1042"}

	result, err := b.Build(BuildRequest{
		Scenario:   sc,
		StageIndex: 1,
		Custom:     map[string]any{"tone": "legalistic"},
	})
	require.NoError(t, err)

	user := result.Prompts[0].User
	// Caller custom wins over scenario custom.
	assert.Contains(t, user, "legalistic")
	// Unknown keys land in the custom context JSON.
	assert.Contains(t, user, `"invoice_number":"INV-1042"`)
}

func TestBuilder_BuildStageOverrides(t *testing.T) {
	b := newTestBuilder(t)
	sc := builderScenario()
	sc.Stages[1].Overrides = map[string]any{"urgency_level": 2}

	result, err := b.Build(BuildRequest{Scenario: sc, StageIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Context.UrgencyLevel)
}

func TestBuilder_BuildVariants(t *testing.T) {
	b := newTestBuilder(t)
	sc := builderScenario()

	result, err := b.Build(BuildRequest{Scenario: sc, StageIndex: 1, Variants: 3})
	require.NoError(t, err)
	require.Len(t, result.Prompts, 3)

	// Variant zero is the base rendering; the rest differ from it.
	assert.NotContains(t, result.Prompts[0].User, "Variation emphasis")
	assert.Contains(t, result.Prompts[1].User, "Variation emphasis")
	assert.NotEqual(t, result.Prompts[1].User, result.Prompts[2].User)
}

func TestBuilder_BuildVariantsClamped(t *testing.T) {
	b := newTestBuilder(t)
	sc := builderScenario()

	result, err := b.Build(BuildRequest{Scenario: sc, StageIndex: 0, Variants: 50})
	require.NoError(t, err)
	assert.Len(t, result.Prompts, MaxVariants)
}

func TestBuilder_BuildStageIndexOutOfRange(t *testing.T) {
	b := newTestBuilder(t)
	sc := builderScenario()

	_, err := b.Build(BuildRequest{Scenario: sc, StageIndex: 5})
	require.Error(t, err)
	assert.Equal(t, types.SCENARIO_VALIDATION_FAILED, types.CodeOf(err))

	_, err = b.Build(BuildRequest{Scenario: nil, StageIndex: 0})
	require.Error(t, err)
}

func TestStrategyTable_LookupNeverEmpty(t *testing.T) {
	table := NewStrategyTable()

	for _, threat := range []scenario.ThreatType{
		scenario.ThreatPhishing, scenario.ThreatSMSPhishing, scenario.ThreatVishing,
		scenario.ThreatBEC, scenario.ThreatMalware, scenario.ThreatCustom,
	} {
		for _, stage := range []scenario.StageType{
			scenario.StageReconnaissance, scenario.StagePlanning,
			scenario.StageInitialContact, scenario.StagePersistence,
			scenario.StageExecution, scenario.StageExfiltration,
		} {
			s := table.Lookup(threat, stage)
			assert.NotEmpty(t, s.ContentType, "threat=%s stage=%s", threat, stage)
			assert.NotEmpty(t, s.Directive, "threat=%s stage=%s", threat, stage)
		}
	}
}

func TestStrategyTable_ExactBeatsStageAndDefault(t *testing.T) {
	table := NewStrategyTable()

	s := table.Lookup(scenario.ThreatSMSPhishing, scenario.StageInitialContact)
	assert.Equal(t, ContentSMSPhishing, s.ContentType)

	s = table.Lookup(scenario.ThreatBEC, scenario.StageExecution)
	assert.Equal(t, ContentEmailPhishing, s.ContentType)

	// Stage-level entry applies across threat types.
	s = table.Lookup(scenario.ThreatBEC, scenario.StageReconnaissance)
	assert.Equal(t, ContentPretextScenario, s.ContentType)
}
