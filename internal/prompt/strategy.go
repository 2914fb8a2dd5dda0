package prompt

import (
	"github.com/threatsim/threatsim/internal/scenario"
)

// StageStrategy decides which template renders a given (threat type, stage
// type) pair and what directive focuses the generation on that stage.
type StageStrategy struct {
	ContentType ContentType
	Directive   string
}

type strategyKey struct {
	threat scenario.ThreatType
	stage  scenario.StageType
}

// StrategyTable maps (threat_type, stage_type) pairs to rendering
// strategies. Lookup falls back from the exact pair, to a stage-only entry,
// to the mandatory default, so a lookup never comes back empty.
type StrategyTable struct {
	exact      map[strategyKey]StageStrategy
	byStage    map[scenario.StageType]StageStrategy
	defaultFor map[scenario.ThreatType]ContentType
}

// NewStrategyTable builds the default strategy table.
func NewStrategyTable() *StrategyTable {
	t := &StrategyTable{
		exact:   make(map[strategyKey]StageStrategy),
		byStage: make(map[scenario.StageType]StageStrategy),
		defaultFor: map[scenario.ThreatType]ContentType{
			scenario.ThreatPhishing:          ContentEmailPhishing,
			scenario.ThreatSpearPhishing:     ContentEmailPhishing,
			scenario.ThreatBEC:               ContentEmailPhishing,
			scenario.ThreatSMSPhishing:       ContentSMSPhishing,
			scenario.ThreatVishing:           ContentVoiceScript,
			scenario.ThreatSocialEngineering: ContentVoiceScript,
		},
	}

	// Early stages produce planning artifacts regardless of threat type.
	t.byStage[scenario.StageReconnaissance] = StageStrategy{
		ContentType: ContentPretextScenario,
		Directive: "Describe the reconnaissance activities and information gathering " +
			"that precede this attack: OSINT sources, target profiling, and how the " +
			"collected information feeds the later stages.",
	}
	t.byStage[scenario.StagePlanning] = StageStrategy{
		ContentType: ContentPretextScenario,
		Directive: "Produce a step-by-step attack plan: timing, methods, fictitious " +
			"infrastructure, decision points, and contingency paths.",
	}
	t.byStage[scenario.StagePersistence] = StageStrategy{
		ContentType: ContentPretextScenario,
		Directive: "Describe how the attacker maintains access and rapport after the " +
			"initial contact succeeds, including follow-up pretexts.",
	}
	t.byStage[scenario.StageExfiltration] = StageStrategy{
		ContentType: ContentPretextScenario,
		Directive: "Describe how the attacker extracts the targeted information or " +
			"value, and the indicators defenders could observe.",
	}

	// Contact and execution stages produce the delivery artifact itself.
	t.exact[strategyKey{scenario.ThreatSMSPhishing, scenario.StageInitialContact}] = StageStrategy{
		ContentType: ContentSMSPhishing,
		Directive:   "Produce the SMS message delivered to the target at first contact.",
	}
	t.exact[strategyKey{scenario.ThreatVishing, scenario.StageInitialContact}] = StageStrategy{
		ContentType: ContentVoiceScript,
		Directive:   "Produce the opening call script used at first contact.",
	}
	t.exact[strategyKey{scenario.ThreatSocialEngineering, scenario.StageInitialContact}] = StageStrategy{
		ContentType: ContentVoiceScript,
		Directive:   "Produce the conversation script used at first contact.",
	}
	t.exact[strategyKey{scenario.ThreatBEC, scenario.StageExecution}] = StageStrategy{
		ContentType: ContentEmailPhishing,
		Directive: "Produce the executive-impersonation email carrying the urgent " +
			"financial request, with fictitious account details.",
	}

	return t
}

// Register installs or replaces an exact (threat, stage) strategy.
func (t *StrategyTable) Register(threat scenario.ThreatType, stage scenario.StageType, s StageStrategy) {
	t.exact[strategyKey{threat, stage}] = s
}

// Lookup resolves the strategy for a (threat, stage) pair.
// The default strategy keys the content type off the threat type and carries
// a generic directive, so a lookup is never silently empty.
func (t *StrategyTable) Lookup(threat scenario.ThreatType, stage scenario.StageType) StageStrategy {
	if s, ok := t.exact[strategyKey{threat, stage}]; ok {
		return s
	}
	if s, ok := t.byStage[stage]; ok {
		return s
	}

	contentType, ok := t.defaultFor[threat]
	if !ok {
		contentType = ContentPretextScenario
	}
	return StageStrategy{
		ContentType: contentType,
		Directive: "Produce the artifact this stage contributes to the overall " +
			"scenario, consistent with the prior stage outputs.",
	}
}
