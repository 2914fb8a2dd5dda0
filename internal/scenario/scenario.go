// Package scenario defines the threat scenario data model consumed by the
// simulation engine. Scenarios arrive fully validated from a Source and are
// treated as immutable once execution starts.
package scenario

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/threatsim/threatsim/internal/types"
)

// ThreatType identifies the category of threat being simulated.
type ThreatType string

const (
	ThreatPhishing          ThreatType = "phishing"
	ThreatSpearPhishing     ThreatType = "spear_phishing"
	ThreatSMSPhishing       ThreatType = "sms_phishing"
	ThreatSocialEngineering ThreatType = "social_engineering"
	ThreatVishing           ThreatType = "vishing"
	ThreatBEC               ThreatType = "business_email_compromise"
	ThreatMalware           ThreatType = "malware"
	ThreatInsider           ThreatType = "insider_threat"
	ThreatCustom            ThreatType = "custom"
)

// String returns the string representation of the ThreatType
func (t ThreatType) String() string {
	return string(t)
}

// IsValid checks if the threat type is a known value
func (t ThreatType) IsValid() bool {
	switch t {
	case ThreatPhishing, ThreatSpearPhishing, ThreatSMSPhishing,
		ThreatSocialEngineering, ThreatVishing, ThreatBEC,
		ThreatMalware, ThreatInsider, ThreatCustom:
		return true
	default:
		return false
	}
}

// StageType identifies one discrete phase of a multi-stage scenario.
// The vocabulary is fixed; the engine rejects scenarios using anything else.
type StageType string

const (
	StageReconnaissance StageType = "reconnaissance"
	StagePlanning       StageType = "planning"
	StageInitialContact StageType = "initial_contact"
	StagePersistence    StageType = "persistence"
	StageExecution      StageType = "execution"
	StageExfiltration   StageType = "exfiltration"
)

// String returns the string representation of the StageType
func (s StageType) String() string {
	return string(s)
}

// IsValid checks if the stage type is part of the fixed vocabulary
func (s StageType) IsValid() bool {
	switch s {
	case StageReconnaissance, StagePlanning, StageInitialContact,
		StagePersistence, StageExecution, StageExfiltration:
		return true
	default:
		return false
	}
}

// StageSpec declares one stage of a scenario.
type StageSpec struct {
	Type        StageType      `json:"type" yaml:"type" validate:"required"`
	Description string         `json:"description" yaml:"description"`
	Overrides   map[string]any `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// TargetProfile describes the simulated target of the scenario.
type TargetProfile struct {
	Role              string `json:"role" yaml:"role" validate:"required"`
	Department        string `json:"department" yaml:"department"`
	Seniority         string `json:"seniority" yaml:"seniority"`
	TechnicalLevel    string `json:"technical_level" yaml:"technical_level"`
	Industry          string `json:"industry" yaml:"industry"`
	Organization      string `json:"organization" yaml:"organization"`
	SecurityAwareness int    `json:"security_awareness" yaml:"security_awareness" validate:"min=0,max=10"`
}

// BehavioralPattern describes the adversarial behavior the scenario models.
type BehavioralPattern struct {
	PsychologicalTriggers []string `json:"psychological_triggers" yaml:"psychological_triggers"`
	Tactics               []string `json:"tactics" yaml:"tactics"`
	MITRETechniques       []string `json:"mitre_techniques" yaml:"mitre_techniques"`
	UrgencyLevel          int      `json:"urgency_level" yaml:"urgency_level" validate:"min=0,max=10"`
	Tone                  string   `json:"tone" yaml:"tone"`
}

// Parameters carries per-simulation generation settings. Explicit values
// here override orchestrator defaults.
type Parameters struct {
	Provider     string         `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model        string         `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature  float64        `json:"temperature,omitempty" yaml:"temperature,omitempty" validate:"min=0,max=2"`
	MaxTokens    int            `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" validate:"min=0"`
	VariantCount int            `json:"variant_count,omitempty" yaml:"variant_count,omitempty" validate:"min=0,max=5"`
	Custom       map[string]any `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// ThreatScenario is the declarative description of one attack simulation.
// It is created by the scenario source and never mutated after execution
// starts.
type ThreatScenario struct {
	ID                types.ID          `json:"id" yaml:"id"`
	Name              string            `json:"name" yaml:"name" validate:"required"`
	Description       string            `json:"description" yaml:"description"`
	ThreatType        ThreatType        `json:"threat_type" yaml:"threat_type" validate:"required"`
	DeliveryVector    string            `json:"delivery_vector" yaml:"delivery_vector"`
	TargetProfile     TargetProfile     `json:"target_profile" yaml:"target_profile"`
	BehavioralPattern BehavioralPattern `json:"behavioral_pattern" yaml:"behavioral_pattern"`
	Difficulty        int               `json:"difficulty" yaml:"difficulty" validate:"min=1,max=10"`
	Stages            []StageSpec       `json:"stages" yaml:"stages" validate:"required,min=1,dive"`
	Parameters        Parameters        `json:"parameters" yaml:"parameters"`
	EstimatedDuration time.Duration     `json:"estimated_duration,omitempty" yaml:"estimated_duration,omitempty"`
	CreatedAt         time.Time         `json:"created_at" yaml:"created_at"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks structural and cross-field constraints on the scenario.
// Returns a SCENARIO_VALIDATION_FAILED error describing the first problem.
func (s *ThreatScenario) Validate() error {
	if err := validate.Struct(s); err != nil {
		return types.WrapError(types.SCENARIO_VALIDATION_FAILED, "scenario failed structural validation", err)
	}

	if !s.ThreatType.IsValid() {
		return types.NewError(types.SCENARIO_VALIDATION_FAILED,
			fmt.Sprintf("unknown threat type %q", s.ThreatType))
	}

	for i, stage := range s.Stages {
		if !stage.Type.IsValid() {
			return types.NewError(types.SCENARIO_VALIDATION_FAILED,
				fmt.Sprintf("stage %d: unknown stage type %q", i, stage.Type))
		}
	}

	return nil
}

// StageTypes returns the declared stage types in order.
func (s *ThreatScenario) StageTypes() []StageType {
	out := make([]StageType, len(s.Stages))
	for i, stage := range s.Stages {
		out[i] = stage.Type
	}
	return out
}
