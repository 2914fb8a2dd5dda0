package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/threatsim/threatsim/internal/scenario"
)

// PriorStage is the committed output of an earlier stage, carried into the
// context of later stages.
type PriorStage struct {
	Type    scenario.StageType `json:"type"`
	Content string             `json:"content"`
}

// Context is the named-variable mapping handed to the renderer for one
// stage. It is rebuilt per stage and never mutated after being passed to
// generation.
type Context struct {
	ThreatType        string            `json:"threat_type"`
	DeliveryVector    string            `json:"delivery_vector"`
	Difficulty        int               `json:"difficulty"`
	StageType         string            `json:"stage_type"`
	StageDirective    string            `json:"stage_directive"`
	Role              string            `json:"role"`
	Department        string            `json:"department"`
	Seniority         string            `json:"seniority"`
	TechnicalLevel    string            `json:"technical_level"`
	Industry          string            `json:"industry"`
	Organization      string            `json:"organization"`
	SecurityAwareness int               `json:"security_awareness"`
	UrgencyLevel      int               `json:"urgency_level"`
	Tone              string            `json:"tone"`
	Triggers          []string          `json:"triggers"`
	Tactics           []string          `json:"tactics"`
	MITRETechniques   []string          `json:"mitre_techniques"`
	PriorStages       []PriorStage      `json:"prior_stages"`
	Custom            map[string]any    `json:"custom,omitempty"`
	Variation         map[string]string `json:"variation,omitempty"`
}

// Vars flattens the context into the template variable map. Every value is
// rendered as a string so templates never see raw nils; empty fields get
// explicit "not specified" markers rather than blanks.
func (c *Context) Vars() map[string]any {
	vars := map[string]any{
		"threat_type":              orDefault(c.ThreatType, "unknown"),
		"delivery_vector":          orDefault(c.DeliveryVector, "email"),
		"difficulty_level":         fmt.Sprintf("%d", c.Difficulty),
		"stage_type":               orDefault(c.StageType, "unknown"),
		"stage_directive":          orDefault(c.StageDirective, "produce content appropriate for this stage"),
		"target_role":              orDefault(c.Role, "employee"),
		"target_department":        orDefault(c.Department, "general"),
		"target_seniority":         orDefault(c.Seniority, "mid"),
		"target_technical_level":   orDefault(c.TechnicalLevel, "moderate"),
		"target_industry":          orDefault(c.Industry, "technology"),
		"company_name":             orDefault(c.Organization, "Example Corp"),
		"security_awareness_level": fmt.Sprintf("%d", c.SecurityAwareness),
		"urgency_level":            fmt.Sprintf("%d", c.UrgencyLevel),
		"tone":                     orDefault(c.Tone, "professional"),
		"psychological_triggers":   joinOrDefault(c.Triggers, "none specified"),
		"tactics":                  joinOrDefault(c.Tactics, "none specified"),
		"mitre_techniques":         joinOrDefault(c.MITRETechniques, "none specified"),
		"prior_stage_summary":      c.priorSummary(),
		"custom_context":           c.customJSON(),
	}

	return vars
}

// priorSummary renders committed earlier-stage outputs in order.
func (c *Context) priorSummary() string {
	if len(c.PriorStages) == 0 {
		return "none (first stage)"
	}

	var b strings.Builder
	for i, stage := range c.PriorStages {
		fmt.Fprintf(&b, "[%d] %s: %s", i+1, stage.Type, stage.Content)
		if i < len(c.PriorStages)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// customJSON renders custom parameters deterministically.
func (c *Context) customJSON() string {
	if len(c.Custom) == 0 {
		return "none specified"
	}
	// json.Marshal sorts map keys, keeping rendering deterministic.
	data, err := json.Marshal(c.Custom)
	if err != nil {
		return "none specified"
	}
	return string(data)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func joinOrDefault(vals []string, def string) string {
	if len(vals) == 0 {
		return def
	}
	return strings.Join(vals, ", ")
}
