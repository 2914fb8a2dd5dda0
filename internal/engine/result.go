package engine

import (
	"time"

	"github.com/threatsim/threatsim/internal/llm"
	"github.com/threatsim/threatsim/internal/prompt"
	"github.com/threatsim/threatsim/internal/scenario"
	"github.com/threatsim/threatsim/internal/types"
)

// Status is the lifecycle state of a simulation. Transitions are
// monotonic: created -> running -> completed | failed. There is no path
// out of a terminal state.
type Status string

const (
	StatusCreated   Status = "created"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether the status admits no further transition.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// canTransition encodes the allowed status edges.
func (s Status) canTransition(to Status) bool {
	switch s {
	case StatusCreated:
		return to == StatusRunning || to == StatusFailed
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// StageStatus is the outcome of a single committed stage.
type StageStatus string

const (
	StageOK     StageStatus = "ok"
	StageFailed StageStatus = "failed"
)

// SimulationStage is one committed stage of a simulation. Stages are
// append-only: once committed they are never reordered or rewritten.
type SimulationStage struct {
	Index       int                `json:"index"`
	Type        scenario.StageType `json:"type"`
	ContentType prompt.ContentType `json:"content_type"`
	Status      StageStatus        `json:"status"`
	Content     string             `json:"content"`

	// Variants holds alternative renderings beyond the committed content
	// when the scenario requested more than one.
	Variants []string `json:"variants,omitempty"`

	Provider  string            `json:"provider,omitempty"`
	Model     string            `json:"model,omitempty"`
	Usage     llm.TokenUsage    `json:"usage"`
	Safety    map[string]string `json:"safety,omitempty"`
	Cached    bool              `json:"cached,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
}

// SimulationResult is the full record of one simulation run.
type SimulationResult struct {
	ID            types.ID          `json:"id"`
	ScenarioID    types.ID          `json:"scenario_id"`
	ScenarioName  string            `json:"scenario_name"`
	Status        Status            `json:"status"`
	StagesPlanned int               `json:"stages_planned"`
	Stages        []SimulationStage `json:"stages"`
	Error         string            `json:"error,omitempty"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
}

func newResult(sc *scenario.ThreatScenario, now time.Time) *SimulationResult {
	return &SimulationResult{
		ID:            types.NewID(),
		ScenarioID:    sc.ID,
		ScenarioName:  sc.Name,
		Status:        StatusCreated,
		StagesPlanned: len(sc.Stages),
		Stages:        make([]SimulationStage, 0, len(sc.Stages)),
		StartTime:     now,
	}
}

// transition moves the result to a new status, enforcing monotonicity.
// Illegal transitions are ignored so a terminal state can never regress.
func (r *SimulationResult) transition(to Status) bool {
	if !r.Status.canTransition(to) {
		return false
	}
	r.Status = to
	return true
}

// commitStage appends a completed stage. Commit order is declaration order
// by construction; the index records the stage's position for audit.
func (r *SimulationResult) commitStage(stage SimulationStage) {
	stage.Index = len(r.Stages)
	r.Stages = append(r.Stages, stage)
}

// complete marks the run finished.
func (r *SimulationResult) complete(now time.Time) {
	r.transition(StatusCompleted)
	r.EndTime = now
}

// fail marks the run failed with a reason. Already-committed stages stay.
func (r *SimulationResult) fail(reason string, now time.Time) {
	r.transition(StatusFailed)
	r.Error = reason
	r.EndTime = now
}

// SuccessRate is the fraction of planned stages that committed.
func (r *SimulationResult) SuccessRate() float64 {
	if r.StagesPlanned == 0 {
		return 0
	}
	return float64(len(r.Stages)) / float64(r.StagesPlanned)
}

// Duration is the wall time of the run.
func (r *SimulationResult) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}
