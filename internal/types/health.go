package types

import "time"

// HealthState is a provider or registry health verdict.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// HealthStatus is the outcome of one health check: the verdict, an optional
// human-readable detail, and when the check ran.
type HealthStatus struct {
	State     HealthState `json:"state"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
}

func status(state HealthState, message string) HealthStatus {
	return HealthStatus{State: state, Message: message, CheckedAt: time.Now()}
}

// Healthy reports a passing check.
func Healthy(message string) HealthStatus {
	return status(HealthStateHealthy, message)
}

// Degraded reports a partially failing check.
func Degraded(message string) HealthStatus {
	return status(HealthStateDegraded, message)
}

// Unhealthy reports a failing check.
func Unhealthy(message string) HealthStatus {
	return status(HealthStateUnhealthy, message)
}

func (h HealthStatus) IsHealthy() bool   { return h.State == HealthStateHealthy }
func (h HealthStatus) IsDegraded() bool  { return h.State == HealthStateDegraded }
func (h HealthStatus) IsUnhealthy() bool { return h.State == HealthStateUnhealthy }
