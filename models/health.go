package models

import "time"

// HealthState is the overall or per-component service condition.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// ComponentHealth reports the condition of one backing service.
type ComponentHealth struct {
	Status  HealthState `json:"status"`
	Detail  string      `json:"detail,omitempty"`
	Healthy bool        `json:"healthy"`
}

// HealthReport is the aggregate health of the RAG system. It is always
// produced; a failing backend yields an unhealthy report, not an error.
type HealthReport struct {
	Status     HealthState                `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}
