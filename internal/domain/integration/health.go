package integration

import (
	"fmt"
	"time"
)

// HealthStatus buckets the health score
type HealthStatus string

const (
	// HealthStatusHealthy means the integration is operating normally
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusWarning means the integration shows degraded signals
	HealthStatusWarning HealthStatus = "warning"
	// HealthStatusCritical means the integration needs attention now
	HealthStatusCritical HealthStatus = "critical"
)

// Health scoring weights and thresholds
const (
	healthWeightSuccess    = 50.0
	healthWeightLatency    = 25.0
	healthWeightCredential = 15.0
	healthWeightRecency    = 10.0

	// Latency thresholds in milliseconds
	latencyWarningMs  = 2000.0
	latencyCriticalMs = 5000.0

	// Staleness thresholds
	stalenessWarning  = 24 * time.Hour
	stalenessCritical = 7 * 24 * time.Hour

	healthScoreHealthy = 80
	healthScoreWarning = 50
)

// Health is the derived operational fitness of an integration
type Health struct {
	Status          HealthStatus `json:"status"`
	Score           int          `json:"score"`
	Issues          []string     `json:"issues"`
	Recommendations []string     `json:"recommendations"`
}

// ComputeHealth derives a health assessment from the integration's metrics
// and credential state. It is a pure function of (integration, now): no
// clock or I/O access, so it is trivially testable against synthetic
// metric vectors.
func ComputeHealth(i *Integration, now time.Time) Health {
	h := Health{
		Issues:          []string{},
		Recommendations: []string{},
	}

	score := 0.0

	// Success ratio carries the heaviest weight.
	ratio := i.Metrics.SuccessRatio()
	score += ratio * healthWeightSuccess
	if i.Metrics.TotalRequests > 0 && ratio < 0.9 {
		h.Issues = append(h.Issues, fmt.Sprintf("success ratio is %.0f%%", ratio*100))
		h.Recommendations = append(h.Recommendations, "inspect recent execution errors")
	}

	// Average latency against fixed thresholds.
	avg := i.Metrics.AverageResponseTimeMs
	switch {
	case avg > latencyCriticalMs:
		h.Issues = append(h.Issues, fmt.Sprintf("average response time %.0fms exceeds %.0fms", avg, latencyCriticalMs))
		h.Recommendations = append(h.Recommendations, "check endpoint capacity or reduce payload size")
	case avg > latencyWarningMs:
		score += healthWeightLatency * 0.4
		h.Issues = append(h.Issues, fmt.Sprintf("average response time %.0fms exceeds %.0fms", avg, latencyWarningMs))
	default:
		score += healthWeightLatency
	}

	// Credential freshness.
	expired := i.Config.Auth.IsExpired(now)
	switch {
	case expired:
		h.Issues = append(h.Issues, "credential is expired")
		h.Recommendations = append(h.Recommendations, "rotate the credential before executing again")
	case i.Config.Auth.NeedsRefresh(now, DefaultRefreshLead):
		score += healthWeightCredential * 0.5
		h.Issues = append(h.Issues, "credential expires soon")
		h.Recommendations = append(h.Recommendations, "schedule credential refresh soon")
	default:
		score += healthWeightCredential
	}

	// Staleness of the last execution.
	switch {
	case i.Metrics.LastExecutedAt == nil:
		score += healthWeightRecency * 0.5
		h.Recommendations = append(h.Recommendations, "run a test call to establish a baseline")
	case now.Sub(*i.Metrics.LastExecutedAt) > stalenessCritical:
		h.Issues = append(h.Issues, "no executions in over a week")
	case now.Sub(*i.Metrics.LastExecutedAt) > stalenessWarning:
		score += healthWeightRecency * 0.5
	default:
		score += healthWeightRecency
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	h.Score = int(score)

	switch {
	case h.Score >= healthScoreHealthy:
		h.Status = HealthStatusHealthy
	case h.Score >= healthScoreWarning:
		h.Status = HealthStatusWarning
	default:
		h.Status = HealthStatusCritical
	}

	// An expired credential overrides every other signal.
	if expired {
		h.Status = HealthStatusCritical
	}

	return h
}
