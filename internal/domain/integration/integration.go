package integration

import (
	"strings"
	"time"

	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Status represents the lifecycle status of an integration
type Status string

const (
	// StatusDraft is the initial status; configuration may still be incomplete
	StatusDraft Status = "draft"
	// StatusActive means the integration passed validation and may execute
	StatusActive Status = "active"
	// StatusPaused means execution is temporarily suspended
	StatusPaused Status = "paused"
	// StatusArchived is the terminal status; no further transitions are allowed
	StatusArchived Status = "archived"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusArchived:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Metrics accumulates execution outcomes for an integration.
// AverageResponseTimeMs is a running mean, so no per-call history is stored.
type Metrics struct {
	TotalRequests         int64      `json:"total_requests"`
	SuccessfulRequests    int64      `json:"successful_requests"`
	AverageResponseTimeMs float64    `json:"average_response_time_ms"`
	LastExecutedAt        *time.Time `json:"last_executed_at,omitempty"`
}

// SuccessRatio returns successful/total, or 1 when nothing has executed yet
func (m Metrics) SuccessRatio() float64 {
	if m.TotalRequests == 0 {
		return 1
	}
	return float64(m.SuccessfulRequests) / float64(m.TotalRequests)
}

// Integration represents a configured connector to an external system.
// It is the aggregate root for execution and health operations.
type Integration struct {
	shared.OwnedAggregateRoot
	Name        string
	Description string
	Tags        []string
	Config      Config
	Status      Status
	Metrics     Metrics
}

// NewIntegration creates a new integration in draft status
func NewIntegration(ownerID uuid.UUID, name, description string, config Config, tags []string) (*Integration, error) {
	verr := &shared.ValidationError{}
	if ownerID == uuid.Nil {
		verr.Add("owner_id", "owner is required")
	}
	if err := validateName(name); err != nil {
		verr.Add("name", err.Error())
	}
	validateConfig(config, verr)
	if verr.HasErrors() {
		return nil, verr
	}

	integ := &Integration{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Name:               name,
		Description:        description,
		Tags:               normalizeTags(tags),
		Config:             config,
		Status:             StatusDraft,
	}

	integ.AddDomainEvent(NewIntegrationCreatedEvent(integ))

	return integ, nil
}

// Update updates the integration's basic information
func (i *Integration) Update(name, description string) error {
	if err := validateName(name); err != nil {
		return shared.NewValidationError(shared.FieldError{Field: "name", Message: err.Error()})
	}

	i.Name = name
	i.Description = description
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewIntegrationUpdatedEvent(i))

	return nil
}

// UpdateConfig replaces the connector configuration.
// An active integration keeps running against the new config; the caller
// is expected to re-validate before relying on it.
func (i *Integration) UpdateConfig(config Config) error {
	verr := &shared.ValidationError{}
	validateConfig(config, verr)
	if verr.HasErrors() {
		return verr
	}

	i.Config = config
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewIntegrationUpdatedEvent(i))

	return nil
}

// AddTag adds a tag with set semantics
func (i *Integration) AddTag(tag string) {
	tag = strings.TrimSpace(strings.ToLower(tag))
	if tag == "" {
		return
	}
	for _, existing := range i.Tags {
		if existing == tag {
			return
		}
	}
	i.Tags = append(i.Tags, tag)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// RemoveTag removes a tag if present
func (i *Integration) RemoveTag(tag string) {
	tag = strings.TrimSpace(strings.ToLower(tag))
	for idx, existing := range i.Tags {
		if existing == tag {
			i.Tags = append(i.Tags[:idx], i.Tags[idx+1:]...)
			i.UpdatedAt = time.Now()
			i.IncrementVersion()
			return
		}
	}
}

// HasTag returns true if the integration carries the tag
func (i *Integration) HasTag(tag string) bool {
	tag = strings.TrimSpace(strings.ToLower(tag))
	for _, existing := range i.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// Activate transitions the integration from draft or paused to active.
// Activation requires the configuration to pass readiness validation.
func (i *Integration) Activate(now time.Time) error {
	if i.Status == StatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Cannot activate an archived integration")
	}
	if i.Status == StatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Integration is already active")
	}

	if verr := i.validateReadiness(now); verr.HasErrors() {
		return verr
	}

	oldStatus := i.Status
	i.Status = StatusActive
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewIntegrationStatusChangedEvent(i, oldStatus, StatusActive))

	return nil
}

// Pause suspends an active integration
func (i *Integration) Pause() error {
	if i.Status != StatusActive {
		return shared.NewDomainError("INVALID_STATE", "Only an active integration can be paused")
	}

	oldStatus := i.Status
	i.Status = StatusPaused
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewIntegrationStatusChangedEvent(i, oldStatus, StatusPaused))

	return nil
}

// Resume reactivates a paused integration
func (i *Integration) Resume(now time.Time) error {
	if i.Status != StatusPaused {
		return shared.NewDomainError("INVALID_STATE", "Only a paused integration can be resumed")
	}
	return i.Activate(now)
}

// Archive permanently retires the integration. Archived is terminal.
func (i *Integration) Archive() error {
	if i.Status == StatusArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Integration is already archived")
	}

	oldStatus := i.Status
	i.Status = StatusArchived
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewIntegrationStatusChangedEvent(i, oldStatus, StatusArchived))

	return nil
}

// IsActive returns true if the integration may execute
func (i *Integration) IsActive() bool {
	return i.Status == StatusActive
}

// IsArchived returns true if the integration is archived
func (i *Integration) IsArchived() bool {
	return i.Status == StatusArchived
}

// IsDeletable returns true if the integration may be deleted.
// Active and paused integrations must be archived first.
func (i *Integration) IsDeletable() bool {
	return i.Status == StatusDraft || i.Status == StatusArchived
}

// RecordExecution updates the execution metrics with one outcome.
// The average uses the running-mean update newAvg = oldAvg + (d-oldAvg)/n,
// keeping successful <= total by construction.
func (i *Integration) RecordExecution(success bool, duration time.Duration) {
	now := time.Now()
	i.Metrics.TotalRequests++
	if success {
		i.Metrics.SuccessfulRequests++
	}
	d := float64(duration.Milliseconds())
	i.Metrics.AverageResponseTimeMs += (d - i.Metrics.AverageResponseTimeMs) / float64(i.Metrics.TotalRequests)
	i.Metrics.LastExecutedAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()

	i.AddDomainEvent(NewIntegrationExecutedEvent(i, success, duration))
}

// ValidationResult reports integration readiness.
// IsValid alone does not imply execution is legal: a valid-but-paused
// integration has IsValid=true and CanExecute=false.
type ValidationResult struct {
	IsValid    bool                `json:"is_valid"`
	CanExecute bool                `json:"can_execute"`
	Errors     []shared.FieldError `json:"errors,omitempty"`
}

// Validate checks the integration's readiness for execution.
// All checks run independently so every problem is reported at once.
func (i *Integration) Validate(now time.Time) ValidationResult {
	verr := i.validateReadiness(now)

	statusOK := i.Status == StatusActive
	if !statusOK {
		verr.Add("status", "integration is not active")
	}

	isValid := true
	for _, fe := range verr.Errors {
		if fe.Field != "status" {
			isValid = false
			break
		}
	}

	return ValidationResult{
		IsValid:    isValid,
		CanExecute: isValid && statusOK,
		Errors:     verr.Errors,
	}
}

// validateReadiness runs the status-independent readiness checks
func (i *Integration) validateReadiness(now time.Time) *shared.ValidationError {
	verr := &shared.ValidationError{}
	if len(i.Config.Endpoints) == 0 {
		verr.Add("config.endpoints", "no configured endpoints")
	}
	if i.Config.Auth.IsExpired(now) {
		verr.Add("config.auth", "credential is expired")
	}
	return verr
}

// validateName validates the integration name
func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Integration name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Integration name cannot exceed 200 characters")
	}
	return nil
}

// validateConfig validates the connector configuration
func validateConfig(config Config, verr *shared.ValidationError) {
	if !config.Type.IsValid() {
		verr.Add("config.type", "unknown integration type")
	}
	if len(config.Endpoints) == 0 {
		verr.Add("config.endpoints", "no configured endpoints")
	}
	for _, ep := range config.Endpoints {
		if ep.URL == "" {
			verr.Add("config.endpoints", "endpoint "+ep.Name+" has no URL")
		}
	}
	if !config.Auth.Type.IsValid() {
		verr.Add("config.auth.type", "unknown credential type")
	}
	if config.Auth.SecretRef == "" {
		verr.Add("config.auth.secret_ref", "credential secret reference is required")
	}
	if config.RateLimits != nil && config.RateLimits.RequestsPerMinute <= 0 {
		verr.Add("config.rate_limits", "requests per minute must be positive")
	}
}

// normalizeTags lowercases, trims and dedupes tags preserving first-seen order
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.ToLower(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
