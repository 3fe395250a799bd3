package integration

import (
	"time"

	"github.com/flowcreate/backend/internal/domain/shared"
)

// Event types for the integration aggregate
const (
	EventTypeIntegrationCreated       = "integration.created"
	EventTypeIntegrationUpdated       = "integration.updated"
	EventTypeIntegrationStatusChanged = "integration.status_changed"
	EventTypeIntegrationExecuted      = "integration.executed"
)

const aggregateTypeIntegration = "Integration"

// IntegrationCreatedEvent is raised when an integration is created
type IntegrationCreatedEvent struct {
	shared.BaseDomainEvent
	Name string          `json:"name"`
	Type IntegrationType `json:"integration_type"`
}

// NewIntegrationCreatedEvent creates a new IntegrationCreatedEvent
func NewIntegrationCreatedEvent(i *Integration) *IntegrationCreatedEvent {
	return &IntegrationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIntegrationCreated, aggregateTypeIntegration, i.ID, i.OwnerID),
		Name:            i.Name,
		Type:            i.Config.Type,
	}
}

// IntegrationUpdatedEvent is raised when integration details or config change
type IntegrationUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewIntegrationUpdatedEvent creates a new IntegrationUpdatedEvent
func NewIntegrationUpdatedEvent(i *Integration) *IntegrationUpdatedEvent {
	return &IntegrationUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIntegrationUpdated, aggregateTypeIntegration, i.ID, i.OwnerID),
		Name:            i.Name,
	}
}

// IntegrationStatusChangedEvent is raised on lifecycle transitions
type IntegrationStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus Status `json:"old_status"`
	NewStatus Status `json:"new_status"`
}

// NewIntegrationStatusChangedEvent creates a new IntegrationStatusChangedEvent
func NewIntegrationStatusChangedEvent(i *Integration, oldStatus, newStatus Status) *IntegrationStatusChangedEvent {
	return &IntegrationStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIntegrationStatusChanged, aggregateTypeIntegration, i.ID, i.OwnerID),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// IntegrationExecutedEvent is raised after every recorded execution,
// successful or not
type IntegrationExecutedEvent struct {
	shared.BaseDomainEvent
	Success    bool          `json:"success"`
	Duration   time.Duration `json:"duration"`
	TotalCount int64         `json:"total_count"`
}

// NewIntegrationExecutedEvent creates a new IntegrationExecutedEvent
func NewIntegrationExecutedEvent(i *Integration, success bool, duration time.Duration) *IntegrationExecutedEvent {
	return &IntegrationExecutedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIntegrationExecuted, aggregateTypeIntegration, i.ID, i.OwnerID),
		Success:         success,
		Duration:        duration,
		TotalCount:      i.Metrics.TotalRequests,
	}
}
