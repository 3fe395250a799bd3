package mapping

import (
	"github.com/flowcreate/backend/internal/domain/shared"
)

// Event types for the data-mapping aggregate
const (
	EventTypeMappingCreated = "mapping.created"
	EventTypeMappingUpdated = "mapping.updated"
)

const aggregateTypeDataMapping = "DataMapping"

// MappingCreatedEvent is raised when a data mapping is created
type MappingCreatedEvent struct {
	shared.BaseDomainEvent
	Name         string `json:"name"`
	SourceSchema string `json:"source_schema"`
	TargetSchema string `json:"target_schema"`
}

// NewMappingCreatedEvent creates a new MappingCreatedEvent
func NewMappingCreatedEvent(m *DataMapping) *MappingCreatedEvent {
	return &MappingCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMappingCreated, aggregateTypeDataMapping, m.ID, m.OwnerID),
		Name:            m.Name,
		SourceSchema:    m.SourceSchema.Name,
		TargetSchema:    m.TargetSchema.Name,
	}
}

// MappingUpdatedEvent is raised when the field-mapping rules change
type MappingUpdatedEvent struct {
	shared.BaseDomainEvent
	Name      string `json:"name"`
	RuleCount int    `json:"rule_count"`
}

// NewMappingUpdatedEvent creates a new MappingUpdatedEvent
func NewMappingUpdatedEvent(m *DataMapping) *MappingUpdatedEvent {
	return &MappingUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMappingUpdated, aggregateTypeDataMapping, m.ID, m.OwnerID),
		Name:            m.Name,
		RuleCount:       len(m.FieldMappings),
	}
}
