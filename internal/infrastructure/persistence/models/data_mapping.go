package models

import (
	"encoding/json"

	"github.com/flowcreate/backend/internal/domain/mapping"
	"github.com/google/uuid"
)

// DataMappingModel is the persistence model for the DataMapping aggregate.
// Schemas and field mapping rules are stored as JSON columns.
type DataMappingModel struct {
	OwnedAggregateModel
	IntegrationID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name              string    `gorm:"type:varchar(100);not null"`
	Description       string    `gorm:"type:text"`
	SourceSchemaJSON  string    `gorm:"type:jsonb;column:source_schema"`
	TargetSchemaJSON  string    `gorm:"type:jsonb;column:target_schema"`
	FieldMappingsJSON string    `gorm:"type:jsonb;column:field_mappings"`
}

// TableName returns the table name for GORM
func (DataMappingModel) TableName() string {
	return "data_mappings"
}

// ToDomain converts the persistence model to a domain DataMapping aggregate
func (m *DataMappingModel) ToDomain() *mapping.DataMapping {
	dm := &mapping.DataMapping{
		IntegrationID: m.IntegrationID,
		Name:          m.Name,
		Description:   m.Description,
		FieldMappings: []mapping.FieldMapping{},
	}
	m.PopulateOwnedAggregateRoot(&dm.OwnedAggregateRoot)

	if m.SourceSchemaJSON != "" {
		var s mapping.Schema
		if err := json.Unmarshal([]byte(m.SourceSchemaJSON), &s); err == nil {
			dm.SourceSchema = s
		}
	}
	if m.TargetSchemaJSON != "" {
		var s mapping.Schema
		if err := json.Unmarshal([]byte(m.TargetSchemaJSON), &s); err == nil {
			dm.TargetSchema = s
		}
	}
	if m.FieldMappingsJSON != "" {
		var rules []mapping.FieldMapping
		if err := json.Unmarshal([]byte(m.FieldMappingsJSON), &rules); err == nil {
			dm.FieldMappings = rules
		}
	}

	return dm
}

// FromDomain populates the persistence model from a domain DataMapping aggregate
func (m *DataMappingModel) FromDomain(dm *mapping.DataMapping) {
	m.FromDomainOwnedAggregateRoot(dm.OwnedAggregateRoot)
	m.IntegrationID = dm.IntegrationID
	m.Name = dm.Name
	m.Description = dm.Description

	if data, err := json.Marshal(dm.SourceSchema); err == nil {
		m.SourceSchemaJSON = string(data)
	}
	if data, err := json.Marshal(dm.TargetSchema); err == nil {
		m.TargetSchemaJSON = string(data)
	}
	if len(dm.FieldMappings) > 0 {
		if data, err := json.Marshal(dm.FieldMappings); err == nil {
			m.FieldMappingsJSON = string(data)
		}
	} else {
		m.FieldMappingsJSON = "[]"
	}
}

// DataMappingModelFromDomain builds a persistence model from a domain aggregate
func DataMappingModelFromDomain(dm *mapping.DataMapping) *DataMappingModel {
	m := &DataMappingModel{}
	m.FromDomain(dm)
	return m
}
