package mapping

import (
	"time"

	"github.com/flowcreate/backend/internal/domain/mapping"
	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SchemaFieldRequest describes one schema field in a request
type SchemaFieldRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Type     string `json:"type" binding:"required,oneof=string number boolean object array date"`
	Required bool   `json:"required"`
}

// SchemaRequest describes a payload schema in a request
type SchemaRequest struct {
	Name    string               `json:"name" binding:"required,min=1,max=100"`
	Version string               `json:"version" binding:"max=20"`
	Fields  []SchemaFieldRequest `json:"fields" binding:"required,min=1,dive"`
}

// FieldMappingRequest describes one field-mapping rule in a request
type FieldMappingRequest struct {
	SourceField string         `json:"source_field"`
	TargetField string         `json:"target_field" binding:"required"`
	Kind        string         `json:"kind" binding:"required,oneof=direct format lookup expression"`
	Config      map[string]any `json:"config"`
	Required    bool           `json:"required"`
}

// CreateMappingRequest represents a request to create a data mapping
type CreateMappingRequest struct {
	IntegrationID uuid.UUID             `json:"integration_id" binding:"required"`
	Name          string                `json:"name" binding:"required,min=1,max=200"`
	Description   string                `json:"description" binding:"max=2000"`
	SourceSchema  SchemaRequest         `json:"source_schema" binding:"required"`
	TargetSchema  SchemaRequest         `json:"target_schema" binding:"required"`
	FieldMappings []FieldMappingRequest `json:"field_mappings" binding:"dive"`
}

// UpdateRulesRequest replaces the full rule list of a mapping
type UpdateRulesRequest struct {
	FieldMappings []FieldMappingRequest `json:"field_mappings" binding:"required,dive"`
}

// PreviewRequest asks for a dry-run transformation of a sample payload
type PreviewRequest struct {
	SourceData map[string]any `json:"source_data" binding:"required"`
}

// ListFilter represents filter options for the mapping list
type ListFilter struct {
	IntegrationID *uuid.UUID `form:"integration_id"`
	Search        string     `form:"search"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// MappingResponse represents a data mapping in API responses
type MappingResponse struct {
	ID            uuid.UUID              `json:"id"`
	OwnerID       uuid.UUID              `json:"owner_id"`
	IntegrationID uuid.UUID              `json:"integration_id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	SourceSchema  mapping.Schema         `json:"source_schema"`
	TargetSchema  mapping.Schema         `json:"target_schema"`
	FieldMappings []mapping.FieldMapping `json:"field_mappings"`
	IsValid       bool                   `json:"is_valid"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	Version       int                    `json:"version"`
}

// MappingListResponse represents a list item for data mappings
type MappingListResponse struct {
	ID            uuid.UUID `json:"id"`
	IntegrationID uuid.UUID `json:"integration_id"`
	Name          string    `json:"name"`
	RuleCount     int       `json:"rule_count"`
	IsValid       bool      `json:"is_valid"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidationResponse reports mapping validity in API responses
type ValidationResponse struct {
	IsValid bool                `json:"is_valid"`
	Errors  []shared.FieldError `json:"errors,omitempty"`
}

// PreviewResponse is the outcome of a dry-run transformation
type PreviewResponse struct {
	Success      bool                `json:"success"`
	MappingValid bool                `json:"mapping_valid"`
	Data         map[string]any      `json:"data,omitempty"`
	Statistics   mapping.Statistics  `json:"statistics"`
	Errors       []shared.FieldError `json:"errors,omitempty"`
}

// toSchema converts a SchemaRequest into the domain schema
func toSchema(req SchemaRequest) mapping.Schema {
	fields := make([]mapping.SchemaField, len(req.Fields))
	for i, f := range req.Fields {
		fields[i] = mapping.SchemaField{
			Name:     f.Name,
			Type:     mapping.FieldType(f.Type),
			Required: f.Required,
		}
	}
	return mapping.Schema{Name: req.Name, Version: req.Version, Fields: fields}
}

// toFieldMappings converts rule requests into domain rules
func toFieldMappings(reqs []FieldMappingRequest) []mapping.FieldMapping {
	rules := make([]mapping.FieldMapping, len(reqs))
	for i, r := range reqs {
		rules[i] = mapping.FieldMapping{
			SourceField: r.SourceField,
			TargetField: r.TargetField,
			Kind:        mapping.TransformationKind(r.Kind),
			Config:      r.Config,
			Required:    r.Required,
		}
	}
	return rules
}

// ToMappingResponse converts a domain DataMapping to MappingResponse
func ToMappingResponse(m *mapping.DataMapping) MappingResponse {
	return MappingResponse{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		IntegrationID: m.IntegrationID,
		Name:          m.Name,
		Description:   m.Description,
		SourceSchema:  m.SourceSchema,
		TargetSchema:  m.TargetSchema,
		FieldMappings: m.FieldMappings,
		IsValid:       m.IsValid(),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		Version:       m.Version,
	}
}

// ToMappingListResponses converts domain mappings to list items
func ToMappingListResponses(items []mapping.DataMapping) []MappingListResponse {
	responses := make([]MappingListResponse, len(items))
	for i := range items {
		m := &items[i]
		responses[i] = MappingListResponse{
			ID:            m.ID,
			IntegrationID: m.IntegrationID,
			Name:          m.Name,
			RuleCount:     len(m.FieldMappings),
			IsValid:       m.IsValid(),
			CreatedAt:     m.CreatedAt,
		}
	}
	return responses
}
