package mapping

import (
	"time"

	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TransformationKind selects how a field mapping produces its target value
type TransformationKind string

const (
	// KindDirect copies the source value verbatim
	KindDirect TransformationKind = "direct"
	// KindFormat applies a declared string or number formatter
	KindFormat TransformationKind = "format"
	// KindLookup resolves the source value through a declared table
	KindLookup TransformationKind = "lookup"
	// KindExpression evaluates a restricted expression against the source record
	KindExpression TransformationKind = "expression"
)

// IsValid returns true if the transformation kind is valid
func (k TransformationKind) IsValid() bool {
	switch k {
	case KindDirect, KindFormat, KindLookup, KindExpression:
		return true
	default:
		return false
	}
}

// String returns the string representation of TransformationKind
func (k TransformationKind) String() string {
	return string(k)
}

// FieldMapping is one declarative rule translating a source field into a
// target field
type FieldMapping struct {
	ID          uuid.UUID          `json:"id"`
	SourceField string             `json:"source_field"`
	TargetField string             `json:"target_field"`
	Kind        TransformationKind `json:"kind"`
	Config      map[string]any     `json:"config,omitempty"`
	Required    bool               `json:"required"`
}

// DataMapping is the aggregate owning the transformation rules between a
// source and a target schema for one integration.
type DataMapping struct {
	shared.OwnedAggregateRoot
	IntegrationID uuid.UUID
	Name          string
	Description   string
	SourceSchema  Schema
	TargetSchema  Schema
	FieldMappings []FieldMapping
}

// NewDataMapping creates a new data mapping once both schemas are known
func NewDataMapping(ownerID, integrationID uuid.UUID, name, description string, source, target Schema) (*DataMapping, error) {
	verr := &shared.ValidationError{}
	if ownerID == uuid.Nil {
		verr.Add("owner_id", "owner is required")
	}
	if integrationID == uuid.Nil {
		verr.Add("integration_id", "integration reference is required")
	}
	if name == "" {
		verr.Add("name", "mapping name is required")
	}
	if serr := source.Validate(); serr.HasErrors() {
		for _, fe := range serr.Errors {
			verr.Add("source_schema."+fe.Field, fe.Message)
		}
	}
	if terr := target.Validate(); terr.HasErrors() {
		for _, fe := range terr.Errors {
			verr.Add("target_schema."+fe.Field, fe.Message)
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}

	m := &DataMapping{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		IntegrationID:      integrationID,
		Name:               name,
		Description:        description,
		SourceSchema:       source,
		TargetSchema:       target,
		FieldMappings:      make([]FieldMapping, 0),
	}

	m.AddDomainEvent(NewMappingCreatedEvent(m))

	return m, nil
}

// AddFieldMapping appends one field-mapping rule. Declaration order is
// application order.
func (m *DataMapping) AddFieldMapping(sourceField, targetField string, kind TransformationKind, config map[string]any, required bool) error {
	verr := &shared.ValidationError{}
	if sourceField == "" && kind != KindExpression {
		verr.Add("source_field", "source field is required")
	}
	if targetField == "" {
		verr.Add("target_field", "target field is required")
	}
	if !kind.IsValid() {
		verr.Add("kind", "unknown transformation kind")
	}
	if (kind == KindLookup || kind == KindExpression) && len(config) == 0 {
		verr.Add("config", string(kind)+" mappings require a transformation config")
	}
	if _, ok := m.TargetSchema.Field(targetField); targetField != "" && !ok {
		verr.Add("target_field", "target schema has no field "+targetField)
	}
	if verr.HasErrors() {
		return verr
	}

	m.FieldMappings = append(m.FieldMappings, FieldMapping{
		ID:          uuid.New(),
		SourceField: sourceField,
		TargetField: targetField,
		Kind:        kind,
		Config:      config,
		Required:    required,
	})
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

// RemoveFieldMapping removes a rule by id
func (m *DataMapping) RemoveFieldMapping(id uuid.UUID) bool {
	for i, fm := range m.FieldMappings {
		if fm.ID == id {
			m.FieldMappings = append(m.FieldMappings[:i], m.FieldMappings[i+1:]...)
			m.UpdatedAt = time.Now()
			m.IncrementVersion()
			return true
		}
	}
	return false
}

// ReplaceFieldMappings swaps the whole rule list, preserving declaration order
func (m *DataMapping) ReplaceFieldMappings(rules []FieldMapping) error {
	for _, fm := range rules {
		if !fm.Kind.IsValid() {
			return shared.NewValidationError(shared.FieldError{Field: fm.TargetField, Message: "unknown transformation kind"})
		}
	}
	replaced := make([]FieldMapping, len(rules))
	copy(replaced, rules)
	for i := range replaced {
		if replaced[i].ID == uuid.Nil {
			replaced[i].ID = uuid.New()
		}
	}
	m.FieldMappings = replaced
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	return nil
}

// Validate checks the mapping itself: required-target-field coverage and
// that lookup/expression rules carry a non-empty config. A mapping that
// fails validation cannot be used in execution.
func (m *DataMapping) Validate() *shared.ValidationError {
	verr := &shared.ValidationError{}

	covered := make(map[string]bool)
	for _, fm := range m.FieldMappings {
		covered[fm.TargetField] = true
		if (fm.Kind == KindLookup || fm.Kind == KindExpression) && len(fm.Config) == 0 {
			verr.Add(fm.TargetField, string(fm.Kind)+" mapping requires a transformation config")
		}
		if !fm.Kind.IsValid() {
			verr.Add(fm.TargetField, "unknown transformation kind")
		}
	}

	for _, name := range m.TargetSchema.RequiredFields() {
		if !covered[name] {
			verr.Add(name, "required target field has no mapping")
		}
	}

	return verr
}

// IsValid returns true if the mapping passes validation
func (m *DataMapping) IsValid() bool {
	return !m.Validate().HasErrors()
}
