package mapping

import (
	"fmt"
	"time"

	"github.com/flowcreate/backend/internal/domain/shared"
)

// FieldType is the declared type of a schema field
type FieldType string

const (
	// FieldTypeString is a text field
	FieldTypeString FieldType = "string"
	// FieldTypeNumber is a numeric field (integer or float)
	FieldTypeNumber FieldType = "number"
	// FieldTypeBoolean is a true/false field
	FieldTypeBoolean FieldType = "boolean"
	// FieldTypeObject is a nested object field
	FieldTypeObject FieldType = "object"
	// FieldTypeArray is a list field
	FieldTypeArray FieldType = "array"
	// FieldTypeDate is an RFC 3339 timestamp field
	FieldTypeDate FieldType = "date"
)

// IsValid returns true if the field type is valid
func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeString, FieldTypeNumber, FieldTypeBoolean, FieldTypeObject, FieldTypeArray, FieldTypeDate:
		return true
	default:
		return false
	}
}

// String returns the string representation of FieldType
func (t FieldType) String() string {
	return string(t)
}

// SchemaField describes a single field of a schema
type SchemaField struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// Schema is a value object describing the shape of a payload.
// Field order is significant and preserved.
type Schema struct {
	Name    string        `json:"name"`
	Version string        `json:"version"`
	Fields  []SchemaField `json:"fields"`
}

// Field returns the named field
func (s Schema) Field(name string) (SchemaField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return SchemaField{}, false
}

// RequiredFields returns the names of all required fields in order
func (s Schema) RequiredFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Validate checks the schema declaration itself
func (s Schema) Validate() *shared.ValidationError {
	verr := &shared.ValidationError{}
	if s.Name == "" {
		verr.Add("name", "schema name is required")
	}
	if len(s.Fields) == 0 {
		verr.Add("fields", "schema must declare at least one field")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			verr.Add("fields", "field name cannot be empty")
			continue
		}
		if !f.Type.IsValid() {
			verr.Add("fields."+f.Name, "unknown field type "+string(f.Type))
		}
		if _, dup := seen[f.Name]; dup {
			verr.Add("fields."+f.Name, "duplicate field name")
		}
		seen[f.Name] = struct{}{}
	}
	return verr
}

// ValidateData checks a concrete payload against the schema.
// Every violation is reported as its own field error; callers never see
// a partial report.
func (s Schema) ValidateData(data map[string]any) []shared.FieldError {
	var errs []shared.FieldError
	for _, f := range s.Fields {
		val, present := data[f.Name]
		if !present || val == nil {
			if f.Required {
				errs = append(errs, shared.FieldError{Field: f.Name, Message: "required field is missing"})
			}
			continue
		}
		if !valueMatchesType(val, f.Type) {
			errs = append(errs, shared.FieldError{
				Field:   f.Name,
				Message: fmt.Sprintf("expected %s, got %T", f.Type, val),
			})
		}
	}
	return errs
}

// valueMatchesType checks a decoded JSON value against a declared type.
// JSON numbers decode to float64; integers produced in Go code are
// accepted as numbers too.
func valueMatchesType(val any, t FieldType) bool {
	switch t {
	case FieldTypeString:
		_, ok := val.(string)
		return ok
	case FieldTypeNumber:
		switch val.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case FieldTypeBoolean:
		_, ok := val.(bool)
		return ok
	case FieldTypeObject:
		_, ok := val.(map[string]any)
		return ok
	case FieldTypeArray:
		_, ok := val.([]any)
		return ok
	case FieldTypeDate:
		switch v := val.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339, v)
			return err == nil
		}
		return false
	default:
		return false
	}
}
