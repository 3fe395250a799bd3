package mapping

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/flowcreate/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransformContext carries the inputs of one transformation run
type TransformContext struct {
	// SourceData is the payload to transform
	SourceData map[string]any
	// OwnerID is the acting user, for traceability only
	OwnerID uuid.UUID
	// ExecutionID ties the run to an integration execution, if any
	ExecutionID uuid.UUID
}

// Statistics counts per-field outcomes of a transformation
type Statistics struct {
	FieldsMapped    int `json:"fields_mapped"`
	FieldsSkipped   int `json:"fields_skipped"`
	FieldsDefaulted int `json:"fields_defaulted"`
}

// TransformResult is the outcome of applying a DataMapping to a payload
type TransformResult struct {
	// Success is true only when every rule applied cleanly
	Success bool `json:"success"`
	// MappingValid is false when the mapping itself failed validation;
	// in that case no transformation was attempted
	MappingValid bool `json:"mapping_valid"`
	// Data is the transformed payload; nil unless Success
	Data map[string]any `json:"data,omitempty"`
	// Statistics counts field outcomes
	Statistics Statistics `json:"statistics"`
	// Errors lists field-scoped problems; empty when Success
	Errors []shared.FieldError `json:"errors,omitempty"`
}

// Transform applies the mapping to the context's source data.
//
// The run is strictly staged: the mapping is validated first, then the
// source payload against the source schema, and only then are the field
// rules applied in declaration order. A validation failure at either
// stage short-circuits with no (partial) transformation.
func Transform(m *DataMapping, tctx TransformContext) TransformResult {
	if verr := m.Validate(); verr.HasErrors() {
		return TransformResult{
			Success:      false,
			MappingValid: false,
			Errors:       verr.Errors,
		}
	}

	if errs := m.SourceSchema.ValidateData(tctx.SourceData); len(errs) > 0 {
		return TransformResult{
			Success:      false,
			MappingValid: true,
			Errors:       errs,
		}
	}

	result := TransformResult{MappingValid: true}
	out := make(map[string]any)

	for _, rule := range m.FieldMappings {
		value, applied, err := applyRule(rule, tctx.SourceData)
		if err != nil {
			result.Errors = append(result.Errors, shared.FieldError{Field: rule.TargetField, Message: err.Error()})
			continue
		}
		if !applied {
			if def, ok := rule.Config["default"]; ok {
				out[rule.TargetField] = def
				result.Statistics.FieldsDefaulted++
				continue
			}
			if rule.Required {
				result.Errors = append(result.Errors, shared.FieldError{Field: rule.TargetField, Message: "no value produced for required mapping"})
				continue
			}
			// Unmapped optional target fields are omitted, not defaulted.
			result.Statistics.FieldsSkipped++
			continue
		}
		out[rule.TargetField] = value
		result.Statistics.FieldsMapped++
	}

	if len(result.Errors) > 0 {
		result.Success = false
		return result
	}

	result.Success = true
	result.Data = out
	return result
}

// applyRule produces the target value for one rule.
// The second return is false when the rule produced nothing (absent
// source value, missed lookup without default).
func applyRule(rule FieldMapping, source map[string]any) (any, bool, error) {
	switch rule.Kind {
	case KindDirect:
		val, ok := source[rule.SourceField]
		if !ok || val == nil {
			return nil, false, nil
		}
		return val, true, nil

	case KindFormat:
		val, ok := source[rule.SourceField]
		if !ok || val == nil {
			return nil, false, nil
		}
		formatted, err := applyFormat(val, rule.Config)
		if err != nil {
			return nil, false, err
		}
		return formatted, true, nil

	case KindLookup:
		val, ok := source[rule.SourceField]
		if !ok || val == nil {
			return nil, false, nil
		}
		return applyLookup(val, rule.Config)

	case KindExpression:
		return applyExpression(source, rule.Config)

	default:
		return nil, false, fmt.Errorf("unknown transformation kind %q", rule.Kind)
	}
}

// applyFormat applies a declared string, number or date formatter.
//
// Recognized config keys:
//
//	transform     upper | lower | title | trim  (strings)
//	prefix/suffix string concatenation          (strings)
//	decimals      fixed decimal places          (numbers)
//	source_layout / target_layout               (dates, Go reference layouts)
func applyFormat(val any, config map[string]any) (any, error) {
	if layout, ok := config["target_layout"].(string); ok {
		return formatDate(val, config, layout)
	}

	switch v := val.(type) {
	case string:
		out := v
		if tr, ok := config["transform"].(string); ok {
			switch tr {
			case "upper":
				out = strings.ToUpper(out)
			case "lower":
				out = strings.ToLower(out)
			case "title":
				out = strings.Title(out) //nolint:staticcheck // ASCII field values only
			case "trim":
				out = strings.TrimSpace(out)
			default:
				return nil, fmt.Errorf("unknown string transform %q", tr)
			}
		}
		if p, ok := config["prefix"].(string); ok {
			out = p + out
		}
		if s, ok := config["suffix"].(string); ok {
			out = out + s
		}
		return out, nil

	case float64, float32, int, int32, int64:
		return formatNumber(v, config)

	default:
		return nil, fmt.Errorf("format mapping cannot handle %T", val)
	}
}

// formatNumber renders a numeric value with fixed decimal places using
// decimal arithmetic, so repeated runs never drift.
func formatNumber(val any, config map[string]any) (any, error) {
	var d decimal.Decimal
	switch v := val.(type) {
	case float64:
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	case int:
		d = decimal.NewFromInt(int64(v))
	case int32:
		d = decimal.NewFromInt32(v)
	case int64:
		d = decimal.NewFromInt(v)
	}

	places, ok := numberConfig(config, "decimals")
	if !ok {
		return val, nil
	}
	return d.StringFixed(int32(places)), nil
}

// formatDate re-renders a timestamp into the target layout
func formatDate(val any, config map[string]any, targetLayout string) (any, error) {
	var t time.Time
	switch v := val.(type) {
	case time.Time:
		t = v
	case string:
		layout := time.RFC3339
		if sl, ok := config["source_layout"].(string); ok {
			layout = sl
		}
		parsed, err := time.Parse(layout, v)
		if err != nil {
			return nil, fmt.Errorf("cannot parse date %q: %v", v, err)
		}
		t = parsed
	default:
		return nil, fmt.Errorf("date format mapping cannot handle %T", val)
	}
	return t.Format(targetLayout), nil
}

// applyLookup resolves the source value through the declared static table.
// Keys are compared as strings. A miss falls back to config["default"]
// when present, otherwise the rule produces nothing.
func applyLookup(val any, config map[string]any) (any, bool, error) {
	table, ok := config["table"].(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("lookup mapping has no table")
	}
	key := fmt.Sprintf("%v", val)
	if resolved, hit := table[key]; hit {
		return resolved, true, nil
	}
	if def, hasDefault := config["default"]; hasDefault {
		return def, true, nil
	}
	return nil, false, nil
}

// applyExpression evaluates the declared expression against the source
// record. The evaluator is restricted and side-effect-free: source field
// references, arithmetic, string concatenation, comparisons and the
// conditional operator, with no function calls into the host.
func applyExpression(source map[string]any, config map[string]any) (any, bool, error) {
	exprSrc, ok := config["expr"].(string)
	if !ok || exprSrc == "" {
		return nil, false, fmt.Errorf("expression mapping has no expr")
	}

	program, err := expr.Compile(exprSrc, expr.Env(source))
	if err != nil {
		return nil, false, fmt.Errorf("invalid expression: %v", err)
	}
	out, err := expr.Run(program, source)
	if err != nil {
		return nil, false, fmt.Errorf("expression failed: %v", err)
	}
	if out == nil {
		return nil, false, nil
	}
	return out, true, nil
}

// numberConfig reads an integer-ish config value. JSON decoding yields
// float64; Go construction yields int.
func numberConfig(config map[string]any, key string) (int, bool) {
	switch v := config[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
