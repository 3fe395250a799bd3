package mapping

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transformableMapping(t *testing.T) *DataMapping {
	t.Helper()
	m := newContactMapping(t)
	require.NoError(t, m.AddFieldMapping("email", "email", KindDirect, nil, true))
	require.NoError(t, m.AddFieldMapping("", "full_name", KindExpression, map[string]any{"expr": `first_name + " " + last_name`}, true))
	require.NoError(t, m.AddFieldMapping("country_code", "country", KindLookup, map[string]any{
		"table":   map[string]any{"DE": "Germany", "FR": "France"},
		"default": "Unknown",
	}, false))
	require.NoError(t, m.AddFieldMapping("score", "rating", KindFormat, map[string]any{"decimals": 2}, false))
	require.NoError(t, m.AddFieldMapping("created_at", "signup_date", KindFormat, map[string]any{"target_layout": "2006-01-02"}, false))
	return m
}

func contactPayload() map[string]any {
	return map[string]any{
		"first_name":   "Ada",
		"last_name":    "Lovelace",
		"email":        "ada@example.com",
		"country_code": "DE",
		"score":        87.5,
		"created_at":   "2026-08-14T09:30:00Z",
	}
}

func TestTransform(t *testing.T) {
	t.Run("applies all rule kinds", func(t *testing.T) {
		m := transformableMapping(t)
		result := Transform(m, TransformContext{SourceData: contactPayload(), OwnerID: uuid.New()})

		require.True(t, result.Success)
		assert.True(t, result.MappingValid)
		assert.Empty(t, result.Errors)
		assert.Equal(t, "ada@example.com", result.Data["email"])
		assert.Equal(t, "Ada Lovelace", result.Data["full_name"])
		assert.Equal(t, "Germany", result.Data["country"])
		assert.Equal(t, "87.50", result.Data["rating"])
		assert.Equal(t, "2026-08-14", result.Data["signup_date"])
		assert.Equal(t, 5, result.Statistics.FieldsMapped)
	})

	t.Run("deterministic across runs", func(t *testing.T) {
		m := transformableMapping(t)
		tctx := TransformContext{SourceData: contactPayload()}

		first := Transform(m, tctx)
		second := Transform(m, tctx)
		assert.Equal(t, first, second)
	})

	t.Run("does not mutate the source payload", func(t *testing.T) {
		m := transformableMapping(t)
		payload := contactPayload()
		Transform(m, TransformContext{SourceData: payload})
		assert.Equal(t, contactPayload(), payload)
	})

	t.Run("invalid mapping short circuits with no transformation", func(t *testing.T) {
		m := newContactMapping(t)
		result := Transform(m, TransformContext{SourceData: contactPayload()})

		assert.False(t, result.Success)
		assert.False(t, result.MappingValid)
		assert.Nil(t, result.Data)
		assert.NotEmpty(t, result.Errors)
	})

	t.Run("invalid source data short circuits", func(t *testing.T) {
		m := transformableMapping(t)
		result := Transform(m, TransformContext{SourceData: map[string]any{"email": "ada@example.com"}})

		assert.False(t, result.Success)
		assert.True(t, result.MappingValid)
		assert.Nil(t, result.Data)
		assert.NotEmpty(t, result.Errors)
		assert.Zero(t, result.Statistics.FieldsMapped)
	})

	t.Run("missing optional source field is skipped", func(t *testing.T) {
		m := transformableMapping(t)
		payload := contactPayload()
		delete(payload, "country_code")
		delete(payload, "score")

		result := Transform(m, TransformContext{SourceData: payload})
		require.True(t, result.Success)
		_, hasRating := result.Data["rating"]
		assert.False(t, hasRating)
		// country has a lookup default, so it is never skipped
		assert.Equal(t, 1, result.Statistics.FieldsSkipped)
		assert.Equal(t, 1, result.Statistics.FieldsDefaulted)
	})

	t.Run("missing required value is an error", func(t *testing.T) {
		m := newContactMapping(t)
		require.NoError(t, m.AddFieldMapping("", "full_name", KindExpression, map[string]any{"expr": `first_name + " " + last_name`}, true))
		require.NoError(t, m.AddFieldMapping("email", "email", KindDirect, nil, true))

		payload := contactPayload()
		payload["email"] = nil
		// Schema requires email; drop it from the schema's view by using
		// a mapping whose source schema allows the absence.
		m.SourceSchema.Fields[2].Required = false

		result := Transform(m, TransformContext{SourceData: payload})
		assert.False(t, result.Success)
		assert.Nil(t, result.Data)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "email", result.Errors[0].Field)
	})

	t.Run("lookup miss falls back to default", func(t *testing.T) {
		m := transformableMapping(t)
		payload := contactPayload()
		payload["country_code"] = "XX"

		result := Transform(m, TransformContext{SourceData: payload})
		require.True(t, result.Success)
		assert.Equal(t, "Unknown", result.Data["country"])
	})

	t.Run("expression failure is field scoped", func(t *testing.T) {
		m := newContactMapping(t)
		require.NoError(t, m.AddFieldMapping("email", "email", KindDirect, nil, true))
		require.NoError(t, m.AddFieldMapping("", "full_name", KindExpression, map[string]any{"expr": `first_name +`}, true))

		result := Transform(m, TransformContext{SourceData: contactPayload()})
		assert.False(t, result.Success)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, "full_name", result.Errors[0].Field)
	})
}

func TestApplyFormat(t *testing.T) {
	t.Run("string transforms", func(t *testing.T) {
		out, err := applyFormat("  Hello  ", map[string]any{"transform": "trim"})
		require.NoError(t, err)
		assert.Equal(t, "Hello", out)

		out, err = applyFormat("hello", map[string]any{"transform": "upper", "suffix": "!"})
		require.NoError(t, err)
		assert.Equal(t, "HELLO!", out)

		out, err = applyFormat("world", map[string]any{"prefix": "hello "})
		require.NoError(t, err)
		assert.Equal(t, "hello world", out)
	})

	t.Run("unknown transform errors", func(t *testing.T) {
		_, err := applyFormat("x", map[string]any{"transform": "reverse"})
		require.Error(t, err)
	})

	t.Run("number formatting uses fixed decimals", func(t *testing.T) {
		out, err := applyFormat(3.14159, map[string]any{"decimals": 2})
		require.NoError(t, err)
		assert.Equal(t, "3.14", out)

		out, err = applyFormat(10, map[string]any{"decimals": 1})
		require.NoError(t, err)
		assert.Equal(t, "10.0", out)
	})

	t.Run("date reformatting", func(t *testing.T) {
		out, err := applyFormat("14/08/2026", map[string]any{
			"source_layout": "02/01/2006",
			"target_layout": "2006-01-02",
		})
		require.NoError(t, err)
		assert.Equal(t, "2026-08-14", out)
	})

	t.Run("unparseable date errors", func(t *testing.T) {
		_, err := applyFormat("not a date", map[string]any{"target_layout": "2006-01-02"})
		require.Error(t, err)
	})
}
