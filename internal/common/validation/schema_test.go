package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["sessionId", "utterance"],
	"properties": {
		"sessionId": {"type": "string", "minLength": 1},
		"utterance": {"type": "string"},
		"limit": {"type": "integer", "minimum": 1, "maximum": 50}
	}
}`

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile([]byte(`{"type": 12}`))
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile([]byte(`not json`)) })
}

func TestSchema_Validate(t *testing.T) {
	schema := MustCompile([]byte(testSchema))

	t.Run("valid struct", func(t *testing.T) {
		doc := struct {
			SessionID string `json:"sessionId"`
			Utterance string `json:"utterance"`
		}{SessionID: "s-1", Utterance: ""}

		result, err := schema.Validate(doc)
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.NoError(t, result.Err())
	})

	t.Run("missing required field", func(t *testing.T) {
		result, err := schema.Validate(map[string]interface{}{"utterance": "oi"})
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Len(t, result.Errors, 1)
		assert.Equal(t, "REQUIRED", result.Errors[0].Code)
		assert.Error(t, result.Err())
	})

	t.Run("empty session id", func(t *testing.T) {
		result, err := schema.Validate(map[string]interface{}{"sessionId": "", "utterance": "oi"})
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.True(t, result.HasErrors("sessionId"))
		assert.Len(t, result.GetErrorsForField("sessionId"), 1)
	})
}

func TestSchema_ValidateJSON(t *testing.T) {
	schema := MustCompile([]byte(testSchema))

	result, err := schema.ValidateJSON([]byte(`{"sessionId":"a","utterance":"b","limit":99}`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("limit"))

	_, err = schema.ValidateJSON([]byte(`{broken`))
	assert.Error(t, err)
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("suporte@noxmedia.studio"))
	assert.False(t, ValidateEmail("suporte"))
	assert.False(t, ValidateEmail(""))
}
