package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"email", "message"},
		"properties": map[string]any{
			"email":   map[string]any{"type": "string", "format": "email"},
			"message": map[string]any{"type": "string", "minLength": 1},
			"age":     map[string]any{"type": "number", "minimum": 0},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	err := NewValidator().Validate(contactSchema(), core.Payload{
		"email":   "ann@example.com",
		"message": "hello",
		"age":     json.Number("31"),
	})

	assert.NoError(t, err)
}

func TestValidate_Invalid(t *testing.T) {
	err := NewValidator().Validate(contactSchema(), core.Payload{"email": "not-an-email"})

	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 2)
	assert.Contains(t, verr.Error(), "payload validation failed")
}

func TestValidate_EmptySchema(t *testing.T) {
	assert.NoError(t, NewValidator().Validate(nil, core.Payload{"x": 1}))
}

func TestValidate_BrokenSchema(t *testing.T) {
	err := NewValidator().Validate(map[string]any{"type": 12}, core.Payload{})

	var verr *core.ValidationError
	assert.Error(t, err)
	assert.False(t, errors.As(err, &verr))
}
