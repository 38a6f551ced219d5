package schema

import (
	"fmt"

	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/xeipuuv/gojsonschema"
)

// Validator checks submissions against a form's JSON schema
type Validator struct{}

// NewValidator creates a new schema validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns a *core.ValidationError when payload does not satisfy
// schema. An empty schema accepts everything.
func (v *Validator) Validate(schema map[string]any, payload core.Payload) error {
	if len(schema) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(map[string]any(payload))

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema evaluation failed: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return &core.ValidationError{Errors: errs}
	}

	return nil
}
