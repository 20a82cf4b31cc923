// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error joins all messages; it is empty for a valid result.
func (r *ValidationResult) Error() string {
	if r == nil || r.Valid {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// Schema is a compiled JSON schema.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

func Compile(name, schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

func MustCompile(name, schemaJSON string) *Schema {
	s, err := Compile(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string { return s.name }

// ValidateBytes validates a raw JSON document.
func (s *Schema) ValidateBytes(doc []byte) *ValidationResult {
	return s.validate(gojsonschema.NewBytesLoader(doc))
}

// ValidateGo validates an already decoded value such as map[string]interface{}.
func (s *Schema) ValidateGo(v interface{}) *ValidationResult {
	return s.validate(gojsonschema.NewGoLoader(v))
}

func (s *Schema) validate(doc gojsonschema.JSONLoader) *ValidationResult {
	result, err := s.schema.Validate(doc)
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_JSON"}},
		}
	}
	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
			Code:    strings.ToUpper(re.Type()),
		})
	}
	return &ValidationResult{Valid: false, Errors: errs}
}
