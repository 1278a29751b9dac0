// Package jsonschema checks decoded response bodies against JSON Schemas.
package jsonschema

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/wesleyorama2/apinette/pkg/value"
)

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Schema is a compiled JSON Schema. It is safe for concurrent use.
type Schema struct {
	name   string
	schema *jsonschema.Schema
}

// Compile compiles the schema document src under name.
func Compile(name string, src []byte) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(src)); err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", name, err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: schema}, nil
}

// CompileAll compiles every named schema.
func CompileAll(srcs map[string][]byte) (map[string]*Schema, error) {
	out := make(map[string]*Schema, len(srcs))
	for name, src := range srcs {
		s, err := Compile(name, src)
		if err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}

func (s *Schema) Name() string { return s.name }

// Validate checks doc and returns every leaf violation, or nil when doc
// conforms.
func (s *Schema) Validate(doc value.Value) ValidationErrors {
	err := s.schema.Validate(doc.ToGo())
	if err == nil {
		return nil
	}
	if validationErr, ok := err.(*jsonschema.ValidationError); ok {
		return extractValidationErrors(validationErr)
	}
	return ValidationErrors{err}
}

// ValidateBytes decodes doc and validates it.
func (s *Schema) ValidateBytes(doc []byte) ValidationErrors {
	v, err := value.Decode(doc)
	if err != nil {
		return ValidationErrors{fmt.Errorf("invalid JSON: %w", err)}
	}
	return s.Validate(v)
}

// Validate validates a JSON document against a JSON Schema.
// Returns true if the document is valid. An error is returned only when
// the schema or the document cannot be parsed.
func Validate(doc, schema []byte) (bool, error) {
	s, err := Compile("schema", schema)
	if err != nil {
		return false, err
	}
	v, err := value.Decode(doc)
	if err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}
	return len(s.Validate(v)) == 0, nil
}

// extractValidationErrors extracts the leaf errors of a
// jsonschema.ValidationError tree.
func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "/"
		}
		return ValidationErrors{fmt.Errorf("validation error at %s: %s", location, err.Message)}
	}

	var errors ValidationErrors
	for _, childErr := range err.Causes {
		errors = append(errors, extractValidationErrors(childErr)...)
	}
	return errors
}
