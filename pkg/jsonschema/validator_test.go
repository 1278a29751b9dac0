package jsonschema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/apinette/pkg/value"
)

const firmSchema = `{
	"type": "object",
	"properties": {
		"id": { "type": "integer" },
		"name": { "type": "string" },
		"tags": { "type": "array", "items": { "type": "string" } }
	},
	"required": ["id", "name"]
}`

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		schema        string
		json          string
		expectedValid bool
		expectedError bool
	}{
		{"Valid object", firmSchema, `{"id": 1, "name": "Acme"}`, true, false},
		{"Missing required property", firmSchema, `{"id": 1}`, false, false},
		{"Wrong type", firmSchema, `{"id": "one", "name": "Acme"}`, false, false},
		{"Fractional integer", firmSchema, `{"id": 1.5, "name": "Acme"}`, false, false},
		{"Invalid schema", `{"type": 12}`, `{}`, false, true},
		{"Invalid document", firmSchema, `{"id": `, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := Validate([]byte(tt.json), []byte(tt.schema))
			if (err != nil) != tt.expectedError {
				t.Fatalf("Validate() error = %v, expectedError %v", err, tt.expectedError)
			}
			if valid != tt.expectedValid {
				t.Errorf("Validate() valid = %v, want %v", valid, tt.expectedValid)
			}
		})
	}
}

func TestSchema_ValidateReportsLeafErrors(t *testing.T) {
	schema, err := Compile("firm", []byte(firmSchema))
	require.NoError(t, err)
	assert.Equal(t, "firm", schema.Name())

	errs := schema.ValidateBytes([]byte(`{"id": "x", "tags": ["a", 2]}`))
	require.NotEmpty(t, errs)

	joined := errs.Error()
	assert.Contains(t, joined, "/id")
	assert.Contains(t, joined, "/tags/1")
	assert.Contains(t, joined, "name")
	assert.Equal(t, len(errs)-1, strings.Count(joined, "; "))
}

func TestSchema_ValidateValue(t *testing.T) {
	schema, err := Compile("firm", []byte(firmSchema))
	require.NoError(t, err)

	obj := value.NewObject()
	obj.Set("id", value.Int(7))
	obj.Set("name", value.String("Acme"))
	assert.Nil(t, schema.Validate(value.FromObject(obj)))

	assert.NotEmpty(t, schema.Validate(value.ArrayOf()))
}

func TestCompileAll(t *testing.T) {
	schemas, err := CompileAll(map[string][]byte{
		"firm": []byte(firmSchema),
		"any":  []byte(`{}`),
	})
	require.NoError(t, err)
	assert.Len(t, schemas, 2)

	_, err = CompileAll(map[string][]byte{"bad": []byte(`{"type": 12}`)})
	assert.Error(t, err)
}

func TestValidationErrors_Empty(t *testing.T) {
	assert.Equal(t, "", ValidationErrors(nil).Error())
}
