package config

import (
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/apinette/pkg/value"
)

// Batch represents the top-level batch file structure.
type Batch struct {
	// Variables are substituted into {{name}} placeholders
	Variables map[string]string `json:"variables,omitempty" yaml:"variables,omitempty"`

	// Schemas defines JSON schemas requests can validate responses against
	Schemas map[string]JSONValue `json:"schemas,omitempty" yaml:"schemas,omitempty"`

	// Endpoints defines the targets requests are sent to
	Endpoints map[string]Endpoint `json:"endpoints" yaml:"endpoints" validate:"required,min=1,dive"`

	// Requests are dispatched together, in this order
	Requests []Request `json:"requests" yaml:"requests" validate:"required,min=1,dive"`
}

// Endpoint represents a target host with optional authentication.
type Endpoint struct {
	Scheme     string `json:"scheme" yaml:"scheme" validate:"required"`
	Host       string `json:"host" yaml:"host" validate:"required"`
	BasePath   string `json:"basePath,omitempty" yaml:"basePath,omitempty"`
	Verbose    bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	Auth       *Auth  `json:"auth,omitempty" yaml:"auth,omitempty" validate:"omitempty"`
	AuthPolicy string `json:"authPolicy,omitempty" yaml:"authPolicy,omitempty" validate:"omitempty,oneof=append replace"`
}

// Auth represents endpoint credentials.
type Auth struct {
	Type     string `json:"type" yaml:"type" validate:"required,oneof=basic none"`
	User     string `json:"user,omitempty" yaml:"user,omitempty" validate:"required_if=Type basic"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// Request represents one request of the batch.
type Request struct {
	// Name identifies the request in output and in --only filters
	Name string `json:"name" yaml:"name" validate:"required"`

	// Endpoint is the key of an entry in Batch.Endpoints
	Endpoint string `json:"endpoint" yaml:"endpoint" validate:"required"`

	// Method is GET, POST, PUT, DELETE or any other method token
	Method string `json:"method" yaml:"method" validate:"required"`

	// Path is appended to the endpoint's base path
	Path string `json:"path" yaml:"path"`

	// Headers are request-specific headers
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Body is sent as JSON; key order is preserved
	Body *JSONValue `json:"body,omitempty" yaml:"body,omitempty"`

	// RawBody is sent verbatim without a Content-Type
	RawBody *string `json:"rawBody,omitempty" yaml:"rawBody,omitempty"`

	// Extract maps variable names to JSON paths evaluated on the response
	Extract map[string]string `json:"extract,omitempty" yaml:"extract,omitempty"`

	// Schema is the key of an entry in Batch.Schemas the response must match
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// JSONValue holds an arbitrary JSON document read from either a JSON or a
// YAML batch file, keeping object key order.
type JSONValue struct {
	value.Value
}

func (j *JSONValue) UnmarshalJSON(data []byte) error {
	v, err := value.Decode(data)
	if err != nil {
		return err
	}
	j.Value = v
	return nil
}

func (j *JSONValue) UnmarshalYAML(node *yaml.Node) error {
	v, err := value.FromYAML(node)
	if err != nil {
		return err
	}
	j.Value = v
	return nil
}

func (j JSONValue) MarshalJSON() ([]byte, error) {
	return value.Encode(j.Value)
}

// Bytes returns the compact JSON encoding.
func (j JSONValue) Bytes() ([]byte, error) {
	return value.Encode(j.Value)
}
