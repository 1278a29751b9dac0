// Package config loads, validates and compiles apinette batch files.
//
// A batch file, in YAML or JSON, defines:
//   - Variables: values substituted into {{name}} placeholders
//   - Endpoints: scheme, host, base path and credentials of each target
//   - Requests: the requests dispatched together, in order
//   - Schemas: JSON schemas responses can be checked against
//
// Basic Usage:
//
//	batch, err := config.LoadBatch("firms.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	compiled, err := config.Compile(batch, config.CompileOptions{
//	    Vars: map[string]string{"host": "localhost:8081"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	outcomes, err := engine.Submit(ctx, compiled.Specs()...)
//
// Variable Substitution:
//
// Placeholders are replaced in endpoint scheme, host, base path and
// credentials, and in request paths, header values and bodies. Variables
// given to Compile override the file's own. A placeholder left in a host
// or path after substitution is a validation error.
//
// Validation:
//
// ValidateBatch returns every problem found as a ValidationError. Compile
// and Validate fold them into a single *http.ConfigError.
package config
