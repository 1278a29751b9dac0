// Package batch runs a batch file: it compiles the file into request specs,
// dispatches them together through one engine Submit, and checks every
// response against the file's extract and schema rules.
package batch

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/apinette/config"
	apihttp "github.com/wesleyorama2/apinette/http"
	"github.com/wesleyorama2/apinette/internal/metrics"
	"github.com/wesleyorama2/apinette/pkg/jsonpath"
	"github.com/wesleyorama2/apinette/pkg/jsonschema"
)

// Options controls a Run.
type Options struct {
	Vars    map[string]string
	Only    []string
	Verbose bool

	// Progress is called for every outcome as it completes, on the
	// goroutine that called Run.
	Progress apihttp.Hook
}

// Check is the result of the extract and schema rules of one request.
type Check struct {
	Name       string
	Extracted  map[string]string
	ExtractErr error
	Schema     string
	SchemaErrs jsonschema.ValidationErrors
}

// Passed reports whether every rule held.
func (c *Check) Passed() bool {
	return c.ExtractErr == nil && len(c.SchemaErrs) == 0
}

// Result is the outcome of a Run.
type Result struct {
	// Outcomes are in batch order
	Outcomes []*apihttp.Outcome
	// Checks has one entry per outcome, same order
	Checks  []Check
	Summary metrics.Summary
}

// Variables merges every extracted value, later requests winning.
func (r *Result) Variables() map[string]string {
	vars := make(map[string]string)
	for _, c := range r.Checks {
		for k, v := range c.Extracted {
			vars[k] = v
		}
	}
	return vars
}

// Failed reports whether any exchange failed, returned a 4xx/5xx status,
// or broke one of its rules.
func (r *Result) Failed() bool {
	for i, o := range r.Outcomes {
		if o.Failed() || o.Status >= 400 || !r.Checks[i].Passed() {
			return true
		}
	}
	return false
}

// Runner dispatches batches through an Engine.
type Runner struct {
	engine *apihttp.Engine
	log    zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(engine *apihttp.Engine, log zerolog.Logger) *Runner {
	return &Runner{engine: engine, log: log}
}

// Run compiles and dispatches batch. Errors are returned only for problems
// found before anything was sent.
func (r *Runner) Run(ctx context.Context, b *config.Batch, opts Options) (*Result, error) {
	collector := metrics.NewCollector()
	hook := func(o *apihttp.Outcome) {
		collector.Record(o)
		if opts.Progress != nil {
			opts.Progress(o)
		}
	}

	compiled, err := config.Compile(b, config.CompileOptions{
		Vars:       opts.Vars,
		Only:       opts.Only,
		Verbose:    opts.Verbose,
		OnResponse: hook,
	})
	if err != nil {
		return nil, err
	}

	schemas, err := jsonschema.CompileAll(compiled.Schemas)
	if err != nil {
		return nil, &apihttp.ConfigError{Field: "schemas", Message: "cannot compile schema", Err: err}
	}

	r.log.Debug().
		Int("requests", len(compiled.Requests)).
		Int("endpoints", len(compiled.Endpoints)).
		Msg("dispatching batch")

	outcomes, err := r.engine.Submit(ctx, compiled.Specs()...)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Outcomes: outcomes,
		Checks:   make([]Check, len(outcomes)),
		Summary:  collector.Summary(),
	}
	for i, o := range outcomes {
		result.Checks[i] = check(o, compiled.Requests[i].Source, schemas)
	}

	r.log.Debug().
		Int64("succeeded", result.Summary.Succeeded).
		Int64("http_errors", result.Summary.HTTPErrors).
		Int64("failed", result.Summary.Failed).
		Msg("batch finished")

	return result, nil
}

func check(o *apihttp.Outcome, req config.Request, schemas map[string]*jsonschema.Schema) Check {
	c := Check{Name: req.Name, Schema: req.Schema}

	if len(req.Extract) > 0 {
		switch {
		case o.Failed():
			c.ExtractErr = fmt.Errorf("no response: %w", o.Err)
		default:
			c.Extracted, c.ExtractErr = jsonpath.ExtractAll(o.Body, req.Extract)
		}
	}

	if req.Schema != "" {
		schema := schemas[req.Schema]
		switch {
		case o.Failed():
			c.SchemaErrs = jsonschema.ValidationErrors{fmt.Errorf("no response: %w", o.Err)}
		case o.Value == nil:
			c.SchemaErrs = jsonschema.ValidationErrors{notJSON(o)}
		default:
			c.SchemaErrs = schema.Validate(*o.Value)
		}
	}
	return c
}

func notJSON(o *apihttp.Outcome) error {
	if o.DecodeErr != nil {
		return fmt.Errorf("response is not valid JSON: %w", o.DecodeErr)
	}
	return fmt.Errorf("response is not JSON (Content-Type %q)", o.Header("Content-Type"))
}

// SortedNames returns the keys of m in order.
func SortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
