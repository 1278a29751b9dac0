package config

import (
	"fmt"
	"sort"
	"strings"

	apihttp "github.com/wesleyorama2/apinette/http"
	"github.com/wesleyorama2/apinette/pkg/value"
)

// Compiled is a validated batch with variables substituted, ready to
// submit.
type Compiled struct {
	Endpoints map[string]*apihttp.Endpoint
	Requests  []CompiledRequest
	Schemas   map[string][]byte
}

// CompiledRequest pairs a RequestSpec with the batch entry it came from.
// Source has variables substituted.
type CompiledRequest struct {
	Source Request
	Spec   *apihttp.RequestSpec
}

// Specs returns the request specs in batch order.
func (c *Compiled) Specs() []*apihttp.RequestSpec {
	specs := make([]*apihttp.RequestSpec, len(c.Requests))
	for i, r := range c.Requests {
		specs[i] = r.Spec
	}
	return specs
}

// CompileOptions controls Compile.
type CompileOptions struct {
	// Vars override the batch file's own variables
	Vars map[string]string
	// Only keeps the named requests; empty keeps all
	Only []string
	// Verbose forces tracing on every endpoint
	Verbose bool
	// OnResponse is installed as every endpoint's hook
	OnResponse apihttp.Hook
}

// Compile substitutes variables, validates the result and builds
// Endpoints and RequestSpecs.
func Compile(batch *Batch, opts CompileOptions) (*Compiled, error) {
	vars := MergeEnvironments(batch.Variables, opts.Vars)
	resolved := substitute(batch, vars)

	if err := Validate(resolved); err != nil {
		return nil, err
	}
	if errs := unresolved(resolved); len(errs) > 0 {
		return nil, foldErrors(errs)
	}

	out := &Compiled{
		Endpoints: make(map[string]*apihttp.Endpoint, len(resolved.Endpoints)),
		Schemas:   make(map[string][]byte, len(resolved.Schemas)),
	}

	for name, schema := range resolved.Schemas {
		b, err := schema.Bytes()
		if err != nil {
			return nil, &apihttp.ConfigError{Field: "schemas." + name, Message: "cannot encode schema", Err: err}
		}
		out.Schemas[name] = b
	}

	for _, name := range sortedKeys(resolved.Endpoints) {
		ep, err := buildEndpoint(resolved.Endpoints[name], opts)
		if err != nil {
			return nil, fmt.Errorf("endpoints[%s]: %w", name, err)
		}
		out.Endpoints[name] = ep
	}

	only := make(map[string]bool, len(opts.Only))
	for _, name := range opts.Only {
		only[name] = true
	}

	for i, req := range resolved.Requests {
		if len(only) > 0 && !only[req.Name] {
			continue
		}
		spec, err := buildRequest(out.Endpoints[req.Endpoint], req)
		if err != nil {
			return nil, fmt.Errorf("requests[%d] (%s): %w", i, req.Name, err)
		}
		out.Requests = append(out.Requests, CompiledRequest{Source: req, Spec: spec})
	}

	if len(only) > 0 && len(out.Requests) == 0 {
		return nil, &apihttp.ConfigError{Field: "only", Message: "no request matches " + strings.Join(opts.Only, ", ")}
	}
	return out, nil
}

func buildEndpoint(cfg Endpoint, opts CompileOptions) (*apihttp.Endpoint, error) {
	policy, err := apihttp.ParseAuthPolicy(cfg.AuthPolicy)
	if err != nil {
		return nil, err
	}

	var auth apihttp.Auth = apihttp.NoAuth{}
	if cfg.Auth != nil && cfg.Auth.Type == "basic" {
		auth = apihttp.Basic(cfg.Auth.User, cfg.Auth.Password)
	}

	return apihttp.NewEndpoint(apihttp.EndpointConfig{
		Scheme:     cfg.Scheme,
		Host:       cfg.Host,
		BasePath:   cfg.BasePath,
		Auth:       auth,
		AuthPolicy: policy,
		Verbose:    cfg.Verbose || opts.Verbose,
		OnResponse: opts.OnResponse,
	})
}

func buildRequest(ep *apihttp.Endpoint, req Request) (*apihttp.RequestSpec, error) {
	opts := []apihttp.RequestOption{apihttp.WithName(req.Name)}
	for _, name := range sortedKeys(req.Headers) {
		opts = append(opts, apihttp.WithHeader(name, req.Headers[name]))
	}
	switch {
	case req.Body != nil:
		opts = append(opts, apihttp.WithJSON(req.Body.Value))
	case req.RawBody != nil:
		opts = append(opts, apihttp.WithBody([]byte(*req.RawBody)))
	}
	return ep.Request(strings.ToUpper(req.Method), req.Path, opts...)
}

// substitute returns a copy of batch with {{name}} placeholders replaced
// in every string that reaches the wire.
func substitute(batch *Batch, vars map[string]string) *Batch {
	out := &Batch{
		Variables: vars,
		Schemas:   batch.Schemas,
		Endpoints: make(map[string]Endpoint, len(batch.Endpoints)),
		Requests:  make([]Request, len(batch.Requests)),
	}
	for name, ep := range batch.Endpoints {
		ep.Scheme = ProcessEnvironment(ep.Scheme, vars)
		ep.Host = ProcessEnvironment(ep.Host, vars)
		ep.BasePath = ProcessEnvironment(ep.BasePath, vars)
		if ep.Auth != nil {
			auth := *ep.Auth
			auth.User = ProcessEnvironment(auth.User, vars)
			auth.Password = ProcessEnvironment(auth.Password, vars)
			ep.Auth = &auth
		}
		out.Endpoints[name] = ep
	}
	for i, req := range batch.Requests {
		req.Path = ProcessEnvironment(req.Path, vars)
		req.Headers = ProcessEnvironmentInMap(req.Headers, vars)
		if req.Body != nil {
			req.Body = &JSONValue{Value: substituteValue(req.Body.Value, vars)}
		}
		if req.RawBody != nil {
			raw := ProcessEnvironment(*req.RawBody, vars)
			req.RawBody = &raw
		}
		out.Requests[i] = req
	}
	return out
}

func substituteValue(v value.Value, vars map[string]string) value.Value {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return value.String(ProcessEnvironment(s, vars))
	case value.KindArray:
		arr := value.NewArray()
		for _, item := range v.Array().Items() {
			arr.Append(substituteValue(item, vars))
		}
		return value.FromArray(arr)
	case value.KindObject:
		obj := value.NewObject()
		v.Object().Range(func(key string, item value.Value) bool {
			obj.Set(key, substituteValue(item, vars))
			return true
		})
		return value.FromObject(obj)
	}
	return v
}

func unresolved(batch *Batch) []ValidationError {
	var errs []ValidationError
	check := func(path, s string) {
		if names := UnresolvedVariables(s); len(names) > 0 {
			errs = append(errs, ValidationError{
				Path:    path,
				Message: "undefined variable(s): " + strings.Join(names, ", "),
			})
		}
	}
	for _, name := range sortedKeys(batch.Endpoints) {
		ep := batch.Endpoints[name]
		check(fmt.Sprintf("endpoints[%s].scheme", name), ep.Scheme)
		check(fmt.Sprintf("endpoints[%s].host", name), ep.Host)
		check(fmt.Sprintf("endpoints[%s].basePath", name), ep.BasePath)
	}
	for i, req := range batch.Requests {
		check(fmt.Sprintf("requests[%d].path", i), req.Path)
	}
	return errs
}

func foldErrors(errs []ValidationError) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return &apihttp.ConfigError{Field: "batch", Message: strings.Join(msgs, "; "), Err: ValidationErrors(errs)}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
