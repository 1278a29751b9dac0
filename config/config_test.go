package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/wesleyorama2/apinette/http"
)

func TestLoadBatch_YAML(t *testing.T) {
	batch, err := LoadBatch("testdata/firms.yaml")
	require.NoError(t, err)

	compiled, err := Compile(batch, CompileOptions{Vars: map[string]string{"trace": "on"}})
	require.NoError(t, err)
	require.Len(t, compiled.Requests, 3)

	list := compiled.Requests[0].Spec
	assert.Equal(t, "GET", list.Method())
	assert.Equal(t, "http://localhost:8081/data/firms", list.URL())
	assert.Equal(t, "Basic U3VwZXJ2aXNvcjpTdXBlcnZpc29y", list.WireHeaders().Get("Authorization"))
	assert.Equal(t, "0.id", compiled.Requests[0].Source.Extract["firstId"])

	create := compiled.Requests[1].Spec
	assert.Equal(t, "POST", create.Method())
	assert.True(t, create.IsJSON())
	assert.Equal(t, `{"zeta":1,"name":"Acme","tags":["a","b"]}`, string(create.Body()))
	assert.Equal(t, "on", create.Headers().Get("X-Trace"))

	ping := compiled.Requests[2].Spec
	assert.False(t, ping.IsJSON())
	assert.Equal(t, "hello Acme", string(ping.Body()))

	assert.JSONEq(t, `{"type":"object","required":["id","name"]}`, string(compiled.Schemas["firm"]))
	assert.Len(t, compiled.Specs(), 3)
}

func TestLoadBatch_JSON(t *testing.T) {
	batch, err := LoadBatch("testdata/firms.json")
	require.NoError(t, err)

	compiled, err := Compile(batch, CompileOptions{Verbose: true})
	require.NoError(t, err)

	ep := compiled.Endpoints["data"]
	assert.Equal(t, apihttp.AuthReplace, ep.AuthPolicy())
	assert.True(t, ep.Verbose())

	spec := compiled.Requests[0].Spec
	assert.Equal(t, "https://example.com/x", spec.URL())
	assert.Equal(t, `{"b":1,"a":[true,null]}`, string(spec.Body()))
}

func TestLoadBatch_Errors(t *testing.T) {
	_, err := LoadBatch("testdata/missing.yaml")
	assert.Error(t, err)

	_, err = ParseBatch([]byte("{"), "json")
	assert.Error(t, err)

	_, err = ParseBatch([]byte("a: b"), "toml")
	assert.Error(t, err)
}

func validBatch() *Batch {
	return &Batch{
		Endpoints: map[string]Endpoint{
			"data": {Scheme: "http", Host: "localhost"},
		},
		Requests: []Request{
			{Name: "a", Endpoint: "data", Method: "GET", Path: "/"},
		},
	}
}

func TestValidateBatch(t *testing.T) {
	raw := "x"

	tests := []struct {
		name   string
		mutate func(b *Batch)
		path   string
	}{
		{"no endpoints", func(b *Batch) { b.Endpoints = nil }, "endpoints"},
		{"no requests", func(b *Batch) { b.Requests = nil }, "requests"},
		{"missing host", func(b *Batch) { b.Endpoints["data"] = Endpoint{Scheme: "http"} }, "endpoints[data].host"},
		{"bad scheme", func(b *Batch) { b.Endpoints["data"] = Endpoint{Scheme: "ftp", Host: "h"} }, "endpoints[data].scheme"},
		{"bad auth policy", func(b *Batch) {
			b.Endpoints["data"] = Endpoint{Scheme: "http", Host: "h", AuthPolicy: "merge"}
		}, "endpoints[data].authPolicy"},
		{"basic auth without user", func(b *Batch) {
			b.Endpoints["data"] = Endpoint{Scheme: "http", Host: "h", Auth: &Auth{Type: "basic"}}
		}, "endpoints[data].auth.user"},
		{"missing method", func(b *Batch) { b.Requests[0].Method = "" }, "requests[0].method"},
		{"unknown endpoint", func(b *Batch) { b.Requests[0].Endpoint = "nope" }, "requests[0].endpoint"},
		{"duplicate name", func(b *Batch) { b.Requests = append(b.Requests, b.Requests[0]) }, "requests[1].name"},
		{"body and raw body", func(b *Batch) {
			b.Requests[0].Body = &JSONValue{}
			b.Requests[0].RawBody = &raw
		}, "requests[0].body"},
		{"unknown schema", func(b *Batch) { b.Requests[0].Schema = "firm" }, "requests[0].schema"},
		{"empty extract path", func(b *Batch) { b.Requests[0].Extract = map[string]string{"id": " "} }, "requests[0].extract.id"},
	}

	assert.Empty(t, ValidateBatch(validBatch()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBatch()
			tt.mutate(b)

			errs := ValidateBatch(b)
			require.NotEmpty(t, errs)
			paths := make([]string, len(errs))
			for i, e := range errs {
				paths[i] = e.Path
			}
			assert.Contains(t, paths, tt.path)

			err := Validate(b)
			var cerr *apihttp.ConfigError
			require.True(t, errors.As(err, &cerr))
			var verrs ValidationErrors
			assert.True(t, errors.As(err, &verrs))
		})
	}
}

func TestCompile_Only(t *testing.T) {
	batch, err := LoadBatch("testdata/firms.yaml")
	require.NoError(t, err)

	compiled, err := Compile(batch, CompileOptions{Only: []string{"ping"}})
	require.NoError(t, err)
	require.Len(t, compiled.Requests, 1)
	assert.Equal(t, "ping", compiled.Requests[0].Source.Name)

	_, err = Compile(batch, CompileOptions{Only: []string{"nothing"}})
	assert.Error(t, err)
}

func TestCompile_UnresolvedVariable(t *testing.T) {
	b := validBatch()
	b.Endpoints["data"] = Endpoint{Scheme: "http", Host: "{{host}}"}

	_, err := Compile(b, CompileOptions{})
	var cerr *apihttp.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Error(), "undefined variable(s): host")

	compiled, err := Compile(b, CompileOptions{Vars: map[string]string{"host": "example.org"}})
	require.NoError(t, err)
	assert.Equal(t, "http://example.org/", compiled.Requests[0].Spec.URL())
}

func TestCompile_InstallsHook(t *testing.T) {
	called := 0
	compiled, err := Compile(validBatch(), CompileOptions{OnResponse: func(*apihttp.Outcome) { called++ }})
	require.NoError(t, err)
	assert.NotNil(t, compiled.Endpoints["data"])
	assert.Equal(t, 0, called)
}

func TestProcessEnvironment(t *testing.T) {
	env := map[string]string{"id": "7", "name": "x y"}
	assert.Equal(t, "/users/7/x y", ProcessEnvironment("/users/{{id}}/{{ name }}", env))
	assert.Equal(t, "/keep/{{other}}", ProcessEnvironment("/keep/{{other}}", env))
	assert.Equal(t, []string{"a", "b"}, UnresolvedVariables("{{b}}{{a}}{{b}}"))
	assert.Nil(t, UnresolvedVariables("plain"))
}

func TestMergeEnvironments(t *testing.T) {
	merged := MergeEnvironments(
		map[string]string{"a": "1", "b": "1"},
		map[string]string{"b": "2"},
		nil,
		map[string]string{"c": "3"},
	)
	assert.Equal(t, map[string]string{"a": "1", "b": "2", "c": "3"}, merged)
}

func TestParseVarFlags(t *testing.T) {
	vars, err := ParseVarFlags([]string{"host=localhost:8081", "token=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"host": "localhost:8081", "token": "a=b"}, vars)

	_, err = ParseVarFlags([]string{"novalue"})
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HOST=localhost:9000\n# comment\nUSER=\"Supervisor\"\n"), 0o600))

	vars, err := LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", vars["HOST"])
	assert.Equal(t, "Supervisor", vars["USER"])

	_, err = LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
