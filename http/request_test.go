package http

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/apinette/pkg/value"
)

func TestEndpoint_URL(t *testing.T) {
	ep, err := NewEndpoint(EndpointConfig{Scheme: "HTTP", Host: "localhost:8081", BasePath: "/data"})
	require.NoError(t, err)

	spec, err := ep.Get("/firms")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/data/firms", spec.URL())
	assert.Equal(t, "http://localhost:8081/data", ep.String())
}

func TestEndpoint_InternationalHost(t *testing.T) {
	ep, err := NewEndpoint(EndpointConfig{Scheme: "https", Host: "Bücher.example:8443"})
	require.NoError(t, err)
	assert.Equal(t, "xn--bcher-kva.example:8443", ep.Host())
}

func TestNewEndpoint_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		cfg   EndpointConfig
		field string
	}{
		{"unsupported scheme", EndpointConfig{Scheme: "ftp", Host: "example.com"}, "scheme"},
		{"empty host", EndpointConfig{Scheme: "http"}, "host"},
		{"host with path", EndpointConfig{Scheme: "http", Host: "example.com/x"}, "host"},
		{"port out of range", EndpointConfig{Scheme: "http", Host: "example.com:99999"}, "host"},
		{"space in base path", EndpointConfig{Scheme: "http", Host: "example.com", BasePath: "/a b"}, "basePath"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEndpoint(tt.cfg)
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestEndpoint_RequestValidation(t *testing.T) {
	ep, err := NewEndpoint(EndpointConfig{Scheme: "http", Host: "localhost"})
	require.NoError(t, err)

	_, err = ep.Request("GE T", "/")
	assert.Error(t, err)

	_, err = ep.Request("", "/")
	assert.Error(t, err)

	_, err = ep.Get("/a\nb")
	assert.Error(t, err)

	_, err = ep.Get("/", WithHeader("Bad\r\nName", "x"))
	assert.Error(t, err)

	_, err = ep.Get("/", WithHeaderLine("no colon here"))
	assert.Error(t, err)

	spec, err := ep.Request("PROPFIND", "/dav")
	require.NoError(t, err)
	assert.Equal(t, "PROPFIND", spec.Method())
}

func TestEndpoint_CyclicJSONBody(t *testing.T) {
	ep, err := NewEndpoint(EndpointConfig{Scheme: "http", Host: "localhost"})
	require.NoError(t, err)

	obj := value.NewObject()
	obj.Set("self", value.FromObject(obj))

	_, err = ep.Post("/", WithJSON(value.FromObject(obj)))
	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "body", cerr.Field)
	var cycle *value.CycleError
	assert.True(t, errors.As(err, &cycle))
}

func TestRequestSpec_WireHeaders(t *testing.T) {
	ep, err := NewEndpoint(EndpointConfig{Scheme: "http", Host: "localhost", Auth: Basic("Supervisor", "Supervisor")})
	require.NoError(t, err)

	spec, err := ep.Post("/firms",
		WithHeader("X-Custom", "1"),
		WithJSON(value.Int(1)),
		WithName("create firm"),
	)
	require.NoError(t, err)

	assert.Equal(t, Header{
		{Name: "Accept", Value: "application/json"},
		{Name: "X-Custom", Value: "1"},
		{Name: "Content-Type", Value: "application/json"},
		{Name: "Authorization", Value: "Basic U3VwZXJ2aXNvcjpTdXBlcnZpc29y"},
	}, spec.WireHeaders())
	assert.Equal(t, "create firm", spec.Label())
	assert.Equal(t, []byte("1"), spec.Body())
}

func TestRequestSpec_CallerAcceptFollowsJSONAccept(t *testing.T) {
	ep, err := NewEndpoint(EndpointConfig{Scheme: "http", Host: "localhost"})
	require.NoError(t, err)

	spec, err := ep.Post("/",
		WithHeaderLine("accept: text/plain"),
		WithHeader("Content-Type", "application/vnd.api+json"),
		WithJSON(value.Null()),
	)
	require.NoError(t, err)

	wire := spec.WireHeaders()
	assert.Equal(t, []string{"application/json", "text/plain"}, wire.Values("Accept"))
	assert.Equal(t, HeaderField{Name: "Accept", Value: "application/json"}, wire[0])
	assert.Equal(t, []string{"application/vnd.api+json"}, wire.Values("Content-Type"))
	assert.Equal(t, "POST http://localhost/", spec.Label())
}

func TestRequestSpec_NoAuthReplaceKeepsCallerAuthorization(t *testing.T) {
	ep, err := NewEndpoint(EndpointConfig{Scheme: "http", Host: "localhost", AuthPolicy: AuthReplace})
	require.NoError(t, err)

	spec, err := ep.Get("/", WithHeader("Authorization", "Bearer t"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer t", spec.WireHeaders().Get("authorization"))
}

func TestBasic_EmptyPassword(t *testing.T) {
	auth := Basic("Supervisor", "")
	assert.Equal(t, "Basic U3VwZXJ2aXNvcjo=", auth.Value())

	var h Header
	auth.Apply(&h)
	assert.Equal(t, Header{{Name: "Authorization", Value: "Basic U3VwZXJ2aXNvcjo="}}, h)
}

func TestParseAuthPolicy(t *testing.T) {
	p, err := ParseAuthPolicy("Replace")
	require.NoError(t, err)
	assert.Equal(t, AuthReplace, p)

	p, err = ParseAuthPolicy("")
	require.NoError(t, err)
	assert.Equal(t, AuthAppend, p)

	_, err = ParseAuthPolicy("merge")
	assert.Error(t, err)
}

func TestBasicAuth_StringHidesPassword(t *testing.T) {
	auth := Basic("Supervisor", "secret")
	assert.Equal(t, "basic(Supervisor)", auth.String())
	assert.NotContains(t, auth.String(), "secret")
}
