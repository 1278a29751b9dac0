package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"golang.org/x/net/idna"
)

// Hook is invoked once per finished exchange, on the goroutine that called
// Engine.Submit.
type Hook func(*Outcome)

// EndpointConfig describes a reusable target: where requests go, how they
// authenticate and whether the wire exchange is traced.
type EndpointConfig struct {
	// Scheme is "http" or "https".
	Scheme string
	// Host is a hostname with an optional ":port". Internationalized names
	// are converted to their ASCII form.
	Host string
	// BasePath is prefixed verbatim to every request path.
	BasePath string
	// Auth defaults to NoAuth.
	Auth Auth
	// AuthPolicy applies when a request sets its own Authorization header.
	AuthPolicy AuthPolicy
	// Verbose logs every phase of each exchange.
	Verbose bool
	// OnResponse runs for every exchange of this endpoint, before the
	// request's own hook.
	OnResponse Hook
}

// Endpoint is an immutable, validated EndpointConfig. It is safe to share
// across goroutines and batches.
type Endpoint struct {
	scheme     string
	host       string
	basePath   string
	auth       Auth
	policy     AuthPolicy
	verbose    bool
	onResponse Hook
}

// NewEndpoint validates cfg and returns the Endpoint it describes.
//
// Example:
//
//	ep, err := http.NewEndpoint(http.EndpointConfig{
//	    Scheme:   "http",
//	    Host:     "localhost:8081",
//	    BasePath: "/data",
//	    Auth:     http.Basic("Supervisor", "Supervisor"),
//	})
func NewEndpoint(cfg EndpointConfig) (*Endpoint, error) {
	scheme := strings.ToLower(strings.TrimSpace(cfg.Scheme))
	if scheme != "http" && scheme != "https" {
		return nil, &ConfigError{Field: "scheme", Message: fmt.Sprintf("must be http or https, got %q", cfg.Scheme)}
	}

	host, err := normalizeHost(cfg.Host)
	if err != nil {
		return nil, err
	}

	if i := strings.IndexFunc(cfg.BasePath, isBadPathRune); i >= 0 {
		return nil, &ConfigError{Field: "basePath", Message: fmt.Sprintf("invalid character at offset %d", i)}
	}

	auth := cfg.Auth
	if auth == nil {
		auth = NoAuth{}
	}

	return &Endpoint{
		scheme:     scheme,
		host:       host,
		basePath:   cfg.BasePath,
		auth:       auth,
		policy:     cfg.AuthPolicy,
		verbose:    cfg.Verbose,
		onResponse: cfg.OnResponse,
	}, nil
}

func normalizeHost(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ConfigError{Field: "host", Message: "must not be empty"}
	}
	if strings.ContainsAny(raw, "/?#@ ") {
		return "", &ConfigError{Field: "host", Message: fmt.Sprintf("invalid host %q", raw)}
	}

	name, port := raw, ""
	if strings.HasPrefix(raw, "[") {
		h, p, err := net.SplitHostPort(raw)
		if err != nil {
			if !strings.HasSuffix(raw, "]") {
				return "", &ConfigError{Field: "host", Message: fmt.Sprintf("invalid host %q", raw), Err: err}
			}
			return raw, nil
		}
		if !isPort(p) {
			return "", &ConfigError{Field: "host", Message: fmt.Sprintf("invalid port %q", p)}
		}
		return "[" + h + "]:" + p, nil
	}
	if i := strings.LastIndexByte(raw, ':'); i >= 0 {
		name, port = raw[:i], raw[i+1:]
		if !isPort(port) {
			return "", &ConfigError{Field: "host", Message: fmt.Sprintf("invalid port %q", port)}
		}
	}

	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return "", &ConfigError{Field: "host", Message: fmt.Sprintf("invalid host name %q", name), Err: err}
	}
	if port != "" {
		return ascii + ":" + port, nil
	}
	return ascii, nil
}

func isPort(s string) bool {
	if s == "" || len(s) > 5 {
		return false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
	}
	return n <= 65535
}

func isBadPathRune(r rune) bool {
	return r <= ' ' || r == 0x7f
}

func (e *Endpoint) Scheme() string         { return e.scheme }
func (e *Endpoint) Host() string           { return e.host }
func (e *Endpoint) BasePath() string       { return e.basePath }
func (e *Endpoint) Auth() Auth             { return e.auth }
func (e *Endpoint) AuthPolicy() AuthPolicy { return e.policy }
func (e *Endpoint) Verbose() bool          { return e.verbose }

// URL returns scheme://host + basePath + path. No separator is inserted or
// removed.
func (e *Endpoint) URL(path string) string {
	return e.scheme + "://" + e.host + e.basePath + path
}

func (e *Endpoint) String() string {
	return e.URL("")
}

// Get builds a GET request for path.
func (e *Endpoint) Get(path string, opts ...RequestOption) (*RequestSpec, error) {
	return e.Request(http.MethodGet, path, opts...)
}

// Post builds a POST request for path. Use WithJSON or WithBody for the
// payload.
func (e *Endpoint) Post(path string, opts ...RequestOption) (*RequestSpec, error) {
	return e.Request(http.MethodPost, path, opts...)
}

// Put builds a PUT request for path.
func (e *Endpoint) Put(path string, opts ...RequestOption) (*RequestSpec, error) {
	return e.Request(http.MethodPut, path, opts...)
}

// Delete builds a DELETE request for path.
func (e *Endpoint) Delete(path string, opts ...RequestOption) (*RequestSpec, error) {
	return e.Request(http.MethodDelete, path, opts...)
}
