package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/wesleyorama2/apinette/pkg/value"
)

const (
	// MIMEApplicationJSON is sent as Accept on every request and as
	// Content-Type on requests with a JSON body.
	MIMEApplicationJSON = "application/json"
)

// RequestSpec is one request bound to an Endpoint. It is immutable once
// built and may be submitted any number of times.
type RequestSpec struct {
	endpoint   *Endpoint
	name       string
	method     string
	path       string
	headers    Header
	body       []byte
	hasBody    bool
	json       bool
	onResponse Hook
}

// RequestOption configures a RequestSpec under construction.
type RequestOption func(*requestBuilder)

type requestBuilder struct {
	name       string
	headers    Header
	body       []byte
	hasBody    bool
	jsonValue  *value.Value
	onResponse Hook
	err        error
}

// WithName labels the request in logs, outcomes and reports.
func WithName(name string) RequestOption {
	return func(b *requestBuilder) { b.name = name }
}

// WithHeader adds a header. A Content-Type given here takes the place of
// the JSON default; an Accept is sent after the JSON one.
func WithHeader(name, value string) RequestOption {
	return func(b *requestBuilder) {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, ":\r\n") || strings.ContainsAny(value, "\r\n") {
			b.fail(&ConfigError{Field: "headers", Message: fmt.Sprintf("invalid header %q", name)})
			return
		}
		b.headers.Add(name, value)
	}
}

// WithHeaders adds every field of h in order.
func WithHeaders(h Header) RequestOption {
	return func(b *requestBuilder) {
		for _, f := range h {
			WithHeader(f.Name, f.Value)(b)
		}
	}
}

// WithHeaderLine parses a raw "Name: value" line and adds it.
func WithHeaderLine(line string) RequestOption {
	return func(b *requestBuilder) {
		f, ok := ParseHeaderLine(line)
		if !ok {
			b.fail(&ConfigError{Field: "headers", Message: fmt.Sprintf("malformed header line %q", line)})
			return
		}
		WithHeader(f.Name, f.Value)(b)
	}
}

// WithBody sends body verbatim with no Content-Type of its own.
func WithBody(body []byte) RequestOption {
	return func(b *requestBuilder) {
		b.body = bytes.Clone(body)
		b.hasBody = true
		b.jsonValue = nil
	}
}

// WithJSON serializes v as the body and marks the request as JSON.
func WithJSON(v value.Value) RequestOption {
	return func(b *requestBuilder) {
		b.jsonValue = &v
		b.hasBody = true
		b.body = nil
	}
}

// WithOnResponse sets a hook that runs for this request after the
// endpoint's hook.
func WithOnResponse(h Hook) RequestOption {
	return func(b *requestBuilder) { b.onResponse = h }
}

func (b *requestBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Request builds a request with any method token, for verbs beyond
// GET, POST, PUT and DELETE.
//
// Example:
//
//	spec, err := ep.Request("PATCH", "/firms/1", http.WithJSON(patch))
func (e *Endpoint) Request(method, path string, opts ...RequestOption) (*RequestSpec, error) {
	if !isToken(method) {
		return nil, &ConfigError{Field: "method", Message: fmt.Sprintf("invalid method %q", method)}
	}
	if i := strings.IndexFunc(path, isBadPathRune); i >= 0 {
		return nil, &ConfigError{Field: "path", Message: fmt.Sprintf("invalid character at offset %d", i)}
	}

	var b requestBuilder
	for _, opt := range opts {
		opt(&b)
	}
	if b.err != nil {
		return nil, b.err
	}

	spec := &RequestSpec{
		endpoint:   e,
		name:       b.name,
		method:     method,
		path:       path,
		headers:    b.headers,
		body:       b.body,
		hasBody:    b.hasBody,
		onResponse: b.onResponse,
	}
	if b.jsonValue != nil {
		encoded, err := value.Encode(*b.jsonValue)
		if err != nil {
			return nil, &ConfigError{Field: "body", Message: "cannot encode JSON body", Err: err}
		}
		spec.body = encoded
		spec.json = true
	}
	return spec, nil
}

// isToken reports whether s is a valid RFC 7230 method token.
func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}

func (r *RequestSpec) Endpoint() *Endpoint { return r.endpoint }
func (r *RequestSpec) Name() string        { return r.name }
func (r *RequestSpec) Method() string      { return r.method }
func (r *RequestSpec) Path() string        { return r.path }
func (r *RequestSpec) IsJSON() bool        { return r.json }
func (r *RequestSpec) URL() string         { return r.endpoint.URL(r.path) }

// Body returns a copy of the payload, or nil when the request has none.
func (r *RequestSpec) Body() []byte {
	if !r.hasBody {
		return nil
	}
	return bytes.Clone(r.body)
}

// Headers returns the caller-supplied headers.
func (r *RequestSpec) Headers() Header { return r.headers.Clone() }

// Label is the name if set, otherwise "METHOD URL".
func (r *RequestSpec) Label() string {
	if r.name != "" {
		return r.name
	}
	return r.method + " " + r.URL()
}

// WireHeaders returns the header set sent on the wire: Accept, the request's
// own headers, Content-Type for JSON bodies, then the endpoint's auth. The
// JSON Accept is always first; a caller Accept follows it.
func (r *RequestSpec) WireHeaders() Header {
	var h Header
	h.Add("Accept", MIMEApplicationJSON)
	h = append(h, r.headers...)
	if r.json && !r.headers.Has("Content-Type") {
		h.Add("Content-Type", MIMEApplicationJSON)
	}
	if r.endpoint.policy == AuthReplace {
		if _, ok := r.endpoint.auth.(NoAuth); !ok {
			h.Del("Authorization")
		}
	}
	r.endpoint.auth.Apply(&h)
	return h
}

func (r *RequestSpec) newHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body *bytes.Reader
	if r.hasBody {
		body = bytes.NewReader(r.body)
	}

	var (
		req *http.Request
		err error
	)
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, r.method, r.URL(), body)
	} else {
		req, err = http.NewRequestWithContext(ctx, r.method, r.URL(), nil)
	}
	if err != nil {
		return nil, err
	}

	wire := r.WireHeaders()
	req.Header = wire.toHTTP()
	if host := wire.Get("Host"); host != "" {
		req.Host = host
	}
	return req, nil
}
