package http

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Auth contributes authentication headers to every request of an Endpoint.
// It runs after all other header injection.
type Auth interface {
	Apply(h *Header)
}

// NoAuth adds nothing.
type NoAuth struct{}

func (NoAuth) Apply(*Header) {}

// BasicAuth adds an HTTP Basic Authorization header.
type BasicAuth struct {
	user     string
	password string
}

// Basic returns a BasicAuth for the given credentials. The credentials are
// retained as given.
func Basic(user, password string) *BasicAuth {
	return &BasicAuth{user: user, password: password}
}

func (b *BasicAuth) User() string { return b.user }

// Value returns the Authorization header value.
func (b *BasicAuth) Value() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(b.user+":"+b.password))
}

func (b *BasicAuth) Apply(h *Header) {
	h.Add("Authorization", b.Value())
}

// String omits the password.
func (b *BasicAuth) String() string {
	return fmt.Sprintf("basic(%s)", b.user)
}

// AuthPolicy decides what happens when a request carries its own
// Authorization header and the endpoint has Auth configured.
type AuthPolicy int

const (
	// AuthAppend sends both the request's and the endpoint's Authorization
	// headers.
	AuthAppend AuthPolicy = iota
	// AuthReplace drops the request's Authorization headers in favor of the
	// endpoint's.
	AuthReplace
)

func (p AuthPolicy) String() string {
	if p == AuthReplace {
		return "replace"
	}
	return "append"
}

// ParseAuthPolicy accepts "append", "replace" or "" (append).
func ParseAuthPolicy(s string) (AuthPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append":
		return AuthAppend, nil
	case "replace":
		return AuthReplace, nil
	}
	return AuthAppend, &ConfigError{Field: "authPolicy", Message: fmt.Sprintf("unknown policy %q", s)}
}
