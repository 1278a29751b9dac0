package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
)

// ConfigError reports malformed Endpoint or RequestSpec construction input.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", msg, e.Err)
	}
	return "config: " + msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// InitError reports that a batch could not be set up. No request of the
// batch has been sent when it is returned.
type InitError struct {
	Message string
	Err     error
}

func (e *InitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("init: %s: %v", e.Message, e.Err)
	}
	return "init: " + e.Message
}

func (e *InitError) Unwrap() error { return e.Err }

// TransportErrorKind classifies a failed exchange.
type TransportErrorKind int

const (
	TransportOther TransportErrorKind = iota
	TransportDNS
	TransportConnect
	TransportTLS
	TransportTimeout
	TransportRead
)

func (k TransportErrorKind) String() string {
	switch k {
	case TransportDNS:
		return "dns"
	case TransportConnect:
		return "connect"
	case TransportTLS:
		return "tls"
	case TransportTimeout:
		return "timeout"
	case TransportRead:
		return "read"
	default:
		return "other"
	}
}

// TransportError is a per-exchange failure below HTTP: name resolution,
// connection, TLS, timeout or a broken response stream. Its message is the
// transport's own description of the failure.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return e.Kind.String() + " failure"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the exchange failed because a deadline passed.
func (e *TransportError) Timeout() bool { return e.Kind == TransportTimeout }

func classifyTransportError(err error) *TransportError {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	var (
		dnsErr     *net.DNSError
		opErr      *net.OpError
		netErr     net.Error
		recordErr  tls.RecordHeaderError
		verifyErr  *tls.CertificateVerificationError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)

	kind := TransportOther
	switch {
	case errors.As(err, &dnsErr):
		kind = TransportDNS
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		kind = TransportTimeout
	case errors.As(err, &recordErr), errors.As(err, &verifyErr), errors.As(err, &unknownCA),
		errors.As(err, &hostErr), errors.As(err, &invalidErr):
		kind = TransportTLS
	case errors.As(err, &opErr) && opErr.Op == "dial":
		kind = TransportConnect
	}
	return &TransportError{Kind: kind, Err: err}
}
