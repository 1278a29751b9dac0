package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout bounds a single exchange, body included.
	DefaultTimeout = 30 * time.Second
	// DefaultPollInterval is the longest the reactor waits between passes
	// when no exchange finishes.
	DefaultPollInterval = 100 * time.Millisecond

	tracerName = "github.com/wesleyorama2/apinette/http"
)

// Engine owns the transport configuration shared by every batch. Create one
// per process with NewEngine and release it with Close. Engine is safe for
// concurrent use; each Submit gets its own connection pool.
type Engine struct {
	timeout      time.Duration
	pollInterval time.Duration
	insecure     bool
	caFile       string
	logger       zerolog.Logger
	tracer       trace.Tracer

	base *http.Transport

	mu     sync.RWMutex
	closed bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTimeout sets the per-exchange timeout. The default is 30 seconds.
func WithTimeout(timeout time.Duration) EngineOption {
	return func(e *Engine) {
		e.timeout = timeout
	}
}

// WithPollInterval bounds how long the reactor blocks between passes.
func WithPollInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// WARNING: This should only be used for testing purposes.
func WithInsecureSkipVerify(skip bool) EngineOption {
	return func(e *Engine) {
		e.insecure = skip
	}
}

// WithCAFile trusts the PEM certificates in path in addition to the system
// pool.
func WithCAFile(path string) EngineOption {
	return func(e *Engine) {
		e.caFile = path
	}
}

// WithLogger sets the logger for exchange events. The default discards.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTracer sets the OpenTelemetry tracer wrapping each exchange. The
// default comes from the global provider.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// NewEngine performs the one-time transport setup.
//
// Example:
//
//	engine, err := http.NewEngine(http.WithTimeout(10 * time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Close()
func NewEngine(options ...EngineOption) (*Engine, error) {
	e := &Engine{
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		logger:       zerolog.Nop(),
	}
	for _, option := range options {
		option(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: e.insecure, //nolint:gosec // opt-in for test servers
	}
	if e.caFile != "" {
		pool, err := loadCertPool(e.caFile)
		if err != nil {
			return nil, &InitError{Message: "cannot load CA file", Err: err}
		}
		tlsConfig.RootCAs = pool
	}

	dialer := &net.Dialer{
		Timeout:   e.timeout,
		KeepAlive: 30 * time.Second,
	}
	e.base = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       tlsConfig,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	e.logger.Debug().
		Dur("timeout", e.timeout).
		Dur("poll_interval", e.pollInterval).
		Bool("insecure", e.insecure).
		Msg("engine initialized")
	return e, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

// Close releases the engine. Submits after Close fail with InitError.
// Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.base.CloseIdleConnections()
	e.logger.Debug().Msg("engine closed")
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// Submit executes every request concurrently and blocks until all have
// finished. Outcomes come back in submission order; hooks run on the
// calling goroutine in completion order, endpoint hook first.
//
// A failure of one exchange is recorded in its Outcome and never affects
// the others. Submit itself fails only when the batch cannot be set up,
// in which case no request was sent.
//
// Example:
//
//	get, _ := ep.Get("/firms")
//	post, _ := ep.Post("/firms", http.WithJSON(firm))
//	outcomes, err := engine.Submit(ctx, get, post)
func (e *Engine) Submit(ctx context.Context, specs ...*RequestSpec) ([]*Outcome, error) {
	for i, spec := range specs {
		if spec == nil || spec.endpoint == nil {
			return nil, &ConfigError{Field: fmt.Sprintf("requests[%d]", i), Message: "request is nil"}
		}
	}

	mux, err := e.newMultiplexer(len(specs))
	if err != nil {
		return nil, err
	}
	defer mux.close()

	for i, spec := range specs {
		if err := mux.register(ctx, i, spec); err != nil {
			mux.abort()
			return nil, err
		}
	}
	mux.run()

	return mux.outcomes(), nil
}

// SubmitOne is Submit for a single request.
func (e *Engine) SubmitOne(ctx context.Context, spec *RequestSpec) (*Outcome, error) {
	outcomes, err := e.Submit(ctx, spec)
	if err != nil {
		return nil, err
	}
	return outcomes[0], nil
}
