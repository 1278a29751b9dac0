package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const readChunkSize = 32 * 1024

// multiplexer runs one batch. Every exchange is a goroutine blocked in the
// runtime network poller; finished exchanges are handed back to the
// submitting goroutine over done, which finalizes them and runs hooks.
type multiplexer struct {
	engine    *Engine
	transport *http.Transport
	client    *http.Client
	log       zerolog.Logger

	exchanges []*exchange
	done      chan completion
	inflight  int
}

type exchange struct {
	spec    *RequestSpec
	outcome *Outcome
	req     *http.Request
	span    trace.Span
	timing  *timingRecorder
	log     zerolog.Logger
	started time.Time
}

type completion struct {
	ex  *exchange
	err error
	end time.Time
}

func (e *Engine) newMultiplexer(size int) (*multiplexer, error) {
	if e.isClosed() {
		return nil, &InitError{Message: "engine is closed"}
	}

	transport := e.base.Clone()
	client := &http.Client{
		Transport: transport,
		Timeout:   e.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &multiplexer{
		engine:    e,
		transport: transport,
		client:    client,
		log:       e.logger,
		exchanges: make([]*exchange, 0, size),
		done:      make(chan completion, size),
	}, nil
}

// register prepares the exchange for spec. No I/O happens here.
func (m *multiplexer) register(ctx context.Context, index int, spec *RequestSpec) error {
	started := time.Now()
	outcome := &Outcome{
		ID:     uuid.NewString(),
		Index:  index,
		Name:   spec.name,
		Method: spec.method,
		URL:    spec.URL(),
	}

	log := m.log.With().
		Str("exchange_id", outcome.ID).
		Str("method", outcome.Method).
		Str("url", outcome.URL).
		Logger()

	ctx, span := m.engine.tracer.Start(ctx, "HTTP "+spec.method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", spec.method),
			attribute.String("url.full", outcome.URL),
			attribute.Int("apinette.batch.index", index),
		),
	)

	timing := newTimingRecorder(started, log, spec.endpoint.verbose)
	req, err := spec.newHTTPRequest(httptrace.WithClientTrace(ctx, timing.clientTrace()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request setup failed")
		span.End()
		return &InitError{Message: "cannot prepare " + outcome.Method + " " + outcome.URL, Err: err}
	}

	if spec.endpoint.verbose {
		log.Info().
			Int("index", index).
			Strs("headers", spec.WireHeaders().Lines()).
			Int("body_bytes", len(spec.body)).
			Msg("request prepared")
	}

	m.exchanges = append(m.exchanges, &exchange{
		spec:    spec,
		outcome: outcome,
		req:     req,
		span:    span,
		timing:  timing,
		log:     log,
		started: started,
	})
	return nil
}

// abort ends the spans of exchanges that were registered but never started.
func (m *multiplexer) abort() {
	for _, ex := range m.exchanges {
		ex.span.SetStatus(codes.Error, "batch aborted")
		ex.span.End()
	}
	m.exchanges = nil
}

func (m *multiplexer) run() {
	for _, ex := range m.exchanges {
		ex.log.Debug().Msg("exchange started")
		go m.perform(ex)
	}
	m.inflight = len(m.exchanges)

	timer := time.NewTimer(m.engine.pollInterval)
	defer timer.Stop()

	for m.inflight > 0 {
		m.drain()
		if m.inflight == 0 {
			break
		}
		timer.Reset(m.engine.pollInterval)
		select {
		case c := <-m.done:
			m.complete(c)
		case <-timer.C:
			m.log.Trace().Int("in_flight", m.inflight).Msg("waiting for exchanges")
		}
	}
}

// drain finalizes every completion already delivered without blocking.
func (m *multiplexer) drain() {
	for {
		select {
		case c := <-m.done:
			m.complete(c)
		default:
			return
		}
	}
}

// perform runs on its own goroutine and touches only ex.outcome until it
// sends on done.
func (m *multiplexer) perform(ex *exchange) {
	resp, err := m.client.Do(ex.req)
	if err != nil {
		m.done <- completion{ex: ex, err: classifyTransportError(err), end: time.Now()}
		return
	}
	defer resp.Body.Close()

	ex.outcome.setResponse(resp)
	if ex.spec.endpoint.verbose {
		ex.log.Info().
			Str("proto", resp.Proto).
			Int("status", resp.StatusCode).
			Strs("headers", ex.outcome.Headers.Lines()).
			Msg("response headers")
	}

	buf := make([]byte, readChunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			ex.outcome.appendBody(buf[:n])
			if ex.spec.endpoint.verbose {
				ex.log.Info().Int("bytes", n).Msg("response chunk")
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			terr := classifyTransportError(rerr)
			if terr.Kind == TransportOther {
				terr.Kind = TransportRead
			}
			m.done <- completion{ex: ex, err: terr, end: time.Now()}
			return
		}
	}
	m.done <- completion{ex: ex, err: nil, end: time.Now()}
}

// complete finalizes an outcome and runs its hooks. Called only from run.
func (m *multiplexer) complete(c completion) {
	m.inflight--
	ex := c.ex
	o := ex.outcome

	o.Timing = ex.timing.finish(c.end)
	o.Elapsed = c.end.Sub(ex.started)
	if c.err != nil {
		o.Err = c.err
		o.Status = 0
		o.StatusText = ""
	}
	o.negotiate()

	ex.span.SetAttributes(attribute.Int("http.response.status_code", o.Status))
	switch {
	case o.Err != nil:
		ex.span.RecordError(o.Err)
		ex.span.SetStatus(codes.Error, o.Err.Error())
		ex.log.Debug().Err(o.Err).Dur("elapsed", o.Elapsed).Msg("exchange failed")
	default:
		if o.Status >= 500 {
			ex.span.SetStatus(codes.Error, o.StatusText)
		}
		ex.log.Debug().Int("status", o.Status).Int("body_bytes", len(o.Body)).
			Dur("elapsed", o.Elapsed).Msg("exchange finished")
	}
	ex.span.End()

	if hook := ex.spec.endpoint.onResponse; hook != nil {
		hook(o)
	}
	if hook := ex.spec.onResponse; hook != nil {
		hook(o)
	}
}

func (m *multiplexer) outcomes() []*Outcome {
	out := make([]*Outcome, len(m.exchanges))
	for i, ex := range m.exchanges {
		out[i] = ex.outcome
	}
	return out
}

func (m *multiplexer) close() {
	m.transport.CloseIdleConnections()
}
