package http

import (
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TimingInfo breaks an exchange down into its phases. Phases that did not
// happen, such as DNS for an IP literal or TLS over plain http, are zero.
type TimingInfo struct {
	StartTime           time.Time
	DNSLookupTime       time.Duration
	TCPConnectTime      time.Duration
	TLSHandshakeTime    time.Duration
	TimeToFirstByte     time.Duration
	ContentTransferTime time.Duration
	TotalTime           time.Duration
}

// timingRecorder collects phase times from httptrace callbacks, which the
// transport may run on its own goroutines.
type timingRecorder struct {
	mu     sync.Mutex
	timing TimingInfo
	log    zerolog.Logger
	trace  bool

	dnsStart, connectStart, tlsStart time.Time
	dnsDone, connectDone             bool
	lastPhaseEnd                     time.Time
	firstByte                        time.Time
}

func newTimingRecorder(start time.Time, log zerolog.Logger, verbose bool) *timingRecorder {
	return &timingRecorder{
		timing:       TimingInfo{StartTime: start},
		lastPhaseEnd: start,
		log:          log,
		trace:        verbose,
	}
}

func (t *timingRecorder) event(name string) *zerolog.Event {
	if !t.trace {
		return nil
	}
	return t.log.Info().Str("phase", name)
}

func (t *timingRecorder) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.dnsStart = time.Now()
			t.event("dns_start").Str("host", info.Host).Msg("resolving")
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			t.mu.Lock()
			defer t.mu.Unlock()
			end := time.Now()
			t.timing.DNSLookupTime = end.Sub(t.dnsStart)
			t.dnsDone = true
			t.lastPhaseEnd = end
			t.event("dns_done").Int("addrs", len(info.Addrs)).Err(info.Err).Msg("resolved")
		},
		ConnectStart: func(network, addr string) {
			t.mu.Lock()
			defer t.mu.Unlock()
			if t.connectStart.IsZero() {
				t.connectStart = time.Now()
			}
			t.event("connect_start").Str("network", network).Str("addr", addr).Msg("connecting")
		},
		ConnectDone: func(network, addr string, err error) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.event("connect_done").Str("addr", addr).Err(err).Msg("connected")
			if err != nil || t.connectDone {
				return
			}
			end := time.Now()
			t.timing.TCPConnectTime = end.Sub(t.connectStart)
			t.connectDone = true
			t.lastPhaseEnd = end
		},
		TLSHandshakeStart: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.tlsStart = time.Now()
			t.event("tls_start").Msg("handshake")
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.event("tls_done").Str("tls_version", tls.VersionName(state.Version)).Err(err).Msg("handshake done")
			if err != nil {
				return
			}
			end := time.Now()
			t.timing.TLSHandshakeTime = end.Sub(t.tlsStart)
			t.lastPhaseEnd = end
		},
		GotConn: func(info httptrace.GotConnInfo) {
			t.event("got_conn").Bool("reused", info.Reused).Msg("connection ready")
		},
		WroteRequest: func(info httptrace.WroteRequestInfo) {
			t.event("wrote_request").Err(info.Err).Msg("request sent")
		},
		GotFirstResponseByte: func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.firstByte = time.Now()
			t.timing.TimeToFirstByte = t.firstByte.Sub(t.lastPhaseEnd)
			t.event("first_byte").Msg("response started")
		},
	}
}

// finish stamps transfer and total time and returns a copy.
func (t *timingRecorder) finish(end time.Time) TimingInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.firstByte.IsZero() {
		t.timing.ContentTransferTime = end.Sub(t.firstByte)
	}
	t.timing.TotalTime = end.Sub(t.timing.StartTime)
	return t.timing
}
