package output

import (
	"errors"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/wesleyorama2/apinette/http"
	"github.com/wesleyorama2/apinette/internal/batch"
	"github.com/wesleyorama2/apinette/internal/metrics"
	"github.com/wesleyorama2/apinette/pkg/jsonschema"
	"github.com/wesleyorama2/apinette/pkg/value"
)

func testSpec(t *testing.T) *apihttp.RequestSpec {
	t.Helper()
	ep, err := apihttp.NewEndpoint(apihttp.EndpointConfig{
		Scheme:   "http",
		Host:     "localhost:8081",
		BasePath: "/data",
		Auth:     apihttp.Basic("Supervisor", "Supervisor"),
	})
	require.NoError(t, err)

	body, err := value.Decode([]byte(`{"zeta":1,"alpha":"x"}`))
	require.NoError(t, err)

	spec, err := ep.Post("/firms", apihttp.WithName("create"), apihttp.WithHeader("X-Trace", "on"), apihttp.WithJSON(body))
	require.NoError(t, err)
	return spec
}

func jsonOutcome(t *testing.T) *apihttp.Outcome {
	t.Helper()
	v, err := value.Decode([]byte(`{"id":7,"name":"Acme"}`))
	require.NoError(t, err)
	return &apihttp.Outcome{
		Name:       "create",
		Method:     "POST",
		URL:        "http://localhost:8081/data/firms",
		Status:     201,
		StatusText: "Created",
		Headers:    apihttp.Header{{Name: "Content-Type", Value: "application/json"}},
		Body:       []byte(`{"id":7,"name":"Acme"}`),
		Value:      &v,
		Elapsed:    12 * time.Millisecond,
		Timing:     apihttp.TimingInfo{TimeToFirstByte: 10 * time.Millisecond, TotalTime: 12 * time.Millisecond},
	}
}

func failedOutcome() *apihttp.Outcome {
	return &apihttp.Outcome{
		Name:    "down",
		Method:  "GET",
		URL:     "http://127.0.0.1:1/",
		Err:     &apihttp.TransportError{Kind: apihttp.TransportConnect, Err: syscall.ECONNREFUSED},
		Elapsed: time.Millisecond,
	}
}

func testResult(t *testing.T) *batch.Result {
	collector := metrics.NewCollector()
	ok, down := jsonOutcome(t), failedOutcome()
	collector.Record(ok)
	collector.Record(down)

	return &batch.Result{
		Outcomes: []*apihttp.Outcome{ok, down},
		Checks: []batch.Check{
			{Name: "create", Extracted: map[string]string{"id": "7"}, Schema: "firm"},
			{Name: "down", Schema: "firm", SchemaErrs: jsonschema.ValidationErrors{errors.New("no response")}},
		},
		Summary: collector.Summary(),
	}
}

func TestFormatter_FormatRequest(t *testing.T) {
	out := NewFormatter(true, true).FormatRequest(testSpec(t))

	for _, part := range []string{
		"REQUEST: POST http://localhost:8081/data/firms",
		"Accept: application/json",
		"X-Trace: on",
		"Content-Type: application/json",
		"Authorization: Basic ****",
		`"zeta": 1`,
	} {
		assert.Contains(t, out, part)
	}
	assert.NotContains(t, out, "U3VwZXJ2aXNvcjpTdXBlcnZpc29y")
	assert.Less(t, strings.Index(out, "zeta"), strings.Index(out, "alpha"))
}

func TestFormatter_FormatOutcome(t *testing.T) {
	f := NewFormatter(false, true)

	out := f.FormatOutcome(jsonOutcome(t))
	assert.Contains(t, out, "RESPONSE: 201 Created (12ms)")
	assert.Contains(t, out, `"name": "Acme"`)
	assert.NotContains(t, out, "Timing:")

	verbose := NewFormatter(true, true).FormatOutcome(jsonOutcome(t))
	assert.Contains(t, verbose, "Timing:")
	assert.Contains(t, verbose, "Time to First Byte: 10ms")
	assert.Contains(t, verbose, "Content-Type: application/json")

	failed := f.FormatOutcome(failedOutcome())
	assert.Contains(t, failed, "FAILED: [connect]")
	assert.Contains(t, failed, "connection refused")

	broken := &apihttp.Outcome{Status: 200, StatusText: "OK", Body: []byte("{oops"), DecodeErr: errors.New("bad json")}
	assert.Contains(t, f.FormatOutcome(broken), "invalid JSON body: bad json")
	assert.Contains(t, f.FormatOutcome(broken), "{oops")
}

func TestFormatter_FormatProgress(t *testing.T) {
	f := NewFormatter(false, true)
	assert.Equal(t, "✓ create 201 12ms\n", f.FormatProgress(jsonOutcome(t)))
	assert.Equal(t, "✗ down [connect] 1ms\n", f.FormatProgress(failedOutcome()))

	notFound := &apihttp.Outcome{Method: "GET", URL: "http://x/y", Status: 404, Elapsed: 2 * time.Millisecond}
	assert.Equal(t, "⚠ GET http://x/y 404 2ms\n", f.FormatProgress(notFound))
}

func TestFormatter_FormatBatch(t *testing.T) {
	out := NewFormatter(false, true).FormatBatch(testResult(t))

	for _, part := range []string{
		"● create POST http://localhost:8081/data/firms",
		"extracted id = 7",
		"✓ schema firm",
		"✗ schema firm: no response",
		"Variables:",
		"Requests:   2 total, 1 ok, 0 http errors, 1 failed",
		"Statuses:   201×1",
		"Failures:   connect×1",
		"batch failed",
	} {
		assert.Contains(t, out, part)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Nanosecond, "2µs"},
		{12340 * time.Microsecond, "12.3ms"},
		{1234 * time.Millisecond, "1.234s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func TestColorScheme(t *testing.T) {
	s := NoColorScheme()
	assert.Equal(t, "200", s.Status(200).Sprint(200))
	assert.Same(t, s.StatusOK, s.Status(204))
	assert.Same(t, s.StatusWarn, s.Status(302))
	assert.Same(t, s.StatusError, s.Status(500))

	assert.Equal(t, "✓", SuccessIcon(true))
	assert.Equal(t, "✗", ErrorIcon(true))
	assert.Equal(t, "ℹ", InfoIcon(true))
	assert.Equal(t, "⚠", WarningIcon(true))
}

func TestNoColor(t *testing.T) {
	var buf strings.Builder
	assert.True(t, NoColor(&buf, false))
	assert.True(t, NoColor(&buf, true))
	assert.False(t, IsTerminal(&buf))
}
