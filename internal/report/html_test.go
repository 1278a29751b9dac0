package report

import (
	"errors"
	"os"
	"path/filepath"
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
)

func sampleResult() *batch.Result {
	ok := &apihttp.Outcome{
		Name:       "list-firms",
		Method:     "GET",
		URL:        "http://localhost:8081/data/firms",
		Status:     200,
		StatusText: "OK",
		Body:       []byte(`[{"id":1,"name":"<Acme>"}]`),
		Elapsed:    12 * time.Millisecond,
	}
	down := &apihttp.Outcome{
		Name:    "down",
		Method:  "GET",
		URL:     "http://127.0.0.1:1/",
		Err:     &apihttp.TransportError{Kind: apihttp.TransportConnect, Err: syscall.ECONNREFUSED},
		Elapsed: time.Millisecond,
	}

	collector := metrics.NewCollector()
	collector.Record(ok)
	collector.Record(down)

	return &batch.Result{
		Outcomes: []*apihttp.Outcome{ok, down},
		Checks: []batch.Check{
			{Name: "list-firms", Extracted: map[string]string{"firstId": "1"}},
			{Name: "down", Schema: "firm", SchemaErrs: jsonschema.ValidationErrors{errors.New("no response")}},
		},
		Summary: collector.Summary(),
	}
}

func TestGenerateHTMLString(t *testing.T) {
	html, err := GenerateHTMLString(sampleResult(), "firms.yaml")
	require.NoError(t, err)

	for _, expected := range []string{
		"<!DOCTYPE html>",
		"<title>firms.yaml - Batch Report</title>",
		"FAILED",
		"list-firms",
		"200 OK",
		"connect: connection refused",
		"firstId = <code>1</code>",
		"schema firm: no response",
		"50.0%",
	} {
		assert.Contains(t, html, expected)
	}

	assert.Contains(t, html, "&lt;Acme&gt;")
	assert.NotContains(t, html, "<Acme>")
}

func TestGenerateHTMLString_Nil(t *testing.T) {
	_, err := GenerateHTMLString(nil, "x")
	assert.Error(t, err)
}

func TestGenerateHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, GenerateHTML(sampleResult(), "firms", path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))

	err = GenerateHTML(sampleResult(), "firms", filepath.Join(t.TempDir(), "missing", "report.html"))
	assert.Error(t, err)
}

func TestNewRow_TruncatesBody(t *testing.T) {
	o := &apihttp.Outcome{Method: "GET", URL: "http://x/", Status: 200, Body: []byte(strings.Repeat("a", maxBodyPreview+10))}
	row := newRow(o, batch.Check{})
	assert.True(t, row.Truncated)
	assert.Len(t, row.Body, maxBodyPreview)
	assert.True(t, row.Passed)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
	assert.Equal(t, "-1,000", formatNumber(-1000))

	assert.Equal(t, "0", formatLatency(0))
	assert.Equal(t, "250µs", formatLatency(250*time.Microsecond))
	assert.Equal(t, "1.50ms", formatLatency(1500*time.Microsecond))
	assert.Equal(t, "12.3ms", formatLatency(12300*time.Microsecond))
	assert.Equal(t, "250ms", formatLatency(250*time.Millisecond))
	assert.Equal(t, "1.50s", formatLatency(1500*time.Millisecond))

	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.50 KB", formatBytes(1536))
	assert.Equal(t, "2.00 MB", formatBytes(2*1024*1024))

	assert.Equal(t, "failed", statusClass(Row{Error: "x"}))
	assert.Equal(t, "error", statusClass(Row{Status: 404}))
	assert.Equal(t, "redirect", statusClass(Row{Status: 302}))
	assert.Equal(t, "ok", statusClass(Row{Status: 200}))
}
