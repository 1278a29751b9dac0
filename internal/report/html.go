// Package report renders a batch result as a self-contained HTML page.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"time"

	apihttp "github.com/wesleyorama2/apinette/http"
	"github.com/wesleyorama2/apinette/internal/batch"
	"github.com/wesleyorama2/apinette/internal/metrics"
)

// maxBodyPreview bounds the response body shown per request.
const maxBodyPreview = 4096

// ReportData contains all data needed to render the HTML report.
type ReportData struct {
	Title     string
	Generated time.Time
	Passed    bool
	Summary   metrics.Summary
	Rows      []Row
	Variables []Variable
}

// Row is one request of the batch.
type Row struct {
	Name       string
	Method     string
	URL        string
	Status     int
	StatusText string
	Error      string
	ErrorKind  string
	Elapsed    time.Duration
	Bytes      int
	Passed     bool
	Extracted  []Variable
	Problems   []string
	Body       string
	Truncated  bool
}

// Variable is one extracted name/value pair.
type Variable struct {
	Name  string
	Value string
}

// GenerateHTML generates an HTML report from a batch result and writes it to a file.
func GenerateHTML(result *batch.Result, title, outputPath string) error {
	html, err := GenerateHTMLString(result, title)
	if err != nil {
		return fmt.Errorf("failed to generate HTML: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}

	return nil
}

// GenerateHTMLString generates an HTML report from a batch result and returns it as a string.
func GenerateHTMLString(result *batch.Result, title string) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result cannot be nil")
	}

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newReportData(result, title)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func newReportData(result *batch.Result, title string) ReportData {
	data := ReportData{
		Title:     title,
		Generated: time.Now(),
		Passed:    !result.Failed(),
		Summary:   result.Summary,
		Rows:      make([]Row, len(result.Outcomes)),
		Variables: variables(result.Variables()),
	}
	for i, o := range result.Outcomes {
		data.Rows[i] = newRow(o, result.Checks[i])
	}
	return data
}

func newRow(o *apihttp.Outcome, c batch.Check) Row {
	row := Row{
		Name:       o.Label(),
		Method:     o.Method,
		URL:        o.URL,
		Status:     o.Status,
		StatusText: o.StatusText,
		Elapsed:    o.Elapsed,
		Bytes:      len(o.Body),
		Passed:     !o.Failed() && o.Status < 400 && c.Passed(),
		Extracted:  variables(c.Extracted),
	}

	if o.Err != nil {
		row.Error = o.Err.Error()
		var terr *apihttp.TransportError
		if errors.As(o.Err, &terr) {
			row.ErrorKind = terr.Kind.String()
		}
	}
	if o.DecodeErr != nil {
		row.Problems = append(row.Problems, "invalid JSON body: "+o.DecodeErr.Error())
	}
	if c.ExtractErr != nil {
		row.Problems = append(row.Problems, c.ExtractErr.Error())
	}
	for _, err := range c.SchemaErrs {
		row.Problems = append(row.Problems, "schema "+c.Schema+": "+err.Error())
	}

	body := o.Body
	if len(body) > maxBodyPreview {
		body = body[:maxBodyPreview]
		row.Truncated = true
	}
	row.Body = string(body)
	return row
}

func variables(m map[string]string) []Variable {
	out := make([]Variable, 0, len(m))
	for _, k := range batch.SortedNames(m) {
		out = append(out, Variable{Name: k, Value: m[k]})
	}
	return out
}

// templateFuncs returns the template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatLatency": formatLatency,
		"formatBytes":   formatBytes,
		"formatNumber":  formatNumber,
		"successRate":   successRate,
		"statusClass":   statusClass,
	}
}

// formatNumber formats a large number with commas.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	result := ""
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}

// formatLatency formats a latency duration in a human-readable way.
func formatLatency(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		ms := float64(d.Microseconds()) / 1000.0
		if ms < 10 {
			return fmt.Sprintf("%.2fms", ms)
		}
		if ms < 100 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// formatBytes formats bytes in a human-readable way.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// successRate is the share of requests that got a 2xx or 3xx response.
func successRate(s metrics.Summary) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

func statusClass(row Row) string {
	switch {
	case row.Error != "":
		return "failed"
	case row.Status >= 400:
		return "error"
	case row.Status >= 300:
		return "redirect"
	default:
		return "ok"
	}
}
