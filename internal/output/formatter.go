package output

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apihttp "github.com/wesleyorama2/apinette/http"
	"github.com/wesleyorama2/apinette/internal/batch"
	"github.com/wesleyorama2/apinette/internal/metrics"
	"github.com/wesleyorama2/apinette/pkg/value"
)

// Formatter is responsible for formatting requests and outcomes in text format
type Formatter struct {
	Verbose bool
	NoColor bool

	colors *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		colors:  Scheme(noColor),
	}
}

func (f *Formatter) scheme() *ColorScheme {
	if f.colors == nil {
		f.colors = Scheme(f.NoColor)
	}
	return f.colors
}

// FormatRequest formats a request spec for display
func (f *Formatter) FormatRequest(spec *apihttp.RequestSpec) string {
	c := f.scheme()
	var buf strings.Builder

	fmt.Fprintf(&buf, "▶ REQUEST: %s %s\n", c.Method.Sprint(spec.Method()), c.URL.Sprint(spec.URL()))

	headers := spec.WireHeaders()
	if f.Verbose || len(spec.Headers()) > 0 {
		buf.WriteString("  Headers:\n")
		for _, h := range headers {
			v := h.Value
			if h.Name == "Authorization" {
				v = redact(v)
			}
			fmt.Fprintf(&buf, "    %s: %s\n", c.HeaderKey.Sprint(h.Name), c.HeaderValue.Sprint(v))
		}
	}

	if body := spec.Body(); body != nil {
		buf.WriteString("  Body: ")
		buf.WriteString(formatBody(body, spec.IsJSON()))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatOutcome formats an outcome for display
func (f *Formatter) FormatOutcome(o *apihttp.Outcome) string {
	c := f.scheme()
	var buf strings.Builder

	if o.Failed() {
		fmt.Fprintf(&buf, "%s FAILED: %s %s (%s)\n",
			ErrorIcon(f.NoColor), failureKind(o.Err), c.Error.Sprint(o.Err.Error()), formatDuration(o.Elapsed))
		if len(o.Body) > 0 {
			fmt.Fprintf(&buf, "  Partial body (%d bytes):\n", len(o.Body))
			buf.WriteString(indent(string(o.Body), "  "))
			buf.WriteString("\n")
		}
		return buf.String()
	}

	fmt.Fprintf(&buf, "◀ RESPONSE: %s (%s)\n",
		c.Status(o.Status).Sprintf("%d %s", o.Status, o.StatusText),
		formatDuration(o.Elapsed))

	if f.Verbose {
		buf.WriteString(formatTiming(o.Timing))
		buf.WriteString("  Headers:\n")
		for _, h := range o.Headers {
			fmt.Fprintf(&buf, "    %s: %s\n", c.HeaderKey.Sprint(h.Name), c.HeaderValue.Sprint(h.Value))
		}
	}

	if o.DecodeErr != nil {
		fmt.Fprintf(&buf, "  %s invalid JSON body: %s\n", WarningIcon(f.NoColor), o.DecodeErr)
	}

	if len(o.Body) > 0 {
		buf.WriteString("  Body:\n")
		if o.Value != nil {
			buf.WriteString(indent(prettyValue(*o.Value), "  "))
		} else {
			buf.WriteString(indent(string(o.Body), "  "))
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatProgress renders the one-line summary printed as each outcome of
// a batch completes.
func (f *Formatter) FormatProgress(o *apihttp.Outcome) string {
	c := f.scheme()
	if o.Failed() {
		return fmt.Sprintf("%s %s %s %s\n", ErrorIcon(f.NoColor), c.Name.Sprint(o.Label()),
			c.Error.Sprint(failureKind(o.Err)), c.Label.Sprint(formatDuration(o.Elapsed)))
	}
	icon := SuccessIcon(f.NoColor)
	if o.Status >= 400 {
		icon = WarningIcon(f.NoColor)
	}
	return fmt.Sprintf("%s %s %s %s\n", icon, c.Name.Sprint(o.Label()),
		c.Status(o.Status).Sprint(o.Status), c.Label.Sprint(formatDuration(o.Elapsed)))
}

// FormatBatch formats a whole batch: every request with its outcome and
// checks, the extracted variables and the summary.
func (f *Formatter) FormatBatch(r *batch.Result) string {
	c := f.scheme()
	var buf strings.Builder

	for i, o := range r.Outcomes {
		fmt.Fprintf(&buf, "%s %s %s\n", c.Highlight.Sprint("●"), c.Name.Sprint(o.Label()),
			c.Label.Sprintf("%s %s", o.Method, o.URL))
		buf.WriteString(f.FormatOutcome(o))
		buf.WriteString(f.formatCheck(r.Checks[i]))
		buf.WriteString("\n")
	}

	if vars := r.Variables(); len(vars) > 0 {
		buf.WriteString("Variables:\n")
		for _, k := range batch.SortedNames(vars) {
			fmt.Fprintf(&buf, "  %s = %s\n", c.HeaderKey.Sprint(k), vars[k])
		}
		buf.WriteString("\n")
	}

	buf.WriteString(f.FormatSummary(r.Summary))
	if r.Failed() {
		fmt.Fprintf(&buf, "%s %s\n", ErrorIcon(f.NoColor), c.Error.Sprint("batch failed"))
	} else {
		fmt.Fprintf(&buf, "%s %s\n", SuccessIcon(f.NoColor), c.Success.Sprint("batch passed"))
	}
	return buf.String()
}

func (f *Formatter) formatCheck(chk batch.Check) string {
	c := f.scheme()
	var buf strings.Builder

	for _, k := range batch.SortedNames(chk.Extracted) {
		fmt.Fprintf(&buf, "  %s extracted %s = %s\n", SuccessIcon(f.NoColor), c.HeaderKey.Sprint(k), chk.Extracted[k])
	}
	if chk.ExtractErr != nil {
		fmt.Fprintf(&buf, "  %s %s\n", ErrorIcon(f.NoColor), c.Error.Sprint(chk.ExtractErr.Error()))
	}
	if chk.Schema != "" {
		if len(chk.SchemaErrs) == 0 {
			fmt.Fprintf(&buf, "  %s schema %s\n", SuccessIcon(f.NoColor), chk.Schema)
		}
		for _, err := range chk.SchemaErrs {
			fmt.Fprintf(&buf, "  %s schema %s: %s\n", ErrorIcon(f.NoColor), chk.Schema, c.Error.Sprint(err.Error()))
		}
	}
	return buf.String()
}

// FormatSummary formats the latency and status summary of a batch.
func (f *Formatter) FormatSummary(s metrics.Summary) string {
	c := f.scheme()
	var buf strings.Builder

	buf.WriteString(c.Highlight.Sprint("Summary") + "\n")
	fmt.Fprintf(&buf, "  Requests:   %d total, %s ok, %s http errors, %s failed\n",
		s.Total,
		c.Success.Sprint(s.Succeeded),
		c.StatusWarn.Sprint(s.HTTPErrors),
		c.Error.Sprint(s.Failed))
	fmt.Fprintf(&buf, "  Received:   %d bytes in %s\n", s.Bytes, formatDuration(s.Wall))

	if s.Latency.Count > 0 {
		fmt.Fprintf(&buf, "  Latency:    min %s, p50 %s, p90 %s, p99 %s, max %s\n",
			formatDuration(s.Latency.Min),
			formatDuration(s.Latency.P50),
			formatDuration(s.Latency.P90),
			formatDuration(s.Latency.P99),
			formatDuration(s.Latency.Max))
	}

	if len(s.ByStatus) > 0 {
		parts := make([]string, len(s.ByStatus))
		for i, sc := range s.ByStatus {
			parts[i] = fmt.Sprintf("%s×%d", c.Status(sc.Status).Sprint(sc.Status), sc.Count)
		}
		fmt.Fprintf(&buf, "  Statuses:   %s\n", strings.Join(parts, " "))
	}

	if len(s.ByFailure) > 0 {
		parts := make([]string, 0, len(s.ByFailure))
		for _, k := range batch.SortedNames(s.ByFailure) {
			parts = append(parts, fmt.Sprintf("%s×%d", k, s.ByFailure[k]))
		}
		fmt.Fprintf(&buf, "  Failures:   %s\n", c.Error.Sprint(strings.Join(parts, " ")))
	}
	return buf.String()
}

func formatTiming(t apihttp.TimingInfo) string {
	var buf strings.Builder
	buf.WriteString("  Timing:\n")
	fmt.Fprintf(&buf, "    DNS Lookup:         %s\n", formatDuration(t.DNSLookupTime))
	fmt.Fprintf(&buf, "    TCP Connection:     %s\n", formatDuration(t.TCPConnectTime))
	fmt.Fprintf(&buf, "    TLS Handshake:      %s\n", formatDuration(t.TLSHandshakeTime))
	fmt.Fprintf(&buf, "    Time to First Byte: %s\n", formatDuration(t.TimeToFirstByte))
	fmt.Fprintf(&buf, "    Content Transfer:   %s\n", formatDuration(t.ContentTransferTime))
	fmt.Fprintf(&buf, "    Total:              %s\n", formatDuration(t.TotalTime))
	return buf.String()
}

func failureKind(err error) string {
	var terr *apihttp.TransportError
	if errors.As(err, &terr) {
		return "[" + terr.Kind.String() + "]"
	}
	return "[other]"
}

// formatDuration rounds to a readable precision: microseconds below one
// millisecond, milliseconds below one second.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(100 * time.Microsecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}

func formatBody(body []byte, isJSON bool) string {
	if isJSON {
		if v, err := value.Decode(body); err == nil {
			return prettyValue(v)
		}
	}
	return string(body)
}

// prettyValue indents a decoded document, keeping its key order.
func prettyValue(v value.Value) string {
	out, err := value.EncodeIndent(v, "  ")
	if err != nil {
		return v.GoString()
	}
	return strings.TrimRight(string(out), "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
