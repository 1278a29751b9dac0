package output

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	apihttp "github.com/wesleyorama2/apinette/http"
	"github.com/wesleyorama2/apinette/internal/batch"
	"github.com/wesleyorama2/apinette/pkg/value"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format %q (use text, json or yaml)", s)
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatRequest(spec *apihttp.RequestSpec) string
	FormatOutcome(o *apihttp.Outcome) string
	FormatBatch(r *batch.Result) string
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Verbose bool
	Pretty  bool
}

func (f *JSONFormatter) FormatRequest(spec *apihttp.RequestSpec) string {
	return f.encode(requestDocument(spec))
}

func (f *JSONFormatter) FormatOutcome(o *apihttp.Outcome) string {
	return f.encode(outcomeDocument(o, f.Verbose))
}

func (f *JSONFormatter) FormatBatch(r *batch.Result) string {
	return f.encode(batchDocument(r, f.Verbose))
}

func (f *JSONFormatter) encode(v value.Value) string {
	var (
		out []byte
		err error
	)
	if f.Pretty {
		out, err = value.EncodeIndent(v, "  ")
	} else {
		out, err = value.Encode(v)
	}
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, "failed to encode output: "+err.Error())
	}
	return strings.TrimRight(string(out), "\n")
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	Verbose bool
}

func (f *YAMLFormatter) FormatRequest(spec *apihttp.RequestSpec) string {
	return encodeYAML(requestDocument(spec))
}

func (f *YAMLFormatter) FormatOutcome(o *apihttp.Outcome) string {
	return encodeYAML(outcomeDocument(o, f.Verbose))
}

func (f *YAMLFormatter) FormatBatch(r *batch.Result) string {
	return encodeYAML(batchDocument(r, f.Verbose))
}

func encodeYAML(v value.Value) string {
	out, err := yaml.Marshal(value.ToYAML(v))
	if err != nil {
		return fmt.Sprintf("---\nerror: failed to encode output: %s\n", err)
	}
	return "---\n" + string(out)
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Verbose: verbose, Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{Verbose: verbose}
	default:
		return NewFormatter(verbose, noColor)
	}
}
