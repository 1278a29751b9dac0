package output

import (
	"strconv"
	"strings"
	"time"

	apihttp "github.com/wesleyorama2/apinette/http"
	"github.com/wesleyorama2/apinette/internal/batch"
	"github.com/wesleyorama2/apinette/internal/metrics"
	"github.com/wesleyorama2/apinette/pkg/value"
)

// The structured formats render ordered value documents so that JSON and
// YAML output keep the same field order as the text output.

func requestDocument(spec *apihttp.RequestSpec) value.Value {
	obj := value.NewObject()
	if spec.Name() != "" {
		obj.Set("name", value.String(spec.Name()))
	}
	obj.Set("method", value.String(spec.Method()))
	obj.Set("url", value.String(spec.URL()))

	headers := value.NewObject()
	for _, f := range spec.WireHeaders() {
		if f.Name == "Authorization" {
			headers.Set(f.Name, value.String(redact(f.Value)))
			continue
		}
		headers.Set(f.Name, value.String(f.Value))
	}
	obj.Set("headers", value.FromObject(headers))

	if body := spec.Body(); body != nil {
		if spec.IsJSON() {
			if v, err := value.Decode(body); err == nil {
				obj.Set("body", v)
				return value.FromObject(obj)
			}
		}
		obj.Set("body", value.String(string(body)))
	}
	return value.FromObject(obj)
}

func outcomeDocument(o *apihttp.Outcome, verbose bool) value.Value {
	v := o.ToValue()
	obj := v.Object()
	if o.Err != nil {
		if terr, ok := o.Err.(*apihttp.TransportError); ok {
			obj.Set("errorKind", value.String(terr.Kind.String()))
		}
	}
	if verbose {
		obj.Set("timing", timingDocument(o.Timing))
	}
	return v
}

func timingDocument(t apihttp.TimingInfo) value.Value {
	obj := value.NewObject()
	obj.Set("dnsLookupMs", millis(t.DNSLookupTime))
	obj.Set("tcpConnectionMs", millis(t.TCPConnectTime))
	obj.Set("tlsHandshakeMs", millis(t.TLSHandshakeTime))
	obj.Set("timeToFirstByteMs", millis(t.TimeToFirstByte))
	obj.Set("contentTransferMs", millis(t.ContentTransferTime))
	obj.Set("totalMs", millis(t.TotalTime))
	return value.FromObject(obj)
}

func checkDocument(c batch.Check) value.Value {
	obj := value.NewObject()
	obj.Set("passed", value.Bool(c.Passed()))
	if len(c.Extracted) > 0 {
		vars := value.NewObject()
		for _, k := range batch.SortedNames(c.Extracted) {
			vars.Set(k, value.String(c.Extracted[k]))
		}
		obj.Set("extracted", value.FromObject(vars))
	}
	if c.ExtractErr != nil {
		obj.Set("extractError", value.String(c.ExtractErr.Error()))
	}
	if c.Schema != "" {
		obj.Set("schema", value.String(c.Schema))
		errs := value.NewArray()
		for _, err := range c.SchemaErrs {
			errs.Append(value.String(err.Error()))
		}
		obj.Set("schemaErrors", value.FromArray(errs))
	}
	return value.FromObject(obj)
}

func batchDocument(r *batch.Result, verbose bool) value.Value {
	requests := value.NewArray()
	for i, o := range r.Outcomes {
		doc := outcomeDocument(o, verbose)
		doc.Object().Set("checks", checkDocument(r.Checks[i]))
		requests.Append(doc)
	}

	vars := value.NewObject()
	all := r.Variables()
	for _, k := range batch.SortedNames(all) {
		vars.Set(k, value.String(all[k]))
	}

	obj := value.NewObject()
	obj.Set("passed", value.Bool(!r.Failed()))
	obj.Set("requests", value.FromArray(requests))
	obj.Set("variables", value.FromObject(vars))
	obj.Set("summary", summaryDocument(r.Summary))
	return value.FromObject(obj)
}

func summaryDocument(s metrics.Summary) value.Value {
	latency := value.NewObject()
	latency.Set("minMs", millis(s.Latency.Min))
	latency.Set("meanMs", millis(s.Latency.Mean))
	latency.Set("p50Ms", millis(s.Latency.P50))
	latency.Set("p90Ms", millis(s.Latency.P90))
	latency.Set("p95Ms", millis(s.Latency.P95))
	latency.Set("p99Ms", millis(s.Latency.P99))
	latency.Set("maxMs", millis(s.Latency.Max))

	statuses := value.NewObject()
	for _, sc := range s.ByStatus {
		statuses.Set(strconv.Itoa(sc.Status), value.Int(sc.Count))
	}

	obj := value.NewObject()
	obj.Set("total", value.Int(s.Total))
	obj.Set("succeeded", value.Int(s.Succeeded))
	obj.Set("httpErrors", value.Int(s.HTTPErrors))
	obj.Set("failed", value.Int(s.Failed))
	obj.Set("bytes", value.Int(s.Bytes))
	obj.Set("wallMs", millis(s.Wall))
	obj.Set("latency", value.FromObject(latency))
	obj.Set("byStatus", value.FromObject(statuses))
	if len(s.ByFailure) > 0 {
		failures, _ := value.FromGo(s.ByFailure)
		obj.Set("byFailure", failures)
	}
	return value.FromObject(obj)
}

func millis(d time.Duration) value.Value {
	return value.Number(float64(d.Microseconds()) / 1000)
}

// redact keeps the scheme of an Authorization value and hides the
// credentials.
func redact(v string) string {
	if scheme, _, ok := strings.Cut(v, " "); ok {
		return scheme + " ****"
	}
	return "****"
}
