// Package metrics aggregates the outcomes of a batch into a latency and
// status summary.
package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	apihttp "github.com/wesleyorama2/apinette/http"
)

// Histogram range: 1 microsecond to 1 hour, 3 significant figures.
const (
	histogramMin     = 1
	histogramMax     = 3600000000
	histogramSigFigs = 3
)

// Collector records outcomes as they complete. It is safe for concurrent
// use, though the dispatcher only ever calls it from one goroutine.
type Collector struct {
	mu sync.Mutex

	latency  *hdrhistogram.Histogram
	byStatus map[int]int64
	byKind   map[string]int64

	total      int64
	succeeded  int64
	httpErrors int64
	failed     int64
	bytes      int64

	first time.Time
	last  time.Time
}

// LatencyStats summarizes exchange durations.
type LatencyStats struct {
	Min    time.Duration `json:"min" yaml:"min"`
	Max    time.Duration `json:"max" yaml:"max"`
	Mean   time.Duration `json:"mean" yaml:"mean"`
	StdDev time.Duration `json:"stdDev" yaml:"stdDev"`
	P50    time.Duration `json:"p50" yaml:"p50"`
	P90    time.Duration `json:"p90" yaml:"p90"`
	P95    time.Duration `json:"p95" yaml:"p95"`
	P99    time.Duration `json:"p99" yaml:"p99"`
	Count  int64         `json:"count" yaml:"count"`
}

// Summary is a point-in-time view of a Collector.
type Summary struct {
	Total      int64 `json:"total" yaml:"total"`
	Succeeded  int64 `json:"succeeded" yaml:"succeeded"`
	HTTPErrors int64 `json:"httpErrors" yaml:"httpErrors"`
	Failed     int64 `json:"failed" yaml:"failed"`
	Bytes      int64 `json:"bytes" yaml:"bytes"`

	// Wall is the time from the first exchange start to the last finish.
	Wall    time.Duration `json:"wall" yaml:"wall"`
	Latency LatencyStats  `json:"latency" yaml:"latency"`

	ByStatus []StatusCount `json:"byStatus,omitempty" yaml:"byStatus,omitempty"`
	// ByFailure counts transport failures per kind (dns, connect, ...).
	ByFailure map[string]int64 `json:"byFailure,omitempty" yaml:"byFailure,omitempty"`
}

// StatusCount is the number of responses with one status code.
type StatusCount struct {
	Status int   `json:"status" yaml:"status"`
	Count  int64 `json:"count" yaml:"count"`
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		latency:  hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		byStatus: make(map[int]int64),
		byKind:   make(map[string]int64),
	}
}

// Record adds one outcome.
func (c *Collector) Record(o *apihttp.Outcome) {
	micros := o.Elapsed.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.latency.RecordValue(micros)
	c.total++
	c.bytes += int64(len(o.Body))

	switch {
	case o.Err != nil:
		c.failed++
		kind := "other"
		if terr, ok := o.Err.(*apihttp.TransportError); ok {
			kind = terr.Kind.String()
		}
		c.byKind[kind]++
	case o.Status >= 400:
		c.httpErrors++
		c.byStatus[o.Status]++
	default:
		c.succeeded++
		c.byStatus[o.Status]++
	}

	start := o.Timing.StartTime
	end := start.Add(o.Elapsed)
	if !start.IsZero() && (c.first.IsZero() || start.Before(c.first)) {
		c.first = start
	}
	if end.After(c.last) {
		c.last = end
	}
}

// Summary returns the aggregated view.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		Total:      c.total,
		Succeeded:  c.succeeded,
		HTTPErrors: c.httpErrors,
		Failed:     c.failed,
		Bytes:      c.bytes,
	}
	if !c.first.IsZero() {
		s.Wall = c.last.Sub(c.first)
	}

	if c.total > 0 {
		s.Latency = LatencyStats{
			Min:    time.Duration(c.latency.Min()) * time.Microsecond,
			Max:    time.Duration(c.latency.Max()) * time.Microsecond,
			Mean:   time.Duration(c.latency.Mean()) * time.Microsecond,
			StdDev: time.Duration(c.latency.StdDev()) * time.Microsecond,
			P50:    time.Duration(c.latency.ValueAtQuantile(50)) * time.Microsecond,
			P90:    time.Duration(c.latency.ValueAtQuantile(90)) * time.Microsecond,
			P95:    time.Duration(c.latency.ValueAtQuantile(95)) * time.Microsecond,
			P99:    time.Duration(c.latency.ValueAtQuantile(99)) * time.Microsecond,
			Count:  c.latency.TotalCount(),
		}
	}

	for status, n := range c.byStatus {
		s.ByStatus = append(s.ByStatus, StatusCount{Status: status, Count: n})
	}
	sort.Slice(s.ByStatus, func(i, j int) bool { return s.ByStatus[i].Status < s.ByStatus[j].Status })

	if len(c.byKind) > 0 {
		s.ByFailure = make(map[string]int64, len(c.byKind))
		for k, n := range c.byKind {
			s.ByFailure[k] = n
		}
	}
	return s
}
