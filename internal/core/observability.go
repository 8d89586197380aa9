package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var expvarSeq uint64

func outcome(success bool) string {
	if success {
		return string(AuditStatusSuccess)
	}
	return string(AuditStatusError)
}

// ExpvarMetricsRecorder publishes per-operation totals through expvar: the
// summed duration in milliseconds and a success/error count.
type ExpvarMetricsRecorder struct {
	name   string
	clock  Clock
	mu     sync.Mutex
	totals map[string]*operationTotals
}

type operationTotals struct {
	durationMS float64
	success    int64
	errors     int64
}

// OperationMetrics is the exported view of one operation.
type OperationMetrics struct {
	DurationMS float64 `json:"duration_ms_total"`
	Success    int64   `json:"success"`
	Error      int64   `json:"error"`
}

// ExpvarMetricsSnapshot is a point-in-time copy of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationMetrics `json:"operations"`
	RecordedAt time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name. An empty name
// gets a generated one, since expvar names must be unique per process.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("essaycore_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:   name,
		clock:  ClockFunc(func() time.Time { return time.Now().UTC() }),
		totals: make(map[string]*operationTotals),
	}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Snapshot copies the current totals.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make(map[string]OperationMetrics, len(r.totals))
	for op, t := range r.totals {
		ops[op] = OperationMetrics{DurationMS: t.durationMS, Success: t.success, Error: t.errors}
	}
	return ExpvarMetricsSnapshot{Operations: ops, RecordedAt: r.clock.Now()}
}

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.totals[operation]
	if !ok {
		t = &operationTotals{}
		r.totals[operation] = t
	}
	t.durationMS += float64(duration) / float64(time.Millisecond)
	if success {
		t.success++
	} else {
		t.errors++
	}
}

// PrometheusMetricsRecorder exports operation counts and latencies as
// essaycore_operations_total{operation,status} and
// essaycore_operation_duration_seconds{operation}.
type PrometheusMetricsRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder registers the collectors on reg, or on the
// default registerer when reg is nil.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rec := &PrometheusMetricsRecorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "essaycore",
			Name:      "operations_total",
			Help:      "Service operations by outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "essaycore",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{rec.operations, rec.durations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.operations.WithLabelValues(operation, outcome(success)).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// JSONTraceEntry is one finished span.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes finished spans as JSON lines and keeps them for
// inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	clock   Clock
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer returns a tracer writing to w. A nil writer only retains
// spans.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{clock: ClockFunc(func() time.Time { return time.Now().UTC() })}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries copies the finished spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]JSONTraceEntry(nil), t.entries...)
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: t.clock.Now()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
	once      sync.Once
}

func (s *jsonTraceSpan) End(err error) {
	s.once.Do(func() { s.tracer.finish(s, err) })
}

func (t *JSONTraceTracer) finish(s *jsonTraceSpan, err error) {
	ended := t.clock.Now()
	entry := JSONTraceEntry{
		Operation:  s.operation,
		Status:     outcome(err == nil),
		DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
		EndedAt:    ended,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if t.enc != nil {
		_ = t.enc.Encode(entry)
	}
}
