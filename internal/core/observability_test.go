package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"essaycore/pkg/domain"
)

func TestServiceObservabilityCompliance(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}
	logger := &captureLogger{}
	svc := newTestService(t,
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(logger),
	)

	inst := mustInstitution(t, svc, "Princeton")
	if !audit.has(opCreateInstitution, AuditStatusSuccess, func(e AuditEntry) bool {
		return e.EntityID == inst.ID && e.Entity == EntityInstitution && e.Action == ActionCreate
	}) {
		t.Fatalf("expected audit entry for create_institution")
	}

	e := mustEssay(t, svc, Essay{Title: "T", Category: domain.CategoryPersonal, Content: "c", InstitutionRef: "dangling"})
	if logger.count("warn") != 1 {
		t.Fatalf("expected rule warning to be logged, got %d", logger.count("warn"))
	}
	if _, _, err := svc.Assign(ctx, e.ID, inst.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !audit.has(opAssignEssay, AuditStatusSuccess, nil) || !metrics.has(opAssignEssay, true) || !tracer.has(opAssignEssay, true) {
		t.Fatalf("assign not observed")
	}

	if _, _, err := svc.SetStatus(ctx, inst.ID, domain.StatusAccepted); err == nil {
		t.Fatalf("expected invalid transition")
	}
	if !audit.has(opSetStatus, AuditStatusError, func(e AuditEntry) bool { return e.Error != "" && e.EntityID == inst.ID }) {
		t.Fatalf("expected audit error entry for set_status")
	}
	if !metrics.has(opSetStatus, false) || !tracer.has(opSetStatus, false) {
		t.Fatalf("failed set_status not observed")
	}
	if logger.count("error") != 1 {
		t.Fatalf("expected one error log, got %d", logger.count("error"))
	}

	var buf bytes.Buffer
	if _, err := svc.ExportEssays(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !metrics.has(opExportEssays, true) {
		t.Fatalf("export not measured")
	}
	if audit.has(opExportEssays, AuditStatusSuccess, nil) {
		t.Fatalf("export must not be audited")
	}
	if len(tracer.started) != len(tracer.ended) {
		t.Fatalf("unbalanced spans: %d started, %d ended", len(tracer.started), len(tracer.ended))
	}
}

func TestAuditTimestampUsesServiceClock(t *testing.T) {
	audit := &captureAuditRecorder{}
	clock := ClockFunc(func() time.Time { return epoch })
	svc := NewInMemoryService(nil, WithClock(clock), WithAuditRecorder(audit))
	mustEssay(t, svc, Essay{Title: "T", Category: domain.CategoryOther, Content: "c"})
	if !audit.has(opCreateEssay, AuditStatusSuccess, func(e AuditEntry) bool { return e.Timestamp.Equal(epoch) }) {
		t.Fatalf("expected audit timestamp from service clock")
	}
}

func TestExpvarMetricsRecorderExports(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("")
	recorder.Observe(context.Background(), "create_essay", true, 2*time.Millisecond)
	recorder.Observe(context.Background(), "create_essay", false, 3*time.Millisecond)
	recorder.Observe(context.Background(), "", true, time.Millisecond)

	snapshot := recorder.Snapshot()
	got := snapshot.Operations["create_essay"]
	if got.Success != 1 || got.Error != 1 || got.DurationMS != 5 {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if len(snapshot.Operations) != 1 {
		t.Fatalf("empty operation should be ignored")
	}
	v := expvar.Get(recorder.Name())
	if v == nil {
		t.Fatalf("expected expvar export to be registered")
	}
	if !strings.Contains(v.String(), "create_essay") {
		t.Fatalf("expected expvar output to contain operation: %s", v.String())
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	recorder.Observe(context.Background(), "delete_essay", true, 10*time.Millisecond)
	recorder.Observe(context.Background(), "delete_essay", false, 10*time.Millisecond)
	recorder.Observe(context.Background(), "delete_essay", true, 10*time.Millisecond)

	if got := testutil.ToFloat64(recorder.operations.WithLabelValues("delete_essay", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(recorder.operations.WithLabelValues("delete_essay", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if got := testutil.CollectAndCount(recorder.durations, "essaycore_operation_duration_seconds"); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}

	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestJSONTraceTracerExports(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "import_essays")
	span.End(errors.New("boom"))
	span.End(nil)

	entries := tracer.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected a single entry, got %d", len(entries))
	}
	if entries[0].Status != "error" || entries[0].Error != "boom" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode trace line: %v", err)
	}
	if decoded.Operation != "import_essays" {
		t.Fatalf("unexpected trace line: %s", buf.String())
	}

	silent := NewJSONTracer(nil)
	_, span = silent.Start(context.Background(), "x")
	span.End(nil)
	if got := silent.Entries(); len(got) != 1 || got[0].Status != "success" {
		t.Fatalf("unexpected silent entries: %+v", got)
	}
}
