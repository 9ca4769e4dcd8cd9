package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

type auditCapture struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *auditCapture) Record(_ context.Context, e AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

type notifyCapture struct {
	batches [][]domain.Change
	err     error
}

func (n *notifyCapture) Notify(_ context.Context, changes []domain.Change) error {
	n.batches = append(n.batches, changes)
	return n.err
}

type logCapture struct {
	mu    sync.Mutex
	lines []string
}

func (l *logCapture) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+" "+msg)
}

func (l *logCapture) Debug(msg string, _ ...any) { l.add("DEBUG", msg) }
func (l *logCapture) Info(msg string, _ ...any)  { l.add("INFO", msg) }
func (l *logCapture) Warn(msg string, _ ...any)  { l.add("WARN", msg) }
func (l *logCapture) Error(msg string, _ ...any) { l.add("ERROR", msg) }

func (l *logCapture) has(line string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, got := range l.lines {
		if got == line {
			return true
		}
	}
	return false
}

func TestServiceRecordsAuditForSuccessAndFailure(t *testing.T) {
	audit := &auditCapture{}
	f := newFixture(t, WithAuditRecorder(audit))
	ctx := context.Background()
	audit.entries = nil

	if _, _, err := f.svc.AssignInstaller(ctx, "project-1", "installer-1", ""); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, _, err := f.svc.AssignInstaller(ctx, "project-1", "installer-1", ""); err == nil {
		t.Fatalf("expected second assignment to fail")
	}
	if len(audit.entries) != 2 {
		t.Fatalf("expected two audit entries, got %d", len(audit.entries))
	}
	ok, failed := audit.entries[0], audit.entries[1]
	if ok.Operation != opAssignInstaller || ok.Status != AuditStatusSuccess || ok.Entity != domain.EntityTask || ok.Action != domain.ActionCreate || ok.EntityID != "project-1" {
		t.Fatalf("unexpected success entry %+v", ok)
	}
	if failed.Status != AuditStatusError || failed.Error == "" {
		t.Fatalf("unexpected failure entry %+v", failed)
	}
}

func TestServiceNotifiesCommittedChangesOnly(t *testing.T) {
	notifier := &notifyCapture{}
	f := newFixture(t, WithNotifier(notifier))
	ctx := context.Background()
	notifier.batches = nil

	if _, _, err := f.svc.AssignInstaller(ctx, "project-1", "installer-1", ""); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if len(notifier.batches) != 1 || len(notifier.batches[0]) != 2 {
		t.Fatalf("expected one batch with task and project changes, got %+v", notifier.batches)
	}
	if _, _, err := f.svc.UpdatePipelineStage(ctx, "project-1", "bogus"); err == nil {
		t.Fatalf("expected failure")
	}
	if len(notifier.batches) != 1 {
		t.Fatalf("failed operations must not notify")
	}
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	logs := &logCapture{}
	f := newFixture(t, WithNotifier(&notifyCapture{err: errors.New("down")}), WithLogger(logs))
	if _, _, err := f.svc.ApproveInstallation(context.Background(), "project-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !logs.has("WARN change notification failed") {
		t.Fatalf("expected notification warning, got %v", logs.lines)
	}
}

func TestServiceLogsRuleWarnings(t *testing.T) {
	logs := &logCapture{}
	f := newFixture(t, WithLogger(logs))
	if _, _, err := f.svc.CreateTask(context.Background(), domain.Task{AssignedTo: "installer-1", Title: "x", Type: domain.TaskTypeSurvey, SerialNumbers: []string{"nope"}}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if !logs.has("WARN rule warning") || !logs.has("INFO operation committed") {
		t.Fatalf("unexpected log lines %v", logs.lines)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	f := newFixture(t, WithMetricsRecorder(rec))
	ctx := context.Background()
	if _, _, err := f.svc.UpdatePipelineStage(ctx, "project-1", domain.StageBankProcess); err != nil {
		t.Fatalf("stage: %v", err)
	}
	_, _, _ = f.svc.UpdatePipelineStage(ctx, "missing", domain.StageBankProcess)

	if got := testutil.ToFloat64(rec.results.WithLabelValues(opUpdatePipelineStage, "success")); got != 1 {
		t.Fatalf("expected one success, got %v", got)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues(opUpdatePipelineStage, "error")); got != 1 {
		t.Fatalf("expected one error, got %v", got)
	}
	if n := testutil.CollectAndCount(rec.latency, "solarops_service_operation_duration_seconds"); n == 0 {
		t.Fatalf("expected latency series")
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if !strings.HasPrefix(rec.Name(), "solarops_service_metrics_") {
		t.Fatalf("unexpected name %q", rec.Name())
	}
	rec.Observe(context.Background(), "op", true, 2*time.Millisecond)
	rec.Observe(context.Background(), "op", false, 3*time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)
	snap := rec.Snapshot()
	op := snap.Operations["op"]
	if op.TotalMS != 5 || op.MaxMS != 3 || op.Success != 1 || op.Errors != 1 || op.LastAt.IsZero() {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(snap.Operations) != 1 {
		t.Fatalf("empty operation must be ignored")
	}
	published := expvar.Get(rec.Name())
	if published == nil || !strings.Contains(published.String(), `"success":1`) {
		t.Fatalf("expected published snapshot, got %v", published)
	}
}

func TestMultiMetricsRecorderFansOut(t *testing.T) {
	a, b := NewExpvarMetricsRecorder(""), NewExpvarMetricsRecorder("")
	f := newFixture(t, WithMetricsRecorder(MultiMetricsRecorder{a, nil, b}))
	if _, _, err := f.svc.ApproveInstallation(context.Background(), "project-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	for _, rec := range []*ExpvarMetricsRecorder{a, b} {
		if got := rec.Snapshot().Operations[opApproveInstallation].Success; got != 1 {
			t.Fatalf("%s: expected one approval, got %d", rec.Name(), got)
		}
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	f := newFixture(t, WithTracer(tracer))
	ctx := context.Background()
	if _, err := f.svc.QuoteRequest(ctx, "project-1", 0); err != nil {
		t.Fatalf("quote: %v", err)
	}
	_, _, _ = f.svc.ApproveInstallation(ctx, "missing")

	entries := tracer.Entries()
	last := entries[len(entries)-1]
	if last.Operation != opApproveInstallation || last.Status != "error" || last.Kind != string(domain.KindNotFound) || last.SpanID == "" {
		t.Fatalf("unexpected last span %+v", last)
	}
	prev := entries[len(entries)-2]
	if prev.Operation != opQuoteRequest || prev.Status != "success" {
		t.Fatalf("unexpected quote span %+v", prev)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(entries) {
		t.Fatalf("expected %d json lines, got %d", len(entries), len(lines))
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &decoded); err != nil || decoded.Operation != opApproveInstallation {
		t.Fatalf("decode last line: %+v %v", decoded, err)
	}
}

func TestLogAuditRecorderLevels(t *testing.T) {
	logs := &logCapture{}
	rec := LogAuditRecorder{Logger: logs}
	rec.Record(context.Background(), AuditEntry{Operation: "x", Status: AuditStatusSuccess})
	rec.Record(context.Background(), AuditEntry{Operation: "x", Status: AuditStatusError, Error: "bad"})
	if !logs.has("INFO audit") || !logs.has("WARN audit") {
		t.Fatalf("unexpected lines %v", logs.lines)
	}
	LogAuditRecorder{}.Record(context.Background(), AuditEntry{})
}
