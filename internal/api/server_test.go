package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kuhu42/solar-back-sub001/internal/blob"
	"github.com/kuhu42/solar-back-sub001/internal/core"
	"github.com/kuhu42/solar-back-sub001/internal/notify"
	"github.com/kuhu42/solar-back-sub001/internal/scheduler"
	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

type testServer struct {
	*httptest.Server
	svc *core.Service
	hub *notify.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	hub := notify.NewHub(16)
	svc := core.NewInMemoryService(nil, core.WithNotifier(hub), core.WithMetricsRecorder(metrics))
	queue := scheduler.New(time.Now())
	dispatcher := core.NewDispatcher(svc, queue, core.Latency{}, core.NewDocumentArchive(blob.NewMemory()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = scheduler.Driver{Queue: queue, Interval: time.Millisecond}.Run(ctx)
	}()

	handler, err := New(Config{Dispatcher: dispatcher, Hub: hub, Gatherer: reg})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return &testServer{Server: srv, svc: svc, hub: hub}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out := map[string]json.RawMessage{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, out
}

func (ts *testServer) seed(t *testing.T) {
	t.Helper()
	for _, u := range []map[string]any{
		{"id": "c1", "name": "Asha Rao", "role": "customer", "phone": "8123456789", "customer_ref_number": "CUST-001"},
		{"id": "a1", "name": "Agent Ravi", "role": "agent"},
		{"id": "i1", "name": "Installer Meena", "role": "installer"},
	} {
		if status, body := ts.do(t, http.MethodPost, "/api/v1/users", u); status != http.StatusCreated {
			t.Fatalf("create user %v: status %d body %s", u["id"], status, body["error"])
		}
	}
	status, body := ts.do(t, http.MethodPost, "/api/v1/projects", map[string]any{
		"id": "p1", "customer_id": "c1", "assigned_to": "a1", "title": "Rooftop 5kW", "location": "Pune", "value": 250000,
	})
	if status != http.StatusCreated {
		t.Fatalf("create project: status %d body %s", status, body["error"])
	}
}

func errorCode(t *testing.T, body map[string]json.RawMessage) string {
	t.Helper()
	var e errorBody
	if err := json.Unmarshal(body["error"], &e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e.Code
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, http.MethodGet, "/healthz", nil)
	if status != http.StatusOK || string(body["status"]) != `"ok"` {
		t.Fatalf("unexpected health response %d %v", status, body)
	}
}

func TestAssignInstallerOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)

	status, body := ts.do(t, http.MethodPost, "/api/v1/projects/p1/assign", map[string]any{"installer_id": "i1"})
	if status != http.StatusCreated {
		t.Fatalf("assign: status %d body %s", status, body["error"])
	}
	var out struct {
		Data core.Assignment `json:"data"`
	}
	raw, _ := json.Marshal(body)
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode assignment: %v", err)
	}
	if out.Data.Project.Status != domain.ProjectStatusInProgress || out.Data.Task.AssignedTo != "i1" {
		t.Fatalf("unexpected assignment %+v", out.Data)
	}
	if out.Data.Task.Notes != "assigned by a1" {
		t.Fatalf("unexpected notes %q", out.Data.Task.Notes)
	}

	status, body = ts.do(t, http.MethodPost, "/api/v1/projects/p1/assign", map[string]any{"installer_id": "i1"})
	if status != http.StatusConflict || errorCode(t, body) != string(domain.KindAlreadyAssigned) {
		t.Fatalf("expected 409 already_assigned, got %d %s", status, body["error"])
	}

	status, body = ts.do(t, http.MethodGet, "/api/v1/tasks?assignee=i1", nil)
	if status != http.StatusOK {
		t.Fatalf("list tasks: %d", status)
	}
	var tasks []domain.Task
	if err := json.Unmarshal(body["data"], &tasks); err != nil || len(tasks) != 1 {
		t.Fatalf("expected one task for installer, got %s (%v)", body["data"], err)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   domain.ErrorKind
	}{
		{"unknown project", http.MethodPost, "/api/v1/projects/missing/stage", map[string]any{"stage": "bank_process"}, http.StatusNotFound, domain.KindNotFound},
		{"invalid stage", http.MethodPost, "/api/v1/projects/p1/stage", map[string]any{"stage": "launched"}, http.StatusUnprocessableEntity, domain.KindInvalidTransition},
		{"complete before approval", http.MethodPost, "/api/v1/projects/p1/status", map[string]any{"status": "completed"}, http.StatusUnprocessableEntity, domain.KindInvalidTransition},
		{"missing field", http.MethodPost, "/api/v1/projects/p1/assign", map[string]any{}, http.StatusBadRequest, domain.KindValidation},
		{"unknown field", http.MethodPost, "/api/v1/projects/p1/stage", map[string]any{"stage": "bank_process", "extra": 1}, http.StatusBadRequest, domain.KindValidation},
		{"check-out without check-in", http.MethodPost, "/api/v1/attendance/check-out", map[string]any{"user_id": "i1"}, http.StatusConflict, domain.KindNoOpenCheckIn},
		{"not an installer", http.MethodPost, "/api/v1/projects/p1/assign", map[string]any{"installer_id": "a1"}, http.StatusBadRequest, domain.KindValidation},
		{"unknown user", http.MethodGet, "/api/v1/users/ghost", nil, http.StatusNotFound, domain.KindNotFound},
		{"duplicate project id", http.MethodPost, "/api/v1/projects", map[string]any{"id": "p1", "customer_id": "c1", "title": "Again"}, http.StatusBadRequest, domain.KindValidation},
		{"duplicate user id", http.MethodPost, "/api/v1/users", map[string]any{"id": "a1", "name": "Agent Ravi", "role": "agent"}, http.StatusBadRequest, domain.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := ts.do(t, tc.method, tc.path, tc.body)
			if status != tc.status {
				t.Fatalf("expected status %d, got %d (%s)", tc.status, status, body["error"])
			}
			if got := errorCode(t, body); got != string(tc.code) {
				t.Fatalf("expected code %s, got %s", tc.code, got)
			}
		})
	}
}

func TestValidationErrorsNameJSONFields(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, http.MethodPost, "/api/v1/users", map[string]any{"name": "x"})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if !strings.Contains(string(body["error"]), `"role":"required"`) {
		t.Fatalf("expected role field in details, got %s", body["error"])
	}
}

func TestAttendanceOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)

	if status, body := ts.do(t, http.MethodPost, "/api/v1/attendance/check-in", map[string]any{"user_id": "i1", "location": "Pune"}); status != http.StatusCreated {
		t.Fatalf("check-in: %d %s", status, body["error"])
	}
	status, body := ts.do(t, http.MethodPost, "/api/v1/attendance/check-in", map[string]any{"user_id": "i1"})
	if status != http.StatusConflict || errorCode(t, body) != string(domain.KindDuplicateCheckIn) {
		t.Fatalf("expected duplicate check-in conflict, got %d %s", status, body["error"])
	}
	if status, body := ts.do(t, http.MethodPost, "/api/v1/attendance/check-out", map[string]any{"user_id": "i1"}); status != http.StatusOK {
		t.Fatalf("check-out: %d %s", status, body["error"])
	}
	records := ts.svc.AttendanceForUser("i1")
	if len(records) != 1 || records[0].Open() {
		t.Fatalf("expected one closed record, got %+v", records)
	}
}

func TestSendQuoteArchivesDocument(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)

	status, body := ts.do(t, http.MethodPost, "/api/v1/quotes/send", map[string]any{"source_id": "p1"})
	if status != http.StatusCreated {
		t.Fatalf("send quote: %d %s", status, body["error"])
	}
	var delivery core.QuoteDelivery
	if err := json.Unmarshal(body["data"], &delivery); err != nil {
		t.Fatalf("decode delivery: %v", err)
	}
	if delivery.Quote.Amount != 250000 || delivery.Message.Phone != "+918123456789" {
		t.Fatalf("unexpected delivery %+v", delivery)
	}
	if !strings.HasPrefix(delivery.Archived.Key, "quotes/p1/") {
		t.Fatalf("unexpected archive key %q", delivery.Archived.Key)
	}

	status, body = ts.do(t, http.MethodGet, "/api/v1/quotes/p1/documents", nil)
	if status != http.StatusOK {
		t.Fatalf("list documents: %d", status)
	}
	var docs []blob.Info
	if err := json.Unmarshal(body["data"], &docs); err != nil || len(docs) != 1 {
		t.Fatalf("expected one archived document, got %s (%v)", body["data"], err)
	}

	status, body = ts.do(t, http.MethodPost, "/api/v1/quotes", map[string]any{"source_id": "nope"})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown source, got %d %s", status, body["error"])
	}
}

func TestMetricsEndpointExposesServiceMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.seed(t)
	resp, err := ts.Client().Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "solarops_service_operations_total") {
		t.Fatalf("expected service counters in metrics output")
	}
}

func TestDebugVarsServesExpvar(t *testing.T) {
	ts := newTestServer(t)
	status, body := ts.do(t, http.MethodGet, "/debug/vars", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if _, ok := body["memstats"]; !ok {
		t.Fatalf("expected expvar document, got keys %v", body)
	}
}

func TestEventsStreamCommittedChanges(t *testing.T) {
	ts := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for ts.hub.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("websocket never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	if status, body := ts.do(t, http.MethodPost, "/api/v1/users", map[string]any{"id": "u1", "name": "Zed", "role": "agent"}); status != http.StatusCreated {
		t.Fatalf("create user: %d %s", status, body["error"])
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev notify.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Entity != domain.EntityUser || ev.ID != "u1" || ev.Action != domain.ActionCreate {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestNewRequiresDispatcher(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error without dispatcher")
	}
}

func TestStatusForUntypedErrors(t *testing.T) {
	if got := statusFor(errors.New("disk on fire")); got != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got)
	}
	if got := statusFor(domain.NotFound("op", domain.EntityTask, "t1")); got != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", got)
	}
}
