package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eta_monitor/internal/models"
	"eta_monitor/internal/service"
)

func TestLogsHandler_ListAndValidation(t *testing.T) {
	auth := &mockAuth{parseID: 99}
	now := time.Now().UTC().Truncate(time.Second)
	entries := []models.LogEntry{
		{ID: "e2", Timestamp: now.Add(time.Second), Severity: models.SeverityError, Message: "sync failed (live): boom"},
		{ID: "e1", Timestamp: now, Severity: models.SeverityError, Message: "sync failed (live): boom"},
	}
	logs := &mockEventLog{resp: entries}
	s := &service.Service{
		Authorization: auth,
		EventLog:      logs,
	}
	r := newTestRouter(s)

	// invalid 'from' → 400
	w := httptest.NewRecorder()
	r.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/v1/logs/?from=notatime", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	// Valid range and severity (uppercase is normalized before the service call)
	w = httptest.NewRecorder()
	q := "/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) + "&severity=ERROR"
	r.ServeHTTP(w, newAuthedRequest(http.MethodGet, q, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count   int               `json:"count"`
		Entries []models.LogEntry `json:"entries"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Entries) != 2 || out.Entries[0].ID != "e2" {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastSeverity != "error" {
		t.Fatalf("expected severity error, got %q", logs.lastSeverity)
	}
	if !logs.lastFrom.Equal(now) || !logs.lastTo.Equal(now.Add(2*time.Second)) {
		t.Fatalf("range not forwarded: %v..%v", logs.lastFrom, logs.lastTo)
	}
}

func TestLogsHandler_DateOnlyToIsEndOfDay(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: logs})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/v1/logs/?from=2026-03-01&to=2026-03-01", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	want := time.Date(2026, 3, 1, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastTo.Equal(want) {
		t.Fatalf("to=%v, want %v", logs.lastTo, want)
	}
}

func TestLogsHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"invalid severity", service.ErrInvalidSeverity, http.StatusBadRequest},
		{"invalid range", service.ErrInvalidTimeRange, http.StatusBadRequest},
		{"storage failure", errors.New("disk gone"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs := &mockEventLog{err: tc.err}
			r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: logs})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/v1/logs/?severity=debug", nil))
			if w.Code != tc.want {
				t.Fatalf("status=%d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestLogsHandler_FromAfterTo(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: logs})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/v1/logs/?from=2026-03-02T00:00:00Z&to=2026-03-01T00:00:00Z", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestLogsHandler_Recent(t *testing.T) {
	mon := &mockMonitoring{logs: []models.LogEntry{
		{ID: "b", Severity: models.SeveritySuccess, Message: "sync ok (mock)"},
		{ID: "a", Severity: models.SeverityError, Message: "sync failed (live): timeout"},
	}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, Monitoring: mon})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, newAuthedRequest(http.MethodGet, "/api/v1/logs/recent", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count   int               `json:"count"`
		Entries []models.LogEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || out.Entries[0].ID != "b" {
		t.Fatalf("unexpected response: %+v", out)
	}
}
