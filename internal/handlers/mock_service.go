package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"eta_monitor/internal/models"
	"eta_monitor/internal/paramtree"
	"eta_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockSync struct {
	snap     models.Snapshot
	err      error
	inFlight bool
	calls    int
}

func (m *mockSync) SyncNow(context.Context) (models.Snapshot, error) {
	m.calls++
	return m.snap, m.err
}
func (m *mockSync) Run(context.Context)           {}
func (m *mockSync) InFlight() bool                { return m.inFlight }
func (m *mockSync) Restore(context.Context) error { return nil }

type mockMonitoring struct {
	snap    models.Snapshot
	err     error
	history []models.HistoryPoint
	cap     int
	logs    []models.LogEntry
}

func (m *mockMonitoring) Snapshot() (models.Snapshot, error) { return m.snap, m.err }
func (m *mockMonitoring) History() []models.HistoryPoint     { return m.history }
func (m *mockMonitoring) HistoryCapacity() int               { return m.cap }
func (m *mockMonitoring) Tree() ([]models.ParamNode, uint64) { return m.snap.Tree, 1 }
func (m *mockMonitoring) RecentLogs() []models.LogEntry      { return m.logs }

type mockTreeView struct {
	rows         []paramtree.Row
	rev          uint64
	lastExpand   []string
	lastCollapse []string
}

func (m *mockTreeView) TreeRows(expand, collapse []string) ([]paramtree.Row, uint64) {
	m.lastExpand, m.lastCollapse = expand, collapse
	return m.rows, m.rev
}

type mockEventLog struct {
	resp         []models.LogEntry
	err          error
	lastFrom     time.Time
	lastTo       time.Time
	lastSeverity string
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.LogEntry, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastSeverity = f.Severity
	return m.resp, m.err
}

type mockSettings struct {
	current   models.Settings
	updateErr error
	lastPatch models.SettingsPatch
	updates   int
}

func (m *mockSettings) GetSettings() models.Settings { return m.current }
func (m *mockSettings) UpdateSettings(_ context.Context, p models.SettingsPatch) (models.Settings, error) {
	m.updates++
	m.lastPatch = p
	if m.updateErr != nil {
		return m.current, m.updateErr
	}
	m.current = p.Apply(m.current)
	return m.current, nil
}
func (m *mockSettings) RestoreSettings(context.Context) error { return nil }

type mockMaintenance struct {
	err   error
	calls int
}

func (m *mockMaintenance) Reset(context.Context) error {
	m.calls++
	return m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// newAuthedRequest builds a request carrying a bearer token accepted by mockAuth.
func newAuthedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}
