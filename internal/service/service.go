package service

import (
	"context"
	"errors"

	"eta_monitor/internal/config"
	"eta_monitor/internal/logger"
	"eta_monitor/internal/models"
	"eta_monitor/internal/paramtree"
	"eta_monitor/internal/repository"
	"eta_monitor/internal/sink"
)

var (
	// ErrSyncInFlight is returned by a manual trigger while a cycle runs.
	ErrSyncInFlight = errors.New("sync already in flight")
	// ErrMalformedPayload means the live response did not match {metrics, tree}.
	ErrMalformedPayload = errors.New("malformed telemetry payload")
	// ErrUpstreamStatus means the live endpoint answered with a non-2xx status.
	ErrUpstreamStatus = errors.New("upstream returned non-success status")
	// ErrNoSnapshot means no cycle has succeeded yet.
	ErrNoSnapshot = errors.New("no snapshot yet")
	// ErrSyncDiscarded means the state was reset while the cycle was in flight.
	ErrSyncDiscarded = errors.New("sync discarded: state was reset while in flight")
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Sync drives the fetch-or-simulate cycle.
// Stop Run via context cancellation in main() for graceful shutdown.
type Sync interface {
	SyncNow(ctx context.Context) (models.Snapshot, error)
	Run(ctx context.Context)
	InFlight() bool
	Restore(ctx context.Context) error
}

// Monitoring exposes the read-only projections of the last cycles.
type Monitoring interface {
	Snapshot() (models.Snapshot, error)
	History() []models.HistoryPoint
	HistoryCapacity() int
	Tree() ([]models.ParamNode, uint64)
	RecentLogs() []models.LogEntry
}

// TreeView renders the parameter tree with per-path expand state.
type TreeView interface {
	TreeRows(expand, collapse []string) ([]paramtree.Row, uint64)
}

// EventLog exposes the durable sync journal with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.LogEntry, error)
}

type Settings interface {
	GetSettings() models.Settings
	UpdateSettings(ctx context.Context, p models.SettingsPatch) (models.Settings, error)
	RestoreSettings(ctx context.Context) error
}

type Maintenance interface {
	Reset(ctx context.Context) error
}

type Service struct {
	Sync
	Monitoring
	TreeView
	EventLog
	Settings
	Maintenance
	Authorization
}

// NewService wires the repository layer, settings store and sinks into the
// concrete services. out may be nil when no sink is configured.
func NewService(repos *repository.Repository, store *config.Store, cfg config.AppConfig, out sink.Sink, log *logger.Logger) (*Service, error) {
	log = logger.OrNop(log)

	mock, err := NewMockSource(cfg.Mock)
	if err != nil {
		return nil, err
	}
	live := NewLiveSource(cfg.Sync.Endpoint, cfg.Sync.RequestTimeout)

	engine := NewSyncEngine(EngineDeps{
		Store:   store,
		Mock:    mock,
		Live:    live,
		KV:      repos.KV,
		Journal: repos.Journal,
		Sink:    out,
		Log:     log,
	}, cfg.Sync)

	return &Service{
		Sync:          engine,
		Monitoring:    engine,
		TreeView:      NewTreeViewService(engine, paramtree.DefaultExpandDepth),
		EventLog:      NewEventLogService(repos.Journal),
		Settings:      NewSettingsService(store, repos.KV, log),
		Maintenance:   NewMaintenanceService(repos.KV, repos.Journal, store, engine, log),
		Authorization: NewAuthService(repos.Auth, cfg.Auth),
	}, nil
}
