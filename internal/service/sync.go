package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"eta_monitor/internal/config"
	"eta_monitor/internal/logger"
	"eta_monitor/internal/models"
	"eta_monitor/internal/paramtree"
	"eta_monitor/internal/repository"
	"eta_monitor/internal/ringbuf"
	"eta_monitor/internal/sink"
)

const defaultRequestTimeout = 10 * time.Second

// EngineDeps are the collaborators of a SyncEngine. KV, Journal and Sink may
// be nil.
type EngineDeps struct {
	Store   *config.Store
	Mock    Source
	Live    Source
	KV      repository.KVStore
	Journal repository.JournalRepo
	Sink    sink.Sink
	Log     *logger.Logger
}

// SyncEngine runs one fetch-or-simulate cycle at a time and keeps the
// current snapshot, the chart history and the recent log list.
type SyncEngine struct {
	store   *config.Store
	mock    Source
	live    Source
	kv      repository.KVStore
	journal repository.JournalRepo
	out     sink.Sink
	log     *logger.Logger

	timeout      time.Duration
	chartMetrics []string

	// intervalUnit scales refresh_interval; tests shrink it.
	intervalUnit time.Duration
	now          func() time.Time

	inFlight atomic.Bool
	restart  chan struct{}
	wg       sync.WaitGroup

	// generation changes on Clear; a cycle started under an older one is discarded.
	generation atomic.Uint64

	// durable serializes journal and eta_db writes against Wipe.
	durable sync.Mutex

	mu       sync.RWMutex
	current  *models.Snapshot
	revision uint64
	history  *ringbuf.Ring[models.HistoryPoint]
	logs     *ringbuf.Ring[models.LogEntry]
}

func NewSyncEngine(d EngineDeps, cfg config.SyncConfig) *SyncEngine {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &SyncEngine{
		store:        d.Store,
		mock:         d.Mock,
		live:         d.Live,
		kv:           d.KV,
		journal:      d.Journal,
		out:          d.Sink,
		log:          logger.OrNop(d.Log),
		timeout:      timeout,
		chartMetrics: append([]string(nil), cfg.ChartMetrics...),
		intervalUnit: time.Second,
		now:          time.Now,
		restart:      make(chan struct{}, 1),
		history:      ringbuf.New[models.HistoryPoint](cfg.HistoryCapacity),
		logs:         ringbuf.New[models.LogEntry](cfg.LogCapacity),
	}
}

// InFlight reports whether a cycle is running.
func (e *SyncEngine) InFlight() bool { return e.inFlight.Load() }

// SyncNow runs one cycle unless another one is in flight, in which case it
// returns ErrSyncInFlight without waiting.
func (e *SyncEngine) SyncNow(ctx context.Context) (models.Snapshot, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return models.Snapshot{}, ErrSyncInFlight
	}
	defer e.inFlight.Store(false)
	return e.cycle(ctx)
}

func (e *SyncEngine) cycle(ctx context.Context) (models.Snapshot, error) {
	settings := e.store.Get()
	src, name := e.live, models.SourceLive
	if settings.MockMode {
		src, name = e.mock, models.SourceMock
	}

	gen := e.generation.Load()

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := e.now()
	p, err := src.Fetch(cctx, settings)
	elapsed := e.now().Sub(started).Round(time.Millisecond)

	// the fetch deadline may be spent; outputs get their own
	octx, ocancel := context.WithTimeout(ctx, e.timeout)
	defer ocancel()

	if err != nil {
		e.record(octx, gen, models.SeverityError, fmt.Sprintf("sync failed (%s): %v", name, err))
		e.log.Warnw("sync_cycle_failed", "source", name, "elapsed", elapsed, "err", err)
		return models.Snapshot{}, fmt.Errorf("sync %s: %w", name, err)
	}

	snap := models.Snapshot{
		TakenAt: e.now().UTC(),
		Source:  name,
		Metrics: p.Metrics,
		Tree:    p.Tree,
	}

	e.mu.Lock()
	if e.generation.Load() != gen {
		e.mu.Unlock()
		e.log.Infow("sync_cycle_discarded", "source", name, "reason", "state cleared while in flight")
		return models.Snapshot{}, ErrSyncDiscarded
	}
	e.current = &snap
	e.revision++
	e.history.Push(e.chartPoint(snap))
	e.mu.Unlock()

	nodes := paramtree.Count(snap.Tree)
	e.record(octx, gen, models.SeveritySuccess,
		fmt.Sprintf("sync ok (%s): %d metrics, %d parameters in %s", name, len(snap.Metrics), nodes, elapsed))
	e.log.Debugw("sync_cycle_ok", "source", name, "metrics", len(snap.Metrics), "nodes", nodes, "elapsed", elapsed)

	e.persist(octx, gen)
	e.publish(octx, snap)
	return snap, nil
}

// chartPoint keeps only the chart metrics present in snap.
func (e *SyncEngine) chartPoint(snap models.Snapshot) models.HistoryPoint {
	values := make(map[string]float64, len(e.chartMetrics))
	for _, k := range e.chartMetrics {
		if v, ok := snap.Metrics[k]; ok {
			values[k] = v
		}
	}
	return models.HistoryPoint{Timestamp: snap.TakenAt, Values: values}
}

// record appends the single log entry of a cycle to the in-memory list and
// the journal. Journal failures only reach the process log. Nothing is
// written when the state was cleared since gen.
func (e *SyncEngine) record(ctx context.Context, gen uint64, sev models.Severity, msg string) {
	entry := models.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: e.now().UTC(),
		Message:   msg,
		Severity:  sev,
	}

	e.durable.Lock()
	defer e.durable.Unlock()

	e.mu.Lock()
	if e.generation.Load() != gen {
		e.mu.Unlock()
		return
	}
	e.logs.Push(entry)
	e.mu.Unlock()

	if e.journal == nil {
		return
	}
	if err := e.journal.Append(ctx, entry); err != nil {
		e.log.Errorw("journal_append_failed", "err", err)
		return
	}
	if err := e.journal.Prune(ctx, e.logs.Cap()); err != nil {
		e.log.Errorw("journal_prune_failed", "err", err)
	}
}

func (e *SyncEngine) persist(ctx context.Context, gen uint64) {
	if e.kv == nil {
		return
	}
	e.durable.Lock()
	defer e.durable.Unlock()

	e.mu.RLock()
	if e.generation.Load() != gen {
		e.mu.RUnlock()
		return
	}
	state := models.PersistedState{Snapshot: e.current, History: e.history.Items()}
	e.mu.RUnlock()

	if err := e.kv.Put(ctx, repository.KeyState, state); err != nil {
		e.log.Errorw("persist_state_failed", "err", err)
	}
}

func (e *SyncEngine) publish(ctx context.Context, snap models.Snapshot) {
	if e.out == nil {
		return
	}
	if err := e.out.Publish(ctx, snap); err != nil {
		e.log.Warnw("sink_publish_failed", "sink", e.out.Name(), "err", err)
	}
}

// Restore loads the last persisted snapshot and history. A missing document
// is not an error.
func (e *SyncEngine) Restore(ctx context.Context) error {
	if e.kv == nil {
		return nil
	}
	var st models.PersistedState
	ok, err := e.kv.Get(ctx, repository.KeyState, &st)
	if err != nil || !ok {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if st.Snapshot != nil {
		e.current = st.Snapshot
		e.revision++
	}
	for _, p := range st.History {
		e.history.Push(p)
	}
	return nil
}

// Wipe runs erase while no cycle can write the journal or eta_db. When erase
// succeeds the in-memory state is cleared as well, and a cycle still in
// flight is discarded instead of writing back.
func (e *SyncEngine) Wipe(erase func() error) error {
	e.durable.Lock()
	defer e.durable.Unlock()
	if err := erase(); err != nil {
		return err
	}
	e.Clear()
	return nil
}

// Clear forgets the snapshot, tree, history and log list.
func (e *SyncEngine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation.Add(1)
	e.current = nil
	e.revision++
	e.history.Reset()
	e.logs.Reset()
}

// Restart makes Run sync immediately and start a fresh timer period.
func (e *SyncEngine) Restart() {
	select {
	case e.restart <- struct{}{}:
	default:
	}
}

func (e *SyncEngine) period(s models.Settings) time.Duration {
	return time.Duration(config.ClampInterval(s.RefreshInterval)) * e.intervalUnit
}

// Run syncs once, then on every timer tick until ctx is canceled. Settings
// changes reschedule the timer; stored data is kept.
func (e *SyncEngine) Run(ctx context.Context) {
	updates, unsubscribe := e.store.Subscribe()
	defer unsubscribe()
	defer e.wg.Wait()

	e.trigger(ctx, "start")

	ticker := time.NewTicker(e.period(e.store.Get()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.trigger(ctx, "timer")
		case s := <-updates:
			ticker.Reset(e.period(s))
			e.log.Infow("sync_rescheduled",
				"interval_s", config.ClampInterval(s.RefreshInterval),
				"mock_mode", s.MockMode,
				"base_url", s.BaseURL)
		case <-e.restart:
			ticker.Reset(e.period(e.store.Get()))
			e.trigger(ctx, "restart")
		}
	}
}

// trigger starts a cycle in the background. A trigger that finds a cycle in
// flight is dropped.
func (e *SyncEngine) trigger(ctx context.Context, reason string) {
	if e.InFlight() {
		e.log.Debugw("sync_trigger_dropped", "reason", reason)
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if _, err := e.SyncNow(ctx); errors.Is(err, ErrSyncInFlight) {
			e.log.Debugw("sync_trigger_dropped", "reason", reason)
		}
	}()
}
