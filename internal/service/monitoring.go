package service

import "eta_monitor/internal/models"

// Snapshot returns the current snapshot or ErrNoSnapshot.
func (e *SyncEngine) Snapshot() (models.Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return models.Snapshot{}, ErrNoSnapshot
	}
	return *e.current, nil
}

// History returns the chart points, oldest first.
func (e *SyncEngine) History() []models.HistoryPoint {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Items()
}

func (e *SyncEngine) HistoryCapacity() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Cap()
}

// Tree returns the current parameter tree and its revision. The revision
// changes whenever the tree is replaced or cleared.
func (e *SyncEngine) Tree() ([]models.ParamNode, uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.current == nil {
		return nil, e.revision
	}
	return e.current.Tree, e.revision
}

// RecentLogs returns the in-memory log list, newest first.
func (e *SyncEngine) RecentLogs() []models.LogEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.logs.Newest()
}
