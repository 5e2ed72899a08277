package service

import (
	"context"
	"fmt"

	"eta_monitor/internal/config"
	"eta_monitor/internal/logger"
	"eta_monitor/internal/repository"
)

type engineResetter interface {
	Wipe(erase func() error) error
	Restart()
}

// MaintenanceService owns the destructive reset.
type MaintenanceService struct {
	kv      repository.KVStore
	journal repository.JournalRepo
	store   *config.Store
	engine  engineResetter
	log     *logger.Logger
}

func NewMaintenanceService(kv repository.KVStore, journal repository.JournalRepo, store *config.Store, engine engineResetter, log *logger.Logger) *MaintenanceService {
	return &MaintenanceService{kv: kv, journal: journal, store: store, engine: engine, log: logger.OrNop(log)}
}

// Reset wipes persisted state and the journal, restores the configured
// default settings, empties the engine and restarts its timer. A cycle in
// flight during the wipe is discarded and writes nothing back.
func (s *MaintenanceService) Reset(ctx context.Context) error {
	err := s.engine.Wipe(func() error {
		if err := s.kv.Clear(ctx); err != nil {
			return err
		}
		return s.journal.Clear(ctx)
	})
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	settings := s.store.Reset()
	s.engine.Restart()

	s.log.Infow("state_reset", "mock_mode", settings.MockMode, "interval_s", settings.RefreshInterval)
	return nil
}
