package service

import (
	"context"
	"fmt"

	"eta_monitor/internal/config"
	"eta_monitor/internal/logger"
	"eta_monitor/internal/models"
	"eta_monitor/internal/repository"
)

type SettingsService struct {
	store *config.Store
	kv    repository.KVStore
	log   *logger.Logger
}

func NewSettingsService(store *config.Store, kv repository.KVStore, log *logger.Logger) *SettingsService {
	return &SettingsService{store: store, kv: kv, log: logger.OrNop(log)}
}

func (s *SettingsService) GetSettings() models.Settings {
	return s.store.Get()
}

// UpdateSettings validates and applies p, then persists the result under
// eta_config. Invalid input is rejected with config.ErrInvalidSettings. When
// persisting fails the previous settings are put back.
func (s *SettingsService) UpdateSettings(ctx context.Context, p models.SettingsPatch) (models.Settings, error) {
	prev := s.store.Get()
	next, err := s.store.Set(p)
	if err != nil {
		return next, err
	}
	if err := s.kv.Put(ctx, repository.KeyConfig, next); err != nil {
		if _, rerr := s.store.Replace(prev); rerr != nil {
			s.log.Errorw("settings_rollback_failed", "err", rerr)
		}
		return prev, fmt.Errorf("persist settings: %w", err)
	}
	return next, nil
}

// RestoreSettings loads eta_config into the store. A stored value that no
// longer validates is ignored and the defaults stay.
func (s *SettingsService) RestoreSettings(ctx context.Context) error {
	var stored models.Settings
	ok, err := s.kv.Get(ctx, repository.KeyConfig, &stored)
	if err != nil || !ok {
		return err
	}
	if _, err := s.store.Replace(stored); err != nil {
		s.log.Warnw("stored_settings_ignored", "err", err)
	}
	return nil
}
