package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"eta_monitor/internal/models"
	"eta_monitor/internal/repository"
)

type EventLogService struct {
	journal repository.JournalRepo
}

func NewEventLogService(journal repository.JournalRepo) *EventLogService {
	return &EventLogService{journal: journal}
}

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrInvalidSeverity  = errors.New("invalid severity: must be info, success, warning or error")
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func normalizeSeverity(s string) models.Severity {
	return models.Severity(strings.ToLower(strings.TrimSpace(s)))
}

// normalizeAndValidateFilter prepares query parameters and validates them.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, models.Severity, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", ErrInvalidTimeRange
	}

	sev := normalizeSeverity(f.Severity)
	if sev != "" && !sev.Valid() {
		return time.Time{}, time.Time{}, "", ErrInvalidSeverity
	}
	return from, to, sev, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.LogEntry, error) {
	from, to, sev, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.journal.List(ctx, from, to, sev)
}
