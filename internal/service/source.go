package service

import (
	"context"

	"eta_monitor/internal/models"
)

// Payload is what one fetch produces before it becomes a snapshot. It is
// also the JSON contract of the live endpoint: {"metrics": {...}, "tree": [...]}.
type Payload struct {
	Metrics map[string]float64 `json:"metrics"`
	Tree    []models.ParamNode `json:"tree"`
}

// Source produces telemetry for one sync cycle.
type Source interface {
	Fetch(ctx context.Context, s models.Settings) (Payload, error)
}
