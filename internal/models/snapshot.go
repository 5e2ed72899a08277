package models

import "time"

// Metric keys reported by the heating controller.
const (
	MetricBoilerTemp   = "boiler_temp"
	MetricOutsideTemp  = "outside_temp"
	MetricExhaustTemp  = "exhaust_temp"
	MetricBufferTop    = "buffer_top"
	MetricBufferBottom = "buffer_bottom"
	MetricPelletStock  = "pellet_stock"
	MetricRuntimeHours = "runtime_hours"
)

// Snapshot sources.
const (
	SourceMock = "mock"
	SourceLive = "live"
)

var metricUnits = map[string]string{
	MetricBoilerTemp:   "°C",
	MetricOutsideTemp:  "°C",
	MetricExhaustTemp:  "°C",
	MetricBufferTop:    "°C",
	MetricBufferBottom: "°C",
	MetricPelletStock:  "kg",
	MetricRuntimeHours: "h",
}

// MetricUnit returns the implicit unit of a known metric, or "" for unknown keys.
func MetricUnit(key string) string {
	return metricUnits[key]
}

// Snapshot is one complete telemetry reading produced by a sync cycle.
// It is never modified after creation; the next cycle replaces it wholesale.
type Snapshot struct {
	TakenAt time.Time          `json:"taken_at"`
	Source  string             `json:"source"` // mock | live
	Metrics map[string]float64 `json:"metrics"`
	Tree    []ParamNode        `json:"tree"`
}

// HistoryPoint is a single chart sample holding only the selected metrics.
type HistoryPoint struct {
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// PersistedState is what survives a restart under the eta_db key.
type PersistedState struct {
	Snapshot *Snapshot      `json:"snapshot,omitempty"`
	History  []HistoryPoint `json:"history,omitempty"`
}
