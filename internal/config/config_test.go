package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"eta_monitor/internal/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port=%q, want 8080", cfg.Port)
	}
	if !cfg.Sync.MockMode || cfg.Sync.RefreshInterval != 10 {
		t.Errorf("unexpected sync defaults: %+v", cfg.Sync)
	}
	if cfg.Sync.HistoryCapacity != 30 || cfg.Sync.LogCapacity != 100 {
		t.Errorf("unexpected capacities: %+v", cfg.Sync)
	}
	if cfg.Mock.MinLatency != 800*time.Millisecond || cfg.Mock.MaxLatency != 1500*time.Millisecond {
		t.Errorf("unexpected mock latency: %+v", cfg.Mock)
	}
	if len(cfg.Sync.ChartMetrics) != 3 || cfg.Sync.ChartMetrics[0] != models.MetricBoilerTemp {
		t.Errorf("unexpected chart metrics: %v", cfg.Sync.ChartMetrics)
	}
}

func TestLoad_FileValuesAndClamping(t *testing.T) {
	dir := writeConfig(t, `
port: "9090"
sync:
  base_url: "http://192.168.0.25:8080/"
  mock_mode: false
  refresh_interval: 5
  history_capacity: 5000
  log_capacity: 0
mock:
  controller_name: "ETA SH 20"
`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port=%q", cfg.Port)
	}
	if cfg.Sync.MockMode || cfg.Sync.BaseURL != "http://192.168.0.25:8080/" {
		t.Errorf("unexpected sync: %+v", cfg.Sync)
	}
	if cfg.Sync.HistoryCapacity != maxBufferCapacity || cfg.Sync.LogCapacity != minBufferCapacity {
		t.Errorf("capacities not clamped: %+v", cfg.Sync)
	}
	if cfg.Mock.ControllerName != "ETA SH 20" {
		t.Errorf("controller name=%q", cfg.Mock.ControllerName)
	}
	d := cfg.DefaultSettings()
	if d.RefreshInterval != 5 || d.MockMode {
		t.Errorf("DefaultSettings()=%+v", d)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := writeConfig(t, "port: \"9090\"\n")
	t.Setenv("ETA_PORT", "7070")
	t.Setenv("ETA_SYNC_REFRESH_INTERVAL", "42")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("port=%q, want env override 7070", cfg.Port)
	}
	if cfg.Sync.RefreshInterval != 42 {
		t.Errorf("refresh_interval=%d, want 42", cfg.Sync.RefreshInterval)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"live without url": "sync:\n  mock_mode: false\n",
		"latency inverted": "mock:\n  min_latency: 2s\n  max_latency: 1s\n",
		"bad qos":          "mqtt:\n  qos: 3\n",
		"zero timeout":     "sync:\n  request_timeout: 0s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
