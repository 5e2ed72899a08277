package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"eta_monitor/internal/models"
)

// AppConfig is the static process configuration read at startup.
type AppConfig struct {
	Port     string
	LogLevel string
	DBPath   string

	Sync   SyncConfig
	Mock   MockConfig
	Auth   AuthConfig
	CORS   CORSConfig
	MQTT   MQTTConfig
	Influx InfluxConfig
}

type SyncConfig struct {
	BaseURL         string
	Endpoint        string
	RefreshInterval int // seconds
	MockMode        bool
	RequestTimeout  time.Duration
	HistoryCapacity int
	LogCapacity     int
	ChartMetrics    []string
}

type MockConfig struct {
	ControllerName string
	MinLatency     time.Duration
	MaxLatency     time.Duration
}

type AuthConfig struct {
	SigningKey string
	TokenTTL   time.Duration
	// OpenSignUp keeps sign-up available after the first operator exists.
	OpenSignUp bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

type InfluxConfig struct {
	Enabled bool
	URL     string
	Token   string
	Org     string
	Bucket  string
}

// Buffer bounds.
const (
	minBufferCapacity = 1
	maxBufferCapacity = 1000
)

// DefaultSettings are the runtime settings the engine starts with when nothing is persisted.
func (c AppConfig) DefaultSettings() models.Settings {
	return models.Settings{
		BaseURL:         c.Sync.BaseURL,
		RefreshInterval: c.Sync.RefreshInterval,
		MockMode:        c.Sync.MockMode,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "eta.db")

	v.SetDefault("sync.base_url", "")
	v.SetDefault("sync.endpoint", "/api/telemetry")
	v.SetDefault("sync.refresh_interval", 10)
	v.SetDefault("sync.mock_mode", true)
	v.SetDefault("sync.request_timeout", "10s")
	v.SetDefault("sync.history_capacity", 30)
	v.SetDefault("sync.log_capacity", 100)
	v.SetDefault("sync.chart_metrics", []string{
		models.MetricBoilerTemp,
		models.MetricOutsideTemp,
		models.MetricExhaustTemp,
	})

	v.SetDefault("mock.controller_name", "ETA PE 15")
	v.SetDefault("mock.min_latency", "800ms")
	v.SetDefault("mock.max_latency", "1500ms")

	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", "1h")
	v.SetDefault("auth.open_signup", false)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "eta-monitor")
	v.SetDefault("mqtt.topic", "eta/telemetry")
	v.SetDefault("mqtt.qos", 1)

	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.bucket", "eta")
}

// Load reads an optional .env file, then configs/config.yml (or config.yml in
// any of the given directories), then ETA_* environment overrides.
// A missing config file is not an error; defaults apply.
func Load(dirs ...string) (AppConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if len(dirs) == 0 {
		dirs = []string{"configs"}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetConfigName("config")
	v.SetEnvPrefix("ETA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := AppConfig{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log.level"),
		DBPath:   v.GetString("db.path"),
		Sync: SyncConfig{
			BaseURL:         v.GetString("sync.base_url"),
			Endpoint:        v.GetString("sync.endpoint"),
			RefreshInterval: v.GetInt("sync.refresh_interval"),
			MockMode:        v.GetBool("sync.mock_mode"),
			RequestTimeout:  v.GetDuration("sync.request_timeout"),
			HistoryCapacity: clampCapacity(v.GetInt("sync.history_capacity")),
			LogCapacity:     clampCapacity(v.GetInt("sync.log_capacity")),
			ChartMetrics:    v.GetStringSlice("sync.chart_metrics"),
		},
		Mock: MockConfig{
			ControllerName: v.GetString("mock.controller_name"),
			MinLatency:     v.GetDuration("mock.min_latency"),
			MaxLatency:     v.GetDuration("mock.max_latency"),
		},
		Auth: AuthConfig{
			SigningKey: v.GetString("auth.signing_key"),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
			OpenSignUp: v.GetBool("auth.open_signup"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("cors.allowed_origins"),
		},
		MQTT: MQTTConfig{
			Enabled:  v.GetBool("mqtt.enabled"),
			Broker:   v.GetString("mqtt.broker"),
			ClientID: v.GetString("mqtt.client_id"),
			Username: v.GetString("mqtt.username"),
			Password: v.GetString("mqtt.password"),
			Topic:    v.GetString("mqtt.topic"),
			QoS:      byte(v.GetUint("mqtt.qos")),
		},
		Influx: InfluxConfig{
			Enabled: v.GetBool("influx.enabled"),
			URL:     v.GetString("influx.url"),
			Token:   v.GetString("influx.token"),
			Org:     v.GetString("influx.org"),
			Bucket:  v.GetString("influx.bucket"),
		},
	}

	if cfg.Sync.RequestTimeout <= 0 {
		return AppConfig{}, fmt.Errorf("sync.request_timeout must be > 0, got %s", cfg.Sync.RequestTimeout)
	}
	if cfg.Mock.MaxLatency < cfg.Mock.MinLatency {
		return AppConfig{}, fmt.Errorf("mock.max_latency (%s) is below mock.min_latency (%s)", cfg.Mock.MaxLatency, cfg.Mock.MinLatency)
	}
	if cfg.MQTT.QoS > 2 {
		return AppConfig{}, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
	}
	if _, err := Normalize(cfg.DefaultSettings()); err != nil {
		return AppConfig{}, fmt.Errorf("sync defaults: %w", err)
	}
	return cfg, nil
}

func clampCapacity(n int) int {
	switch {
	case n < minBufferCapacity:
		return minBufferCapacity
	case n > maxBufferCapacity:
		return maxBufferCapacity
	default:
		return n
	}
}
