package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"eta_monitor/internal/models"
)

// Refresh interval bounds, in seconds.
const (
	MinRefreshInterval = 1
	MaxRefreshInterval = 3600
)

// ErrInvalidSettings wraps every settings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// ClampInterval forces seconds into [MinRefreshInterval, MaxRefreshInterval].
func ClampInterval(seconds int) int {
	if seconds < MinRefreshInterval {
		return MinRefreshInterval
	}
	if seconds > MaxRefreshInterval {
		return MaxRefreshInterval
	}
	return seconds
}

// ParseInterval parses a textual refresh interval and clamps it.
func ParseInterval(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: refresh interval %q is not a whole number of seconds", ErrInvalidSettings, s)
	}
	return ClampInterval(n), nil
}

// Normalize clamps the interval, tidies the base URL and rejects settings the
// engine cannot run with. It does not mutate its argument.
func Normalize(s models.Settings) (models.Settings, error) {
	s.RefreshInterval = ClampInterval(s.RefreshInterval)
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")

	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil {
			return models.Settings{}, fmt.Errorf("%w: base url: %v", ErrInvalidSettings, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return models.Settings{}, fmt.Errorf("%w: base url must use http or https, got %q", ErrInvalidSettings, s.BaseURL)
		}
		if u.Host == "" {
			return models.Settings{}, fmt.Errorf("%w: base url %q has no host", ErrInvalidSettings, s.BaseURL)
		}
	}
	if !s.MockMode && s.BaseURL == "" {
		return models.Settings{}, fmt.Errorf("%w: base url is required when mock mode is off", ErrInvalidSettings)
	}
	return s, nil
}
