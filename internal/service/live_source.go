package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"

	"eta_monitor/internal/models"
)

const bodyExcerptLen = 200

// LiveSource issues one GET per cycle against the controller gateway.
// There is no retry; a failed request fails the cycle.
type LiveSource struct {
	client   *resty.Client
	endpoint string
}

var _ Source = (*LiveSource)(nil)

func NewLiveSource(endpoint string, timeout time.Duration) *LiveSource {
	client := resty.New().
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &LiveSource{client: client, endpoint: endpoint}
}

func (l *LiveSource) Fetch(ctx context.Context, s models.Settings) (Payload, error) {
	if s.BaseURL == "" {
		return Payload{}, errors.New("no base url configured")
	}
	url := s.BaseURL + l.endpoint

	resp, err := l.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return Payload{}, fmt.Errorf("request %s: %w (the controller may be unreachable or block cross-origin access; enable mock mode or use a server-side proxy)", url, err)
	}
	if !resp.IsSuccess() {
		return Payload{}, fmt.Errorf("%w: %s answered %d: %s", ErrUpstreamStatus, url, resp.StatusCode(), excerpt(resp.Body()))
	}

	return decodePayload(resp.Body())
}

func decodePayload(body []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.Metrics == nil {
		return Payload{}, fmt.Errorf("%w: missing metrics", ErrMalformedPayload)
	}
	return p, nil
}

// excerpt cuts the trimmed body to at most bodyExcerptLen bytes without
// splitting a UTF-8 sequence.
func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= bodyExcerptLen {
		return s
	}
	cut := bodyExcerptLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
