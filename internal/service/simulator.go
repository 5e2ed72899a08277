package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"eta_monitor/internal/config"
	"eta_monitor/internal/models"
)

// metricRange is the plausible span of a simulated reading.
type metricRange struct {
	Min, Max float64
}

// MockRanges bounds every metric the simulator produces.
var MockRanges = map[string]metricRange{
	models.MetricBoilerTemp:   {60, 80},
	models.MetricOutsideTemp:  {-10, 15},
	models.MetricExhaustTemp:  {90, 160},
	models.MetricBufferTop:    {55, 75},
	models.MetricBufferBottom: {30, 50},
	models.MetricPelletStock:  {400, 1500},
	models.MetricRuntimeHours: {1000, 5000},
}

//go:embed mock_layout.yaml
var mockLayoutYAML []byte

type layoutNode struct {
	Name     string       `yaml:"name"`
	Metric   string       `yaml:"metric"`
	Unit     string       `yaml:"unit"`
	Min      *float64     `yaml:"min"`
	Max      *float64     `yaml:"max"`
	Children []layoutNode `yaml:"children"`
}

// MockSource simulates the controller: a random latency, then bounded
// random readings and a tree rooted at the controller name.
type MockSource struct {
	root       string
	minLatency time.Duration
	maxLatency time.Duration
	layout     []layoutNode

	mu  sync.Mutex
	rng *rand.Rand
}

var _ Source = (*MockSource)(nil)

func NewMockSource(cfg config.MockConfig) (*MockSource, error) {
	layout, err := parseLayout(mockLayoutYAML)
	if err != nil {
		return nil, err
	}
	root := cfg.ControllerName
	if root == "" {
		root = "ETA PE 15"
	}
	return &MockSource{
		root:       root,
		minLatency: cfg.MinLatency,
		maxLatency: cfg.MaxLatency,
		layout:     layout,
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	}, nil
}

func parseLayout(b []byte) ([]layoutNode, error) {
	var nodes []layoutNode
	if err := yaml.Unmarshal(b, &nodes); err != nil {
		return nil, fmt.Errorf("parse mock layout: %w", err)
	}
	if err := checkLayout(nodes); err != nil {
		return nil, fmt.Errorf("mock layout: %w", err)
	}
	return nodes, nil
}

func checkLayout(nodes []layoutNode) error {
	for _, n := range nodes {
		if n.Name == "" {
			return errors.New("node without name")
		}
		if n.Metric != "" {
			if _, ok := MockRanges[n.Metric]; !ok {
				return fmt.Errorf("%s: unknown metric %q", n.Name, n.Metric)
			}
		}
		if (n.Min == nil) != (n.Max == nil) || (n.Min != nil && *n.Min > *n.Max) {
			return fmt.Errorf("%s: bad min/max", n.Name)
		}
		if err := checkLayout(n.Children); err != nil {
			return err
		}
	}
	return nil
}

// Fetch always succeeds unless ctx ends during the simulated latency.
func (m *MockSource) Fetch(ctx context.Context, _ models.Settings) (Payload, error) {
	if err := sleepCtx(ctx, m.latency()); err != nil {
		return Payload{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := make(map[string]float64, len(MockRanges))
	for key, r := range MockRanges {
		metrics[key] = m.drawLocked(r)
	}
	root := models.ParamNode{
		Name:     m.root,
		Children: m.buildLocked(m.layout, metrics),
	}
	return Payload{Metrics: metrics, Tree: []models.ParamNode{root}}, nil
}

func (m *MockSource) latency() time.Duration {
	if m.maxLatency <= m.minLatency {
		return m.minLatency
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.minLatency + time.Duration(m.rng.Int64N(int64(m.maxLatency-m.minLatency)+1))
}

// drawLocked returns a uniform value in r rounded to one decimal.
func (m *MockSource) drawLocked(r metricRange) float64 {
	v := r.Min + m.rng.Float64()*(r.Max-r.Min)
	return math.Round(v*10) / 10
}

func (m *MockSource) buildLocked(layout []layoutNode, metrics map[string]float64) []models.ParamNode {
	if len(layout) == 0 {
		return nil
	}
	out := make([]models.ParamNode, 0, len(layout))
	for _, l := range layout {
		n := models.ParamNode{Name: l.Name, Unit: l.Unit}
		switch {
		case l.Metric != "":
			n.Value = models.Float(metrics[l.Metric])
			if n.Unit == "" {
				n.Unit = models.MetricUnit(l.Metric)
			}
		case l.Min != nil:
			n.Value = models.Float(m.drawLocked(metricRange{*l.Min, *l.Max}))
		}
		n.Children = m.buildLocked(l.Children, metrics)
		out = append(out, n)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
