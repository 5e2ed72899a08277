package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"eta_monitor/internal/models"
)

// fakeJournal is an in-memory repository.JournalRepo.
type fakeJournal struct {
	mu sync.Mutex

	// captured List inputs
	gotFrom     time.Time
	gotTo       time.Time
	gotSeverity models.Severity
	listCalls   int

	appended []models.LogEntry
	pruned   []int
	cleared  int

	// configured outputs
	entries   []models.LogEntry
	listErr   error
	appendErr error
	clearErr  error
}

func (f *fakeJournal) Append(_ context.Context, e models.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeJournal) List(_ context.Context, from, to time.Time, sev models.Severity) ([]models.LogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.gotFrom, f.gotTo, f.gotSeverity = from, to, sev
	return f.entries, f.listErr
}

func (f *fakeJournal) Prune(_ context.Context, keep int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, keep)
	return nil
}

func (f *fakeJournal) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared++
	f.appended = nil
	return nil
}

func (f *fakeJournal) appendedCopy() []models.LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.LogEntry(nil), f.appended...)
}

// fakeKV is an in-memory repository.KVStore keeping JSON like the sqlite one.
type fakeKV struct {
	mu      sync.Mutex
	docs    map[string][]byte
	putErr  error
	puts    int
	cleared int
}

func newFakeKV() *fakeKV { return &fakeKV{docs: make(map[string][]byte)} }

func (f *fakeKV) Put(_ context.Context, key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.docs[key] = b
	f.puts++
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string, dst any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.docs[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (f *fakeKV) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = make(map[string][]byte)
	f.cleared++
	return nil
}

func (f *fakeKV) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[key]
	return ok
}

// sourceFunc adapts a function to Source.
type sourceFunc func(ctx context.Context, s models.Settings) (Payload, error)

func (f sourceFunc) Fetch(ctx context.Context, s models.Settings) (Payload, error) {
	return f(ctx, s)
}

func staticSource(boiler float64) Source {
	return sourceFunc(func(context.Context, models.Settings) (Payload, error) {
		return Payload{
			Metrics: map[string]float64{
				models.MetricBoilerTemp:  boiler,
				models.MetricOutsideTemp: 4,
				models.MetricPelletStock: 900,
			},
			Tree: []models.ParamNode{{
				Name:     "ETA PE 15",
				Children: []models.ParamNode{{Name: "Kesseltemperatur", Value: models.Float(boiler), Unit: "°C"}},
			}},
		}, nil
	})
}
