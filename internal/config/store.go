package config

import (
	"sync"

	"eta_monitor/internal/models"
)

// Store holds the live runtime settings. There is one writer path (Set,
// Replace, Reset) and any number of readers and subscribers.
type Store struct {
	mu       sync.RWMutex
	current  models.Settings
	defaults models.Settings
	subs     map[int]chan models.Settings
	nextID   int
}

// NewStore validates defaults and starts from them.
func NewStore(defaults models.Settings) (*Store, error) {
	d, err := Normalize(defaults)
	if err != nil {
		return nil, err
	}
	return &Store{
		current:  d,
		defaults: d,
		subs:     make(map[int]chan models.Settings),
	}, nil
}

// Get returns the current settings.
func (s *Store) Get() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set applies a partial update. Invalid results are rejected and leave the
// current settings untouched.
func (s *Store) Set(p models.SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(p.Apply(s.current))
}

// Replace swaps in a complete settings value, e.g. one restored from disk.
func (s *Store) Replace(next models.Settings) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(next)
}

// Reset returns to the defaults the store was created with.
func (s *Store) Reset() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, _ := s.replaceLocked(s.defaults) // defaults were validated in NewStore
	return out
}

func (s *Store) replaceLocked(next models.Settings) (models.Settings, error) {
	n, err := Normalize(next)
	if err != nil {
		return s.current, err
	}
	if n == s.current {
		return n, nil
	}
	s.current = n
	s.notifyLocked(n)
	return n, nil
}

// Subscribe returns a channel carrying the latest settings after each change.
// Slow readers only ever see the most recent value. Call the returned func to
// unsubscribe.
func (s *Store) Subscribe() (<-chan models.Settings, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan models.Settings, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notifyLocked(v models.Settings) {
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}
