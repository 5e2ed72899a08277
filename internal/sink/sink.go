package sink

import (
	"context"
	"errors"
	"fmt"

	"eta_monitor/internal/models"
)

// Sink receives every snapshot produced by a successful sync cycle.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snap models.Snapshot) error
}

// Multi fans a snapshot out to several sinks. A failing sink does not stop
// the others; all errors are joined.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Publish(ctx context.Context, snap models.Snapshot) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds a connection.
func (m Multi) Close() {
	for _, s := range m {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
