package sink

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"eta_monitor/internal/config"
	"eta_monitor/internal/models"
)

const measurement = "telemetry"

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx writes one point per snapshot, every metric as a field.
type Influx struct {
	client influxdb2.Client
	writer pointWriter
}

func NewInflux(cfg config.InfluxConfig) *Influx {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &Influx{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (i *Influx) Name() string { return "influx" }

func (i *Influx) Publish(ctx context.Context, snap models.Snapshot) error {
	p := snapshotPoint(snap)
	if p == nil {
		return nil
	}
	if err := i.writer.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write point: %w", err)
	}
	return nil
}

func (i *Influx) Close() {
	if i.client != nil {
		i.client.Close()
	}
}

// snapshotPoint returns nil for a snapshot without metrics; influx rejects
// points that carry no fields.
func snapshotPoint(snap models.Snapshot) *write.Point {
	if len(snap.Metrics) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(snap.Metrics))
	for k, v := range snap.Metrics {
		fields[k] = v
	}
	return influxdb2.NewPoint(
		measurement,
		map[string]string{"source": snap.Source},
		fields,
		snap.TakenAt,
	)
}
