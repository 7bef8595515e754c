package influx

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"hsi_service/internal/domain/model"
)

const measurement = "hsi_month_stats"

type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// StatsWriter exports month statistics as points stamped with the first
// day of their month, so re-recording a month overwrites its point.
type StatsWriter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

func NewStatsWriter(cfg Config) *StatsWriter {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &StatsWriter{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

func (w *StatsWriter) Record(ctx context.Context, s model.StatsSnapshot) error {
	if err := w.writeAPI.WritePoint(ctx, newPoint(s)); err != nil {
		return fmt.Errorf("failed to write stats point to InfluxDB: %w", err)
	}
	return nil
}

func newPoint(s model.StatsSnapshot) *write.Point {
	return write.NewPoint(
		measurement,
		map[string]string{
			"source": s.Source,
			"month":  fmt.Sprintf("%02d", s.Month),
		},
		map[string]interface{}{
			"count":        s.Count,
			"min":          s.Min,
			"max":          s.Max,
			"mean":         s.Mean,
			"median":       s.Median,
			"std":          s.Std,
			"q25":          s.Q25,
			"q75":          s.Q75,
			"high_count":   s.HighCount,
			"medium_count": s.MediumCount,
			"low_count":    s.LowCount,
			"snapshot_id":  s.ID,
		},
		time.Date(s.Year, time.Month(s.Month), 1, 0, 0, 0, 0, time.UTC),
	)
}

func (w *StatsWriter) Close() {
	w.client.Close()
}
