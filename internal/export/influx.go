package export

import (
	"context"
	"fmt"
	"math"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/pkg/config"
	"github.com/wonny/loadsynth/pkg/logger"
)

const (
	// Measurement is the InfluxDB measurement of exported series
	Measurement = "synthetic_load"

	batchSize = 5000
)

// Series is one hourly series to export
type Series struct {
	LoadPointID string
	RunID       string
	Start       time.Time // timestamp of index 0
	Values      contracts.HourlySeries
}

// InfluxWriter writes synthetic series to InfluxDB v2
type InfluxWriter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	logger   *logger.Logger
}

// NewInfluxWriter creates a writer for the configured org and bucket
func NewInfluxWriter(cfg config.InfluxConfig, log *logger.Logger) (*InfluxWriter, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("influx export is not configured (INFLUX_URL, INFLUX_BUCKET)")
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxWriter{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		logger:   log,
	}, nil
}

// Ping verifies the server is reachable
func (w *InfluxWriter) Ping(ctx context.Context) error {
	ok, err := w.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influx ping: %w", err)
	}
	if !ok {
		return fmt.Errorf("influx ping: server not ready")
	}
	return nil
}

// Write exports s in batches; missing readings are skipped
func (w *InfluxWriter) Write(ctx context.Context, s Series) (int, error) {
	points := Points(s)
	for from := 0; from < len(points); from += batchSize {
		to := min(from+batchSize, len(points))
		if err := w.writeAPI.WritePoint(ctx, points[from:to]...); err != nil {
			return from, fmt.Errorf("influx write (points %d..%d): %w", from, to, err)
		}
	}

	w.logger.WithFields(map[string]interface{}{
		"load_point": s.LoadPointID,
		"run_id":     s.RunID,
		"points":     len(points),
	}).Info("Exported series to InfluxDB")

	return len(points), nil
}

// Close releases the client
func (w *InfluxWriter) Close() {
	w.client.Close()
}

// Points maps a series onto hourly line-protocol points
func Points(s Series) []*write.Point {
	tags := map[string]string{"load_point": s.LoadPointID}
	if s.RunID != "" {
		tags["run_id"] = s.RunID
	}

	points := make([]*write.Point, 0, len(s.Values))
	for t, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		points = append(points, write.NewPoint(
			Measurement,
			tags,
			map[string]interface{}{"kw": v},
			s.Start.Add(time.Duration(t)*time.Hour),
		))
	}
	return points
}
