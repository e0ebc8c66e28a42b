package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fjsm/core/metrics"
	"github.com/kilianp07/fjsm/infra/logger"
)

// InfluxSink writes backend calls to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRequest writes the call as a backend_request point.
func (s *InfluxSink) RecordRequest(ev coremetrics.RequestEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("backend_request").
		AddTag("operation", ev.Operation).
		AddTag("method", ev.Method).
		AddTag("db", ev.DB.String()).
		AddTag("outcome", string(ev.Outcome)).
		AddField("status", ev.Status).
		AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		SetTime(ev.Time)
	if ev.RequestID != "" {
		p = p.AddField("request_id", ev.RequestID)
	}
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSelection writes a db_selection point.
func (s *InfluxSink) RecordSelection(ev coremetrics.SelectionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("db_selection").
		AddTag("db", ev.Selection.String()).
		AddField("changed", true).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Flush is a no-op for the blocking write API; Close releases the client.
func (s *InfluxSink) Flush(context.Context) error { return nil }

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
