package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/planday/core/metrics"
	"github.com/kilianp07/planday/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

var _ coremetrics.EvaluationRecorder = (*InfluxSink)(nil)

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig, log logger.Logger) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	if log == nil {
		log = logger.New("influx-sink")
	}
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      log,
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig, log logger.Logger) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg, log)
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

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordGeneration writes one generation_event point.
func (s *InfluxSink) RecordGeneration(ev coremetrics.GenerationEvent) error {
	p := write.NewPointWithMeasurement("generation_event").
		AddTag("category", ev.Category).
		AddTag("failed", strconv.FormatBool(ev.Failed)).
		AddField("attempts", ev.Attempts).
		AddField("events", ev.Events).
		AddField("overlaps", ev.Overlaps).
		AddField("priorities", ev.Priorities).
		AddField("optimal_score", ev.OptimalScore).
		AddField("elapsed_ms", round3(ev.Elapsed.Seconds()*1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordValidation writes one validation_event point.
func (s *InfluxSink) RecordValidation(ev coremetrics.ValidationEvent) error {
	p := write.NewPointWithMeasurement("validation_event").
		AddTag("policy", ev.Policy).
		AddTag("reason", ev.Reason).
		AddTag("valid", strconv.FormatBool(ev.Valid)).
		AddField("score", round3(ev.Score)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordEvaluation writes the run summary.
func (s *InfluxSink) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	p := write.NewPointWithMeasurement("evaluation_run").
		AddTag("policy", ev.Policy).
		AddField("total", ev.Total).
		AddField("valid", ev.ValidCount).
		AddField("mean", round3(ev.Mean)).
		AddField("std_dev", round3(ev.StdDev)).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
