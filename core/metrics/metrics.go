package metrics

import (
	"time"

	"github.com/kilianp07/planday/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr enables the /metrics endpoint when set, e.g. ":9100".
	PrometheusAddr string `json:"prometheus_addr"`
}

// GenerationEvent describes the outcome of one generation request.
type GenerationEvent struct {
	Category     string
	Attempts     int
	Events       int
	Overlaps     int
	Priorities   int
	OptimalScore int
	Failed       bool
	Elapsed      time.Duration
	Time         time.Time
}

// GenerationRecorder records generation outcomes.
type GenerationRecorder interface {
	RecordGeneration(ev GenerationEvent) error
}

// ValidationEvent describes one scored candidate.
type ValidationEvent struct {
	Policy string
	Reason string
	Valid  bool
	Score  float64
	Time   time.Time
}

// ValidationRecorder records validation verdicts.
type ValidationRecorder interface {
	RecordValidation(ev ValidationEvent) error
}

// MetricsSink records generation and validation events.
type MetricsSink interface {
	GenerationRecorder
	ValidationRecorder
}

// EvaluationEvent summarises a finished evaluation run.
type EvaluationEvent struct {
	Policy     string
	Total      int
	ValidCount int
	Mean       float64
	StdDev     float64
	Time       time.Time
}

// EvaluationRecorder is implemented by sinks able to record run summaries.
type EvaluationRecorder interface {
	RecordEvaluation(ev EvaluationEvent) error
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) RecordGeneration(GenerationEvent) error { return nil }
func (NopSink) RecordValidation(ValidationEvent) error { return nil }
func (NopSink) RecordEvaluation(EvaluationEvent) error { return nil }
