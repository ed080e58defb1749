// Package metrics implements the metrics sinks backed by Prometheus and
// InfluxDB.
package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/planday/core/metrics"
)

// PromSink records generation, validation and evaluation events in
// Prometheus collectors.
type PromSink struct {
	generated *prometheus.CounterVec
	attempts  *prometheus.HistogramVec
	genTime   prometheus.Histogram
	verdicts  *prometheus.CounterVec
	scores    *prometheus.HistogramVec
	runValid  *prometheus.GaugeVec
	runMean   *prometheus.GaugeVec
	runTotal  *prometheus.GaugeVec
}

var _ coremetrics.EvaluationRecorder = (*PromSink)(nil)

// NewPromSink registers the collectors on reg. A nil registerer defaults to
// the global Prometheus registerer. Registering twice on the same registerer
// reuses the existing collectors.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.generated, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planday_instances_generated_total",
		Help: "Generation requests by category and outcome",
	}, []string{"category", "outcome"})); err != nil {
		return nil, err
	}
	if s.attempts, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planday_generation_attempts",
		Help:    "Attempts needed to satisfy the overlap constraints",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"category"})); err != nil {
		return nil, err
	}
	if s.genTime, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planday_generation_seconds",
		Help:    "Time spent generating one instance",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})); err != nil {
		return nil, err
	}
	if s.verdicts, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planday_validations_total",
		Help: "Validated candidates by policy, reason and validity",
	}, []string{"policy", "reason", "valid"})); err != nil {
		return nil, err
	}
	if s.scores, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planday_validation_score",
		Help:    "Candidate scores out of 100",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	}, []string{"policy"})); err != nil {
		return nil, err
	}
	if s.runValid, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planday_evaluation_valid_ratio",
		Help: "Share of positively scored samples in the last evaluation run",
	}, []string{"policy"})); err != nil {
		return nil, err
	}
	if s.runMean, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planday_evaluation_mean_score",
		Help: "Mean score of the last evaluation run",
	}, []string{"policy"})); err != nil {
		return nil, err
	}
	if s.runTotal, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "planday_evaluation_samples",
		Help: "Samples scored in the last evaluation run",
	}, []string{"policy"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordGeneration counts the request and observes its attempts.
func (s *PromSink) RecordGeneration(ev coremetrics.GenerationEvent) error {
	outcome := "ok"
	if ev.Failed {
		outcome = "failed"
	}
	s.generated.WithLabelValues(ev.Category, outcome).Inc()
	s.attempts.WithLabelValues(ev.Category).Observe(float64(ev.Attempts))
	s.genTime.Observe(ev.Elapsed.Seconds())
	return nil
}

// RecordValidation counts the verdict and observes its score.
func (s *PromSink) RecordValidation(ev coremetrics.ValidationEvent) error {
	s.verdicts.WithLabelValues(ev.Policy, ev.Reason, strconv.FormatBool(ev.Valid)).Inc()
	s.scores.WithLabelValues(ev.Policy).Observe(ev.Score)
	return nil
}

// RecordEvaluation sets the run gauges.
func (s *PromSink) RecordEvaluation(ev coremetrics.EvaluationEvent) error {
	ratio := 0.0
	if ev.Total > 0 {
		ratio = float64(ev.ValidCount) / float64(ev.Total)
	}
	s.runValid.WithLabelValues(ev.Policy).Set(ratio)
	s.runMean.WithLabelValues(ev.Policy).Set(ev.Mean)
	s.runTotal.WithLabelValues(ev.Policy).Set(float64(ev.Total))
	return nil
}
