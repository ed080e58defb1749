// Package app wires configuration, stores, metrics and completion sources
// into the corpus generation and evaluation workflows.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/planday/app/plugins"
	"github.com/kilianp07/planday/config"
	"github.com/kilianp07/planday/core/corpus"
	"github.com/kilianp07/planday/core/evaluation"
	"github.com/kilianp07/planday/core/factory"
	"github.com/kilianp07/planday/core/generator"
	coremetrics "github.com/kilianp07/planday/core/metrics"
	"github.com/kilianp07/planday/core/monitoring"
	"github.com/kilianp07/planday/core/validator"
	"github.com/kilianp07/planday/infra/logger"
	inframon "github.com/kilianp07/planday/infra/monitoring"
	"github.com/kilianp07/planday/internal/eventbus"
)

// Service owns the long-lived collaborators of one CLI invocation.
type Service struct {
	cfg     *config.Config
	log     logger.Logger
	mon     monitoring.Monitor
	reg     *prometheus.Registry
	plugins *plugins.Registries
	sink    coremetrics.MetricsSink
	store   corpus.Store
}

// Option customises a Service.
type Option func(*Service)

// WithLogger replaces the default zerolog logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithMonitor replaces the monitor built from the sentry section.
func WithMonitor(m monitoring.Monitor) Option { return func(s *Service) { s.mon = m } }

// WithRegistry sets the Prometheus registry collectors are registered on.
func WithRegistry(r *prometheus.Registry) Option { return func(s *Service) { s.reg = r } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.New("service")
	}
	if s.mon == nil {
		mon, err := inframon.NewSentryMonitor(cfg.Sentry)
		if err != nil {
			return nil, fmt.Errorf("sentry: %w", err)
		}
		s.mon = mon
	}
	if s.reg == nil {
		s.reg = prometheus.NewRegistry()
	}
	s.plugins = plugins.New(cfg.MQTT, s.reg, s.log, s.mon)

	sink, err := s.plugins.MetricsSink(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	s.sink = sink
	store, err := s.plugins.Stores.Create(cfg.Corpus.Store)
	if err != nil {
		return nil, fmt.Errorf("corpus store %s: %w", cfg.Corpus.Store.Type, err)
	}
	s.store = store
	return s, nil
}

// Gatherer exposes the collectors registered by the service.
func (s *Service) Gatherer() prometheus.Gatherer { return s.reg }

// Sink returns the configured metrics sink.
func (s *Service) Sink() coremetrics.MetricsSink { return s.sink }

// Logger returns the service logger.
func (s *Service) Logger() logger.Logger { return s.log }

// Monitor returns the error monitor.
func (s *Service) Monitor() monitoring.Monitor { return s.mon }

// Store returns the corpus store.
func (s *Service) Store() corpus.Store { return s.store }

// GenerateSummary describes a corpus build.
type GenerateSummary struct {
	Requested int
	Generated int
	Train     int
	Test      int
	Elapsed   time.Duration
}

// Generate builds rows instances, splits them and replaces the stored corpus
// with the records. Instances that exhaust their attempts are skipped; the
// run fails only when fewer than testSize instances remain.
func (s *Service) Generate(ctx context.Context, rows, testSize int, seed int64) (GenerateSummary, error) {
	start := time.Now()
	res, err := generator.GenerateBatch(ctx, s.cfg.Generator, s.cfg.Categories, rows, s.sink, s.log)
	if err != nil {
		return GenerateSummary{}, fmt.Errorf("generate: %w", err)
	}
	for _, f := range res.Failures {
		s.mon.CaptureException(f, map[string]string{"module": "generator", "category": f.Category})
	}
	recs, err := corpus.Split(res.Instances, testSize, seed, time.Now())
	if err != nil {
		return GenerateSummary{}, fmt.Errorf("split: %w", err)
	}
	if err := s.store.Reset(ctx); err != nil {
		return GenerateSummary{}, fmt.Errorf("reset store: %w", err)
	}
	if err := corpus.AppendAll(ctx, s.store, recs); err != nil {
		return GenerateSummary{}, fmt.Errorf("store: %w", err)
	}
	counts := corpus.Count(recs)
	sum := GenerateSummary{
		Requested: rows,
		Generated: len(res.Instances),
		Train:     counts[corpus.Train],
		Test:      counts[corpus.Test],
		Elapsed:   time.Since(start),
	}
	s.log.Infow("corpus generated", map[string]any{
		"requested": sum.Requested,
		"generated": sum.Generated,
		"train":     sum.Train,
		"test":      sum.Test,
		"elapsed":   sum.Elapsed.String(),
	})
	return sum, nil
}

// EvaluateOptions overrides parts of the evaluation section for one run.
type EvaluateOptions struct {
	Policy    validator.Policy
	Completer factory.ModuleConfig
	Limit     int
	// SamplePath receives sampled completions when set.
	SamplePath string
}

// DefaultEvaluateOptions derives run options from the configuration.
func (s *Service) DefaultEvaluateOptions() (EvaluateOptions, error) {
	policy, err := validator.ParsePolicy(s.cfg.Evaluation.Policy)
	if err != nil {
		return EvaluateOptions{}, err
	}
	return EvaluateOptions{
		Policy:     policy,
		Completer:  s.cfg.Evaluation.Completer,
		Limit:      s.cfg.Evaluation.Limit,
		SamplePath: s.cfg.Evaluation.SamplePath,
	}, nil
}

// Evaluate scores the completer over the Test partition.
func (s *Service) Evaluate(ctx context.Context, opts EvaluateOptions) (evaluation.Report, error) {
	recs, err := s.store.Query(ctx, corpus.Query{Partition: corpus.Test, Limit: opts.Limit})
	if err != nil {
		return evaluation.Report{}, fmt.Errorf("query corpus: %w", err)
	}
	if len(recs) == 0 {
		return evaluation.Report{}, errors.New("no test records in corpus")
	}
	completer, err := s.plugins.Completers.Create(opts.Completer)
	if err != nil {
		return evaluation.Report{}, fmt.Errorf("completer %s: %w", opts.Completer.Type, err)
	}
	if c, ok := completer.(io.Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				s.log.Errorf("completer close: %v", err)
			}
		}()
	}

	var (
		bus     *eventbus.TypedBus[evaluation.Outcome]
		sampler *evaluation.Sampler
		done    chan error
	)
	if opts.SamplePath != "" {
		f, err := os.OpenFile(opts.SamplePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return evaluation.Report{}, fmt.Errorf("sample log: %w", err)
		}
		defer func() { _ = f.Close() }()
		bus = eventbus.NewTyped[evaluation.Outcome]()
		sampler = evaluation.NewSampler(f, s.cfg.Evaluation.SampleRate, rand.New(rand.NewSource(s.cfg.Evaluation.Seed)))
		ch := bus.Subscribe()
		done = make(chan error, 1)
		go func() { done <- sampler.Consume(ch) }()
	}

	ev, err := evaluation.New(completer, evaluation.Options{
		Policy:   opts.Policy,
		Workers:  s.cfg.Evaluation.Workers,
		Outcomes: bus,
		Sink:     s.sink,
		Logger:   s.log,
	})
	if err != nil {
		return evaluation.Report{}, err
	}
	_, rep, runErr := ev.Run(ctx, recs)
	if bus != nil {
		bus.Close()
		if err := <-done; err != nil {
			s.log.Errorf("sample log: %v", err)
		}
		s.log.Infof("sampled %d completions to %s", sampler.Written(), opts.SamplePath)
	}
	if runErr != nil {
		s.mon.CaptureException(runErr, map[string]string{"module": "evaluation", "completer": opts.Completer.Type})
		return evaluation.Report{}, runErr
	}
	return rep, nil
}

// Close releases the store, flushes pending metric writes and the monitor.
func (s *Service) Close() error {
	switch c := s.sink.(type) {
	case interface{ Close() }:
		c.Close()
	case io.Closer:
		if err := c.Close(); err != nil {
			s.log.Errorf("metrics sink close: %v", err)
		}
	}
	s.mon.Flush(2 * time.Second)
	return s.store.Close()
}
