// Package evaluation scores a completion source over the held-out corpus
// partition and summarises the run.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/planday/core/completion"
	"github.com/kilianp07/planday/core/corpus"
	"github.com/kilianp07/planday/core/logger"
	coremetrics "github.com/kilianp07/planday/core/metrics"
	"github.com/kilianp07/planday/core/validator"
	"github.com/kilianp07/planday/internal/eventbus"
)

// Outcome is the scored answer to one corpus record.
type Outcome struct {
	Index      int               `json:"index"`
	ID         string            `json:"id"`
	Category   string            `json:"category,omitempty"`
	Completion string            `json:"completion"`
	Verdict    validator.Verdict `json:"verdict"`
	// Error holds the completion failure, if any. A failed completion is
	// scored as empty text.
	Error string `json:"error,omitempty"`
}

// Report summarises a run. A sample counts as valid when its score is
// positive.
type Report struct {
	Policy       validator.Policy `json:"policy"`
	Total        int              `json:"total"`
	ValidCount   int              `json:"valid_count"`
	ValidPercent float64          `json:"valid_percent"`
	Mean         float64          `json:"mean"`
	StdDev       float64          `json:"std_dev"`
	Reasons      map[string]int   `json:"reasons"`
	Failures     int              `json:"completion_failures"`
	Elapsed      time.Duration    `json:"elapsed"`
}

// Options configures an Evaluator. Zero values are usable.
type Options struct {
	Policy  validator.Policy
	Workers int
	// Outcomes receives every outcome with blocking delivery when set.
	Outcomes *eventbus.TypedBus[Outcome]
	Sink     coremetrics.ValidationRecorder
	Logger   logger.Logger
}

// Evaluator runs a Completer over corpus records.
type Evaluator struct {
	completer completion.Completer
	validator *validator.Validator
	policy    validator.Policy
	workers   int
	bus       *eventbus.TypedBus[Outcome]
	sink      coremetrics.ValidationRecorder
	log       logger.Logger
}

// New returns an Evaluator asking c for completions.
func New(c completion.Completer, opts Options) (*Evaluator, error) {
	if c == nil {
		return nil, errors.New("evaluation requires a completer")
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Sink == nil {
		opts.Sink = coremetrics.NopSink{}
	}
	log := logger.OrNop(opts.Logger)
	return &Evaluator{
		completer: c,
		validator: validator.New(opts.Sink, log),
		policy:    opts.Policy,
		workers:   opts.Workers,
		bus:       opts.Outcomes,
		sink:      opts.Sink,
		log:       log,
	}, nil
}

// Run evaluates recs and returns the outcomes in record order with their
// summary. It stops early only when ctx ends or a record cannot be decoded.
func (e *Evaluator) Run(ctx context.Context, recs []corpus.Record) ([]Outcome, Report, error) {
	start := time.Now()
	outcomes := make([]Outcome, len(recs))

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range recs {
		g.Go(func() error {
			out, err := e.one(gctx, i, recs[i])
			if err != nil {
				return err
			}
			outcomes[i] = out
			if e.bus != nil {
				if err := e.bus.Send(gctx, out); err != nil {
					return err
				}
			}
			mu.Lock()
			done++
			if done%50 == 0 {
				e.log.Infof("evaluated %d/%d", done, len(recs))
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Report{}, err
	}

	rep := Summarize(e.policy, outcomes)
	rep.Elapsed = time.Since(start)
	e.log.Infow("evaluation finished", map[string]any{
		"policy":        rep.Policy.String(),
		"total":         rep.Total,
		"valid":         rep.ValidCount,
		"valid_percent": rep.ValidPercent,
		"mean":          rep.Mean,
		"failures":      rep.Failures,
	})
	if rec, ok := e.sink.(coremetrics.EvaluationRecorder); ok {
		if err := rec.RecordEvaluation(coremetrics.EvaluationEvent{
			Policy:     rep.Policy.String(),
			Total:      rep.Total,
			ValidCount: rep.ValidCount,
			Mean:       rep.Mean,
			StdDev:     rep.StdDev,
			Time:       time.Now(),
		}); err != nil {
			e.log.Errorf("record evaluation: %v", err)
		}
	}
	return outcomes, rep, nil
}

func (e *Evaluator) one(ctx context.Context, i int, rec corpus.Record) (Outcome, error) {
	inst, err := rec.Instance()
	if err != nil {
		return Outcome{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	out := Outcome{Index: i, ID: rec.ID.String(), Category: rec.Category}
	text, err := e.completer.Complete(ctx, completion.NewRequest(out.ID, rec.InstanceRecord, inst))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Outcome{}, ctxErr
		}
		e.log.Warnf("completion for %s failed: %v", out.ID, err)
		out.Error = err.Error()
		text = ""
	}
	out.Completion = text
	out.Verdict = e.validator.Validate(e.policy, text, inst)
	return out, nil
}

// Summarize computes the report of a set of outcomes.
func Summarize(policy validator.Policy, outcomes []Outcome) Report {
	rep := Report{Policy: policy, Total: len(outcomes), Reasons: make(map[string]int)}
	if len(outcomes) == 0 {
		return rep
	}
	scores := make([]float64, len(outcomes))
	for i, o := range outcomes {
		scores[i] = o.Verdict.Score
		if o.Verdict.Score > 0 {
			rep.ValidCount++
		}
		if o.Error != "" {
			rep.Failures++
		}
		rep.Reasons[o.Verdict.Reason.String()]++
	}
	rep.ValidPercent = float64(rep.ValidCount) / float64(rep.Total) * 100
	rep.Mean = stat.Mean(scores, nil)
	if len(scores) > 1 {
		rep.StdDev = stat.StdDev(scores, nil)
	}
	return rep
}

// ReasonCounts returns the reason histogram in check order, skipping
// reasons that never occurred.
func (r Report) ReasonCounts() []ReasonCount {
	var out []ReasonCount
	for _, reason := range validator.Reasons() {
		if n := r.Reasons[reason.String()]; n > 0 {
			out = append(out, ReasonCount{Reason: reason.String(), Count: n})
		}
	}
	return out
}

// ReasonCount is one histogram bucket.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}
