// Package generator synthesises random weighted interval scheduling problems
// by rejection sampling: events are drawn until the number of overlapping
// pairs falls inside the configured band, then a priority subset is sampled
// and the optimum is computed.
package generator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/kilianp07/planday/config"
	"github.com/kilianp07/planday/core/interval"
	"github.com/kilianp07/planday/core/logger"
	coremetrics "github.com/kilianp07/planday/core/metrics"
	"github.com/kilianp07/planday/core/model"
	"github.com/kilianp07/planday/core/optimizer"
)

// ratioEps absorbs float error in ratio×N products such as 0.2×5.
const ratioEps = 1e-9

// ErrGenerationFailed matches every *GenerationFailed with errors.Is.
var ErrGenerationFailed = errors.New("instance generation failed")

// GenerationFailed is returned when no acceptable instance was found within
// the attempt budget.
type GenerationFailed struct {
	Category     string
	Attempts     int
	LastEvents   int
	LastOverlaps int
}

func (e *GenerationFailed) Error() string {
	return fmt.Sprintf("%s: category %q after %d attempts (last draw: %d events, %d overlapping pairs)",
		ErrGenerationFailed, e.Category, e.Attempts, e.LastEvents, e.LastOverlaps)
}

func (e *GenerationFailed) Is(target error) bool { return target == ErrGenerationFailed }

// Generator draws problem instances from a single random source. It is not
// safe for concurrent use; use GenerateBatch for parallel generation.
type Generator struct {
	cfg   config.GeneratorConfig
	cats  config.Categories
	names []string
	rng   *rand.Rand
	sink  coremetrics.GenerationRecorder
	log   logger.Logger
}

// New validates cfg against the category pools and returns a Generator
// drawing from src. A nil sink or logger disables the respective output.
func New(cfg config.GeneratorConfig, cats config.Categories, src rand.Source, sink coremetrics.GenerationRecorder, log logger.Logger) (*Generator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("generator config: %w", err)
	}
	if err := cats.Validate(cfg.MaxEvents); err != nil {
		return nil, fmt.Errorf("generator categories: %w", err)
	}
	if src == nil {
		src = rand.NewSource(cfg.Seed)
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &Generator{
		cfg:   cfg,
		cats:  cats,
		names: cats.Names(),
		rng:   rand.New(src),
		sink:  sink,
		log:   logger.OrNop(log),
	}, nil
}

// Generate returns one instance satisfying the overlap and priority
// constraints, or a *GenerationFailed once MaxAttempts draws were rejected.
func (g *Generator) Generate(ctx context.Context) (*model.ProblemInstance, error) {
	began := time.Now()
	category := g.names[g.rng.Intn(len(g.names))]
	pool := g.cats[category]

	var events []model.Interval
	var overlaps int
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events = g.drawEvents(pool)
		overlaps = interval.CountOverlappingPairs(events)
		if !g.acceptOverlaps(overlaps, len(events)) {
			g.log.Debugw("draw rejected", map[string]any{
				"category": category, "attempt": attempt, "events": len(events), "overlaps": overlaps,
			})
			continue
		}

		inst := &model.ProblemInstance{
			Category:   category,
			Events:     events,
			Priorities: g.drawPriorities(events),
		}
		inst.OptimalScore = optimizer.OptimalScore(inst.Events, inst.Priorities)
		g.record(coremetrics.GenerationEvent{
			Category:     category,
			Attempts:     attempt,
			Events:       len(events),
			Overlaps:     overlaps,
			Priorities:   len(inst.Priorities),
			OptimalScore: inst.OptimalScore,
			Elapsed:      time.Since(began),
			Time:         time.Now(),
		})
		return inst, nil
	}

	err := &GenerationFailed{
		Category:     category,
		Attempts:     g.cfg.MaxAttempts,
		LastEvents:   len(events),
		LastOverlaps: overlaps,
	}
	g.log.Warnf("%v", err)
	g.record(coremetrics.GenerationEvent{
		Category: category,
		Attempts: g.cfg.MaxAttempts,
		Failed:   true,
		Elapsed:  time.Since(began),
		Time:     time.Now(),
	})
	return nil, err
}

func (g *Generator) record(ev coremetrics.GenerationEvent) {
	if err := g.sink.RecordGeneration(ev); err != nil {
		g.log.Errorf("record generation: %v", err)
	}
}

// drawEvents places N uniquely labelled events, keeping the slice ordered by
// start after every insertion.
func (g *Generator) drawEvents(pool []string) []model.Interval {
	n := g.cfg.MinEvents + g.rng.Intn(g.cfg.MaxEvents-g.cfg.MinEvents+1)
	labels := append([]string(nil), pool...)
	events := make([]model.Interval, 0, n)

	for i := 1; i <= n; i++ {
		k := g.rng.Intn(len(labels))
		label := labels[k]
		labels = append(labels[:k], labels[k+1:]...)

		var start, end model.Clock
		if i == 1 || g.rng.Float64() >= g.cfg.OverlapProbability {
			start, end = g.independent()
		} else {
			start, end = g.overlapping(events[g.rng.Intn(len(events))])
		}
		events = append(events, model.Interval{Label: label, Start: start, End: end})
		sort.SliceStable(events, func(a, b int) bool { return events[a].Start < events[b].Start })
	}
	return events
}

func (g *Generator) independent() (model.Clock, model.Clock) {
	start := g.rng.Intn(g.cfg.MaxStartMinute + 1)
	dur := g.cfg.Durations[g.rng.Intn(len(g.cfg.Durations))]
	return model.Clock(start), model.Clock(start + dur)
}

// overlapping starts inside prev and keeps the end within the day.
func (g *Generator) overlapping(prev model.Interval) (model.Clock, model.Clock) {
	lo := int(prev.Start)
	hi := min(int(prev.End), g.cfg.DayEndMinute-g.cfg.MinDuration()+1)
	start := lo + g.rng.Intn(hi-lo)

	fits := make([]int, 0, len(g.cfg.Durations))
	for _, d := range g.cfg.Durations {
		if start+d <= g.cfg.DayEndMinute {
			fits = append(fits, d)
		}
	}
	dur := fits[g.rng.Intn(len(fits))]
	return model.Clock(start), model.Clock(start + dur)
}

func (g *Generator) acceptOverlaps(overlaps, n int) bool {
	return overlaps >= g.cfg.MinOverlaps && overlaps <= MaxOverlaps(g.cfg, n)
}

// drawPriorities samples the priority labels without replacement.
func (g *Generator) drawPriorities(events []model.Interval) []string {
	lo, hi := PriorityBounds(g.cfg, len(events))
	k := lo + g.rng.Intn(hi-lo+1)
	perm := g.rng.Perm(len(events))
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = events[perm[i]].Label
	}
	return out
}

// MaxOverlaps is floor(MaxOverlapRatio × n).
func MaxOverlaps(cfg config.GeneratorConfig, n int) int {
	return int(math.Floor(cfg.MaxOverlapRatio*float64(n) + ratioEps))
}

// PriorityBounds returns the inclusive range of the priority label count for
// n events: [max(1, ceil(MinPriorityRatio×n)), floor(MaxPriorityRatio×n)],
// widened upwards when the ratios leave it empty and capped at n.
func PriorityBounds(cfg config.GeneratorConfig, n int) (lo, hi int) {
	lo = max(1, int(math.Ceil(cfg.MinPriorityRatio*float64(n)-ratioEps)))
	hi = int(math.Floor(cfg.MaxPriorityRatio*float64(n) + ratioEps))
	if hi < lo {
		hi = lo
	}
	return min(lo, n), min(hi, n)
}
