package generator

import (
	"context"
	"errors"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/planday/config"
	"github.com/kilianp07/planday/core/logger"
	coremetrics "github.com/kilianp07/planday/core/metrics"
	"github.com/kilianp07/planday/core/model"
)

// BatchResult holds the instances of a batch in index order. Requests that
// exhausted their attempt budget are listed in Failures instead.
type BatchResult struct {
	Instances []*model.ProblemInstance
	Failures  []*GenerationFailed
}

// Shortfall is the number of requested instances that could not be produced.
func (r BatchResult) Shortfall() int { return len(r.Failures) }

// GenerateBatch produces n instances with up to cfg.Workers goroutines.
// Instance i draws from a source seeded with cfg.Seed+i, so the result does
// not depend on scheduling. Exhausted attempts are reported in the result and
// do not abort the batch; only context cancellation does.
func GenerateBatch(ctx context.Context, cfg config.GeneratorConfig, cats config.Categories, n int, sink coremetrics.GenerationRecorder, log logger.Logger) (BatchResult, error) {
	proto, err := New(cfg, cats, rand.NewSource(cfg.Seed), sink, log)
	if err != nil {
		return BatchResult{}, err
	}
	instances := make([]*model.ProblemInstance, n)
	failures := make([]*GenerationFailed, n)

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(proto.cfg.Workers)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			g := proto.withSource(rand.NewSource(proto.cfg.Seed + int64(i)))
			inst, err := g.Generate(ctx)
			var failed *GenerationFailed
			switch {
			case errors.As(err, &failed):
				failures[i] = failed
				return nil
			case err != nil:
				return err
			}
			instances[i] = inst
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return BatchResult{}, err
	}

	var res BatchResult
	for i := range instances {
		if instances[i] != nil {
			res.Instances = append(res.Instances, instances[i])
		} else if failures[i] != nil {
			res.Failures = append(res.Failures, failures[i])
		}
	}
	if res.Shortfall() > 0 {
		proto.log.Warnf("batch short by %d of %d instances", res.Shortfall(), n)
	}
	return res, nil
}

func (g *Generator) withSource(src rand.Source) *Generator {
	c := *g
	c.rng = rand.New(src)
	return &c
}
