package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/bounce/internal/dynamo"
)

// Factory builds a fresh world for one ensemble member.
type Factory func(seed int64) (Stepper, error)

// Ensemble runs independent worlds concurrently, one per seed.
type Ensemble struct {
	factory   Factory
	metrics   func() []dynamo.Metric
	numRuns   int
	seedStart int64
	limit     int
}

func NewEnsemble(factory Factory, metrics func() []dynamo.Metric, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		factory:   factory,
		metrics:   metrics,
		numRuns:   numRuns,
		seedStart: seedStart,
		limit:     runtime.NumCPU(),
	}
}

// SetLimit caps how many members run at once.
func (e *Ensemble) SetLimit(n int) { e.limit = n }

// Run returns results in seed order. The first failure cancels the rest.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	if e.numRuns < 1 {
		return nil, fmt.Errorf("ensemble needs at least one run, got %d", e.numRuns)
	}
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			seed := e.seedStart + int64(i)
			w, err := e.factory(seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}

			s := New()
			if e.metrics != nil {
				for _, m := range e.metrics() {
					s.AddMetric(m)
				}
			}

			runCfg := cfg
			runCfg.Seed = seed
			res, err := s.Run(ctx, w, runCfg)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
