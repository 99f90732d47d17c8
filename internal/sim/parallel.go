package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/helixflock/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Factory builds an independent state for one ensemble member.
type Factory func(seed int64) (*State, error)

// Ensemble runs the same configuration under consecutive seeds concurrently.
// Each member owns its state and metrics; nothing is shared between them.
type Ensemble struct {
	factory   Factory
	metrics   func() []dynamo.Metric
	numRuns   int
	seedStart int64
}

func NewEnsemble(factory Factory, metrics func() []dynamo.Metric, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, metrics: metrics, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, cfg dynamo.RunConfig) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < e.numRuns; i++ {
		idx := i
		g.Go(func() error {
			seed := e.seedStart + int64(idx)
			st, err := e.factory(seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}

			r := NewRunner()
			if e.metrics != nil {
				for _, m := range e.metrics() {
					r.AddMetric(m)
				}
			}

			res, err := r.Run(ctx, st, cfg)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[idx] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
