package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/dedx/internal/curve"
	"golang.org/x/sync/errgroup"
)

// Ensemble computes Bragg curves for many target ranges over one shared curve.
type Ensemble struct {
	curve      curve.Evaluator
	workers    int
	newMetrics func() []Metric
	opts       []Option
}

// NewEnsemble returns an ensemble running at most workers simulations at
// once (GOMAXPROCS when workers <= 0). newMetrics, if set, supplies a fresh
// metric set for every run.
func NewEnsemble(c curve.Evaluator, workers int, newMetrics func() []Metric, opts ...Option) *Ensemble {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ensemble{curve: c, workers: workers, newMetrics: newMetrics, opts: opts}
}

// Run returns one result per target range, in input order. The first failure
// cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, ranges []float64, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			cfgCopy := cfg
			cfgCopy.TargetRange = r

			s := New(e.curve, e.opts...)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}

			res, err := s.Run(gctx, cfgCopy)
			if err != nil {
				return fmt.Errorf("range %g mm: %w", r, err)
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
