package sim

import (
	"context"
	"sync"
)

// WorldFactory builds the world for run i of an ensemble.
type WorldFactory func(i int) (*World, error)

// MetricFactory builds a fresh metric set for one run.
type MetricFactory func() ([]Metric, error)

// Ensemble runs independent worlds in parallel. Each run gets its own
// simulator and fresh metrics; observers are shared.
type Ensemble struct {
	base    *Simulator
	build   WorldFactory
	metrics MetricFactory
	numRuns int
}

func NewEnsemble(s *Simulator, build WorldFactory, numRuns int) *Ensemble {
	return &Ensemble{base: s, build: build, numRuns: numRuns}
}

// WithMetrics sets the constructor for the per-run metric set.
func (e *Ensemble) WithMetrics(fn MetricFactory) *Ensemble {
	e.metrics = fn
	return e
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			w, err := e.build(idx)
			if err != nil {
				errs[idx] = err
				return
			}

			sim := &Simulator{log: e.base.log, observers: e.base.observers}
			if e.metrics != nil {
				ms, err := e.metrics()
				if err != nil {
					errs[idx] = err
					return
				}
				for _, m := range ms {
					sim.AddMetric(m)
				}
			}

			results[idx], errs[idx] = sim.Run(ctx, w, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
