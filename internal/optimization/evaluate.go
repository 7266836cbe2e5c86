package optimization

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// EvaluateBatch scores every candidate of a fully built batch and returns
// the fitness values in input order. With workers > 1 the candidates are
// scored on a bounded pool. Callers reduce over the result afterwards, so
// no best-tracking state is touched from the pool.
func EvaluateBatch(ctx context.Context, batch []PointSet, workers int, fitness []float64) ([]float64, error) {
	if cap(fitness) < len(batch) {
		fitness = make([]float64, len(batch))
	}
	fitness = fitness[:len(batch)]

	if workers < 2 || len(batch) < 2 {
		for i, ps := range batch {
			fitness[i] = Dispersion(ps)
		}
		return fitness, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, ps := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fitness[i] = Dispersion(ps)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fitness, nil
}

// ArgMax returns the index of the largest value, or -1 for an empty slice.
// Ties resolve to the lowest index.
func ArgMax(values []float64) int {
	best := -1
	for i, v := range values {
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}
