package optimization

import (
	"context"
	"time"
)

// Strategy is a search procedure that places k points inside a region so
// that their dispersion is as large as possible.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string

	// Optimize runs the search to completion. It returns ctx.Err() and no
	// result when the context is cancelled before the iteration budget is
	// spent.
	Optimize(ctx context.Context, problem Problem) (*OptimizationResult, error)
}

// Problem is the input shared by every strategy.
type Problem struct {
	// Region is the convex feasible area.
	Region Region
	// K is the number of points to place.
	K int
	// Initial is the starting point set. Only the genetic strategy reads it.
	Initial PointSet
	// Observer, if set, is called after every completed iteration.
	Observer Observer
}

// Validate checks the parts of the problem that do not depend on a strategy.
func (p Problem) Validate() error {
	if p.K < 1 {
		return NewInvalidParameterError("problem", "k must be >= 1, got %d", p.K)
	}
	if len(p.Region) < 3 {
		return NewInvalidRegionError("region needs at least 3 vertices, got %d", len(p.Region)).
			WithComponent("problem")
	}
	return nil
}

// Notify forwards progress to the observer, if any.
func (p Problem) Notify(progress Progress) {
	if p.Observer != nil {
		p.Observer(progress)
	}
}

// Progress is a snapshot taken after one iteration.
type Progress struct {
	Iteration   int     `json:"iteration"`
	Iterations  int     `json:"iterations"`
	BestFitness float64 `json:"best_fitness"`
}

// Fraction returns the completed share of the iteration budget in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Iterations <= 0 {
		return 0
	}
	return float64(p.Iteration) / float64(p.Iterations)
}

// Observer receives progress snapshots. It is called synchronously from
// the search loop and must not block.
type Observer func(Progress)

// Solution is a point set together with its fitness.
type Solution struct {
	Points  PointSet `json:"points"`
	Fitness float64  `json:"fitness"`
}

// Clone returns a deep copy of the solution.
func (s *Solution) Clone() *Solution {
	if s == nil {
		return nil
	}
	return &Solution{Points: s.Points.Clone(), Fitness: s.Fitness}
}

// FitnessHistory holds the best fitness seen so far, one entry per
// iteration. It never decreases.
type FitnessHistory []float64

// IsMonotonic reports whether the history is non-decreasing.
func (h FitnessHistory) IsMonotonic() bool {
	for i := 1; i < len(h); i++ {
		if h[i] < h[i-1] {
			return false
		}
	}
	return true
}

// Last returns the final entry, or 0 for an empty history.
func (h FitnessHistory) Last() float64 {
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1]
}

// OptimizationResult contains the result of an optimization run
type OptimizationResult struct {
	Strategy     string         `json:"strategy"`
	BestSolution *Solution      `json:"best_solution"`
	History      FitnessHistory `json:"history"`
	Iterations   int            `json:"iterations"`
	Evaluations  int            `json:"evaluations"`
	Duration     time.Duration  `json:"duration"`
	Meta         map[string]any `json:"meta,omitempty"`
}
