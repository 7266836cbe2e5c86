// Package colony implements ant colony search over a fixed pool of
// candidate locations. Ants choose candidate indices, one per solution
// position, and pheromone reinforces (position, index) pairs.
package colony

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// Name is the registry name of the strategy.
const Name = "aco"

// depositEpsilon keeps the deposit ratio finite while the best fitness is 0.
const depositEpsilon = 1e-6

// Optimizer is an ant colony. A single Optimizer must not run concurrent
// searches.
type Optimizer struct {
	cfg  Config
	opts optimization.Options

	// inspect, when set, sees the pheromone matrix after every update.
	inspect func(iteration int, pheromone mat.Matrix)
}

// New returns a colony optimizer with a validated configuration.
func New(cfg Config, opts ...optimization.Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Optimizer{cfg: cfg, opts: optimization.NewOptions(opts...)}, nil
}

// Name implements optimization.Strategy.
func (o *Optimizer) Name() string { return Name }

// Config returns the configuration in use.
func (o *Optimizer) Config() Config { return o.cfg }

// Optimize implements optimization.Strategy.
func (o *Optimizer) Optimize(ctx context.Context, problem optimization.Problem) (*optimization.OptimizationResult, error) {
	start := time.Now()

	if err := problem.Validate(); err != nil {
		return nil, err
	}
	oracle, err := optimization.NewOracle(problem.Region)
	if err != nil {
		return nil, err
	}
	rng := o.opts.Rand
	sampler := optimization.NewSampler(oracle, rng, o.opts.SampleAttempts)
	log := o.opts.Logger.With(zap.String("strategy", Name))

	candidates, err := sampler.SampleSet(o.cfg.Candidates)
	if err != nil {
		return nil, err
	}
	m := len(candidates)
	k := problem.K

	eta := heuristic(candidates)
	etaBeta := make([]float64, m)
	for j, h := range eta {
		etaBeta[j] = pow(h, o.cfg.Beta)
	}

	pheromone := mat.NewDense(k, m, nil)
	for i := 0; i < k; i++ {
		floats.AddConst(1, pheromone.RawRowView(i))
	}

	choices := make([][]int, o.cfg.Ants)
	solutions := make([]optimization.PointSet, o.cfg.Ants)
	for a := range choices {
		choices[a] = make([]int, k)
		solutions[a] = make(optimization.PointSet, k)
	}

	var (
		best    *optimization.Solution
		fitness []float64
		evals   int
		order   = make([]int, o.cfg.Ants)
		weights = make([]float64, m)
		rows    = make([]distuv.Categorical, k)
		history = make(optimization.FitnessHistory, 0, o.cfg.Iterations)
	)

	for iter := 0; iter < o.cfg.Iterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// Pheromone is fixed during an iteration, so every ant shares the
		// same per-position distribution.
		for i := 0; i < k; i++ {
			tau := pheromone.RawRowView(i)
			for j := range weights {
				weights[j] = pow(tau[j], o.cfg.Alpha) * etaBeta[j]
			}
			if mass := floats.Sum(weights); mass <= 0 || math.IsNaN(mass) || math.IsInf(mass, 0) {
				for j := range weights {
					weights[j] = 1
				}
			}
			rows[i] = distuv.NewCategorical(weights, rng)
		}

		for a := range choices {
			for i := 0; i < k; i++ {
				var idx int
				if rng.Float64() < o.cfg.Exploration {
					idx = rng.IntN(m)
				} else {
					idx = int(rows[i].Rand())
				}
				choices[a][i] = idx
				solutions[a][i] = candidates[idx]
			}
			if err := sampler.RepairInPlace(solutions[a]); err != nil {
				return nil, err
			}
		}

		fitness, err = optimization.EvaluateBatch(ctx, solutions, o.opts.Workers, fitness)
		if err != nil {
			return nil, err
		}
		evals += len(solutions)

		top := optimization.ArgMax(fitness)
		if best == nil || fitness[top] > best.Fitness {
			best = &optimization.Solution{Points: solutions[top].Clone(), Fitness: fitness[top]}
		}

		pheromone.Scale(1-o.cfg.Evaporation, pheromone)

		for a := range order {
			order[a] = a
		}
		sort.SliceStable(order, func(x, y int) bool { return fitness[order[x]] > fitness[order[y]] })

		for _, a := range order[:min(o.cfg.Elite, len(order))] {
			amount := o.cfg.Deposit * (fitness[a] / (best.Fitness + depositEpsilon))
			for i, idx := range choices[a] {
				pheromone.Set(i, idx, pheromone.At(i, idx)+amount)
			}
		}
		if o.inspect != nil {
			o.inspect(iter, pheromone)
		}

		history = append(history, best.Fitness)
		problem.Notify(optimization.Progress{Iteration: iter + 1, Iterations: o.cfg.Iterations, BestFitness: best.Fitness})
		if o.opts.ShouldLog(iter + 1) {
			log.Debug("iteration completed",
				zap.Int("iteration", iter+1),
				zap.Int("iterations", o.cfg.Iterations),
				zap.Float64("best_fitness", best.Fitness),
				zap.Float64("pheromone_max", mat.Max(pheromone)),
				zap.Float64("pheromone_min", mat.Min(pheromone)))
		}
	}

	duration := time.Since(start)
	log.Info("optimization completed",
		zap.Float64("best_fitness", best.Fitness),
		zap.Int("evaluations", evals),
		zap.Duration("duration", duration))

	return &optimization.OptimizationResult{
		Strategy:     Name,
		BestSolution: best,
		History:      history,
		Iterations:   o.cfg.Iterations,
		Evaluations:  evals,
		Duration:     duration,
		Meta: map[string]any{
			"ants":        o.cfg.Ants,
			"candidates":  m,
			"alpha":       o.cfg.Alpha,
			"beta":        o.cfg.Beta,
			"evaporation": o.cfg.Evaporation,
			"deposit":     o.cfg.Deposit,
			"exploration": o.cfg.Exploration,
			"elite":       min(o.cfg.Elite, o.cfg.Ants),
		},
	}, nil
}

// heuristic returns, for every candidate, its mean distance to all other
// candidates divided by the largest such mean.
func heuristic(candidates optimization.PointSet) []float64 {
	m := len(candidates)
	eta := make([]float64, m)
	if m < 2 {
		floats.AddConst(1, eta)
		return eta
	}
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			d := math.Sqrt(candidates[i].SquaredDistance(candidates[j]))
			eta[i] += d
			eta[j] += d
		}
	}
	floats.Scale(1/float64(m-1), eta)
	if top := floats.Max(eta); top > 0 {
		floats.Scale(1/top, eta)
	} else {
		for i := range eta {
			eta[i] = 1
		}
	}
	return eta
}

// pow is math.Pow with shortcuts for the common small exponents.
func pow(x, y float64) float64 {
	switch y {
	case 0:
		return 1
	case 1:
		return x
	case 2:
		return x * x
	}
	return math.Pow(x, y)
}
