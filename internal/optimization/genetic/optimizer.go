// Package genetic implements an evolutionary search that refines a
// caller-supplied starting point set.
package genetic

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// Name is the registry name of the strategy.
const Name = "ga"

// Optimizer is a generational genetic algorithm with single-individual
// elitism. A single Optimizer must not run concurrent searches.
type Optimizer struct {
	cfg  Config
	opts optimization.Options

	// inspect, when set, sees every evaluated generation.
	inspect func(generation int, population []optimization.PointSet)
}

// New returns a genetic optimizer with a validated configuration.
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

// Optimize implements optimization.Strategy. problem.Initial must hold
// exactly problem.K points inside the region.
func (o *Optimizer) Optimize(ctx context.Context, problem optimization.Problem) (*optimization.OptimizationResult, error) {
	start := time.Now()

	if err := problem.Validate(); err != nil {
		return nil, err
	}
	oracle, err := optimization.NewOracle(problem.Region)
	if err != nil {
		return nil, err
	}
	if len(problem.Initial) != problem.K {
		return nil, optimization.NewInvalidParameterError(Name,
			"initial point set must have %d points, got %d", problem.K, len(problem.Initial))
	}
	for i, p := range problem.Initial {
		if !oracle.Contains(p) {
			return nil, optimization.NewInvalidParameterError(Name, "initial point %d %+v is outside the region", i, p)
		}
	}

	b := &breeder{
		cfg:     o.cfg,
		rng:     o.opts.Rand,
		oracle:  oracle,
		sampler: optimization.NewSampler(oracle, o.opts.Rand, o.opts.SampleAttempts),
		step:    distuv.Uniform{Min: -o.cfg.MutationStep, Max: o.cfg.MutationStep, Src: o.opts.Rand},
	}
	log := o.opts.Logger.With(zap.String("strategy", Name))

	seed := problem.Initial.Clone()
	if err := b.ensureUnique(&seed, problem.K); err != nil {
		return nil, err
	}
	population := make([]optimization.PointSet, o.cfg.Population)
	for i := range population {
		population[i] = seed.Clone()
	}

	var (
		best    *optimization.Solution
		fitness []float64
		evals   int
		history = make(optimization.FitnessHistory, 0, o.cfg.Generations)
	)

	for gen := 0; gen < o.cfg.Generations; gen++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fitness, err = optimization.EvaluateBatch(ctx, population, o.opts.Workers, fitness)
		if err != nil {
			return nil, err
		}
		evals += len(population)
		if o.inspect != nil {
			o.inspect(gen, population)
		}

		top := optimization.ArgMax(fitness)
		if best == nil || fitness[top] > best.Fitness {
			best = &optimization.Solution{Points: population[top].Clone(), Fitness: fitness[top]}
		}
		history = append(history, best.Fitness)
		problem.Notify(optimization.Progress{Iteration: gen + 1, Iterations: o.cfg.Generations, BestFitness: best.Fitness})
		if o.opts.ShouldLog(gen + 1) {
			log.Debug("generation completed",
				zap.Int("generation", gen+1),
				zap.Int("generations", o.cfg.Generations),
				zap.Float64("best_fitness", best.Fitness))
		}

		if gen == o.cfg.Generations-1 {
			break
		}
		population, err = b.nextGeneration(population, fitness, best.Points, problem.K)
		if err != nil {
			return nil, err
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
		Iterations:   o.cfg.Generations,
		Evaluations:  evals,
		Duration:     duration,
		Meta: map[string]any{
			"population":     o.cfg.Population,
			"crossover_rate": o.cfg.CrossoverRate,
			"mutation_rate":  o.cfg.MutationRate,
			"mutation_step":  o.cfg.MutationStep,
		},
	}, nil
}

// breeder holds the variation operators of one run.
type breeder struct {
	cfg     Config
	rng     *rand.Rand
	oracle  *optimization.Oracle
	sampler *optimization.Sampler
	step    distuv.Uniform
}

// nextGeneration builds a population of the same size whose first member
// is an unmodified copy of elite.
func (b *breeder) nextGeneration(population []optimization.PointSet, fitness []float64, elite optimization.PointSet, k int) ([]optimization.PointSet, error) {
	size := len(population)
	next := make([]optimization.PointSet, 0, size+1)
	next = append(next, elite.Clone())

	pick := b.selector(fitness)
	for len(next) < size {
		a := population[pick()].Clone()
		c := population[pick()].Clone()

		if b.rng.Float64() < b.cfg.CrossoverRate {
			b.crossover(a, c)
		}
		for _, child := range []optimization.PointSet{a, c} {
			if err := b.mutate(child); err != nil {
				return nil, err
			}
			if err := b.ensureUnique(&child, k); err != nil {
				return nil, err
			}
			next = append(next, child)
		}
	}
	return next[:size], nil
}

// selector returns a fitness-proportional index sampler. When the total
// fitness is zero or not finite every individual is equally likely.
func (b *breeder) selector(fitness []float64) func() int {
	total := floats.Sum(fitness)
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		n := len(fitness)
		return func() int { return b.rng.IntN(n) }
	}
	dist := distuv.NewCategorical(fitness, b.rng)
	return func() int { return int(dist.Rand()) }
}

// crossover swaps each point between a and c with probability 0.5.
func (b *breeder) crossover(a, c optimization.PointSet) {
	for i := range a {
		if b.rng.Float64() < 0.5 {
			a[i], c[i] = c[i], a[i]
		}
	}
}

// mutate displaces each point with probability MutationRate. A displaced
// point that leaves the region is replaced by a fresh feasible draw.
func (b *breeder) mutate(child optimization.PointSet) error {
	for i, p := range child {
		if b.rng.Float64() >= b.cfg.MutationRate {
			continue
		}
		moved := optimization.Point{X: p.X + b.step.Rand(), Y: p.Y + b.step.Rand()}
		if b.oracle.Contains(moved) {
			child[i] = moved
			continue
		}
		fresh, err := b.sampler.SampleOne()
		if err != nil {
			return err
		}
		child[i] = fresh
	}
	return nil
}

// ensureUnique drops exact duplicates, keeping first occurrences, and
// backfills with fresh feasible points until the set holds k unique points.
func (b *breeder) ensureUnique(points *optimization.PointSet, k int) error {
	seen := make(map[optimization.Point]struct{}, k)
	unique := (*points)[:0]
	for _, p := range *points {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	for len(unique) < k {
		p, err := b.sampler.SampleOne()
		if err != nil {
			return err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	*points = unique
	return nil
}
