// Package annealing implements simulated annealing over point sets with a
// maximisation-form Metropolis rule.
package annealing

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// Name is the registry name of the strategy.
const Name = "sa"

// Optimizer is a simulated annealer. A single Optimizer must not run
// concurrent searches.
type Optimizer struct {
	cfg  Config
	opts optimization.Options
}

// New returns an annealing optimizer with a validated configuration.
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

// Optimize implements optimization.Strategy. The history starts with the
// fitness of the random initial state, so it holds Iterations+1 entries.
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

	current, err := sampler.SampleSet(problem.K)
	if err != nil {
		return nil, err
	}
	currentFit := optimization.Dispersion(current)
	best := &optimization.Solution{Points: current.Clone(), Fitness: currentFit}

	history := make(optimization.FitnessHistory, 0, o.cfg.Iterations+1)
	history = append(history, best.Fitness)

	noise := distuv.Normal{Mu: 0, Sigma: o.cfg.StepSize, Src: rng}
	proposal := make(optimization.PointSet, len(current))
	temp := o.cfg.InitialTemperature
	accepted := 0

	for iter := 0; iter < o.cfg.Iterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for i, p := range current {
			q := optimization.Point{X: p.X + noise.Rand(), Y: p.Y + noise.Rand()}
			if !oracle.Contains(q) {
				q = p
			}
			proposal[i] = q
		}
		proposalFit := optimization.Dispersion(proposal)

		if proposalFit > currentFit || rng.Float64() < math.Exp((proposalFit-currentFit)/temp) {
			current, proposal = proposal, current
			currentFit = proposalFit
			accepted++
			if currentFit > best.Fitness {
				best.Fitness = currentFit
				copy(best.Points, current)
			}
		}

		history = append(history, best.Fitness)
		temp *= o.cfg.CoolingRate

		problem.Notify(optimization.Progress{Iteration: iter + 1, Iterations: o.cfg.Iterations, BestFitness: best.Fitness})
		if o.opts.ShouldLog(iter + 1) {
			log.Debug("iteration completed",
				zap.Int("iteration", iter+1),
				zap.Int("iterations", o.cfg.Iterations),
				zap.Float64("best_fitness", best.Fitness),
				zap.Float64("temperature", temp))
		}
	}

	duration := time.Since(start)
	log.Info("optimization completed",
		zap.Float64("best_fitness", best.Fitness),
		zap.Int("accepted", accepted),
		zap.Duration("duration", duration))

	return &optimization.OptimizationResult{
		Strategy:     Name,
		BestSolution: best,
		History:      history,
		Iterations:   o.cfg.Iterations,
		Evaluations:  o.cfg.Iterations + 1,
		Duration:     duration,
		Meta: map[string]any{
			"initial_temperature": o.cfg.InitialTemperature,
			"final_temperature":   temp,
			"cooling_rate":        o.cfg.CoolingRate,
			"step_size":           o.cfg.StepSize,
			"accepted":            accepted,
		},
	}, nil
}
