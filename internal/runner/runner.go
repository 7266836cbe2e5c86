package runner

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/disperse/internal/geometry"
	"github.com/copyleftdev/disperse/internal/metrics"
	"github.com/copyleftdev/disperse/internal/optimization"
	"github.com/copyleftdev/disperse/internal/optimization/genetic"
)

// Runner executes strategies with shared run settings.
type Runner struct {
	Defaults Defaults

	// Workers bounds parallel fitness evaluation inside one run.
	Workers int
	// SampleAttempts is the rejection sampling budget per point.
	SampleAttempts int
	// ProgressEvery is the debug logging interval of the strategies.
	ProgressEvery int

	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// New returns a runner with the built-in defaults and a no-op logger.
func New() *Runner {
	return &Runner{
		Defaults:       DefaultConfigs(),
		SampleAttempts: optimization.DefaultMaxAttempts,
		Logger:         zap.NewNop(),
	}
}

// Request describes a single run.
type Request struct {
	Strategy string
	// Params overrides fields of the strategy defaults.
	Params  json.RawMessage
	Problem optimization.Problem
	// Seed makes the run reproducible. Zero selects a time-based seed.
	Seed int64
}

// Run validates the region, fills in a random start set for the genetic
// strategy when none is given, and runs the strategy to completion.
func (r *Runner) Run(ctx context.Context, req Request) (*optimization.OptimizationResult, error) {
	if err := geometry.ValidateRegion(req.Problem.Region); err != nil {
		return nil, err
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	strategy, err := r.Defaults.NewStrategy(req.Strategy, req.Params, r.options(seed)...)
	if err != nil {
		return nil, err
	}

	problem := req.Problem
	if strategy.Name() == genetic.Name && len(problem.Initial) == 0 {
		problem.Initial, err = r.randomStart(problem, seed)
		if err != nil {
			return nil, err
		}
	}

	log := r.logger().With(zap.String("strategy", strategy.Name()), zap.Int64("seed", seed))
	log.Info("run started", zap.Int("k", problem.K))

	r.Metrics.RunStarted(strategy.Name())
	start := time.Now()
	res, err := strategy.Optimize(ctx, problem)
	elapsed := time.Since(start)

	if err != nil {
		status := metrics.StatusFailed
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = metrics.StatusCancelled
		}
		r.Metrics.RunFinished(strategy.Name(), status, elapsed, 0, 0)
		log.Warn("run ended without result", zap.String("status", status), zap.Error(err))
		return nil, err
	}

	r.Metrics.RunFinished(strategy.Name(), metrics.StatusCompleted, elapsed, res.Evaluations, res.BestSolution.Fitness)
	if res.Meta == nil {
		res.Meta = make(map[string]any)
	}
	res.Meta["seed"] = seed
	log.Info("run completed",
		zap.Float64("best_fitness", res.BestSolution.Fitness),
		zap.Int("evaluations", res.Evaluations),
		zap.Duration("duration", elapsed))
	return res, nil
}

// randomStart draws the genetic start set from its own stream so the
// strategy itself still sees the seeded sequence from the beginning.
func (r *Runner) randomStart(problem optimization.Problem, seed int64) (optimization.PointSet, error) {
	oracle, err := optimization.NewOracle(problem.Region)
	if err != nil {
		return nil, err
	}
	sampler := optimization.NewSampler(oracle, optimization.NewRand(seed+startSeedOffset), r.SampleAttempts)
	return sampler.SampleSet(problem.K)
}

const startSeedOffset = 100

func (r *Runner) options(seed int64) []optimization.Option {
	opts := []optimization.Option{
		optimization.WithSeed(seed),
		optimization.WithLogger(r.logger()),
		optimization.WithWorkers(r.Workers),
		optimization.WithProgressEvery(r.ProgressEvery),
	}
	if r.SampleAttempts > 0 {
		opts = append(opts, optimization.WithSampleAttempts(r.SampleAttempts))
	}
	return opts
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
