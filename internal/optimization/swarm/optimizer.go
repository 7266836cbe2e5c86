// Package swarm implements particle swarm search over point sets.
package swarm

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// Name is the registry name of the strategy.
const Name = "pso"

// Optimizer is a particle swarm. It owns its random source, so a single
// Optimizer must not run concurrent searches.
type Optimizer struct {
	cfg  Config
	opts optimization.Options
}

// New returns a swarm optimizer with a validated configuration.
func New(cfg Config, opts ...optimization.Option) (*Optimizer, error) {
	if cfg.Boundary == "" {
		cfg.Boundary = BoundaryResample
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Optimizer{cfg: cfg, opts: optimization.NewOptions(opts...)}, nil
}

// Name implements optimization.Strategy.
func (o *Optimizer) Name() string { return Name }

// Config returns the configuration in use.
func (o *Optimizer) Config() Config { return o.cfg }

// particle is one member of the swarm. Coordinates are flattened to
// (x0, y0, x1, y1, ...).
type particle struct {
	pos      optimization.PointSet
	vel      []float64
	best     optimization.PointSet
	bestFit  float64
	flatPos  []float64
	flatBest []float64
}

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

	k := problem.K
	dim := 2 * k
	swarm := make([]particle, o.cfg.Particles)
	positions := make([]optimization.PointSet, len(swarm))
	initVel := distuv.Uniform{Min: -1, Max: 1, Src: rng}

	for i := range swarm {
		pos, err := sampler.SampleSet(k)
		if err != nil {
			return nil, err
		}
		p := &swarm[i]
		p.pos = pos
		p.vel = make([]float64, dim)
		for d := range p.vel {
			p.vel[d] = initVel.Rand()
		}
		p.flatPos = make([]float64, dim)
		p.flatBest = make([]float64, dim)
		positions[i] = p.pos
	}

	fitness, err := optimization.EvaluateBatch(ctx, positions, o.opts.Workers, nil)
	if err != nil {
		return nil, err
	}
	evals := len(swarm)

	for i := range swarm {
		swarm[i].best = swarm[i].pos.Clone()
		swarm[i].bestFit = fitness[i]
	}
	g := optimization.ArgMax(fitness)
	gBest := swarm[g].pos.Clone()
	gBestFit := fitness[g]
	gFlat := gBest.Flatten(nil)

	w, c1, c2 := o.cfg.Inertia, o.cfg.Cognitive, o.cfg.Social
	vMax := o.cfg.MaxVelocity
	history := make(optimization.FitnessHistory, 0, o.cfg.Iterations)

	for iter := 0; iter < o.cfg.Iterations; iter++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		eliteFit := gBestFit
		elite := gBest.Clone()

		for i := range swarm {
			p := &swarm[i]
			p.flatPos = p.pos.Flatten(p.flatPos)
			p.flatBest = p.best.Flatten(p.flatBest)

			for d := 0; d < dim; d++ {
				r1 := rng.Float64()
				r2 := rng.Float64()

				v := w*p.vel[d] +
					c1*r1*(p.flatBest[d]-p.flatPos[d]) +
					c2*r2*(gFlat[d]-p.flatPos[d])

				if vMax > 0 {
					if v > vMax {
						v = vMax
					} else if v < -vMax {
						v = -vMax
					}
				}
				p.vel[d] = v
				p.flatPos[d] += v
			}
			p.pos.Unflatten(p.flatPos)

			if err := o.restore(oracle, sampler, p.pos); err != nil {
				return nil, err
			}
		}

		fitness, err = optimization.EvaluateBatch(ctx, positions, o.opts.Workers, fitness)
		if err != nil {
			return nil, err
		}
		evals += len(swarm)

		// Reduce over the finished batch.
		for i := range swarm {
			p := &swarm[i]
			if fitness[i] > p.bestFit {
				p.bestFit = fitness[i]
				copy(p.best, p.pos)
			}
			if fitness[i] > gBestFit {
				gBestFit = fitness[i]
				copy(gBest, p.pos)
			}
		}
		gFlat = gBest.Flatten(gFlat)

		worst := 0
		for i := range swarm {
			if swarm[i].bestFit < swarm[worst].bestFit {
				worst = i
			}
		}
		swarm[worst].best = elite
		swarm[worst].bestFit = eliteFit

		history = append(history, gBestFit)
		problem.Notify(optimization.Progress{Iteration: iter + 1, Iterations: o.cfg.Iterations, BestFitness: gBestFit})
		if o.opts.ShouldLog(iter + 1) {
			log.Debug("iteration completed",
				zap.Int("iteration", iter+1),
				zap.Int("iterations", o.cfg.Iterations),
				zap.Float64("best_fitness", gBestFit))
		}
	}

	duration := time.Since(start)
	log.Info("optimization completed",
		zap.Float64("best_fitness", gBestFit),
		zap.Int("evaluations", evals),
		zap.Duration("duration", duration))

	return &optimization.OptimizationResult{
		Strategy:     Name,
		BestSolution: &optimization.Solution{Points: gBest, Fitness: gBestFit},
		History:      history,
		Iterations:   o.cfg.Iterations,
		Evaluations:  evals,
		Duration:     duration,
		Meta: map[string]any{
			"particles":    o.cfg.Particles,
			"inertia":      w,
			"cognitive":    c1,
			"social":       c2,
			"max_velocity": vMax,
			"boundary":     string(o.cfg.Boundary),
		},
	}, nil
}

// restore brings every escaped point of pos back into the region.
func (o *Optimizer) restore(oracle *optimization.Oracle, sampler *optimization.Sampler, pos optimization.PointSet) error {
	if o.cfg.Boundary == BoundaryClamp {
		for j, pt := range pos {
			pos[j] = oracle.Project(pt)
		}
		return nil
	}
	return sampler.RepairInPlace(pos)
}
