package swarm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/disperse/internal/optimization"
	"github.com/copyleftdev/disperse/internal/optimization/optimizationtest"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"clamp boundary", func(c *Config) { c.Boundary = BoundaryClamp }, false},
		{"no particles", func(c *Config) { c.Particles = 0 }, true},
		{"no iterations", func(c *Config) { c.Iterations = -1 }, true},
		{"negative inertia", func(c *Config) { c.Inertia = -0.1 }, true},
		{"negative social", func(c *Config) { c.Social = -1 }, true},
		{"negative max velocity", func(c *Config) { c.MaxVelocity = -1 }, true},
		{"unknown boundary", func(c *Config) { c.Boundary = "wrap" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, optimization.ErrInvalidParameter)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOptimize(t *testing.T) {
	for _, boundary := range []Boundary{BoundaryResample, BoundaryClamp} {
		t.Run(string(boundary), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Iterations = 60
			cfg.Boundary = boundary

			o, err := New(cfg, optimization.WithSeed(1))
			require.NoError(t, err)

			region := optimizationtest.Hexagon()
			var calls int
			res, err := o.Optimize(context.Background(), optimization.Problem{
				Region:   region,
				K:        5,
				Observer: func(optimization.Progress) { calls++ },
			})
			require.NoError(t, err)

			optimizationtest.RequireResult(t, res, region, 5)
			assert.Len(t, res.History, cfg.Iterations)
			assert.Equal(t, cfg.Iterations, calls)
			assert.Equal(t, cfg.Particles*(cfg.Iterations+1), res.Evaluations)
			assert.Equal(t, Name, res.Strategy)
		})
	}
}

func TestOptimizeIsReproducible(t *testing.T) {
	run := func(workers int) *optimization.OptimizationResult {
		cfg := DefaultConfig()
		cfg.Iterations = 30
		o, err := New(cfg, optimization.WithSeed(17), optimization.WithWorkers(workers))
		require.NoError(t, err)
		res, err := o.Optimize(context.Background(), optimization.Problem{Region: optimizationtest.Triangle(), K: 3})
		require.NoError(t, err)
		return res
	}

	a, b := run(1), run(4)
	assert.Equal(t, a.BestSolution, b.BestSolution)
	assert.Equal(t, a.History, b.History)
}

func TestOptimizeSinglePoint(t *testing.T) {
	o, err := New(DefaultConfig(), optimization.WithSeed(2))
	require.NoError(t, err)

	res, err := o.Optimize(context.Background(), optimization.Problem{Region: optimizationtest.UnitSquare(), K: 1})
	require.NoError(t, err)
	assert.Zero(t, res.BestSolution.Fitness)
	for _, f := range res.History {
		assert.Zero(t, f)
	}
}

func TestOptimizeCancelled(t *testing.T) {
	o, err := New(DefaultConfig(), optimization.WithSeed(3))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := o.Optimize(ctx, optimization.Problem{Region: optimizationtest.UnitSquare(), K: 4})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestOptimizeInvalidProblem(t *testing.T) {
	o, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = o.Optimize(context.Background(), optimization.Problem{Region: optimizationtest.UnitSquare(), K: 0})
	assert.ErrorIs(t, err, optimization.ErrInvalidParameter)

	_, err = o.Optimize(context.Background(), optimization.Problem{Region: optimizationtest.UnitSquare()[:2], K: 2})
	assert.ErrorIs(t, err, optimization.ErrInvalidRegion)
}

func TestConvergesOnUnitSquare(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence run in short mode")
	}

	cfg := DefaultConfig()
	cfg.Particles = 50
	cfg.Iterations = 500
	cfg.Boundary = BoundaryClamp

	for _, seed := range []int64{1, 2, 3} {
		o, err := New(cfg, optimization.WithSeed(seed), optimization.WithWorkers(4))
		require.NoError(t, err)

		res, err := o.Optimize(context.Background(), optimization.Problem{Region: optimizationtest.UnitSquare(), K: 4})
		require.NoError(t, err)
		optimizationtest.RequireResult(t, res, optimizationtest.UnitSquare(), 4)
		optimizationtest.RequireWithinRelative(t, optimizationtest.UnitSquareOptimum, res.BestSolution.Fitness, 0.05)
	}
}
