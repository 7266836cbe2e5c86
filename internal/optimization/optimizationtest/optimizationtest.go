// Package optimizationtest provides fixtures and assertions shared by the
// strategy tests.
package optimizationtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// UnitSquareOptimum is the dispersion of four points on the corners of the
// unit square: four sides of length 1 and two diagonals of squared length 2.
const UnitSquareOptimum = 8.0

// UnitSquare returns the region [(0,0), (1,0), (1,1), (0,1)].
func UnitSquare() optimization.Region {
	return optimization.Region{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

// Triangle returns a right triangle with legs of length 2.
func Triangle() optimization.Region {
	return optimization.Region{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 2}}
}

// Hexagon returns a regular hexagon of radius 1 centred at the origin.
func Hexagon() optimization.Region {
	r := make(optimization.Region, 6)
	for i := range r {
		a := float64(i) * math.Pi / 3
		r[i] = optimization.Point{X: math.Cos(a), Y: math.Sin(a)}
	}
	return r
}

// UnitSquareCorners returns the optimal configuration for k = 4.
func UnitSquareCorners() optimization.PointSet {
	return optimization.PointSet{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

// RequireFeasible fails the test unless every point is inside region.
func RequireFeasible(t testing.TB, region optimization.Region, points optimization.PointSet) {
	t.Helper()

	mask, err := optimization.ContainsAll(points, region)
	require.NoError(t, err)
	for i, ok := range mask {
		require.Truef(t, ok, "point %d %+v is outside the region", i, points[i])
	}
}

// RequireMonotonic fails the test if the history ever decreases.
func RequireMonotonic(t testing.TB, history optimization.FitnessHistory) {
	t.Helper()

	for i := 1; i < len(history); i++ {
		require.GreaterOrEqualf(t, history[i], history[i-1],
			"history decreased at %d: %v -> %v", i, history[i-1], history[i])
	}
}

// RequireWithinRelative fails the test unless got is within rel of want.
func RequireWithinRelative(t testing.TB, want, got, rel float64) {
	t.Helper()

	require.GreaterOrEqualf(t, got, want*(1-rel), "got %v, want within %.0f%% of %v", got, rel*100, want)
}

// RequireUnique fails the test if points contains exact duplicates.
func RequireUnique(t testing.TB, points optimization.PointSet) {
	t.Helper()

	seen := make(map[optimization.Point]struct{}, len(points))
	for i, p := range points {
		_, dup := seen[p]
		require.Falsef(t, dup, "point %d %+v is duplicated", i, p)
		seen[p] = struct{}{}
	}
}

// RequireResult checks the shape shared by every strategy result.
func RequireResult(t testing.TB, res *optimization.OptimizationResult, region optimization.Region, k int) {
	t.Helper()

	require.NotNil(t, res)
	require.NotNil(t, res.BestSolution)
	require.Len(t, res.BestSolution.Points, k)
	require.InDelta(t, optimization.Dispersion(res.BestSolution.Points), res.BestSolution.Fitness, 1e-9)
	RequireFeasible(t, region, res.BestSolution.Points)
	RequireMonotonic(t, res.History)
	require.NotEmpty(t, res.History)
	require.InDelta(t, res.BestSolution.Fitness, res.History.Last(), 1e-9)
}
