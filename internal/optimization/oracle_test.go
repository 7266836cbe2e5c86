package optimization_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/disperse/internal/optimization"
	"github.com/copyleftdev/disperse/internal/optimization/optimizationtest"
)

// halfPlaneContains is an independent inclusion test for convex polygons:
// a point is inside when it is on the inner side of every edge.
func halfPlaneContains(p optimization.Point, region optimization.Region) bool {
	var area float64
	n := len(region)
	for i := 0; i < n; i++ {
		a, b := region[i], region[(i+1)%n]
		area += a.X*b.Y - b.X*a.Y
	}
	orientation := 1.0
	if area < 0 {
		orientation = -1
	}
	for i := 0; i < n; i++ {
		a, b := region[i], region[(i+1)%n]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		length := math.Hypot(b.X-a.X, b.Y-a.Y)
		if length == 0 {
			continue
		}
		if orientation*cross/length < -1e-9 {
			return false
		}
	}
	return true
}

func TestNewOracle(t *testing.T) {
	tests := []struct {
		name    string
		region  optimization.Region
		wantErr bool
	}{
		{"empty", nil, true},
		{"two vertices", optimization.Region{{X: 0, Y: 0}, {X: 1, Y: 1}}, true},
		{"nan vertex", optimization.Region{{X: 0, Y: 0}, {X: math.NaN(), Y: 0}, {X: 0, Y: 1}}, true},
		{"triangle", optimizationtest.Triangle(), false},
		{"square", optimizationtest.UnitSquare(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := optimization.NewOracle(tt.region)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, optimization.ErrInvalidRegion)
				assert.Nil(t, o)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, o)
		})
	}
}

func TestOracleContains(t *testing.T) {
	o, err := optimization.NewOracle(optimizationtest.UnitSquare())
	require.NoError(t, err)

	tests := []struct {
		name string
		p    optimization.Point
		want bool
	}{
		{"centre", optimization.Point{X: 0.5, Y: 0.5}, true},
		{"vertex", optimization.Point{X: 0, Y: 0}, true},
		{"opposite vertex", optimization.Point{X: 1, Y: 1}, true},
		{"bottom edge", optimization.Point{X: 0.3, Y: 0}, true},
		{"top edge", optimization.Point{X: 0.3, Y: 1}, true},
		{"left edge", optimization.Point{X: 0, Y: 0.7}, true},
		{"right edge", optimization.Point{X: 1, Y: 0.7}, true},
		{"left of square", optimization.Point{X: -0.1, Y: 0.5}, false},
		{"right of square", optimization.Point{X: 1.1, Y: 0.5}, false},
		{"above square on vertex line", optimization.Point{X: 1, Y: 1.5}, false},
		{"level with top edge", optimization.Point{X: 2, Y: 1}, false},
		{"level with bottom edge", optimization.Point{X: -2, Y: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, o.Contains(tt.p))
			// Same point, same answer.
			assert.Equal(t, tt.want, o.Contains(tt.p))
		})
	}
}

func TestOracleAgreesWithHalfPlaneReference(t *testing.T) {
	regions := map[string]optimization.Region{
		"square":   optimizationtest.UnitSquare(),
		"triangle": optimizationtest.Triangle(),
		"hexagon":  optimizationtest.Hexagon(),
		"clockwise": {
			{X: 0, Y: 0}, {X: 0, Y: 3}, {X: 4, Y: 3}, {X: 4, Y: 0},
		},
	}

	rng := optimization.NewRand(42)
	for name, region := range regions {
		t.Run(name, func(t *testing.T) {
			o, err := optimization.NewOracle(region)
			require.NoError(t, err)
			b := o.Bounds()

			// Random points over a box padded around the region.
			padX, padY := 0.25*b.Width(), 0.25*b.Height()
			for i := 0; i < 1000; i++ {
				p := optimization.Point{
					X: b.MinX - padX + rng.Float64()*(b.Width()+2*padX),
					Y: b.MinY - padY + rng.Float64()*(b.Height()+2*padY),
				}
				require.Equalf(t, halfPlaneContains(p, region), o.Contains(p), "point %+v", p)
			}

			// Points just inside and just outside every edge.
			n := len(region)
			for i := 0; i < n; i++ {
				a, c := region[i], region[(i+1)%n]
				for j := 1; j < 50; j++ {
					t0 := float64(j) / 50
					on := optimization.Point{X: a.X + t0*(c.X-a.X), Y: a.Y + t0*(c.Y-a.Y)}
					length := math.Hypot(c.X-a.X, c.Y-a.Y)
					nx, ny := -(c.Y-a.Y)/length, (c.X-a.X)/length
					for _, off := range []float64{-1e-6, 1e-6} {
						p := optimization.Point{X: on.X + off*nx, Y: on.Y + off*ny}
						require.Equalf(t, halfPlaneContains(p, region), o.Contains(p), "point %+v", p)
					}
					require.Truef(t, o.Contains(on), "edge point %+v", on)
				}
				require.Truef(t, o.Contains(a), "vertex %+v", a)
			}
		})
	}
}

func TestContainsAllAgreesPointwise(t *testing.T) {
	region := optimizationtest.Hexagon()
	points := optimization.PointSet{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 0.8}, {X: 0, Y: 0.9},
	}

	mask, err := optimization.ContainsAll(points, region)
	require.NoError(t, err)
	require.Len(t, mask, len(points))
	for i, p := range points {
		want, err := optimization.Contains(p, region)
		require.NoError(t, err)
		assert.Equal(t, want, mask[i], "point %d", i)
	}

	_, err = optimization.ContainsAll(points, region[:2])
	assert.ErrorIs(t, err, optimization.ErrInvalidRegion)
}

func TestOracleProject(t *testing.T) {
	o, err := optimization.NewOracle(optimizationtest.UnitSquare())
	require.NoError(t, err)

	tests := []struct {
		name string
		p    optimization.Point
		want optimization.Point
	}{
		{"inside unchanged", optimization.Point{X: 0.4, Y: 0.6}, optimization.Point{X: 0.4, Y: 0.6}},
		{"left", optimization.Point{X: -3, Y: 0.5}, optimization.Point{X: 0, Y: 0.5}},
		{"above", optimization.Point{X: 0.25, Y: 2}, optimization.Point{X: 0.25, Y: 1}},
		{"beyond corner", optimization.Point{X: 1.5, Y: -0.5}, optimization.Point{X: 1, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := o.Project(tt.p)
			assert.InDelta(t, tt.want.X, got.X, 1e-12)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-12)
			assert.True(t, o.Contains(got))
		})
	}
}
