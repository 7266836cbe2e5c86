package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// decimals is the rounding applied to transformed coordinates.
const decimals = 6

// Scale scales the region about its centroid.
func Scale(region optimization.Region, factor float64) (optimization.Region, error) {
	if factor <= 0 {
		return nil, optimization.NewInvalidRegionError("scale factor must be > 0 (got %f)", factor).
			WithOperation("Scale")
	}
	m := mat.NewDense(2, 2, []float64{factor, 0, 0, factor})
	return aboutCentroid(region, m), nil
}

// Rotate rotates the region about its centroid by angle degrees,
// counter-clockwise.
func Rotate(region optimization.Region, angle float64) optimization.Region {
	rad := angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	m := mat.NewDense(2, 2, []float64{
		cos, -sin,
		sin, cos,
	})
	return aboutCentroid(region, m)
}

// Translate moves the region by (dx, dy).
func Translate(region optimization.Region, dx, dy float64) optimization.Region {
	out := make(optimization.Region, len(region))
	for i, v := range region {
		out[i] = optimization.Point{X: round(v.X + dx), Y: round(v.Y + dy)}
	}
	return out
}

// Shear applies the shear [[1, sx], [sy, 1]] about the centroid.
func Shear(region optimization.Region, sx, sy float64) optimization.Region {
	m := mat.NewDense(2, 2, []float64{
		1, sx,
		sy, 1,
	})
	return aboutCentroid(region, m)
}

// aboutCentroid applies the linear map m to every vertex relative to the
// centroid: v' = c + m·(v − c).
func aboutCentroid(region optimization.Region, m *mat.Dense) optimization.Region {
	n := len(region)
	if n == 0 {
		return optimization.Region{}
	}
	c := Centroid(region)

	// Vertices are rows, so the map is applied as V·mᵀ.
	v := mat.NewDense(n, 2, nil)
	for i, p := range region {
		v.SetRow(i, []float64{p.X - c.X, p.Y - c.Y})
	}
	var out mat.Dense
	out.Mul(v, m.T())

	res := make(optimization.Region, n)
	for i := range res {
		row := out.RawRowView(i)
		res[i] = optimization.Point{X: round(row[0] + c.X), Y: round(row[1] + c.Y)}
	}
	return res
}

func round(x float64) float64 {
	p := math.Pow(10, decimals)
	return math.Round(x*p) / p
}
