// Package geometry builds and validates the convex regions the search
// strategies run in.
package geometry

import (
	"math"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// turnTolerance is the slack allowed when summing exterior angles.
const turnTolerance = 1e-6

// IsConvex reports whether the vertices, taken in order, form a simple
// convex polygon with non-zero area. Repeated consecutive vertices and
// collinear runs are tolerated.
func IsConvex(region optimization.Region) bool {
	pts := dedupeConsecutive(region)
	n := len(pts)
	if n < 3 {
		return false
	}

	var sign int
	var turning float64
	for i := 0; i < n; i++ {
		a, b, c := pts[i], pts[(i+1)%n], pts[(i+2)%n]
		e1, e2 := b.Sub(a), c.Sub(b)
		cross := e1.X*e2.Y - e1.Y*e2.X
		dot := e1.X*e2.X + e1.Y*e2.Y
		if cross != 0 {
			s := 1
			if cross < 0 {
				s = -1
			}
			if sign == 0 {
				sign = s
			} else if sign != s {
				return false
			}
		}
		turning += math.Atan2(cross, dot)
	}
	if sign == 0 {
		return false
	}
	// A star polygon turns the same way at every vertex but winds more
	// than once.
	return math.Abs(math.Abs(turning)-2*math.Pi) < turnTolerance
}

// ValidateRegion checks the preconditions the strategies rely on.
func ValidateRegion(region optimization.Region) error {
	if len(region) < 3 {
		return optimization.NewInvalidRegionError("region needs at least 3 vertices, got %d", len(region)).
			WithComponent("geometry")
	}
	for i, v := range region {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return optimization.NewInvalidRegionError("vertex %d has non-finite coordinates", i).
				WithComponent("geometry")
		}
	}
	if !IsConvex(region) {
		return optimization.NewInvalidRegionError("region is not convex").WithComponent("geometry")
	}
	return nil
}

// Centroid returns the mean of the vertices.
func Centroid(region optimization.Region) optimization.Point {
	var c optimization.Point
	if len(region) == 0 {
		return c
	}
	for _, v := range region {
		c.X += v.X
		c.Y += v.Y
	}
	n := float64(len(region))
	return optimization.Point{X: c.X / n, Y: c.Y / n}
}

// Area returns the absolute polygon area by the shoelace formula.
func Area(region optimization.Region) float64 {
	var s float64
	n := len(region)
	for i := 0; i < n; i++ {
		a, b := region[i], region[(i+1)%n]
		s += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(s) / 2
}

func dedupeConsecutive(region optimization.Region) optimization.Region {
	out := make(optimization.Region, 0, len(region))
	for _, v := range region {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
