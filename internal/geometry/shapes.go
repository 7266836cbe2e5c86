package geometry

import (
	"math"

	"github.com/copyleftdev/disperse/internal/optimization"
)

// CurveVertices is the number of vertices used to approximate circles and
// ellipses.
const CurveVertices = 100

// Rectangle returns the axis-aligned rectangle with the given diagonal
// corners, listed counter-clockwise from the lower-left corner.
func Rectangle(a, b optimization.Point) (optimization.Region, error) {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	if minX == maxX || minY == maxY {
		return nil, optimization.NewInvalidRegionError("rectangle corners %+v and %+v span no area", a, b).
			WithOperation("Rectangle")
	}
	return optimization.Region{
		{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: maxX, Y: maxY}, {X: minX, Y: maxY},
	}, nil
}

// Circle approximates a circle by a regular polygon with n vertices.
// A non-positive n selects CurveVertices.
func Circle(center optimization.Point, radius float64, n int) (optimization.Region, error) {
	if radius <= 0 {
		return nil, optimization.NewInvalidRegionError("radius must be > 0 (got %f)", radius).
			WithOperation("Circle")
	}
	return Ellipse(center, radius, radius, n)
}

// Ellipse approximates an axis-aligned ellipse with semi-axes a and b.
// A non-positive n selects CurveVertices.
func Ellipse(center optimization.Point, a, b float64, n int) (optimization.Region, error) {
	if a <= 0 || b <= 0 {
		return nil, optimization.NewInvalidRegionError("semi-axes must be > 0 (got %f, %f)", a, b).
			WithOperation("Ellipse")
	}
	if n <= 0 {
		n = CurveVertices
	}
	if n < 3 {
		return nil, optimization.NewInvalidRegionError("need at least 3 vertices, got %d", n).
			WithOperation("Ellipse")
	}
	region := make(optimization.Region, n)
	for i := range region {
		theta := 2 * math.Pi * float64(i) / float64(n)
		region[i] = optimization.Point{X: center.X + a*math.Cos(theta), Y: center.Y + b*math.Sin(theta)}
	}
	return region, nil
}

// RegularPolygon returns the regular n-gon of the given circumradius with
// its first vertex on the positive x axis.
func RegularPolygon(n int, radius float64, center optimization.Point) (optimization.Region, error) {
	if n < 3 {
		return nil, optimization.NewInvalidRegionError("a polygon needs at least 3 sides, got %d", n).
			WithOperation("RegularPolygon")
	}
	if radius <= 0 {
		return nil, optimization.NewInvalidRegionError("radius must be > 0 (got %f)", radius).
			WithOperation("RegularPolygon")
	}
	return Ellipse(center, radius, radius, n)
}

// UnitSquare returns [(0,0), (1,0), (1,1), (0,1)].
func UnitSquare() optimization.Region {
	return optimization.Region{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}
