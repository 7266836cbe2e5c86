package optimization

import "math"

// boundaryTolerance is the distance from an edge within which a point is
// treated as lying on the boundary.
const boundaryTolerance = 1e-9

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width returns the horizontal extent of the box.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the box.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Oracle answers point-in-region queries for one region.
// It holds no mutable state and is safe for concurrent use.
type Oracle struct {
	region Region
	bounds Bounds
}

// NewOracle validates region and returns an oracle for it.
// Regions with fewer than 3 vertices or non-finite coordinates are rejected
// with an ErrInvalidRegion error. Convexity is the caller's precondition.
func NewOracle(region Region) (*Oracle, error) {
	if len(region) < 3 {
		return nil, NewInvalidRegionError("region needs at least 3 vertices, got %d", len(region)).
			WithOperation("NewOracle")
	}

	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	for i, v := range region {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
			return nil, NewInvalidRegionError("vertex %d has non-finite coordinates", i).
				WithOperation("NewOracle")
		}
		b.MinX = math.Min(b.MinX, v.X)
		b.MinY = math.Min(b.MinY, v.Y)
		b.MaxX = math.Max(b.MaxX, v.X)
		b.MaxY = math.Max(b.MaxY, v.Y)
	}

	return &Oracle{region: region.Clone(), bounds: b}, nil
}

// Region returns a copy of the region the oracle was built for.
func (o *Oracle) Region() Region {
	return o.region.Clone()
}

// Bounds returns the bounding box of the region.
func (o *Oracle) Bounds() Bounds {
	return o.bounds
}

// Contains reports whether p lies inside the region or on its boundary.
func (o *Oracle) Contains(p Point) bool {
	if p.X < o.bounds.MinX-boundaryTolerance || p.X > o.bounds.MaxX+boundaryTolerance ||
		p.Y < o.bounds.MinY-boundaryTolerance || p.Y > o.bounds.MaxY+boundaryTolerance {
		return false
	}

	inside := false
	n := len(o.region)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := o.region[i], o.region[j]
		if segmentDistance(p, a, b) <= boundaryTolerance {
			return true
		}
		// Horizontal edges never satisfy the straddle test, so the division
		// below is never by zero.
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := a.X + (p.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// ContainsAll returns a mask whose i-th entry is Contains(points[i]).
func (o *Oracle) ContainsAll(points PointSet) []bool {
	mask := make([]bool, len(points))
	for i, p := range points {
		mask[i] = o.Contains(p)
	}
	return mask
}

// AllInside reports whether every point of the set is contained.
func (o *Oracle) AllInside(points PointSet) bool {
	for _, p := range points {
		if !o.Contains(p) {
			return false
		}
	}
	return true
}

// Project returns the point of the closed region nearest to p.
// Points already contained are returned unchanged.
func (o *Oracle) Project(p Point) Point {
	if o.Contains(p) {
		return p
	}
	best := p
	bestDist := math.Inf(1)
	n := len(o.region)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		q := closestOnSegment(p, o.region[j], o.region[i])
		if d := p.SquaredDistance(q); d < bestDist {
			bestDist = d
			best = q
		}
	}
	return best
}

// Contains is a convenience wrapper that builds an oracle for region and
// tests a single point.
func Contains(p Point, region Region) (bool, error) {
	o, err := NewOracle(region)
	if err != nil {
		return false, err
	}
	return o.Contains(p), nil
}

// ContainsAll is the batched form of Contains.
func ContainsAll(points PointSet, region Region) ([]bool, error) {
	o, err := NewOracle(region)
	if err != nil {
		return nil, err
	}
	return o.ContainsAll(points), nil
}

func closestOnSegment(p, a, b Point) Point {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return a
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return Point{X: a.X + t*ab.X, Y: a.Y + t*ab.Y}
}

func segmentDistance(p, a, b Point) float64 {
	return math.Sqrt(p.SquaredDistance(closestOnSegment(p, a, b)))
}
