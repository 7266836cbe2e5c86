package optimization

// Point is a 2-D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// SquaredDistance returns the squared Euclidean distance between p and q.
func (p Point) SquaredDistance(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// PointSet is one candidate solution: an ordered sequence of k points.
type PointSet []Point

// Clone returns a deep copy of the set.
func (ps PointSet) Clone() PointSet {
	if ps == nil {
		return nil
	}
	out := make(PointSet, len(ps))
	copy(out, ps)
	return out
}

// Flatten writes the set as (x0, y0, x1, y1, ...) into dst, growing it when
// needed, and returns the result.
func (ps PointSet) Flatten(dst []float64) []float64 {
	if cap(dst) < 2*len(ps) {
		dst = make([]float64, 2*len(ps))
	}
	dst = dst[:2*len(ps)]
	for i, p := range ps {
		dst[2*i] = p.X
		dst[2*i+1] = p.Y
	}
	return dst
}

// Unflatten is the inverse of Flatten. It overwrites the receiver, which must
// hold len(coords)/2 points.
func (ps PointSet) Unflatten(coords []float64) {
	for i := range ps {
		ps[i] = Point{X: coords[2*i], Y: coords[2*i+1]}
	}
}

// Region is the ordered boundary of a convex polygon. It is never
// modified by the search code.
type Region []Point

// Clone returns a deep copy of the region.
func (r Region) Clone() Region {
	out := make(Region, len(r))
	copy(out, r)
	return out
}
