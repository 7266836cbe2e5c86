package optimization

import "math/rand/v2"

// DefaultMaxAttempts is the number of rejected draws SampleOne tolerates
// before it gives up on a region.
const DefaultMaxAttempts = 100000

// Sampler draws uniformly distributed feasible points by rejection
// sampling from the region's bounding box.
//
// A Sampler shares its random source with the caller and is not safe for
// concurrent use.
type Sampler struct {
	oracle      *Oracle
	rng         *rand.Rand
	maxAttempts int
}

// NewSampler returns a sampler for the oracle's region. A non-positive
// maxAttempts selects DefaultMaxAttempts.
func NewSampler(oracle *Oracle, rng *rand.Rand, maxAttempts int) *Sampler {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Sampler{oracle: oracle, rng: rng, maxAttempts: maxAttempts}
}

// Oracle returns the feasibility oracle the sampler draws against.
func (s *Sampler) Oracle() *Oracle {
	return s.oracle
}

// SampleOne returns a uniformly distributed point inside the region.
// It fails with an ErrDegenerateSampling error when the attempt budget is
// exhausted, which happens for regions with near-zero area.
func (s *Sampler) SampleOne() (Point, error) {
	b := s.oracle.Bounds()
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		p := Point{
			X: b.MinX + s.rng.Float64()*b.Width(),
			Y: b.MinY + s.rng.Float64()*b.Height(),
		}
		if s.oracle.Contains(p) {
			return p, nil
		}
	}
	return Point{}, NewDegenerateSamplingError("no feasible point after %d draws", s.maxAttempts).
		WithOperation("SampleOne")
}

// SampleSet draws k independent feasible points. Duplicates are allowed.
func (s *Sampler) SampleSet(k int) (PointSet, error) {
	out := make(PointSet, k)
	for i := range out {
		p, err := s.SampleOne()
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// Repair returns a copy of points in which every point outside the region
// is replaced by a fresh feasible draw. Contained points are kept as is.
func (s *Sampler) Repair(points PointSet) (PointSet, error) {
	out := points.Clone()
	if err := s.RepairInPlace(out); err != nil {
		return nil, err
	}
	return out, nil
}

// RepairInPlace is Repair without the copy.
func (s *Sampler) RepairInPlace(points PointSet) error {
	for i, p := range points {
		if s.oracle.Contains(p) {
			continue
		}
		q, err := s.SampleOne()
		if err != nil {
			return err
		}
		points[i] = q
	}
	return nil
}
