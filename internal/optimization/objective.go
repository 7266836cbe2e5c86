package optimization

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Dispersion returns the sum of squared Euclidean distances over all
// unordered pairs of points. Sets with fewer than two points score 0.
// Every strategy scores candidates with this function.
func Dispersion(points PointSet) float64 {
	var sum float64
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			sum += points[i].SquaredDistance(points[j])
		}
	}
	return sum
}

// Summary describes the spread of a point set.
type Summary struct {
	Fitness      float64 `json:"fitness"`
	MeanDistance float64 `json:"mean_distance"`
	MaxDistance  float64 `json:"max_distance"`
	// FarthestPair holds the indices of the pair at MaxDistance,
	// or (-1, -1) when the set has fewer than two points.
	FarthestPair [2]int `json:"farthest_pair"`
}

// Summarize computes the fitness and pairwise distance statistics of points.
func Summarize(points PointSet) Summary {
	s := Summary{
		Fitness:      Dispersion(points),
		FarthestPair: [2]int{-1, -1},
	}
	if len(points) < 2 {
		return s
	}

	n := len(points) * (len(points) - 1) / 2
	dists := make([]float64, 0, n)
	pairs := make([][2]int, 0, n)
	for i := 0; i < len(points); i++ {
		for j := i + 1; j < len(points); j++ {
			dists = append(dists, math.Sqrt(points[i].SquaredDistance(points[j])))
			pairs = append(pairs, [2]int{i, j})
		}
	}
	far := floats.MaxIdx(dists)
	s.MeanDistance = stat.Mean(dists, nil)
	s.MaxDistance = dists[far]
	s.FarthestPair = pairs[far]
	return s
}

// DistanceMatrix returns the symmetric matrix of Euclidean distances
// between points. It returns nil for an empty set.
func DistanceMatrix(points PointSet) *mat.SymDense {
	n := len(points)
	if n == 0 {
		return nil
	}
	m := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.SetSym(i, j, math.Sqrt(points[i].SquaredDistance(points[j])))
		}
	}
	return m
}
