// Package lof holds the local-outlier-factor arithmetic shared by the outlier
// detector and the reference novelty model.
package lof

import "github.com/hupe1980/vecsight/internal/knn"

// densityEpsilon keeps densities finite when every neighbor is a duplicate.
const densityEpsilon = 1e-10

// ReachDensity returns the local reachability density of a point whose
// neighbors are indices at distances dists, given every reference point's
// k-distance.
func ReachDensity(indices []int, dists, kdist []float64) float64 {
	var sum float64
	for n, j := range indices {
		sum += max(kdist[j], dists[n])
	}
	return 1 / (sum/float64(len(indices)) + densityEpsilon)
}

// KDistances returns the distance from every row of g to its k-th neighbor.
func KDistances(g *knn.Graph) []float64 {
	out := make([]float64, len(g.Distances))
	for i := range out {
		out[i] = g.KDistance(i)
	}
	return out
}

// Densities returns the local reachability density of every row of a
// self-excluding neighbor graph.
func Densities(g *knn.Graph, kdist []float64) []float64 {
	out := make([]float64, len(g.Indices))
	for i := range out {
		out[i] = ReachDensity(g.Indices[i], g.Distances[i], kdist)
	}
	return out
}

// Factor returns the mean density of the neighbors divided by own.
func Factor(indices []int, lrd []float64, own float64) float64 {
	var sum float64
	for _, j := range indices {
		sum += lrd[j]
	}
	return sum / float64(len(indices)) / own
}
