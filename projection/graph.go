package projection

import (
	"cmp"
	"math"
	"slices"

	"github.com/hupe1980/vecsight/internal/knn"
)

const (
	// minDistance clamps neighbor distances and bandwidths so duplicate
	// vectors never produce a zero divisor.
	minDistance = 1e-9

	smoothIterations = 64
	smoothTolerance  = 1e-5
	bandwidthFloor   = 1e-3
)

type edge struct {
	head, tail int
	weight     float64
}

// smoothKNN solves, per point, rho (distance to the nearest non-identical
// neighbor) and sigma such that sum_j exp(-(d_j - rho)/sigma) = log2(k).
func smoothKNN(g *knn.Graph) (rhos, sigmas []float64) {
	n := len(g.Distances)
	target := math.Log2(float64(g.K))
	rhos = make([]float64, n)
	sigmas = make([]float64, n)

	var meanAll float64
	for _, row := range g.Distances {
		for _, d := range row {
			meanAll += d
		}
	}
	meanAll /= float64(n * g.K)

	for i, row := range g.Distances {
		for _, d := range row {
			if d > minDistance {
				rhos[i] = d
				break
			}
		}

		lo, hi, mid := 0.0, math.Inf(1), 1.0
		for range smoothIterations {
			var psum float64
			for _, d := range row {
				if r := d - rhos[i]; r > 0 {
					psum += math.Exp(-r / mid)
				} else {
					psum++
				}
			}
			if math.Abs(psum-target) < smoothTolerance {
				break
			}
			if psum > target {
				hi = mid
				mid = (lo + hi) / 2
			} else {
				lo = mid
				if math.IsInf(hi, 1) {
					mid *= 2
				} else {
					mid = (lo + hi) / 2
				}
			}
		}

		var meanRow float64
		for _, d := range row {
			meanRow += d
		}
		meanRow /= float64(len(row))
		floor := bandwidthFloor * meanAll
		if rhos[i] > 0 {
			floor = bandwidthFloor * meanRow
		}
		sigmas[i] = math.Max(math.Max(mid, floor), minDistance)
	}
	return rhos, sigmas
}

type edgeKey struct{ i, j int }

// membership returns the directed membership strengths of the neighbor graph.
func membership(g *knn.Graph, rhos, sigmas []float64) map[edgeKey]float64 {
	out := make(map[edgeKey]float64, len(g.Indices)*g.K)
	for i, nbrs := range g.Indices {
		for n, j := range nbrs {
			d := math.Max(g.Distances[i][n], minDistance)
			w := 1.0
			if r := d - rhos[i]; r > 0 {
				w = math.Exp(-r / sigmas[i])
			}
			out[edgeKey{i, j}] = w
		}
	}
	return out
}

// fuzzyUnion symmetrizes directed strengths: w = a + b - a*b.
// The result holds each undirected edge once, keyed with i < j.
func fuzzyUnion(directed map[edgeKey]float64) map[edgeKey]float64 {
	out := make(map[edgeKey]float64, len(directed))
	for k, a := range directed {
		lo, hi := k.i, k.j
		if lo > hi {
			lo, hi = hi, lo
		}
		key := edgeKey{lo, hi}
		if _, done := out[key]; done {
			continue
		}
		b := directed[edgeKey{k.j, k.i}]
		out[key] = a + b - a*b
	}
	return out
}

// categoricalIntersection attenuates edges across categories and then
// restores local connectivity by renormalizing each point's strongest edge to 1.
// Empty labels are treated as unknown and attenuated less.
func categoricalIntersection(sym map[edgeKey]float64, labels []string, targetWeight float64) map[edgeKey]float64 {
	farDist := 2.5 * (1 / (1 - targetWeight))
	if targetWeight >= 1 {
		farDist = 1e12
	}
	const unknownDist = 1.0

	rowMax := make(map[int]float64)
	directed := make(map[edgeKey]float64, 2*len(sym))
	for k, w := range sym {
		switch {
		case labels[k.i] == "" || labels[k.j] == "":
			w *= math.Exp(-unknownDist)
		case labels[k.i] != labels[k.j]:
			w *= math.Exp(-farDist)
		}
		directed[k] = w
		directed[edgeKey{k.j, k.i}] = w
		rowMax[k.i] = math.Max(rowMax[k.i], w)
		rowMax[k.j] = math.Max(rowMax[k.j], w)
	}

	for k, w := range directed {
		if m := rowMax[k.i]; m > 0 {
			directed[k] = w / m
		}
	}
	return fuzzyUnion(directed)
}

// edgeList converts the symmetric graph to a deterministic directed edge list
// (both directions of every undirected edge), dropping edges too weak to be
// sampled even once during optimization.
func edgeList(sym map[edgeKey]float64, epochs int) []edge {
	var maxW float64
	for _, w := range sym {
		maxW = math.Max(maxW, w)
	}
	cutoff := maxW / float64(epochs)

	edges := make([]edge, 0, 2*len(sym))
	for k, w := range sym {
		if w <= 0 || w < cutoff {
			continue
		}
		edges = append(edges,
			edge{head: k.i, tail: k.j, weight: w},
			edge{head: k.j, tail: k.i, weight: w},
		)
	}
	slices.SortFunc(edges, func(a, b edge) int {
		if c := cmp.Compare(a.head, b.head); c != 0 {
			return c
		}
		return cmp.Compare(a.tail, b.tail)
	})
	return edges
}
