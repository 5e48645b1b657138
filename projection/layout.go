package projection

import (
	"context"
	"math"
	"math/rand"
)

const (
	gradientClip = 4.0
	initRange    = 10.0
)

type layout struct {
	a, b         float64
	epochs       int
	learningRate float64
	negRate      int
	rng          *rand.Rand
}

func clip(v float64) float64 {
	switch {
	case v > gradientClip:
		return gradientClip
	case v < -gradientClip:
		return -gradientClip
	default:
		return v
	}
}

func randomInit(rng *rand.Rand, n, dims int) [][]float64 {
	data := make([]float64, n*dims)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * initRange
	}
	emb := make([][]float64, n)
	for i := range emb {
		emb[i] = data[i*dims : (i+1)*dims : (i+1)*dims]
	}
	return emb
}

func squaredDist(x, y []float64) float64 {
	var s float64
	for d := range x {
		diff := x[d] - y[d]
		s += diff * diff
	}
	return s
}

// optimize runs the attractive/repulsive SGD over emb in place. Each edge is
// sampled in proportion to its weight; every positive sample is followed by
// negRate repulsive samples against uniformly drawn points.
func (l *layout) optimize(ctx context.Context, emb [][]float64, edges []edge) error {
	if len(edges) == 0 {
		return nil
	}

	var maxW float64
	for _, e := range edges {
		maxW = math.Max(maxW, e.weight)
	}

	perSample := make([]float64, len(edges))
	nextSample := make([]float64, len(edges))
	perNeg := make([]float64, len(edges))
	nextNeg := make([]float64, len(edges))
	for i, e := range edges {
		perSample[i] = maxW / e.weight
		nextSample[i] = perSample[i]
		perNeg[i] = perSample[i] / float64(l.negRate)
		nextNeg[i] = perNeg[i]
	}

	n := len(emb)
	a, b := l.a, l.b
	for epoch := range l.epochs {
		if err := ctx.Err(); err != nil {
			return err
		}
		alpha := l.learningRate * (1 - float64(epoch)/float64(l.epochs))
		fe := float64(epoch)

		for i, e := range edges {
			if nextSample[i] > fe {
				continue
			}
			current := emb[e.head]
			other := emb[e.tail]

			distSq := squaredDist(current, other)
			var coeff float64
			if distSq > 0 {
				coeff = -2 * a * b * math.Pow(distSq, b-1) / (a*math.Pow(distSq, b) + 1)
			}
			for d := range current {
				g := clip(coeff * (current[d] - other[d]))
				current[d] += g * alpha
				other[d] -= g * alpha
			}
			nextSample[i] += perSample[i]

			negSamples := int((fe - nextNeg[i]) / perNeg[i])
			for range negSamples {
				k := l.rng.Intn(n)
				if k == e.head {
					continue
				}
				other := emb[k]
				distSq := squaredDist(current, other)
				coeff = 0
				if distSq > 0 {
					coeff = 2 * b / ((0.001 + distSq) * (a*math.Pow(distSq, b) + 1))
				}
				for d := range current {
					g := gradientClip
					if coeff > 0 {
						g = clip(coeff * (current[d] - other[d]))
					}
					current[d] += g * alpha
				}
			}
			nextNeg[i] += float64(negSamples) * perNeg[i]
		}
	}
	return nil
}
