package projection

import "math"

const (
	curveSamples    = 300
	curveIterations = 200
)

// findAB fits the low-dimensional similarity curve 1/(1 + a*d^(2b)) to the
// offset exponential decay implied by spread and minDist, using
// Levenberg-Marquardt on a grid over [0, 3*spread].
func findAB(spread, minDist float64) (a, b float64) {
	xs := make([]float64, curveSamples)
	ys := make([]float64, curveSamples)
	step := 3 * spread / float64(curveSamples-1)
	for i := range xs {
		x := float64(i) * step
		xs[i] = x
		if x < minDist {
			ys[i] = 1
		} else {
			ys[i] = math.Exp(-(x - minDist) / spread)
		}
	}

	cost := func(a, b float64) float64 {
		var s float64
		for i, x := range xs {
			r := curve(x, a, b) - ys[i]
			s += r * r
		}
		return s
	}

	a, b = 1, 1
	lambda := 1e-3
	current := cost(a, b)
	for range curveIterations {
		// Normal equations of the 2-parameter problem.
		var jaa, jab, jbb, ga, gb float64
		for i, x := range xs {
			if x == 0 {
				continue
			}
			p := math.Pow(x, 2*b)
			u := a * p
			den := (1 + u) * (1 + u)
			da := -p / den
			db := -2 * u * math.Log(x) / den
			r := 1/(1+u) - ys[i]
			jaa += da * da
			jab += da * db
			jbb += db * db
			ga += da * r
			gb += db * r
		}

		improved := false
		for range 20 {
			m00 := jaa * (1 + lambda)
			m11 := jbb * (1 + lambda)
			det := m00*m11 - jab*jab
			if det == 0 || math.IsNaN(det) {
				lambda *= 10
				continue
			}
			stepA := -(m11*ga - jab*gb) / det
			stepB := -(m00*gb - jab*ga) / det
			na, nb := a+stepA, b+stepB
			if na <= 0 || nb <= 0 {
				lambda *= 10
				continue
			}
			if c := cost(na, nb); c < current {
				a, b, current = na, nb, c
				lambda = math.Max(lambda/10, 1e-12)
				improved = true
				break
			}
			lambda *= 10
		}
		if !improved {
			break
		}
	}
	return a, b
}

func curve(x, a, b float64) float64 {
	if x == 0 {
		return 1
	}
	return 1 / (1 + a*math.Pow(x, 2*b))
}
