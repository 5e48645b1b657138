package lof

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecsight/distance"
	"github.com/hupe1980/vecsight/internal/knn"
)

func TestUniformLine(t *testing.T) {
	// Evenly spaced points with k=1: every density equals 1/spacing.
	pts := [][]float64{{0}, {1}, {2}, {3}}
	g, err := knn.Build(context.Background(), pts, 1, distance.Euclidean)
	require.NoError(t, err)

	kd := KDistances(g)
	assert.Equal(t, []float64{1, 1, 1, 1}, kd)

	lrd := Densities(g, kd)
	for i, d := range lrd {
		assert.InDelta(t, 1.0, d, 1e-9)
		assert.InDelta(t, 1.0, Factor(g.Indices[i], lrd, d), 1e-9)
	}
}

func TestDuplicates(t *testing.T) {
	pts := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	g, err := knn.Build(context.Background(), pts, 2, distance.Euclidean)
	require.NoError(t, err)

	lrd := Densities(g, KDistances(g))
	for i, d := range lrd {
		assert.InDelta(t, 1e10, d, 1)
		assert.InDelta(t, 1.0, Factor(g.Indices[i], lrd, d), 1e-9)
	}
}
