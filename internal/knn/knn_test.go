package knn

import (
	"context"
	"sort"
	"testing"

	"github.com/hupe1980/vecsight/distance"
	"github.com/hupe1980/vecsight/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	points := [][]float64{{0}, {1}, {3}, {6}}

	g, err := Build(context.Background(), points, 2, distance.Euclidean)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, g.Indices[0])
	assert.Equal(t, []float64{1, 3}, g.Distances[0])
	assert.Equal(t, []int{0, 2}, g.Indices[1])
	assert.Equal(t, []int{1, 0}, g.Indices[2])
	assert.Equal(t, []int{2, 1}, g.Indices[3])
	assert.Equal(t, 5.0, g.KDistance(3))
}

func TestBuild_TiesAndDuplicates(t *testing.T) {
	points := [][]float64{{0}, {0}, {0}, {1}}

	g, err := Build(context.Background(), points, 2, distance.Euclidean)
	require.NoError(t, err)

	// Duplicates are neighbors of each other but never of themselves.
	assert.Equal(t, []int{1, 2}, g.Indices[0])
	assert.Equal(t, []int{0, 2}, g.Indices[1])
	assert.Equal(t, []float64{0, 0}, g.Distances[2])
	assert.Equal(t, []int{0, 1}, g.Indices[3], "ties broken by lower index")
}

func TestBuild_MatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(1)
	points := rng.GaussianVectors(300, 8)
	k := 7

	g, err := Build(context.Background(), points, k, distance.Euclidean, WithWorkers(3))
	require.NoError(t, err)

	for i, p := range points {
		type cand struct {
			j int
			d float64
		}
		var all []cand
		for j, q := range points {
			if j != i {
				all = append(all, cand{j, distance.Euclidean(p, q)})
			}
		}
		sort.Slice(all, func(a, b int) bool {
			if all[a].d != all[b].d {
				return all[a].d < all[b].d
			}
			return all[a].j < all[b].j
		})
		for n := 0; n < k; n++ {
			assert.Equal(t, all[n].j, g.Indices[i][n])
			assert.Equal(t, all[n].d, g.Distances[i][n])
		}
	}
}

func TestBuild_InvalidK(t *testing.T) {
	points := [][]float64{{0}, {1}}

	_, err := Build(context.Background(), points, 2, distance.Euclidean)
	assert.ErrorIs(t, err, ErrInvalidK)

	_, err = Build(context.Background(), points, 0, distance.Euclidean)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestBuild_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	points := testutil.NewRNG(2).GaussianVectors(500, 4)
	_, err := Build(ctx, points, 5, distance.Euclidean)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch(t *testing.T) {
	ref := [][]float64{{0, 0}, {1, 0}, {5, 5}}
	queries := [][]float64{{0, 0}, {4, 4}}

	g, err := Search(context.Background(), ref, queries, 2, distance.Euclidean)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, g.Indices[0], "a query equal to a reference point keeps it")
	assert.Equal(t, 0.0, g.Distances[0][0])
	assert.Equal(t, 2, g.Indices[1][0])

	_, err = Search(context.Background(), ref, queries, 4, distance.Euclidean)
	assert.ErrorIs(t, err, ErrInvalidK)
}
