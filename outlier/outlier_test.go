package outlier

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecsight/testutil"
)

func clusterWithStray() ([][]float64, []string) {
	pts := [][]float64{
		{0, 0}, {0.1, 0}, {0.2, 0},
		{0, 0.1}, {0.1, 0.1}, {0.2, 0.1},
		{10, 10},
	}
	cats := []string{"A", "A", "A", "A", "A", "A", "B"}
	return pts, cats
}

func TestScore_StrayPointFlagged(t *testing.T) {
	pts, cats := clusterWithStray()

	set, err := Score(context.Background(), pts, WithNeighbors(3))
	require.NoError(t, err)
	assert.Equal(t, 7, set.Len())
	assert.Equal(t, []int{6}, set.Flagged())
	assert.True(t, set.IsFlagged(6))
	assert.Equal(t, LabelOutlier, set.Labels[6])
	assert.Greater(t, set.Factors[6], 10.0)
	assert.Less(t, set.Ratios[6], 0.1)
	for i := 0; i < 6; i++ {
		assert.InDelta(t, 1.0, set.Factors[i], 1e-6)
		assert.Equal(t, LabelNormal, set.Labels[i])
	}

	rows, err := Surface(set, cats)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, Row{Index: 6, Category: "B", Label: LabelOutlier, Factor: set.Factors[6]}, rows[0])
}

func TestScore_InsufficientPoints(t *testing.T) {
	pts := testutil.NewRNG(1).UniformVectors(10, 3)

	_, err := Score(context.Background(), pts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutlier)

	var oe *OutlierError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, 10, oe.Points)
	assert.Equal(t, DefaultNeighbors, oe.Neighbors)

	_, err = Score(context.Background(), pts, WithNeighbors(9))
	assert.NoError(t, err)
}

func TestScore_InvalidThreshold(t *testing.T) {
	pts := testutil.NewRNG(2).UniformVectors(20, 3)
	_, err := Score(context.Background(), pts, WithThreshold(0))
	assert.ErrorIs(t, err, ErrOutlier)
}

func TestScore_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Score(ctx, testutil.NewRNG(3).UniformVectors(30, 3))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScore_ThresholdMonotonic(t *testing.T) {
	pts := testutil.NewRNG(4).GaussianVectors(200, 4)

	loose, err := Score(context.Background(), pts, WithThreshold(1.1))
	require.NoError(t, err)
	strict, err := Score(context.Background(), pts, WithThreshold(2))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, loose.FlaggedCount(), strict.FlaggedCount())
	for _, i := range strict.Flagged() {
		assert.True(t, loose.IsFlagged(i))
	}
}

func TestSurface_Invariant(t *testing.T) {
	rng := testutil.NewRNG(5)
	pts, _ := rng.ClusteredVectors(120, 6, 4, 0.5)
	// A handful of far-away points.
	for i := 0; i < 4; i++ {
		pts = append(pts, []float64{50 + float64(i)*7, -40, 30, 0, 0, float64(i)})
	}
	cats := make([]string, len(pts))
	for i := range cats {
		cats[i] = fmt.Sprintf("faq-%d", rng.Intn(12))
	}

	set, err := Score(context.Background(), pts)
	require.NoError(t, err)
	require.Positive(t, set.FlaggedCount())

	rows, err := Surface(set, cats)
	require.NoError(t, err)

	flaggedPerCat := map[string]int{}
	rowsPerCat := map[string]int{}
	for i, r := range rows {
		if i > 0 {
			assert.Less(t, rows[i-1].Index, r.Index)
		}
		rowsPerCat[r.Category]++
		if r.Label == LabelOutlier {
			flaggedPerCat[r.Category]++
			assert.True(t, set.IsFlagged(r.Index))
		} else {
			assert.False(t, set.IsFlagged(r.Index))
		}
	}
	for c, n := range rowsPerCat {
		assert.Positive(t, flaggedPerCat[c], "category %s surfaced without flagged members", c)

		members := 0
		for _, x := range cats {
			if x == c {
				members++
			}
		}
		assert.Equal(t, members, n, "category %s must be emitted whole", c)
	}
	for _, i := range set.Flagged() {
		assert.Contains(t, rowsPerCat, cats[i])
	}
}

func TestSurface_NothingFlagged(t *testing.T) {
	pts, _ := clusterWithStray()
	set, err := Score(context.Background(), pts[:6], WithNeighbors(3))
	require.NoError(t, err)
	require.Zero(t, set.FlaggedCount())

	rows, err := Surface(set, []string{"A", "A", "A", "B", "B", "B"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSurface_LengthMismatch(t *testing.T) {
	pts, _ := clusterWithStray()
	set, err := Score(context.Background(), pts, WithNeighbors(3))
	require.NoError(t, err)

	_, err = Surface(set, []string{"A"})
	assert.ErrorIs(t, err, ErrOutlier)
}
