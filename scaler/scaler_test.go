package scaler

import (
	"errors"
	"math"
	"testing"

	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit_SelfConsistency(t *testing.T) {
	rng := testutil.NewRNG(42)
	ds := testutil.ClusteredDataset(t, rng, 200, 12, 4)

	m, err := Fit(ds)
	require.NoError(t, err)
	assert.Equal(t, 12, m.Dim())

	scaled, err := m.Transform(ds.Vectors())
	require.NoError(t, err)

	for j := 0; j < m.Dim(); j++ {
		var sum, sq float64
		for _, v := range scaled {
			sum += v[j]
		}
		mean := sum / float64(len(scaled))
		for _, v := range scaled {
			sq += (v[j] - mean) * (v[j] - mean)
		}
		assert.InDelta(t, 0, mean, 1e-9, "dim %d mean", j)
		assert.InDelta(t, 1, math.Sqrt(sq/float64(len(scaled))), 1e-9, "dim %d std", j)
	}
}

func TestTransform_Pure(t *testing.T) {
	m, err := FitVectors([][]float64{{1, 10}, {3, 30}})
	require.NoError(t, err)

	in := [][]float64{{2, 20}}
	a, err := m.Transform(in)
	require.NoError(t, err)
	b, err := m.Transform(in)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, [][]float64{{2, 20}}, in, "input untouched")
	assert.Equal(t, []float64{0, 0}, a[0])
}

func TestTransform_DimensionMismatch(t *testing.T) {
	m, err := FitVectors([][]float64{{1, 10}, {3, 30}})
	require.NoError(t, err)

	_, err = m.Transform([][]float64{{1}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFit_ZeroVariance(t *testing.T) {
	ds, err := dataset.New(
		[][]float64{{1, 5, 0}, {2, 5, 1}, {3, 5, 2}},
		[]dataset.MetadataRecord{{Category: "a"}, {Category: "a"}, {Category: "b"}},
	)
	require.NoError(t, err)

	t.Run("Reject", func(t *testing.T) {
		_, err := Fit(ds)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrScaling)

		var se *ScalingError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, []int{1}, se.Dimensions)
	})

	t.Run("Substitute", func(t *testing.T) {
		m, err := Fit(ds, WithPolicy(PolicySubstitute))
		require.NoError(t, err)
		assert.Equal(t, []int{1}, m.Degenerate())
		for _, s := range m.Std() {
			assert.Greater(t, s, 0.0)
		}

		scaled, err := m.Transform(ds.Vectors())
		require.NoError(t, err)
		for _, v := range scaled {
			assert.Equal(t, 0.0, v[1])
			for _, x := range v {
				assert.False(t, math.IsNaN(x) || math.IsInf(x, 0))
			}
		}
	})
}

func TestFitVectors_Errors(t *testing.T) {
	_, err := FitVectors(nil)
	assert.Error(t, err)

	_, err = FitVectors([][]float64{{1, 2}, {1}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFromParams(t *testing.T) {
	m, err := FromParams([]float64{1, 2}, []float64{2, 4})
	require.NoError(t, err)
	out, err := m.Transform([][]float64{{3, 6}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, out[0])
	assert.Equal(t, []float64{1, 2}, m.Mean())

	_, err = FromParams([]float64{1}, []float64{0})
	assert.ErrorIs(t, err, ErrScaling)

	_, err = FromParams([]float64{1}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "reject", PolicyReject.String())
	assert.Equal(t, "substitute", PolicySubstitute.String())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("substitute")
	require.NoError(t, err)
	assert.Equal(t, PolicySubstitute, p)

	p, err = ParsePolicy("reject")
	require.NoError(t, err)
	assert.Equal(t, PolicyReject, p)

	_, err = ParsePolicy("drop")
	assert.Error(t, err)
}
