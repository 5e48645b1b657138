package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Simple", []float64{1, 2, 3}, []float64{4, 5, 6}, 32},
		{"Zero", []float64{0, 0, 0}, []float64{0, 0, 0}, 0},
		{"Mixed", []float64{1, -1, 2}, []float64{1, 1, -2}, -4},
		{"Empty", []float64{}, []float64{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Dot(tt.a, tt.b), 1e-12)
		})
	}
}

func TestMetrics(t *testing.T) {
	tests := []struct {
		name     string
		metric   Metric
		a, b     []float64
		expected float64
	}{
		{"Euclidean", MetricEuclidean, []float64{0, 0}, []float64{3, 4}, 5},
		{"EuclideanIdentical", MetricEuclidean, []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"Manhattan", MetricManhattan, []float64{1, -1}, []float64{-1, 1}, 4},
		{"CosineOrthogonal", MetricCosine, []float64{1, 0}, []float64{0, 1}, 1},
		{"CosineParallel", MetricCosine, []float64{1, 1}, []float64{2, 2}, 0},
		{"CosineOpposite", MetricCosine, []float64{1, 0}, []float64{-1, 0}, 2},
		{"CosineZero", MetricCosine, []float64{0, 0}, []float64{1, 0}, 1},
		{"CosineBothZero", MetricCosine, []float64{0, 0}, []float64{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := Provider(tt.metric)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, fn(tt.a, tt.b), 1e-12)
		})
	}
}

func TestProvider_Unsupported(t *testing.T) {
	_, err := Provider(Metric(99))
	assert.Error(t, err)
	assert.Equal(t, "Unknown(99)", Metric(99).String())
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("cosine")
	require.NoError(t, err)
	assert.Equal(t, MetricCosine, m)

	m, err = ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, MetricEuclidean, m)

	_, err = ParseMetric("hamming")
	assert.Error(t, err)
}

func TestNormalizeL2(t *testing.T) {
	v := []float64{3, 4}
	out, ok := NormalizeL2Copy(v)
	require.True(t, ok)
	assert.InDelta(t, 0.6, out[0], 1e-12)
	assert.InDelta(t, 0.8, out[1], 1e-12)
	assert.Equal(t, []float64{3, 4}, v)

	_, ok = NormalizeL2Copy([]float64{0, 0})
	assert.False(t, ok)
	assert.False(t, NormalizeL2InPlace(nil))
	assert.InDelta(t, 1.0, math.Sqrt(Dot(out, out)), 1e-12)
}
