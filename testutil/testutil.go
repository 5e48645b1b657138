package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/vecsight/dataset"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float64()
		}
		vectors[i] = vec
	}

	return vectors
}

// GaussianVectors generates random vectors with values from a standard normal distribution.
func (r *RNG) GaussianVectors(num int, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.NormFloat64()
		}
		vectors[i] = vec
	}

	return vectors
}

// UnitVectors generates L2-normalized random vectors (on the hypersphere).
func (r *RNG) UnitVectors(num int, dimensions int) [][]float64 {
	vectors := r.GaussianVectors(num, dimensions)
	for _, vec := range vectors {
		var norm float64
		for _, v := range vec {
			norm += v * v
		}
		if norm == 0 {
			norm = 1
		}
		inv := 1 / math.Sqrt(norm)
		for j := range vec {
			vec[j] *= inv
		}
	}
	return vectors
}

// ClusteredVectors generates vectors around clusters centroids placed on a
// sphere of radius 10, with Gaussian noise of the given spread. Row i belongs
// to cluster i%clusters; the returned labels are "c0", "c1", ...
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float64) ([][]float64, []string) {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	vectors := make([][]float64, num)
	labels := make([]string, num)

	for i := range num {
		c := i % clusters
		vec := data[i*dim : (i+1)*dim]
		for j := range dim {
			vec[j] = 10*centroids[c][j] + r.rand.NormFloat64()*spread
		}
		vectors[i] = vec
		labels[i] = fmt.Sprintf("c%d", c)
	}

	return vectors, labels
}

// Markets is the market rotation used by ClusteredDataset.
var Markets = []string{"US", "FR", "DE"}

// ClusteredDataset builds a Dataset of clustered vectors. Records carry the
// cluster as category, a rotating market, a daily timestamp and a confidence.
func ClusteredDataset(tb testing.TB, rng *RNG, num, dim, clusters int) *dataset.Dataset {
	tb.Helper()

	vecs, labels := rng.ClusteredVectors(num, dim, clusters, 0.5)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]dataset.MetadataRecord, num)
	for i := range records {
		records[i] = dataset.MetadataRecord{
			ID:         fmt.Sprintf("row-%d", i),
			Category:   labels[i],
			Text:       fmt.Sprintf("utterance %d", i),
			Market:     Markets[i%len(Markets)],
			Timestamp:  start.Add(time.Duration(i) * 24 * time.Hour),
			Confidence: float64(i%10) / 10,
		}
	}

	ds, err := dataset.New(vecs, records)
	if err != nil {
		tb.Fatalf("testutil: build dataset: %v", err)
	}
	return ds
}

// MetadataHeader is the metadata header row written by ClusteredTables.
var MetadataHeader = []string{"id", "FAQ_id", "question", "market", "timestamp", "confidence"}

// ClusteredTables renders clustered vectors as the two decoded tables a
// tabular source delivers: vector rows with a leading id column, and
// metadata rows below a header row.
func ClusteredTables(rng *RNG, num, dim, clusters int) (vectors, metadata dataset.Table) {
	vecs, labels := rng.ClusteredVectors(num, dim, clusters, 0.5)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	vectors = make(dataset.Table, num)
	metadata = make(dataset.Table, 0, num+1)
	metadata = append(metadata, MetadataHeader)
	for i, v := range vecs {
		id := fmt.Sprintf("row-%d", i)
		row := make([]string, 0, dim+1)
		row = append(row, id)
		for _, x := range v {
			row = append(row, strconv.FormatFloat(x, 'g', -1, 64))
		}
		vectors[i] = row
		metadata = append(metadata, []string{
			id,
			labels[i],
			fmt.Sprintf("utterance %d", i),
			Markets[i%len(Markets)],
			start.Add(time.Duration(i) * 24 * time.Hour).Format("2006-01-02"),
			strconv.FormatFloat(float64(i%10)/10, 'f', 1, 64),
		})
	}
	return vectors, metadata
}
