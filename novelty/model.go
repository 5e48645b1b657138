package novelty

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hupe1980/vecsight/distance"
	"github.com/hupe1980/vecsight/internal/knn"
	"github.com/hupe1980/vecsight/internal/lof"
	"github.com/hupe1980/vecsight/scaler"
)

// DefaultNeighbors is the default k.
const DefaultNeighbors = 20

type options struct {
	neighbors   int
	metric      distance.Metric
	standardize bool
	workers     int
	logger      *slog.Logger
}

// Option configures Fit.
type Option func(*options)

// WithNeighbors sets k. It is clamped to len(corpus)-1 for small corpora.
func WithNeighbors(k int) Option {
	return func(o *options) { o.neighbors = k }
}

// WithMetric sets the distance metric.
func WithMetric(m distance.Metric) Option {
	return func(o *options) { o.metric = m }
}

// WithStandardize fits a private scaler on the corpus and applies it to every
// scored batch.
func WithStandardize(on bool) Option {
	return func(o *options) { o.standardize = on }
}

// WithWorkers bounds neighbor-search parallelism.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Model is a fitted reference novelty model. It is immutable.
type Model struct {
	k       int
	metric  distance.Metric
	distFn  distance.Func
	points  [][]float64
	kdist   []float64
	lrd     []float64
	scaler  *scaler.Model
	workers int
}

// Fit establishes the novelty boundary of the reference corpus.
// The corpus needs at least two points.
func Fit(ctx context.Context, corpus [][]float64, optFns ...Option) (*Model, error) {
	o := options{neighbors: DefaultNeighbors, metric: distance.MetricEuclidean}
	for _, fn := range optFns {
		fn(&o)
	}

	n := len(corpus)
	if n < 2 {
		return nil, fmt.Errorf("novelty: %w: %d points", ErrInsufficientCorpus, n)
	}
	if o.neighbors < 1 {
		return nil, fmt.Errorf("novelty: neighbors must be at least 1, got %d", o.neighbors)
	}
	if err := checkVectors(corpus, len(corpus[0])); err != nil {
		return nil, err
	}

	distFn, err := distance.Provider(o.metric)
	if err != nil {
		return nil, fmt.Errorf("novelty: %w", err)
	}

	start := time.Now()
	points := corpus
	var sc *scaler.Model
	if o.standardize {
		sc, err = scaler.FitVectors(corpus, scaler.WithPolicy(scaler.PolicySubstitute))
		if err != nil {
			return nil, fmt.Errorf("novelty: %w", err)
		}
		if points, err = sc.Transform(corpus); err != nil {
			return nil, fmt.Errorf("novelty: %w", err)
		}
	} else {
		points = clonePoints(corpus)
	}

	k := min(o.neighbors, n-1)
	g, err := knn.Build(ctx, points, k, distFn, knn.WithWorkers(o.workers))
	if err != nil {
		return nil, err
	}
	kdist := lof.KDistances(g)

	m := &Model{
		k:       k,
		metric:  o.metric,
		distFn:  distFn,
		points:  points,
		kdist:   kdist,
		lrd:     lof.Densities(g, kdist),
		scaler:  sc,
		workers: o.workers,
	}

	if o.logger != nil {
		o.logger.LogAttrs(ctx, slog.LevelInfo, "novelty model fitted",
			slog.Int("points", n),
			slog.Int("k", k),
			slog.Bool("standardized", sc != nil),
			slog.Duration("duration", time.Since(start)),
		)
	}
	return m, nil
}

func checkVectors(vectors [][]float64, dim int) error {
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("novelty: row %d: %w: expected %d, got %d", i, ErrDimensionMismatch, dim, len(v))
		}
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("novelty: row %d: non-finite value", i)
			}
		}
	}
	return nil
}

func clonePoints(src [][]float64) [][]float64 {
	if len(src) == 0 {
		return nil
	}
	dim := len(src[0])
	data := make([]float64, len(src)*dim)
	out := make([][]float64, len(src))
	for i, v := range src {
		row := data[i*dim : (i+1)*dim : (i+1)*dim]
		copy(row, v)
		out[i] = row
	}
	return out
}

// Len returns the number of reference points.
func (m *Model) Len() int { return len(m.points) }

// Dim returns the vector dimensionality.
func (m *Model) Dim() int { return len(m.points[0]) }

// K returns the effective neighbor count.
func (m *Model) K() int { return m.k }

// Metric returns the distance metric.
func (m *Model) Metric() distance.Metric { return m.metric }

// Standardized reports whether the model carries its own scaler.
func (m *Model) Standardized() bool { return m.scaler != nil }

// Score returns the novelty score of every vector. It never modifies the model
// and returns identical scores for identical input.
func (m *Model) Score(ctx context.Context, vectors [][]float64) ([]float64, error) {
	if m == nil {
		return nil, ErrModelNotLoaded
	}
	if len(vectors) == 0 {
		return []float64{}, nil
	}
	if err := checkVectors(vectors, m.Dim()); err != nil {
		return nil, err
	}

	queries := vectors
	if m.scaler != nil {
		var err error
		if queries, err = m.scaler.Transform(vectors); err != nil {
			return nil, fmt.Errorf("novelty: %w", err)
		}
	}

	g, err := knn.Search(ctx, m.points, queries, m.k, m.distFn, knn.WithWorkers(m.workers))
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(queries))
	for i := range queries {
		own := lof.ReachDensity(g.Indices[i], g.Distances[i], m.kdist)
		scores[i] = lof.Factor(g.Indices[i], m.lrd, own)
	}
	return scores, nil
}
