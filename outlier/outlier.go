package outlier

import (
	"context"
	"log/slog"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vecsight/distance"
	"github.com/hupe1980/vecsight/internal/knn"
	"github.com/hupe1980/vecsight/internal/lof"
)

// Default parameters.
const (
	DefaultNeighbors = 10
	DefaultThreshold = 1.5
)

// Label classifies a scored point.
type Label string

const (
	// LabelNormal marks a point whose density is in line with its neighbors.
	LabelNormal Label = "normal"
	// LabelOutlier is the sentinel class given to flagged points.
	LabelOutlier Label = "outlier"
)

type options struct {
	neighbors int
	threshold float64
	metric    distance.Metric
	workers   int
	logger    *slog.Logger
}

// Option configures Score.
type Option func(*options)

// WithNeighbors sets k.
func WithNeighbors(k int) Option {
	return func(o *options) { o.neighbors = k }
}

// WithThreshold sets the LOF above which a point is flagged.
func WithThreshold(t float64) Option {
	return func(o *options) { o.threshold = t }
}

// WithMetric sets the distance metric.
func WithMetric(m distance.Metric) Option {
	return func(o *options) { o.metric = m }
}

// WithWorkers bounds neighbor-graph parallelism.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ScoreSet holds the per-point result of Score. It is immutable.
type ScoreSet struct {
	// K is the neighbor count used.
	K int
	// Threshold is the LOF cutoff used.
	Threshold float64
	// Factors holds the local outlier factor of every point.
	Factors []float64
	// Ratios holds the density ratio (1/LOF) of every point.
	Ratios []float64
	// Labels holds the classification of every point.
	Labels []Label

	flagged *roaring.Bitmap
}

// Len returns the number of scored points.
func (s *ScoreSet) Len() int { return len(s.Factors) }

// IsFlagged reports whether point i was flagged.
func (s *ScoreSet) IsFlagged(i int) bool { return s.flagged.Contains(uint32(i)) } //nolint:gosec

// FlaggedCount returns the number of flagged points.
func (s *ScoreSet) FlaggedCount() int { return int(s.flagged.GetCardinality()) } //nolint:gosec

// Flagged returns the indices of flagged points in ascending order.
func (s *ScoreSet) Flagged() []int {
	out := make([]int, 0, s.flagged.GetCardinality())
	it := s.flagged.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Score computes the local outlier factor of every point.
// It fails with an *OutlierError when len(points) <= k.
func Score(ctx context.Context, points [][]float64, optFns ...Option) (*ScoreSet, error) {
	o := options{
		neighbors: DefaultNeighbors,
		threshold: DefaultThreshold,
		metric:    distance.MetricEuclidean,
	}
	for _, fn := range optFns {
		fn(&o)
	}

	n := len(points)
	fail := func(reason string) error {
		return &OutlierError{Points: n, Neighbors: o.neighbors, Reason: reason}
	}
	switch {
	case o.neighbors < 1:
		return nil, fail("neighbors must be at least 1")
	case n <= o.neighbors:
		return nil, fail("insufficient points")
	case !(o.threshold > 0) || math.IsInf(o.threshold, 0):
		return nil, fail("threshold must be positive and finite")
	}

	distFn, err := distance.Provider(o.metric)
	if err != nil {
		return nil, fail(err.Error())
	}

	g, err := knn.Build(ctx, points, o.neighbors, distFn, knn.WithWorkers(o.workers))
	if err != nil {
		return nil, err
	}

	lrd := lof.Densities(g, lof.KDistances(g))
	set := &ScoreSet{
		K:         o.neighbors,
		Threshold: o.threshold,
		Factors:   make([]float64, n),
		Ratios:    make([]float64, n),
		Labels:    make([]Label, n),
		flagged:   roaring.New(),
	}
	for i := range points {
		f := lof.Factor(g.Indices[i], lrd, lrd[i])
		set.Factors[i] = f
		set.Ratios[i] = 1 / f
		set.Labels[i] = LabelNormal
		if f > o.threshold {
			set.Labels[i] = LabelOutlier
			set.flagged.Add(uint32(i)) //nolint:gosec
		}
	}

	if o.logger != nil {
		o.logger.LogAttrs(ctx, slog.LevelDebug, "outliers scored",
			slog.Int("points", n),
			slog.Int("k", o.neighbors),
			slog.Int("flagged", set.FlaggedCount()),
		)
	}
	return set, nil
}
