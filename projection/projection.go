package projection

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/hupe1980/vecsight/distance"
	"github.com/hupe1980/vecsight/internal/knn"
)

// Model is a fitted embedding of a fixed point set.
type Model struct {
	embedding  [][]float64
	opts       Options
	a, b       float64
	supervised bool
	edges      int
}

// Fit embeds points into opts.Dimensions dimensions.
//
// labels is optional; when non-nil it must have one entry per point and enables
// the categorical intersection. Fit fails with a *ProjectionError when the point
// count does not exceed the neighbor count or a parameter is out of range.
func Fit(ctx context.Context, points [][]float64, labels []string, optFns ...Option) (*Model, error) {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	n := len(points)
	if err := validate(n, labels, opts); err != nil {
		return nil, err
	}

	distFn, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, &ProjectionError{Points: n, Neighbors: opts.Neighbors, Reason: err.Error()}
	}

	start := time.Now()
	graph, err := knn.Build(ctx, points, opts.Neighbors, distFn, knn.WithWorkers(opts.Workers))
	if err != nil {
		return nil, err
	}

	rhos, sigmas := smoothKNN(graph)
	sym := fuzzyUnion(membership(graph, rhos, sigmas))
	if labels != nil {
		sym = categoricalIntersection(sym, labels, opts.TargetWeight)
	}
	edges := edgeList(sym, opts.Epochs)

	a, b := findAB(opts.Spread, opts.MinDist)
	rng := rand.New(rand.NewSource(opts.Seed)) //nolint:gosec // layout sampling, not security

	emb := randomInit(rng, n, opts.Dimensions)
	l := &layout{
		a:            a,
		b:            b,
		epochs:       opts.Epochs,
		learningRate: opts.LearningRate,
		negRate:      opts.NegativeSampleRate,
		rng:          rng,
	}
	if err := l.optimize(ctx, emb, edges); err != nil {
		return nil, err
	}

	if opts.Logger != nil {
		opts.Logger.LogAttrs(ctx, slog.LevelDebug, "projection fitted",
			slog.Int("points", n),
			slog.Int("edges", len(edges)),
			slog.Bool("supervised", labels != nil),
			slog.Duration("duration", time.Since(start)),
		)
	}

	return &Model{
		embedding:  emb,
		opts:       opts,
		a:          a,
		b:          b,
		supervised: labels != nil,
		edges:      len(edges),
	}, nil
}

func validate(n int, labels []string, o Options) error {
	fail := func(reason string) error {
		return &ProjectionError{Points: n, Neighbors: o.Neighbors, Reason: reason}
	}
	switch {
	case o.Neighbors < 1:
		return fail("neighbors must be at least 1")
	case n <= o.Neighbors:
		return fail("insufficient points")
	case o.Dimensions != 2 && o.Dimensions != 3:
		return fail("dimensions must be 2 or 3")
	case o.Epochs < 1:
		return fail("epochs must be at least 1")
	case !(o.Spread > 0):
		return fail("spread must be positive")
	case o.MinDist < 0 || o.MinDist > o.Spread:
		return fail("min dist must be in [0, spread]")
	case !(o.LearningRate > 0):
		return fail("learning rate must be positive")
	case o.NegativeSampleRate < 1:
		return fail("negative sample rate must be at least 1")
	case o.TargetWeight < 0 || o.TargetWeight > 1 || math.IsNaN(o.TargetWeight):
		return fail("target weight must be in [0, 1]")
	case labels != nil && len(labels) != n:
		return fail("label count does not match point count")
	}
	return nil
}

// Len returns the number of embedded points.
func (m *Model) Len() int { return len(m.embedding) }

// Dimensions returns the output dimensionality.
func (m *Model) Dimensions() int { return m.opts.Dimensions }

// Coordinates returns point i's embedded position. The slice must not be modified.
func (m *Model) Coordinates(i int) []float64 { return m.embedding[i] }

// Embedding returns a copy of all embedded positions in input order.
func (m *Model) Embedding() [][]float64 {
	out := make([][]float64, len(m.embedding))
	for i, p := range m.embedding {
		out[i] = append([]float64(nil), p...)
	}
	return out
}

// Curve returns the fitted low-dimensional similarity parameters.
func (m *Model) Curve() (a, b float64) { return m.a, m.b }

// Supervised reports whether category labels shaped the embedding.
func (m *Model) Supervised() bool { return m.supervised }

// Options returns the parameters the model was fitted with.
func (m *Model) Options() Options {
	o := m.opts
	o.Logger = nil
	return o
}

// Edges returns the number of directed edges sampled during optimization.
func (m *Model) Edges() int { return m.edges }
