package projection

import (
	"log/slog"

	"github.com/hupe1980/vecsight/distance"
)

// Default parameters.
const (
	DefaultNeighbors          = 15
	DefaultDimensions         = 2
	DefaultEpochs             = 200
	DefaultMinDist            = 0.1
	DefaultSpread             = 1.0
	DefaultLearningRate       = 1.0
	DefaultNegativeSampleRate = 5
	DefaultTargetWeight       = 0.5
	DefaultSeed               = 42
)

// Options holds projector parameters.
type Options struct {
	// Neighbors is the k of the neighbor graph.
	Neighbors int
	// Metric is the input-space distance.
	Metric distance.Metric
	// Dimensions is the output dimensionality (2 or 3).
	Dimensions int
	// Epochs is the number of SGD epochs.
	Epochs int
	// MinDist is the minimum distance between embedded points.
	MinDist float64
	// Spread is the scale of embedded points.
	Spread float64
	// LearningRate is the initial SGD step size; it decays linearly to 0.
	LearningRate float64
	// NegativeSampleRate is the number of negative samples per positive edge sample.
	NegativeSampleRate int
	// TargetWeight balances label supervision against topology (0..1).
	// Higher values separate categories more aggressively.
	TargetWeight float64
	// Seed drives initialization and negative sampling.
	Seed int64
	// Workers bounds neighbor-graph parallelism (0 = GOMAXPROCS).
	Workers int

	Logger *slog.Logger
}

// DefaultOptions returns the default projector parameters.
func DefaultOptions() Options {
	return Options{
		Neighbors:          DefaultNeighbors,
		Metric:             distance.MetricEuclidean,
		Dimensions:         DefaultDimensions,
		Epochs:             DefaultEpochs,
		MinDist:            DefaultMinDist,
		Spread:             DefaultSpread,
		LearningRate:       DefaultLearningRate,
		NegativeSampleRate: DefaultNegativeSampleRate,
		TargetWeight:       DefaultTargetWeight,
		Seed:               DefaultSeed,
	}
}

// Option configures Fit.
type Option func(*Options)

// WithNeighbors sets the neighbor-graph k.
func WithNeighbors(k int) Option {
	return func(o *Options) { o.Neighbors = k }
}

// WithMetric sets the input-space distance metric.
func WithMetric(m distance.Metric) Option {
	return func(o *Options) { o.Metric = m }
}

// WithDimensions sets the output dimensionality.
func WithDimensions(d int) Option {
	return func(o *Options) { o.Dimensions = d }
}

// WithEpochs sets the number of optimization epochs.
func WithEpochs(n int) Option {
	return func(o *Options) { o.Epochs = n }
}

// WithMinDist sets the minimum embedded distance.
func WithMinDist(d float64) Option {
	return func(o *Options) { o.MinDist = d }
}

// WithSpread sets the embedded scale.
func WithSpread(s float64) Option {
	return func(o *Options) { o.Spread = s }
}

// WithTargetWeight sets the label supervision strength.
func WithTargetWeight(w float64) Option {
	return func(o *Options) { o.TargetWeight = w }
}

// WithSeed sets the random seed.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithWorkers bounds neighbor-graph parallelism.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithOptions replaces all parameters at once.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		logger := o.Logger
		*o = opts
		if o.Logger == nil {
			o.Logger = logger
		}
	}
}
