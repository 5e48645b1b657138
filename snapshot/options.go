package snapshot

import (
	"log/slog"
	"time"

	"github.com/hupe1980/vecsight/distance"
	"github.com/hupe1980/vecsight/outlier"
	"github.com/hupe1980/vecsight/projection"
	"github.com/hupe1980/vecsight/resource"
	"github.com/hupe1980/vecsight/scaler"
)

// DefaultHistory is the number of published snapshots retained by History.
const DefaultHistory = 4

// Options configures a Store and its Builder.
type Options struct {
	// Timeout bounds a single build (0 = unbounded).
	Timeout time.Duration
	// History is the number of published snapshots retained (0 = current only).
	History int

	// ScalerPolicy selects zero-variance handling.
	ScalerPolicy scaler.Policy
	// Projection holds the projector parameters.
	Projection projection.Options
	// Supervised passes the dataset categories to the projector.
	Supervised bool
	// OutlierNeighbors is the k of the outlier detector.
	OutlierNeighbors int
	// OutlierThreshold is the LOF cutoff of the outlier detector.
	OutlierThreshold float64
	// Metric is the input-space distance of both the projector and the detector.
	Metric distance.Metric
	// Workers bounds neighbor-search parallelism (0 = GOMAXPROCS).
	Workers int

	// Controller provides the build slot and memory accounting. A private
	// single-slot controller is used when nil.
	Controller *resource.Controller
	// OnPublish is called after every successful publish, outside the store lock.
	OnPublish func(*Snapshot)

	Logger *slog.Logger
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		History:          DefaultHistory,
		ScalerPolicy:     scaler.PolicyReject,
		Projection:       projection.DefaultOptions(),
		OutlierNeighbors: outlier.DefaultNeighbors,
		OutlierThreshold: outlier.DefaultThreshold,
		Metric:           distance.MetricEuclidean,
	}
}

// Option configures a Store.
type Option func(*Options)

// WithTimeout bounds every build.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithHistory sets the number of retained snapshots.
func WithHistory(n int) Option {
	return func(o *Options) { o.History = n }
}

// WithScalerPolicy sets zero-variance handling.
func WithScalerPolicy(p scaler.Policy) Option {
	return func(o *Options) { o.ScalerPolicy = p }
}

// WithProjection sets the projector parameters.
func WithProjection(opts projection.Options) Option {
	return func(o *Options) { o.Projection = opts }
}

// WithSupervised enables category-supervised projection.
func WithSupervised(on bool) Option {
	return func(o *Options) { o.Supervised = on }
}

// WithOutlierNeighbors sets the outlier detector's k.
func WithOutlierNeighbors(k int) Option {
	return func(o *Options) { o.OutlierNeighbors = k }
}

// WithOutlierThreshold sets the outlier detector's LOF cutoff.
func WithOutlierThreshold(t float64) Option {
	return func(o *Options) { o.OutlierThreshold = t }
}

// WithMetric sets the input-space distance metric.
func WithMetric(m distance.Metric) Option {
	return func(o *Options) { o.Metric = m }
}

// WithWorkers bounds neighbor-search parallelism.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithController shares a resource controller with the store.
func WithController(c *resource.Controller) Option {
	return func(o *Options) { o.Controller = c }
}

// WithOnPublish registers a publish hook.
func WithOnPublish(fn func(*Snapshot)) Option {
	return func(o *Options) { o.OnPublish = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
