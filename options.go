package vecsight

import (
	"log/slog"
	"time"

	"github.com/hupe1980/vecsight/blobstore"
	"github.com/hupe1980/vecsight/codec"
	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/novelty"
	"github.com/hupe1980/vecsight/persistence"
	"github.com/hupe1980/vecsight/resource"
	"github.com/hupe1980/vecsight/snapshot"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	threshold        *float64 // nil = unset
	blobStore        blobstore.Store
	compression      persistence.Compression
	resources        resource.Config
	buildTimeout     time.Duration
	alignOptions     []dataset.AlignOption
	snapshotOptions  []snapshot.Option
	noveltyOptions   []novelty.Option
}

// Option configures an Engine.
type Option func(*options)

// WithCodec configures the codec used for reference-model manifests.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithNoveltyThreshold sets the novelty decision threshold.
// There is no default; without a threshold, scores are returned unclassified.
// Every explicit value, zero included, must be finite and positive.
func WithNoveltyThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = &t
	}
}

// WithBlobStore configures where reference models are saved and loaded.
//
// Example with S3:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("models/"))
//	eng, _ := vecsight.New(vecsight.WithBlobStore(store))
func WithBlobStore(s blobstore.Store) Option {
	return func(o *options) {
		o.blobStore = s
	}
}

// WithCompression sets the compression of saved reference models.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithResources configures build slots, memory limits and trigger rates.
func WithResources(cfg resource.Config) Option {
	return func(o *options) {
		o.resources = cfg
	}
}

// WithBuildTimeout bounds every snapshot build.
func WithBuildTimeout(d time.Duration) Option {
	return func(o *options) {
		o.buildTimeout = d
	}
}

// WithAlignOptions configures metadata field names for Ingest.
func WithAlignOptions(opts ...dataset.AlignOption) Option {
	return func(o *options) {
		o.alignOptions = append(o.alignOptions, opts...)
	}
}

// WithSnapshotOptions configures the build pipeline.
//
// Example with a supervised 3D projection:
//
//	p := projection.DefaultOptions()
//	p.Dimensions = 3
//	eng, _ := vecsight.New(vecsight.WithSnapshotOptions(
//	    snapshot.WithProjection(p),
//	    snapshot.WithSupervised(true),
//	))
func WithSnapshotOptions(opts ...snapshot.Option) Option {
	return func(o *options) {
		o.snapshotOptions = append(o.snapshotOptions, opts...)
	}
}

// WithNoveltyOptions configures reference model fits.
func WithNoveltyOptions(opts ...novelty.Option) Option {
	return func(o *options) {
		o.noveltyOptions = append(o.noveltyOptions, opts...)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecsight.BasicMetricsCollector{}
//	eng, _ := vecsight.New(vecsight.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Builds: %d, Avg latency: %dns\n", stats.BuildCount, stats.BuildAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vecsight.NewJSONLogger(slog.LevelInfo)
//	eng, _ := vecsight.New(vecsight.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      persistence.CompressionZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
