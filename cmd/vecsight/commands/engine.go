package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/vecsight"
	"github.com/hupe1980/vecsight/blobstore"
	miniostore "github.com/hupe1980/vecsight/blobstore/minio"
	s3store "github.com/hupe1980/vecsight/blobstore/s3"
	"github.com/hupe1980/vecsight/codec"
	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/distance"
	"github.com/hupe1980/vecsight/internal/config"
	"github.com/hupe1980/vecsight/novelty"
	"github.com/hupe1980/vecsight/persistence"
	"github.com/hupe1980/vecsight/projection"
	"github.com/hupe1980/vecsight/resource"
	"github.com/hupe1980/vecsight/scaler"
	"github.com/hupe1980/vecsight/snapshot"
)

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// newLogger builds the process logger. Output goes to w (stderr in the CLI).
func newLogger(cfg *config.Config, w io.Writer) *vecsight.Logger {
	hopts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.LogFormat == "json" {
		return vecsight.NewLogger(slog.NewJSONHandler(w, hopts))
	}
	return vecsight.NewLogger(slog.NewTextHandler(w, hopts))
}

// openBlobStore returns the reference-model store selected by cfg.
func openBlobStore(ctx context.Context, cfg *config.Config) (blobstore.Store, error) {
	switch cfg.BlobBackend {
	case config.BackendMemory:
		return blobstore.NewMemoryStore(), nil
	case config.BackendS3:
		opts := []s3store.Option{s3store.WithPrefix(cfg.S3Prefix)}
		if cfg.S3Region != "" {
			opts = append(opts, s3store.WithRegion(cfg.S3Region))
		}
		store, err := s3store.New(ctx, cfg.S3Bucket, opts...)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		return store, nil
	case config.BackendMinIO:
		client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, cfg.MinIOBucket, ""), nil
	default:
		return blobstore.NewLocalStore(cfg.DataDir), nil
	}
}

// newEngine wires an engine from cfg.
func newEngine(ctx context.Context, cfg *config.Config, logger *vecsight.Logger) (*vecsight.Engine, error) {
	metric, err := distance.ParseMetric(cfg.Metric)
	if err != nil {
		return nil, err
	}
	comp, err := persistence.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(cfg.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", cfg.Codec)
	}
	policy, err := scaler.ParsePolicy(cfg.ScalerPolicy)
	if err != nil {
		return nil, err
	}
	store, err := openBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p := projection.DefaultOptions()
	p.Neighbors = cfg.ProjectionNeighbors
	p.Dimensions = cfg.ProjectionDimensions
	p.Epochs = cfg.ProjectionEpochs
	p.Seed = cfg.ProjectionSeed
	p.Metric = metric

	opts := []vecsight.Option{
		vecsight.WithLogger(logger),
		vecsight.WithCodec(c),
		vecsight.WithBlobStore(store),
		vecsight.WithCompression(comp),
		vecsight.WithBuildTimeout(cfg.BuildTimeout),
		vecsight.WithResources(resource.Config{
			MemoryLimitBytes:   cfg.MemoryLimitBytes,
			TriggersPerSecond:  cfg.TriggersPerSecond,
			IOLimitBytesPerSec: cfg.IOLimitBytesPerSec,
		}),
		vecsight.WithAlignOptions(
			dataset.WithCategoryField(cfg.CategoryField),
			dataset.WithTextField(cfg.TextField),
			dataset.WithMarketField(cfg.MarketField),
			dataset.WithTimestampField(cfg.TimestampField),
			dataset.WithConfidenceField(cfg.ConfidenceField),
			dataset.WithIDField(cfg.IDField),
		),
		vecsight.WithSnapshotOptions(
			snapshot.WithProjection(p),
			snapshot.WithScalerPolicy(policy),
			snapshot.WithHistory(cfg.SnapshotHistory),
			snapshot.WithSupervised(cfg.Supervised),
			snapshot.WithOutlierNeighbors(cfg.OutlierNeighbors),
			snapshot.WithOutlierThreshold(cfg.OutlierThreshold),
			snapshot.WithMetric(metric),
		),
		vecsight.WithNoveltyOptions(
			novelty.WithNeighbors(cfg.NoveltyNeighbors),
			novelty.WithMetric(metric),
			novelty.WithStandardize(cfg.Standardize),
		),
	}
	if cfg.NoveltyThreshold > 0 {
		opts = append(opts, vecsight.WithNoveltyThreshold(cfg.NoveltyThreshold))
	}
	return vecsight.New(opts...)
}

// writeJSON encodes v indented with the engine's codec.
func writeJSON(w io.Writer, c codec.Codec, v any) error {
	data, err := codec.MarshalIndent(c, v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
