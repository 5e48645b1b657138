package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/outlier"
	"github.com/hupe1980/vecsight/projection"
	"github.com/hupe1980/vecsight/scaler"
)

// Builder runs the fit pipeline for one dataset. It holds no state between
// builds and never publishes.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder.
func NewBuilder(optFns ...Option) *Builder {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Builder{opts: opts}
}

// Build fits every stage on ds and returns an unversioned Snapshot.
// A stage failure is returned as a *StageError and no partial result escapes.
func (b *Builder) Build(ctx context.Context, ds *dataset.Dataset) (*Snapshot, error) {
	if ds == nil {
		return nil, ErrNilDataset
	}
	o := b.opts
	start := time.Now()

	stage := func(s Stage, err error) error {
		if err == nil {
			err = ctx.Err()
		}
		if err == nil {
			return nil
		}
		if o.Logger != nil {
			o.Logger.LogAttrs(ctx, slog.LevelWarn, "snapshot stage failed",
				slog.String("stage", string(s)),
				slog.String("error", err.Error()),
			)
		}
		return &StageError{Stage: s, Err: err}
	}

	// 1. Scale
	sc, err := scaler.Fit(ds, scaler.WithPolicy(o.ScalerPolicy))
	if err := stage(StageScale, err); err != nil {
		return nil, err
	}

	scaled, err := sc.Transform(ds.Vectors())
	if err := stage(StageTransform, err); err != nil {
		return nil, err
	}

	// 2. Project
	var labels []string
	if o.Supervised {
		labels = ds.Categories()
	}
	proj, err := projection.Fit(ctx, scaled, labels,
		projection.WithOptions(o.Projection),
		projection.WithMetric(o.Metric),
		projection.WithWorkers(o.Workers),
		projection.WithLogger(o.Logger),
	)
	if err := stage(StageProject, err); err != nil {
		return nil, err
	}

	// 3. Score
	set, err := outlier.Score(ctx, scaled,
		outlier.WithNeighbors(o.OutlierNeighbors),
		outlier.WithThreshold(o.OutlierThreshold),
		outlier.WithMetric(o.Metric),
		outlier.WithWorkers(o.Workers),
		outlier.WithLogger(o.Logger),
	)
	if err := stage(StageScore, err); err != nil {
		return nil, err
	}

	surfaced, err := outlier.Surface(set, ds.Categories())
	if err := stage(StageSurface, err); err != nil {
		return nil, err
	}

	coords := proj.Embedding()
	rows := make([]OutlierRow, len(surfaced))
	for i, r := range surfaced {
		rec := ds.Record(r.Index)
		rows[i] = OutlierRow{
			Index:       r.Index,
			ID:          rec.ID,
			Category:    r.Category,
			Coordinates: coords[r.Index],
			Label:       r.Label,
			Factor:      r.Factor,
			Text:        rec.Text,
		}
	}

	return &Snapshot{
		BuildID:     uuid.New(),
		BuiltAt:     time.Now().UTC(),
		Duration:    time.Since(start),
		Dataset:     ds,
		Scaler:      sc,
		Projection:  proj,
		Outliers:    set,
		Coordinates: coords,
		OutlierRows: rows,
	}, nil
}

// estimateBytes approximates the working memory of a build of ds.
func (b *Builder) estimateBytes(ds *dataset.Dataset) int64 {
	n, d := int64(ds.Len()), int64(ds.Dim())
	k := int64(max(b.opts.Projection.Neighbors, b.opts.OutlierNeighbors))
	dims := int64(b.opts.Projection.Dimensions)
	// scaled copy, embedding, two neighbor graphs (index + distance) and the
	// symmetric edge map.
	return 8 * n * (d + dims + 4*k + 6*k)
}
