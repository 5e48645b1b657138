package vecsight

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hupe1980/vecsight/aggregate"
	"github.com/hupe1980/vecsight/blobstore"
	"github.com/hupe1980/vecsight/codec"
	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/novelty"
	"github.com/hupe1980/vecsight/resource"
	"github.com/hupe1980/vecsight/snapshot"
)

// Engine is the entry point of the pipeline. It is safe for concurrent use.
type Engine struct {
	opts       options
	rc         *resource.Controller
	snapshots  *snapshot.Store
	classifier *novelty.Classifier // nil without a threshold

	reference atomic.Pointer[novelty.Model]
}

// New creates an engine. It fails with a *ThresholdConfigError if a novelty
// threshold was configured but is not finite and positive.
func New(optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)

	e := &Engine{
		opts: o,
		rc:   resource.NewController(o.resources),
	}

	if o.threshold != nil {
		cls, err := novelty.NewClassifier(*o.threshold)
		if err != nil {
			return nil, err
		}
		e.classifier = cls
	}

	snapOpts := []snapshot.Option{
		snapshot.WithController(e.rc),
		snapshot.WithLogger(o.logger.Logger),
	}
	if o.buildTimeout > 0 {
		snapOpts = append(snapOpts, snapshot.WithTimeout(o.buildTimeout))
	}
	e.snapshots = snapshot.New(append(snapOpts, o.snapshotOptions...)...)

	return e, nil
}

// Ingest validates and aligns a vector table with a metadata table.
func (e *Engine) Ingest(ctx context.Context, vectors, metadata dataset.Table) (*dataset.Dataset, error) {
	ds, err := dataset.Align(vectors, metadata, e.opts.alignOptions...)
	if err != nil {
		e.opts.logger.LogIngest(ctx, 0, 0, err)
		return nil, err
	}
	e.opts.logger.LogIngest(ctx, ds.Len(), ds.Dim(), nil)
	return ds, nil
}

// Rebuild fits a snapshot from ds and publishes it. See snapshot.Store.Rebuild.
func (e *Engine) Rebuild(ctx context.Context, ds *dataset.Dataset) (*snapshot.Snapshot, error) {
	start := time.Now()
	snap, err := e.snapshots.Rebuild(ctx, ds)

	if errors.Is(err, snapshot.ErrBuildBusy) {
		e.opts.metricsCollector.RecordBuildRejected()
		e.opts.logger.LogBuildRejected(ctx, e.snapshots.Version())
		return nil, err
	}

	rows := 0
	if ds != nil {
		rows = ds.Len()
	}
	e.opts.metricsCollector.RecordBuild(rows, time.Since(start), err)
	if err != nil {
		e.opts.logger.LogBuild(ctx, 0, rows, 0, err)
		return nil, err
	}
	e.opts.logger.LogBuild(ctx, snap.Version, rows, snap.Outliers.FlaggedCount(), nil)
	return snap, nil
}

// Trigger handles a dataset-arrival event: it ingests both tables and
// rebuilds. Arrivals above the configured trigger rate fail with
// ErrTriggerThrottled before any work is done.
func (e *Engine) Trigger(ctx context.Context, vectors, metadata dataset.Table) (*snapshot.Snapshot, error) {
	if !e.rc.AllowTrigger() {
		return nil, ErrTriggerThrottled
	}
	ds, err := e.Ingest(ctx, vectors, metadata)
	if err != nil {
		return nil, err
	}
	return e.Rebuild(ctx, ds)
}

// Current returns the published snapshot. It never blocks.
func (e *Engine) Current() (*snapshot.Snapshot, bool) {
	return e.snapshots.Current()
}

// History returns the retained snapshots, newest first.
func (e *Engine) History() []*snapshot.Snapshot {
	return e.snapshots.History()
}

// RetrainReference fits a new reference model on corpus and swaps it in.
// Scoring calls in flight keep using the previous model.
func (e *Engine) RetrainReference(ctx context.Context, corpus [][]float64) (*novelty.Model, error) {
	start := time.Now()
	optFns := append([]novelty.Option{novelty.WithLogger(e.opts.logger.Logger)}, e.opts.noveltyOptions...)
	m, err := novelty.Fit(ctx, corpus, optFns...)
	e.opts.metricsCollector.RecordRetrain(len(corpus), time.Since(start), err)
	if err != nil {
		e.opts.logger.LogRetrain(ctx, len(corpus), 0, err)
		return nil, err
	}
	e.reference.Store(m)
	e.opts.logger.LogRetrain(ctx, m.Len(), m.K(), nil)
	return m, nil
}

// SetReference swaps in an already fitted or loaded model.
func (e *Engine) SetReference(m *novelty.Model) {
	e.reference.Store(m)
}

// Reference returns the current reference model.
func (e *Engine) Reference() (*novelty.Model, bool) {
	m := e.reference.Load()
	return m, m != nil
}

// Codec returns the codec used for manifests and API payloads.
func (e *Engine) Codec() codec.Codec {
	return e.opts.codec
}

// Classifier returns the novelty classifier, or nil without a threshold.
func (e *Engine) Classifier() *novelty.Classifier {
	return e.classifier
}

// Score scores every batch against the reference model and tags each record
// with its batch's dataset. Records are classified when a threshold is
// configured. Scoring never touches snapshot state.
func (e *Engine) Score(ctx context.Context, batches ...novelty.Batch) (*novelty.Report, error) {
	start := time.Now()
	m := e.reference.Load()
	if m == nil {
		e.opts.metricsCollector.RecordScore(0, time.Since(start), ErrModelNotLoaded)
		e.opts.logger.LogScore(ctx, len(batches), 0, 0, ErrModelNotLoaded)
		return nil, ErrModelNotLoaded
	}

	report, err := m.ScoreBatches(ctx, e.classifier, batches...)
	if err != nil {
		e.opts.metricsCollector.RecordScore(0, time.Since(start), err)
		e.opts.logger.LogScore(ctx, len(batches), 0, 0, err)
		return nil, err
	}

	var novel int
	for _, s := range report.Summaries() {
		novel += s.Novel
		e.opts.logger.WithDataset(s.Dataset).DebugContext(ctx, "dataset scored",
			"records", s.Count,
			"novel", s.Novel,
			"mean", s.Mean,
		)
	}
	e.opts.metricsCollector.RecordScore(report.Len(), time.Since(start), nil)
	e.opts.logger.LogScore(ctx, len(batches), report.Len(), novel, nil)
	return report, nil
}

// Classify applies the configured threshold to a raw score.
func (e *Engine) Classify(score float64) (novelty.Class, error) {
	if e.classifier == nil {
		return novelty.NonNovel, ErrNoThreshold
	}
	return e.classifier.Classify(score), nil
}

// ReferenceManifest describes a saved reference model.
type ReferenceManifest struct {
	Name         string    `json:"name"`
	Points       int       `json:"points"`
	Dimension    int       `json:"dimension"`
	K            int       `json:"k"`
	Metric       string    `json:"metric"`
	Standardized bool      `json:"standardized"`
	Compression  string    `json:"compression"`
	Codec        string    `json:"codec"`
	Bytes        int       `json:"bytes"`
	SavedAt      time.Time `json:"saved_at"`
}

const manifestSuffix = ".manifest.json"

func manifestName(name string) string { return name + manifestSuffix }

// SaveReference writes the current reference model and its manifest to the
// blob store.
func (e *Engine) SaveReference(ctx context.Context, name string) (*ReferenceManifest, error) {
	if e.opts.blobStore == nil {
		return nil, ErrNoBlobStore
	}
	m := e.reference.Load()
	if m == nil {
		return nil, ErrModelNotLoaded
	}

	var buf bytes.Buffer
	w := resource.NewRateLimitedWriter(ctx, &buf, e.rc)
	if err := novelty.Write(w, m, e.opts.compression); err != nil {
		e.opts.logger.LogReference(ctx, "save", name, err)
		return nil, err
	}
	if err := e.opts.blobStore.Put(ctx, name, buf.Bytes()); err != nil {
		e.opts.logger.LogReference(ctx, "save", name, err)
		return nil, fmt.Errorf("save reference %s: %w", name, err)
	}

	man := &ReferenceManifest{
		Name:         name,
		Points:       m.Len(),
		Dimension:    m.Dim(),
		K:            m.K(),
		Metric:       m.Metric().String(),
		Standardized: m.Standardized(),
		Compression:  e.opts.compression.String(),
		Codec:        e.opts.codec.Name(),
		Bytes:        buf.Len(),
		SavedAt:      time.Now().UTC(),
	}
	data, err := e.opts.codec.Marshal(man)
	if err != nil {
		return nil, err
	}
	if err := e.opts.blobStore.Put(ctx, manifestName(name), data); err != nil {
		e.opts.logger.LogReference(ctx, "save", name, err)
		return nil, fmt.Errorf("save manifest %s: %w", name, err)
	}

	e.opts.logger.LogReference(ctx, "save", name, nil)
	return man, nil
}

// LoadReference reads a saved model from the blob store and swaps it in.
func (e *Engine) LoadReference(ctx context.Context, name string) (*novelty.Model, error) {
	if e.opts.blobStore == nil {
		return nil, ErrNoBlobStore
	}
	data, err := blobstore.ReadAll(ctx, e.opts.blobStore, name)
	if err != nil {
		e.opts.logger.LogReference(ctx, "load", name, err)
		return nil, fmt.Errorf("load reference %s: %w", name, err)
	}
	m, err := novelty.Read(resource.NewRateLimitedReader(ctx, bytes.NewReader(data), e.rc))
	if err != nil {
		e.opts.logger.LogReference(ctx, "load", name, err)
		return nil, err
	}
	e.reference.Store(m)
	e.opts.logger.LogReference(ctx, "load", name, nil)
	return m, nil
}

// LoadManifest reads the manifest written next to a saved model.
func (e *Engine) LoadManifest(ctx context.Context, name string) (*ReferenceManifest, error) {
	if e.opts.blobStore == nil {
		return nil, ErrNoBlobStore
	}
	data, err := blobstore.ReadAll(ctx, e.opts.blobStore, manifestName(name))
	if err != nil {
		return nil, fmt.Errorf("load manifest %s: %w", name, err)
	}
	var man ReferenceManifest
	if err := e.opts.codec.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}
	return &man, nil
}

// ListReferences returns the names of saved reference models with the given
// prefix. Manifests are not listed.
func (e *Engine) ListReferences(ctx context.Context, prefix string) ([]string, error) {
	if e.opts.blobStore == nil {
		return nil, ErrNoBlobStore
	}
	names, err := e.opts.blobStore.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	out := names[:0]
	for _, n := range names {
		if !strings.HasSuffix(n, manifestSuffix) {
			out = append(out, n)
		}
	}
	return out, nil
}

// DeleteReference removes a saved model and its manifest. The loaded model
// is not affected.
func (e *Engine) DeleteReference(ctx context.Context, name string) error {
	if e.opts.blobStore == nil {
		return ErrNoBlobStore
	}
	for _, n := range []string{manifestName(name), name} {
		if err := e.opts.blobStore.Delete(ctx, n); err != nil {
			e.opts.logger.LogReference(ctx, "delete", name, err)
			return fmt.Errorf("delete reference %s: %w", n, err)
		}
	}
	e.opts.logger.LogReference(ctx, "delete", name, nil)
	return nil
}

// MarketReport rolls records up per market.
func (e *Engine) MarketReport(records []aggregate.Record) []aggregate.MarketAggregate {
	return aggregate.ByMarket(records)
}

// TimeReport rolls records up per calendar bucket.
func (e *Engine) TimeReport(records []aggregate.Record, bucket aggregate.Bucket) []aggregate.TimeBucketAggregate {
	return aggregate.ByTime(records, bucket)
}

// SnapshotRecords converts the rows of a snapshot's dataset into aggregate
// records. Rows carry no novelty score.
func SnapshotRecords(snap *snapshot.Snapshot) []aggregate.Record {
	if snap == nil {
		return nil
	}
	recs := snap.Dataset.Records()
	out := make([]aggregate.Record, len(recs))
	for i, r := range recs {
		out[i] = aggregate.Record{
			Market:     r.Market,
			Category:   r.Category,
			Confidence: r.Confidence,
			Novelty:    math.NaN(),
			Timestamp:  r.Timestamp,
		}
	}
	return out
}
