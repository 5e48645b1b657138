package vecsight

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecsight/aggregate"
	"github.com/hupe1980/vecsight/blobstore"
	"github.com/hupe1980/vecsight/novelty"
	"github.com/hupe1980/vecsight/persistence"
	"github.com/hupe1980/vecsight/projection"
	"github.com/hupe1980/vecsight/resource"
	"github.com/hupe1980/vecsight/snapshot"
	"github.com/hupe1980/vecsight/testutil"
)

func fastSnapshots() Option {
	p := projection.DefaultOptions()
	p.Neighbors = 8
	p.Epochs = 30
	return WithSnapshotOptions(snapshot.WithProjection(p))
}

func newTestEngine(t *testing.T, optFns ...Option) *Engine {
	t.Helper()
	e, err := New(append([]Option{fastSnapshots()}, optFns...)...)
	require.NoError(t, err)
	return e
}

func tightCluster() [][]float64 {
	return [][]float64{{0, 0}, {0.1, 0}, {0, 0.1}, {-0.1, 0}, {0, -0.1}}
}

func TestNew_InvalidThreshold(t *testing.T) {
	for _, threshold := range []float64{-1, 0, math.NaN(), math.Inf(1)} {
		_, err := New(WithNoveltyThreshold(threshold))
		require.Error(t, err, threshold)
		assert.ErrorIs(t, err, ErrThresholdConfig)

		var te *ThresholdConfigError
		assert.True(t, errors.As(err, &te))
	}

	e, err := New()
	require.NoError(t, err)
	assert.Nil(t, e.Classifier(), "no threshold means unclassified scores")
}

func TestEngine_IngestRebuild(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	e := newTestEngine(t, WithMetricsCollector(metrics))
	ctx := context.Background()

	_, ok := e.Current()
	assert.False(t, ok)

	vecs, meta := testutil.ClusteredTables(testutil.NewRNG(1), 60, 6, 3)
	ds, err := e.Ingest(ctx, vecs, meta)
	require.NoError(t, err)
	assert.Equal(t, 60, ds.Len())
	assert.Equal(t, 6, ds.Dim())

	snap, err := e.Rebuild(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version)

	current, ok := e.Current()
	require.True(t, ok)
	assert.Same(t, snap, current)
	assert.Len(t, e.History(), 1)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(60), stats.BuildRows)
	assert.Zero(t, stats.BuildErrors)
}

func TestEngine_IngestErrors(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	vecs, meta := testutil.ClusteredTables(testutil.NewRNG(2), 20, 3, 2)

	_, err := e.Ingest(ctx, vecs, meta[:len(meta)-1])
	assert.ErrorIs(t, err, ErrAlignment)

	var ae *AlignmentError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, 20, ae.VectorRows)
	assert.Equal(t, 19, ae.MetadataRows)

	noCategory := append([][]string{{"id", "question"}}, meta[1:]...)
	_, err = e.Ingest(ctx, vecs, noCategory)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestEngine_RebuildBusyWithWideController(t *testing.T) {
	ds := testutil.ClusteredDataset(t, testutil.NewRNG(3), 30, 4, 2)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	e := newTestEngine(t,
		WithResources(resource.Config{MaxConcurrentBuilds: 2}),
		WithSnapshotOptions(snapshot.WithOnPublish(func(*snapshot.Snapshot) {
			once.Do(func() {
				close(entered)
				<-release
			})
		})),
	)

	done := make(chan error, 1)
	go func() {
		_, err := e.Rebuild(context.Background(), ds)
		done <- err
	}()
	<-entered

	_, err := e.Rebuild(context.Background(), ds)
	assert.ErrorIs(t, err, ErrBuildBusy)

	close(release)
	require.NoError(t, <-done)
	snap, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(1), snap.Version)
}

func TestEngine_RebuildBusy(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	e := newTestEngine(t, WithMetricsCollector(metrics))
	ds := testutil.ClusteredDataset(t, testutil.NewRNG(3), 30, 4, 2)

	require.True(t, e.rc.TryAcquireBuild())
	_, err := e.Rebuild(context.Background(), ds)
	assert.ErrorIs(t, err, ErrBuildBusy)
	e.rc.ReleaseBuild()

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BuildRejected)
	assert.Zero(t, stats.BuildCount)

	_, err = e.Rebuild(context.Background(), ds)
	require.NoError(t, err)
}

func TestEngine_RebuildFailureKeepsSnapshot(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	e := newTestEngine(t, WithMetricsCollector(metrics))
	ctx := context.Background()

	first, err := e.Rebuild(ctx, testutil.ClusteredDataset(t, testutil.NewRNG(4), 30, 4, 2))
	require.NoError(t, err)

	_, err = e.Rebuild(ctx, testutil.ClusteredDataset(t, testutil.NewRNG(5), 6, 4, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProjection)

	var se *StageError
	require.True(t, errors.As(err, &se))

	current, _ := e.Current()
	assert.Same(t, first, current)
	assert.Equal(t, int64(1), metrics.GetStats().BuildErrors)
}

func TestEngine_TriggerThrottled(t *testing.T) {
	e := newTestEngine(t, WithResources(resource.Config{TriggersPerSecond: 0.001, TriggerBurst: 1}))
	ctx := context.Background()
	vecs, meta := testutil.ClusteredTables(testutil.NewRNG(6), 30, 4, 2)

	snap, err := e.Trigger(ctx, vecs, meta)
	require.NoError(t, err)
	assert.Equal(t, 30, snap.Len())

	_, err = e.Trigger(ctx, vecs, meta)
	assert.ErrorIs(t, err, ErrTriggerThrottled)
}

func TestEngine_ScoreNotLoaded(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	e := newTestEngine(t, WithMetricsCollector(metrics))

	_, err := e.Score(context.Background(), novelty.Batch{Dataset: "x"})
	assert.ErrorIs(t, err, ErrModelNotLoaded)
	assert.Equal(t, int64(1), metrics.GetStats().ScoreErrors)

	_, ok := e.Reference()
	assert.False(t, ok)
}

func TestEngine_ScoreNearAndFar(t *testing.T) {
	e := newTestEngine(t, WithNoveltyThreshold(2))
	ctx := context.Background()

	m, err := e.RetrainReference(ctx, tightCluster())
	require.NoError(t, err)
	assert.Equal(t, 4, m.K())

	report, err := e.Score(ctx, novelty.Batch{Dataset: "positive feedback", Items: []novelty.Item{
		{ID: "near", Vector: []float64{0.05, 0.05}},
		{ID: "far", Vector: []float64{50, 50}},
	}})
	require.NoError(t, err)

	recs := report.Records()
	require.Len(t, recs, 2)
	assert.Less(t, recs[0].Score, recs[1].Score)
	assert.Equal(t, novelty.NonNovel, recs[0].Class)
	assert.Equal(t, novelty.Novel, recs[1].Class)

	cls, err := e.Classify(recs[1].Score)
	require.NoError(t, err)
	assert.Equal(t, novelty.Novel, cls)

	_, err = e.Score(ctx, novelty.Batch{Items: []novelty.Item{{Vector: []float64{0, 0}}}})
	assert.ErrorIs(t, err, ErrMissingDatasetTag)
}

func TestEngine_ClassifyWithoutThreshold(t *testing.T) {
	e := newTestEngine(t)
	assert.Nil(t, e.Classifier())
	_, err := e.Classify(3)
	assert.ErrorIs(t, err, ErrNoThreshold)
}

func TestEngine_ReferencePersistence(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	e := newTestEngine(t, WithBlobStore(store), WithCompression(persistence.CompressionLZ4))
	_, err := e.SaveReference(ctx, "reference.vsm")
	assert.ErrorIs(t, err, ErrModelNotLoaded)

	_, err = e.RetrainReference(ctx, testutil.NewRNG(7).GaussianVectors(80, 4))
	require.NoError(t, err)

	man, err := e.SaveReference(ctx, "reference.vsm")
	require.NoError(t, err)
	assert.Equal(t, 80, man.Points)
	assert.Equal(t, 4, man.Dimension)
	assert.Equal(t, novelty.DefaultNeighbors, man.K)
	assert.Equal(t, "lz4", man.Compression)

	names, err := store.List(ctx, "reference")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"reference.vsm", "reference.vsm.manifest.json"}, names)

	other := newTestEngine(t, WithBlobStore(store))
	loaded, err := other.LoadReference(ctx, "reference.vsm")
	require.NoError(t, err)

	manifest, err := other.LoadManifest(ctx, "reference.vsm")
	require.NoError(t, err)
	assert.Equal(t, man.Points, manifest.Points)
	assert.Equal(t, man.Codec, manifest.Codec)

	batch := testutil.NewRNG(8).GaussianVectors(10, 4)
	original, _ := e.Reference()
	want, err := original.Score(ctx, batch)
	require.NoError(t, err)
	got, err := loaded.Score(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = other.LoadReference(ctx, "missing.vsm")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	refs, err := other.ListReferences(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"reference.vsm"}, refs)

	require.NoError(t, other.DeleteReference(ctx, "reference.vsm"))
	refs, err = other.ListReferences(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, refs)
	_, ok := other.Reference()
	assert.True(t, ok, "loaded model survives deletion")

	bare := newTestEngine(t)
	_, err = bare.SaveReference(ctx, "x")
	assert.ErrorIs(t, err, ErrNoBlobStore)
	_, err = bare.LoadReference(ctx, "x")
	assert.ErrorIs(t, err, ErrNoBlobStore)
	_, err = bare.ListReferences(ctx, "")
	assert.ErrorIs(t, err, ErrNoBlobStore)
	assert.ErrorIs(t, bare.DeleteReference(ctx, "x"), ErrNoBlobStore)
}

func TestEngine_ScoreDuringRetrain(t *testing.T) {
	e := newTestEngine(t, WithNoveltyThreshold(1.5))
	ctx := context.Background()
	rng := testutil.NewRNG(9)
	corpusA := rng.GaussianVectors(60, 3)
	corpusB := rng.GaussianVectors(60, 3)
	batch := rng.GaussianVectors(20, 3)

	_, err := e.RetrainReference(ctx, corpusA)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 5 {
				if _, err := e.Score(ctx, novelty.Batch{Dataset: "live", Items: items(batch)}); err != nil {
					errs <- err
				}
			}
		}()
	}
	for range 3 {
		_, err := e.RetrainReference(ctx, corpusB)
		require.NoError(t, err)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("score failed: %v", err)
	}
}

func items(vectors [][]float64) []novelty.Item {
	out := make([]novelty.Item, len(vectors))
	for i, v := range vectors {
		out[i] = novelty.Item{Vector: v}
	}
	return out
}

func TestEngine_Reports(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	snap, err := e.Rebuild(ctx, testutil.ClusteredDataset(t, testutil.NewRNG(10), 42, 4, 3))
	require.NoError(t, err)

	records := SnapshotRecords(snap)
	require.Len(t, records, 42)

	markets := e.MarketReport(records)
	require.Len(t, markets, len(testutil.Markets))
	assert.Equal(t, 42, aggregate.Total(markets))

	weeks := e.TimeReport(records, aggregate.BucketWeek)
	var n int
	for _, w := range weeks {
		n += w.Count
	}
	assert.Equal(t, 42, n)
	assert.Len(t, weeks, 6) // 2024-01-01 is a Monday; 42 daily rows span 6 weeks

	assert.Nil(t, SnapshotRecords(nil))
}

func TestEngine_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := newTestEngine(t, WithLogger(logger))
	ctx := context.Background()

	_, err := e.RetrainReference(ctx, tightCluster())
	require.NoError(t, err)
	_, err = e.Rebuild(ctx, testutil.ClusteredDataset(t, testutil.NewRNG(11), 30, 4, 2))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "reference retrained")
	assert.Contains(t, out, "build published")
	assert.Contains(t, out, "snapshot published")
}
