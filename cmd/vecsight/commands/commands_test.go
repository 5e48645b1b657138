package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecsight"
	"github.com/hupe1980/vecsight/dataset"
	"github.com/hupe1980/vecsight/internal/config"
	"github.com/hupe1980/vecsight/internal/watcher"
	"github.com/hupe1980/vecsight/testutil"
)

// setFastEnv configures a small, local, deterministic pipeline.
func setFastEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("VECSIGHT_DATA_DIR", dir)
	t.Setenv("VECSIGHT_BLOB_BACKEND", "local")
	t.Setenv("VECSIGHT_PROJECTION_NEIGHBORS", "8")
	t.Setenv("VECSIGHT_PROJECTION_EPOCHS", "30")
	t.Setenv("VECSIGHT_LOG_LEVEL", "error")
	return dir
}

func writeTable(t *testing.T, path string, tbl dataset.Table) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(tbl))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "vecsight", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "build", "train", "score", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd_Output(t *testing.T) {
	orig := versionInfo
	defer func() { versionInfo = orig }()

	SetVersion("1.2.3", "abc123", "2026-01-31")
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vecsight 1.2.3")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "2026-01-31")
}

func TestBuildCmd(t *testing.T) {
	dir := setFastEnv(t)
	vecs, meta := testutil.ClusteredTables(testutil.NewRNG(1), 60, 6, 3)
	vecPath := filepath.Join(dir, "vectors.csv")
	metaPath := filepath.Join(dir, "metadata.csv")
	writeTable(t, vecPath, vecs)
	writeTable(t, metaPath, meta)

	out, err := run(t, "build", "--vectors", vecPath, "--metadata", metaPath, "--points")
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.EqualValues(t, 1, resp["version"])
	assert.EqualValues(t, 60, resp["rows"])
	assert.Len(t, resp["points"], 60)
}

func TestBuildCmd_Errors(t *testing.T) {
	dir := setFastEnv(t)

	_, err := run(t, "build", "--vectors", filepath.Join(dir, "v.csv"))
	assert.Error(t, err, "metadata flag is required")

	vecPath := filepath.Join(dir, "v.csv")
	metaPath := filepath.Join(dir, "m.csv")
	writeTable(t, vecPath, dataset.Table{{"a", "1", "2"}})
	writeTable(t, metaPath, dataset.Table{{"FAQ_id"}, {"f"}, {"g"}})
	_, err = run(t, "build", "--vectors", vecPath, "--metadata", metaPath)
	assert.ErrorIs(t, err, vecsight.ErrAlignment)
}

func TestTrainAndScore(t *testing.T) {
	dir := setFastEnv(t)
	t.Setenv("VECSIGHT_NOVELTY_THRESHOLD", "2")

	corpus := filepath.Join(dir, "corpus.csv")
	writeTable(t, corpus, dataset.Table{
		{"r0", "0", "0"}, {"r1", "0.1", "0"}, {"r2", "0", "0.1"}, {"r3", "-0.1", "0"}, {"r4", "0", "-0.1"},
	})
	out, err := run(t, "train", "--vectors", corpus)
	require.NoError(t, err)

	var man vecsight.ReferenceManifest
	require.NoError(t, json.Unmarshal([]byte(out), &man))
	assert.Equal(t, "reference.vsm", man.Name)
	assert.Equal(t, 5, man.Points)
	assert.Equal(t, 4, man.K)
	assert.Equal(t, "zstd", man.Compression)
	assert.FileExists(t, filepath.Join(dir, "reference.vsm"))

	batch := filepath.Join(dir, "week-1.csv")
	writeTable(t, batch, dataset.Table{{"near", "0.05", "0.05"}, {"far", "50", "50"}})

	out, err = run(t, "score", batch)
	require.NoError(t, err)
	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	records := resp["records"].([]any)
	require.Len(t, records, 2)
	assert.Equal(t, "week-1", records[0].(map[string]any)["dataset"])
	assert.Equal(t, "non-novel", records[0].(map[string]any)["class"])
	assert.Equal(t, "novel", records[1].(map[string]any)["class"])

	out, err = run(t, "score", "--report", "markets", batch)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, `"total": 2`), out)

	_, err = run(t, "score", "--dataset", "a", "--dataset", "b", batch)
	assert.Error(t, err)
}

func TestScoreCmd_NoModel(t *testing.T) {
	dir := setFastEnv(t)
	batch := filepath.Join(dir, "b.csv")
	writeTable(t, batch, dataset.Table{{"x", "1", "2"}})

	_, err := run(t, "score", batch)
	assert.Error(t, err)
}

func TestOpenBlobStore(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{config.BackendLocal, config.BackendMemory} {
		store, err := openBlobStore(ctx, &config.Config{BlobBackend: backend, DataDir: t.TempDir()})
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, "k", []byte("v")))
	}

	store, err := openBlobStore(ctx, &config.Config{
		BlobBackend:   config.BackendMinIO,
		MinIOEndpoint: "localhost:9000",
		MinIOBucket:   "models",
	})
	require.NoError(t, err)
	assert.NotNil(t, store)
}

func TestTriggerFiles(t *testing.T) {
	dir := setFastEnv(t)
	cfg, err := config.Load()
	require.NoError(t, err)
	e, err := newEngine(context.Background(), cfg, vecsight.NoopLogger())
	require.NoError(t, err)

	vecs, meta := testutil.ClusteredTables(testutil.NewRNG(2), 40, 4, 2)
	vecPath := filepath.Join(dir, "vectors.csv")
	metaPath := filepath.Join(dir, "metadata.csv")
	writeTable(t, vecPath, vecs)
	writeTable(t, metaPath, meta)

	snap := rebuildFromFiles(context.Background(), e, vecsight.NoopLogger(), vecPath, metaPath)
	require.NotNil(t, snap)
	assert.Equal(t, 40, snap.Len())

	assert.Nil(t, rebuildFromFiles(context.Background(), e, vecsight.NoopLogger(), filepath.Join(dir, "missing.csv"), metaPath))
	current, ok := e.Current()
	require.True(t, ok)
	assert.Same(t, snap, current)
}

func TestDatasetTag(t *testing.T) {
	assert.Equal(t, "week-1", datasetTag("/data/week-1.csv"))
	assert.Equal(t, "b", datasetTag("b.tsv"))
}

func TestIngestDatasets(t *testing.T) {
	dir := setFastEnv(t)
	cfg, err := loadConfig()
	require.NoError(t, err)
	logger := newLogger(cfg, &bytes.Buffer{})
	e, err := newEngine(context.Background(), cfg, logger)
	require.NoError(t, err)

	vecs, meta := testutil.ClusteredTables(testutil.NewRNG(2), 40, 4, 2)
	vecPath := filepath.Join(dir, "vectors.csv")
	metaPath := filepath.Join(dir, "metadata.csv")
	writeTable(t, vecPath, vecs)
	writeTable(t, metaPath, meta)

	events := make(chan watcher.DatasetEvent, 1)
	events <- watcher.DatasetEvent{VectorsPath: vecPath, MetadataPath: metaPath}
	close(events)

	ingestDatasets(context.Background(), e, logger, events, vecPath, metaPath)

	snap, ok := e.Current()
	require.True(t, ok)
	assert.EqualValues(t, 2, snap.Version)
	assert.Len(t, e.History(), 2)
}

func TestIngestDatasets_NothingPresent(t *testing.T) {
	dir := setFastEnv(t)
	cfg, err := loadConfig()
	require.NoError(t, err)
	logger := newLogger(cfg, &bytes.Buffer{})
	e, err := newEngine(context.Background(), cfg, logger)
	require.NoError(t, err)

	events := make(chan watcher.DatasetEvent)
	close(events)
	ingestDatasets(context.Background(), e, logger, events,
		filepath.Join(dir, "vectors.csv"), filepath.Join(dir, "metadata.csv"))

	_, ok := e.Current()
	assert.False(t, ok)
}
