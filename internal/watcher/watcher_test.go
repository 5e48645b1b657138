package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresFileNames(t *testing.T) {
	_, err := New(WithFiles("", "meta.csv"))
	assert.Error(t, err)
}

func TestWatch_EmitsWhenBothFilesPresent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(WithFiles("v.csv", "m.csv"), WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := w.Watch(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "v.csv"), []byte("a,1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600))

	select {
	case ev := <-events:
		t.Fatalf("unexpected event before metadata arrived: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "m.csv"), []byte("FAQ_id\nf\n"), 0o600))

	select {
	case ev := <-events:
		assert.Equal(t, filepath.Join(dir, "v.csv"), ev.VectorsPath)
		assert.Equal(t, filepath.Join(dir, "m.csv"), ev.MetadataPath)
		assert.False(t, ev.DetectedAt.IsZero())
	case <-ctx.Done():
		t.Fatal("no dataset event")
	}
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := w.Watch(ctx, t.TempDir())
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestWatch_MissingDir(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Stop()

	_, err = w.Watch(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
