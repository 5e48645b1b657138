package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.vsm")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestMap_ReadAt(t *testing.T) {
	r, err := Map(writeFile(t, []byte("VSM1 header")))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 11, r.Len())
	assert.Equal(t, []byte("VSM1 header"), r.Bytes())

	buf := make([]byte, 6)
	n, err := r.ReadAt(buf, 5)
	require.NoError(t, err)
	assert.Equal(t, "header", string(buf[:n]))

	n, err = r.ReadAt(make([]byte, 10), 5)
	assert.Equal(t, 6, n)
	assert.Equal(t, io.EOF, err)

	n, err = r.ReadAt(buf, 100)
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)

	_, err = r.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)
}

func TestMap_Empty(t *testing.T) {
	r, err := Map(writeFile(t, nil))
	require.NoError(t, err)
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Bytes())
	require.NoError(t, r.Close())
}

func TestMap_Missing(t *testing.T) {
	_, err := Map(filepath.Join(t.TempDir(), "missing.vsm"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMap_Close(t *testing.T) {
	r, err := Map(writeFile(t, make([]byte, 4096)))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "close is idempotent")
	assert.Nil(t, r.Bytes())
	_, err = r.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}
