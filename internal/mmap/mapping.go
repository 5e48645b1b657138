package mmap

import (
	"errors"
	"io"
	"math"
	"os"
	"sync/atomic"
)

var (
	// ErrClosed is returned when reading a closed region.
	ErrClosed = errors.New("mmap: region is closed")
	// ErrTooLarge is returned for files that do not fit the address space.
	ErrTooLarge = errors.New("mmap: file too large")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)

// Region is a read-only mapping of a whole file.
type Region struct {
	data    []byte
	closed  atomic.Bool
	release func() error
}

// Map maps the file at path. Empty files yield an empty region without a mapping.
func Map(path string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size == 0 {
		return &Region{}, nil
	}
	if size > math.MaxInt {
		return nil, ErrTooLarge
	}

	data, release, err := mapFile(f, int(size))
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: err}
	}
	return &Region{data: data, release: release}, nil
}

// Len returns the mapped length in bytes.
func (r *Region) Len() int { return len(r.data) }

// Bytes returns the mapped bytes, or nil after Close.
func (r *Region) Bytes() []byte {
	if r.closed.Load() {
		return nil
	}
	return r.data
}

// ReadAt implements io.ReaderAt.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	switch {
	case r.closed.Load():
		return 0, ErrClosed
	case off < 0:
		return 0, ErrInvalidOffset
	case off >= int64(len(r.data)):
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close releases the mapping. It is idempotent.
func (r *Region) Close() error {
	if r.closed.Swap(true) || r.release == nil {
		return nil
	}
	return r.release()
}
