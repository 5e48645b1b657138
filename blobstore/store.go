package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for named, immutable blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes starting at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	Bytes() ([]byte, error)
}

// Content types recorded by object-store backends.
const (
	ContentTypeModel    = "application/vnd.vecsight.model"
	ContentTypeManifest = "application/json"
	ContentTypeDefault  = "application/octet-stream"
)

// ContentType returns the content type for a blob name: saved reference
// models end in .vsm, their manifests in .json.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".vsm":
		return ContentTypeModel
	case ".json":
		return ContentTypeManifest
	default:
		return ContentTypeDefault
	}
}

// BytesBlob is a Blob over a fully fetched object. Object stores return one
// from Open because reference models are always decoded in full.
type BytesBlob []byte

// ReadAt copies from the blob at off.
func (b BytesBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("blobstore: negative offset %d", off)
	}
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the blob length.
func (b BytesBlob) Size() int64 { return int64(len(b)) }

// Bytes returns the blob content. The slice must not be modified.
func (b BytesBlob) Bytes() ([]byte, error) { return b, nil }

// Close is a no-op.
func (BytesBlob) Close() error { return nil }

// ReadAll reads the whole blob name from s.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	blob, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	size := blob.Size()
	out := make([]byte, size)
	if size == 0 {
		return out, nil
	}

	if m, ok := blob.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		// The mapping is released on Close.
		copy(out, data)
		return out, nil
	}

	n, err := blob.ReadAt(ctx, out, 0)
	if err != nil && !(err == io.EOF && int64(n) == size) {
		return nil, fmt.Errorf("blobstore: read %s: %w", name, err)
	}
	if int64(n) != size {
		return nil, fmt.Errorf("blobstore: read %s: short read %d of %d bytes", name, n, size)
	}
	return out, nil
}
