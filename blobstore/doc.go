// Package blobstore provides storage for fitted reference models.
//
// Store is the interface for reading and writing named blobs. Implementations
// must be safe for concurrent use and must make Put atomic: a reader sees
// either the previous blob or the new one, never a partial write.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic rename on write, mmap on read
//   - MemoryStore: in-process map, for tests and ephemeral servers
//   - minio.Store: MinIO and other S3-compatible object stores
//   - s3.Store: Amazon S3 with managed uploads
//
// The object-store backends fetch whole objects and return a BytesBlob.
//
// Use ReadAll to fetch a whole blob; it takes the zero-copy path when the
// blob implements Mappable.
package blobstore
