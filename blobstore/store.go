// Package blobstore provides storage abstraction for quadgo snapshots.
//
// BlobStore is the interface for reading and writing snapshot blobs.
// Snapshots are written and read whole, so the interface trades streaming
// for simplicity. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-memory, for testing
//   - LocalStore: local filesystem with atomic writes
//   - CachingStore: read-through cache over any BlobStore
//   - minio.Store: MinIO and S3-compatible object storage
//   - s3.Store: Amazon S3 with managed parallel uploads
package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore stores immutable snapshot blobs by name.
type BlobStore interface {
	// Get reads a blob in full.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes a blob atomically, replacing any existing blob of the
	// same name.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}
