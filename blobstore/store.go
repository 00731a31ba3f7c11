package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for accessing data blobs (color files,
// manifests, graph segments). Implementations must be safe for concurrent
// use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create opens a blob for writing, replacing any existing content once
	// the returned WritableBlob is closed.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a blob atomically in a single call.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Implementations should not error if the blob
	// does not exist.
	Delete(ctx context.Context, name string) error
	// List returns the names of every blob whose name begins with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a handle to a data blob open for reading.
type Blob interface {
	// ReadAt reads len(p) bytes starting at off, per io.ReaderAt, but
	// threaded with a context so a network-backed store (S3) can cancel an
	// in-flight range request.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader over the length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a handle to a blob open for writing. Write may buffer;
// the blob is not guaranteed durable until Close returns nil.
type WritableBlob interface {
	io.Writer
	io.Closer
	// Sync flushes any buffered writes without closing the blob.
	Sync() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}
