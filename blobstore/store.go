package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// ErrClosed is returned when writing to a blob that was closed or aborted.
var ErrClosed = errors.New("blobstore: blob closed")

// Store is an abstraction for reading and writing dataset files.
// Names are slash-separated and relative to the store root.
type Store interface {
	// Open opens a blob for sequential reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create creates a blob for streaming writes. The blob becomes visible
	// under name only after a successful Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put writes a small blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Stat returns metadata for a blob.
	Stat(ctx context.Context, name string) (Info, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read handle to a stored blob.
type Blob interface {
	io.ReadCloser
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a write handle. Close publishes the blob; Abort discards it.
type WritableBlob interface {
	io.WriteCloser
	Abort() error
}

// Info describes a stored blob.
type Info struct {
	Name string
	Size int64
}

// ReadAll reads a whole blob. It fails with ctx's error once ctx is done,
// whether or not the store honors ctx itself.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	return io.ReadAll(b)
}

// Exists reports whether name is present in s.
func Exists(ctx context.Context, s Store, name string) (bool, error) {
	_, err := s.Stat(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
