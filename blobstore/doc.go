// Package blobstore provides storage abstraction for exported datasets.
//
// Store is the interface for reading and writing container files and
// manifests. Implementations must be safe for concurrent use by different
// goroutines operating on different blobs.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem, atomic via temp file + rename
//   - MemoryStore: In-memory, for tests
//   - s3.Store: Amazon S3 with streaming multipart uploads
//   - s3.CommitStore: S3 plus DynamoDB conditional writes for the manifest
//   - minio.Store: MinIO and other S3-compatible storage
//
// # Custom Implementations
//
// Implement the Store interface to support custom storage backends:
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Create for writing
//	    Put(ctx, name, data) error               // Atomic write
//	    Stat(ctx, name) (Info, error)
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// A WritableBlob must not become visible under its name before Close
// returns nil. Abort discards everything written so far.
package blobstore
