// Package vecs implements the length-prefixed vector container format used by
// .fvecs, .ivecs and .bvecs files.
//
// # Format
//
// A container file is a flat sequence of records:
//
//	[length:int32 LE][length × width bytes of LE scalars]
//
// repeated until the byte source is exhausted. There is no file header, no
// checksum and no end marker. The element type is fixed per file and is one of
// the [Scalar] types (uint8, int32, float32).
//
// # Readers and writers
//
// [Reader] and [Writer] block the calling goroutine. [AsyncReader] and
// [AsyncWriter] move the byte source or sink onto a dedicated goroutine; callers
// hand whole records across a channel and may cancel through a context. Both
// pairs share the same wire contract and error taxonomy:
//
//   - io.EOF is returned by a reader only at a record boundary and means "no more
//     records", not a failure.
//   - [ErrCorruption] reports a negative length prefix.
//   - [ErrTooBig] reports a record whose length does not fit the prefix.
//   - [IOError] wraps any failure of the underlying source or sink, including a
//     record truncated by the end of the source (io.ErrUnexpectedEOF).
//
// None of the types in this package are safe for concurrent use; each instance
// owns its source or sink for its whole lifetime.
package vecs
