// Package pipeline joins vector record streams into bulk-load tuples.
//
// Run reads exactly Count rows from an embedding stream, and optionally the
// same number of rows from an answer stream, checks every row's width, and
// hands each row to a Sink as a pgcopy.Tuple whose Index is the row number.
// After the last row both streams must be exhausted.
//
// Structural problems are reported as typed errors:
//
//   - *CountError (errors.Is ErrUnexpectedCount): a stream ended early or had
//     trailing records.
//   - *DimensionError (errors.Is ErrUnexpectedDimension): a row had the wrong
//     number of elements.
//
// Codec failures from the vecs package (ErrCorruption, *vecs.IOError) and sink
// failures are returned wrapped with the stream and row they occurred at.
package pipeline
