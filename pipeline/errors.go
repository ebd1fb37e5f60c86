package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedCount is returned when a stream holds fewer or more records
	// than configured.
	ErrUnexpectedCount = errors.New("pipeline: unexpected record count")

	// ErrUnexpectedDimension is returned when a record has the wrong width.
	ErrUnexpectedDimension = errors.New("pipeline: unexpected dimension")

	// ErrCountOutOfRange is returned when Count cannot be indexed by int4.
	ErrCountOutOfRange = errors.New("pipeline: count out of range")
)

// Stream names one of the input streams.
type Stream string

const (
	// Embeddings is the vector stream.
	Embeddings Stream = "embeddings"
	// Answers is the optional ground-truth stream.
	Answers Stream = "answers"
)

// CountError reports a stream that ended before Expected rows, or that still
// had records after them (Trailing).
type CountError struct {
	Stream   Stream
	Index    int64 // row at which the mismatch was detected
	Expected int64
	Trailing bool
}

func (e *CountError) Error() string {
	if e.Trailing {
		return fmt.Sprintf("pipeline: %s: trailing records after %d rows", e.Stream, e.Expected)
	}
	return fmt.Sprintf("pipeline: %s: stream ended at row %d, expected %d rows", e.Stream, e.Index, e.Expected)
}

func (e *CountError) Is(target error) bool { return target == ErrUnexpectedCount }

// DimensionError reports a record whose width differs from the configured one.
type DimensionError struct {
	Stream   Stream
	Index    int64
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("pipeline: %s: row %d has %d elements, expected %d", e.Stream, e.Index, e.Actual, e.Expected)
}

func (e *DimensionError) Is(target error) bool { return target == ErrUnexpectedDimension }
