package vecs

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruption is returned when a record length prefix is negative.
	ErrCorruption = errors.New("vecs: data corruption")

	// ErrTooBig is returned when a record is too long for the length prefix.
	ErrTooBig = errors.New("vecs: record too big")

	// ErrClosed is returned by async readers and writers after Close.
	ErrClosed = errors.New("vecs: closed")
)

// CorruptionError carries the offending length prefix.
// It matches ErrCorruption with errors.Is.
type CorruptionError struct {
	Length int32
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("vecs: data corruption: negative record length %d", e.Length)
}

func (e *CorruptionError) Is(target error) bool { return target == ErrCorruption }

// TooBigError carries the length that could not be encoded.
// It matches ErrTooBig with errors.Is.
type TooBigError struct {
	Length int
}

func (e *TooBigError) Error() string {
	return fmt.Sprintf("vecs: record too big: %d elements (max %d)", e.Length, MaxLength)
}

func (e *TooBigError) Is(target error) bool { return target == ErrTooBig }

// IOError wraps a failure of the underlying byte source or sink.
//
// The original error can be accessed via errors.Unwrap.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return "vecs: " + e.Op + ": " + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }

// IsIOFailure reports whether err originates from the byte source or sink.
func IsIOFailure(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}
