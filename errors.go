package vecload

import (
	"errors"
	"fmt"
)

var (
	// ErrDatasetExists is returned by Export when the store already holds a
	// dataset and WithForce is not set.
	ErrDatasetExists = errors.New("dataset already exists")

	// ErrNoName is returned by Load without a table name.
	ErrNoName = errors.New("table name is required")

	// ErrInvalidBlockSize is returned for a negative block size.
	ErrInvalidBlockSize = errors.New("block size must not be negative")
)

// ErrShapeMismatch indicates a source array whose shape or element type does
// not fit the dataset layout.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrShapeMismatch struct {
	Array  string
	Reason string
	cause  error
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("array %q: %s", e.Array, e.Reason)
}

func (e *ErrShapeMismatch) Unwrap() error { return e.cause }

// ErrNeighborOverflow indicates a neighbor id that does not fit an int32.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrNeighborOverflow struct {
	Row    int
	Column int
	cause  error
}

func (e *ErrNeighborOverflow) Error() string {
	return fmt.Sprintf("neighbors row %d column %d: %v", e.Row, e.Column, e.cause)
}

func (e *ErrNeighborOverflow) Unwrap() error { return e.cause }
