// Package source abstracts named two-dimensional arrays read during export.
//
// The hdf5 subpackage implements File over HDF5 files; MemoryFile serves
// tests and programmatic exports.
package source

import (
	"errors"
	"fmt"
)

// DType is the element type of an array.
type DType int

const (
	Unknown DType = iota
	Float32
	Int32
	Uint32
	Int64
	Uint64
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	default:
		return "unknown"
	}
}

var (
	// ErrNoArray is returned when a file has no array of the requested name.
	ErrNoArray = errors.New("source: no such array")
	// ErrShape is returned for arrays that are not two-dimensional or whose
	// shape disagrees with related arrays.
	ErrShape = errors.New("source: unexpected shape")
	// ErrDType is returned for arrays of an unsupported element type, or when
	// the destination buffer does not match it.
	ErrDType = errors.New("source: unexpected dtype")
	// ErrRange is returned for row reads outside the array.
	ErrRange = errors.New("source: rows out of range")
)

// Array is a rectangular, row-major array.
type Array interface {
	// Shape returns the dimensions of the array.
	Shape() []int
	// DType returns the element type.
	DType() DType
	// ReadRows reads count rows starting at start into dst, which must be a
	// slice of the array's element type holding exactly count*cols elements.
	ReadRows(start, count int, dst any) error
	Close() error
}

// File is a collection of named arrays.
type File interface {
	Array(name string) (Array, error)
	Close() error
}

// Matrix returns the rows and columns of a two-dimensional array.
func Matrix(a Array) (rows, cols int, err error) {
	shape := a.Shape()
	if len(shape) != 2 {
		return 0, 0, fmt.Errorf("%w: %d dimensions, want 2", ErrShape, len(shape))
	}
	return shape[0], shape[1], nil
}

// CheckRange validates a row window against an array with rows rows.
func CheckRange(rows, start, count int) error {
	if start < 0 || count < 0 || start > rows || count > rows-start {
		return fmt.Errorf("%w: [%d, %d) of %d", ErrRange, start, start+count, rows)
	}
	return nil
}
