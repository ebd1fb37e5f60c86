package source

import (
	"fmt"
)

// MemoryFile is an in-memory File.
type MemoryFile map[string]*MemoryArray

// Array returns the named array.
func (f MemoryFile) Array(name string) (Array, error) {
	a, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoArray, name)
	}
	return a, nil
}

// Close is a no-op.
func (f MemoryFile) Close() error { return nil }

// MemoryArray is a row-major in-memory array.
type MemoryArray struct {
	shape []int
	dtype DType
	data  any
}

// NewMemoryArray creates a rows x cols array over data, which must be a
// []float32, []int32, []uint32, []int64 or []uint64 of rows*cols elements.
func NewMemoryArray(rows, cols int, data any) (*MemoryArray, error) {
	var (
		dtype DType
		n     int
	)
	switch d := data.(type) {
	case []float32:
		dtype, n = Float32, len(d)
	case []int32:
		dtype, n = Int32, len(d)
	case []uint32:
		dtype, n = Uint32, len(d)
	case []int64:
		dtype, n = Int64, len(d)
	case []uint64:
		dtype, n = Uint64, len(d)
	default:
		return nil, fmt.Errorf("%w: %T", ErrDType, data)
	}
	if rows < 0 || cols < 0 || n != rows*cols {
		return nil, fmt.Errorf("%w: %d elements for %dx%d", ErrShape, n, rows, cols)
	}
	return &MemoryArray{shape: []int{rows, cols}, dtype: dtype, data: data}, nil
}

// NewMemoryArrayShape creates an array with an arbitrary shape, e.g. to
// exercise shape checks.
func NewMemoryArrayShape(shape []int, data []float32) *MemoryArray {
	return &MemoryArray{shape: shape, dtype: Float32, data: data}
}

func (a *MemoryArray) Shape() []int { return append([]int(nil), a.shape...) }

func (a *MemoryArray) DType() DType { return a.dtype }

func (a *MemoryArray) ReadRows(start, count int, dst any) error {
	rows, cols, err := Matrix(a)
	if err != nil {
		return err
	}
	if err := CheckRange(rows, start, count); err != nil {
		return err
	}
	lo, hi := start*cols, (start+count)*cols
	if !copyRows(dst, a.data, lo, hi) {
		return fmt.Errorf("%w: cannot read %s into %T of length %d", ErrDType, a.dtype, dst, hi-lo)
	}
	return nil
}

func (a *MemoryArray) Close() error { return nil }

func copyRows(dst, src any, lo, hi int) bool {
	switch s := src.(type) {
	case []float32:
		return copyInto(dst, s[lo:hi])
	case []int32:
		return copyInto(dst, s[lo:hi])
	case []uint32:
		return copyInto(dst, s[lo:hi])
	case []int64:
		return copyInto(dst, s[lo:hi])
	case []uint64:
		return copyInto(dst, s[lo:hi])
	}
	return false
}

func copyInto[T any](dst any, src []T) bool {
	d, ok := dst.([]T)
	if !ok || len(d) != len(src) {
		return false
	}
	copy(d, src)
	return true
}
