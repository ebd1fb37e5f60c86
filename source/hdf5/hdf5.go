// Package hdf5 reads ann-benchmarks style HDF5 files through gonum's cgo
// bindings to libhdf5.
package hdf5

import (
	"fmt"

	"github.com/hupe1980/vecload/source"
	"gonum.org/v1/hdf5"
)

// File is an HDF5 file opened read-only.
type File struct {
	f *hdf5.File
}

// Open opens path read-only.
func Open(path string) (*File, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("hdf5: open %s: %w", path, err)
	}
	return &File{f: f}, nil
}

// Array opens a dataset by name.
func (f *File) Array(name string) (source.Array, error) {
	if !f.f.LinkExists(name) {
		return nil, fmt.Errorf("%w: %q", source.ErrNoArray, name)
	}
	ds, err := f.f.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("hdf5: open dataset %s: %w", name, err)
	}

	space := ds.Space()
	dims, _, err := space.SimpleExtentDims()
	_ = space.Close()
	if err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("hdf5: %s: %w", name, err)
	}
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}

	dt, err := ds.Datatype()
	if err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("hdf5: %s: %w", name, err)
	}
	dtype := classify(dt)
	_ = dt.Close()

	return &Array{name: name, ds: ds, shape: shape, dtype: dtype}, nil
}

// Close closes the file.
func (f *File) Close() error {
	return f.f.Close()
}

var dtypes = []struct {
	dtype source.DType
	types []*hdf5.Datatype
}{
	{source.Float32, []*hdf5.Datatype{hdf5.T_NATIVE_FLOAT, hdf5.T_IEEE_F32LE}},
	{source.Int32, []*hdf5.Datatype{hdf5.T_NATIVE_INT32, hdf5.T_STD_I32LE}},
	{source.Uint32, []*hdf5.Datatype{hdf5.T_NATIVE_UINT32, hdf5.T_STD_U32LE}},
	{source.Int64, []*hdf5.Datatype{hdf5.T_NATIVE_INT64, hdf5.T_STD_I64LE}},
	{source.Uint64, []*hdf5.Datatype{hdf5.T_NATIVE_UINT64, hdf5.T_STD_U64LE}},
}

func classify(dt *hdf5.Datatype) source.DType {
	for _, c := range dtypes {
		for _, t := range c.types {
			if dt.Equal(t) {
				return c.dtype
			}
		}
	}
	return source.Unknown
}

// Array is a dataset handle.
type Array struct {
	name  string
	ds    *hdf5.Dataset
	shape []int
	dtype source.DType
}

func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }

func (a *Array) DType() source.DType { return a.dtype }

// ReadRows reads a hyperslab of whole rows.
func (a *Array) ReadRows(start, count int, dst any) error {
	rows, cols, err := source.Matrix(a)
	if err != nil {
		return err
	}
	if err := source.CheckRange(rows, start, count); err != nil {
		return err
	}
	ptr, err := checkDst(a.dtype, dst, count*cols)
	if err != nil {
		return err
	}
	if count == 0 || cols == 0 {
		return nil
	}

	filespace := a.ds.Space()
	defer func() { _ = filespace.Close() }()
	if err := filespace.SelectHyperslab(
		[]uint{uint(start), 0}, nil,
		[]uint{uint(count), uint(cols)}, nil,
	); err != nil {
		return fmt.Errorf("hdf5: %s: select rows: %w", a.name, err)
	}

	memspace, err := hdf5.CreateSimpleDataspace([]uint{uint(count), uint(cols)}, nil)
	if err != nil {
		return fmt.Errorf("hdf5: %s: %w", a.name, err)
	}
	defer func() { _ = memspace.Close() }()

	if err := a.ds.ReadSubset(ptr, memspace, filespace); err != nil {
		return fmt.Errorf("hdf5: %s: read rows [%d, %d): %w", a.name, start, start+count, err)
	}
	return nil
}

// checkDst validates dst and returns a pointer to it, which is what the
// bindings need to address the slice.
func checkDst(dtype source.DType, dst any, n int) (any, error) {
	var (
		got source.DType
		l   int
		ptr any
	)
	switch d := dst.(type) {
	case []float32:
		got, l, ptr = source.Float32, len(d), &d
	case []int32:
		got, l, ptr = source.Int32, len(d), &d
	case []uint32:
		got, l, ptr = source.Uint32, len(d), &d
	case []int64:
		got, l, ptr = source.Int64, len(d), &d
	case []uint64:
		got, l, ptr = source.Uint64, len(d), &d
	}
	if got != dtype || l != n {
		return nil, fmt.Errorf("%w: cannot read %s into %T of length %d", source.ErrDType, dtype, dst, n)
	}
	return ptr, nil
}

// Close closes the dataset.
func (a *Array) Close() error {
	return a.ds.Close()
}
