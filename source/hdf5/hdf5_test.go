package hdf5

import (
	"path/filepath"
	"testing"

	"github.com/hupe1980/vecload/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"
)

func writeDataset(t *testing.T, f *hdf5.File, name string, dims []uint, data any) {
	t.Helper()
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	require.NoError(t, err)
	defer space.Close()

	var dtype *hdf5.Datatype
	switch data.(type) {
	case []float32:
		dtype = hdf5.T_NATIVE_FLOAT
	case []int64:
		dtype = hdf5.T_NATIVE_INT64
	}
	ds, err := f.CreateDataset(name, dtype, space)
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, ds.Write(data))
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.hdf5")
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	writeDataset(t, f, "train", []uint{2, 4}, &[]float32{0, 1, 2, 3, 1, 1, 2, 3})
	writeDataset(t, f, "neighbors", []uint{1, 2}, &[]int64{1, 0})
	require.NoError(t, f.Close())

	file, err := Open(path)
	require.NoError(t, err)
	defer file.Close()

	train, err := file.Array("train")
	require.NoError(t, err)
	defer train.Close()
	assert.Equal(t, []int{2, 4}, train.Shape())
	assert.Equal(t, source.Float32, train.DType())

	row := make([]float32, 4)
	require.NoError(t, train.ReadRows(1, 1, row))
	assert.Equal(t, []float32{1, 1, 2, 3}, row)
	assert.ErrorIs(t, train.ReadRows(2, 1, row), source.ErrRange)
	assert.ErrorIs(t, train.ReadRows(0, 1, make([]int32, 4)), source.ErrDType)

	neighbors, err := file.Array("neighbors")
	require.NoError(t, err)
	defer neighbors.Close()
	assert.Equal(t, source.Int64, neighbors.DType())
	ids := make([]int64, 2)
	require.NoError(t, neighbors.ReadRows(0, 1, ids))
	assert.Equal(t, []int64{1, 0}, ids)

	_, err = file.Array("test")
	assert.ErrorIs(t, err, source.ErrNoArray)
}
