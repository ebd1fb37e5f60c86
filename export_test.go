package vecload

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hupe1980/vecload/blobstore"
	"github.com/hupe1980/vecload/dataset"
	"github.com/hupe1980/vecload/resource"
	"github.com/hupe1980/vecload/source"
	"github.com/hupe1980/vecload/vecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustArray(t *testing.T, rows, cols int, data any) *source.MemoryArray {
	t.Helper()
	a, err := source.NewMemoryArray(rows, cols, data)
	require.NoError(t, err)
	return a
}

// smallSource is the d=4, n=2, m=1, k=2 dataset.
func smallSource(t *testing.T) source.MemoryFile {
	return source.MemoryFile{
		TrainArray:     mustArray(t, 2, 4, []float32{1, 2, 3, 4, 5, 6, 7, 8}),
		TestArray:      mustArray(t, 1, 4, []float32{1, 1, 1, 1}),
		NeighborsArray: mustArray(t, 1, 2, []int32{1, 0}),
	}
}

func readAll[T vecs.Scalar](t *testing.T, store blobstore.Store, base string) [][]T {
	t.Helper()
	c, err := dataset.OpenContainer(context.Background(), store, base)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	r := vecs.NewReader[T](c)
	var out [][]T
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, append([]T(nil), rec...))
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	train := make([]float32, 7*3)
	for i := range train {
		train[i] = float32(i)
	}
	src := source.MemoryFile{
		TrainArray:     mustArray(t, 7, 3, train),
		TestArray:      mustArray(t, 2, 3, []float32{9, 8, 7, 6, 5, 4}),
		NeighborsArray: mustArray(t, 2, 2, []uint64{6, 0, 3, 2}),
	}

	tests := []struct {
		name      string
		blockSize int
		comp      Compression
	}{
		{"row by row", 0, CompressionNone},
		{"blocks with remainder", 3, CompressionNone},
		{"block larger than rows", 100, CompressionNone},
		{"zstd", 2, CompressionZSTD},
		{"lz4", 7, CompressionLZ4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			metrics := &BasicMetricsCollector{}

			m, err := Export(ctx, src, store,
				WithBlockSize(tt.blockSize),
				WithCompression(tt.comp),
				WithMetricsCollector(metrics))
			require.NoError(t, err)
			assert.Equal(t, dataset.Manifest{D: 3, N: 7, M: 2, K: 2}, m)

			loaded, err := dataset.LoadManifest(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, m, loaded)

			got := readAll[float32](t, store, dataset.TrainName)
			require.Len(t, got, 7)
			for i, rec := range got {
				assert.Equal(t, train[i*3:(i+1)*3], rec)
			}
			assert.Equal(t, [][]float32{{9, 8, 7}, {6, 5, 4}}, readAll[float32](t, store, dataset.TestName))
			assert.Equal(t, [][]int32{{6, 0}, {3, 2}}, readAll[int32](t, store, dataset.GroundTruthName))

			_, err = store.Stat(ctx, dataset.TrainName+tt.comp.Suffix())
			require.NoError(t, err)

			report, err := dataset.Verify(ctx, store)
			require.NoError(t, err)
			assert.Equal(t, uint64(4), report.DistinctNeighbors)

			stats := metrics.GetStats()
			assert.Equal(t, int64(1), stats.ExportCount)
			assert.Zero(t, stats.ExportErrors)
			assert.Equal(t, int64(7+2+2), stats.ExportRows)
		})
	}
}

func TestExport_NeighborTypes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		data any
	}{
		{"int32", []int32{1, 0}},
		{"uint32", []uint32{1, 0}},
		{"int64", []int64{1, 0}},
		{"uint64", []uint64{1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := smallSource(t)
			src[NeighborsArray] = mustArray(t, 1, 2, tt.data)

			store := blobstore.NewMemoryStore()
			_, err := Export(ctx, src, store)
			require.NoError(t, err)
			assert.Equal(t, [][]int32{{1, 0}}, readAll[int32](t, store, dataset.GroundTruthName))
		})
	}
}

func TestExport_NeighborOverflow(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		data any
	}{
		{"uint32", []uint32{1, 1 << 31}},
		{"int64", []int64{1, -1 << 40}},
		{"uint64", []uint64{1 << 33, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := smallSource(t)
			src[NeighborsArray] = mustArray(t, 1, 2, tt.data)

			store := blobstore.NewMemoryStore()
			_, err := Export(ctx, src, store)

			var overflow *ErrNeighborOverflow
			require.ErrorAs(t, err, &overflow)
			assert.Equal(t, 0, overflow.Row)

			exists, err := dataset.Exists(ctx, store)
			require.NoError(t, err)
			assert.False(t, exists, "a failed export must not publish a manifest")
		})
	}
}

func TestExport_ShapeChecks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(t *testing.T, f source.MemoryFile)
		target error
	}{
		{
			name: "missing neighbors",
			mutate: func(_ *testing.T, f source.MemoryFile) {
				delete(f, NeighborsArray)
			},
			target: source.ErrNoArray,
		},
		{
			name: "train not 2-D",
			mutate: func(_ *testing.T, f source.MemoryFile) {
				f[TrainArray] = source.NewMemoryArrayShape([]int{2, 2, 2}, make([]float32, 8))
			},
			target: source.ErrShape,
		},
		{
			name: "train not float32",
			mutate: func(t *testing.T, f source.MemoryFile) {
				f[TrainArray] = mustArray(t, 2, 4, make([]int32, 8))
			},
			target: source.ErrDType,
		},
		{
			name: "test width differs",
			mutate: func(t *testing.T, f source.MemoryFile) {
				f[TestArray] = mustArray(t, 1, 3, []float32{1, 1, 1})
			},
			target: source.ErrShape,
		},
		{
			name: "neighbors rows differ",
			mutate: func(t *testing.T, f source.MemoryFile) {
				f[NeighborsArray] = mustArray(t, 2, 2, []int32{1, 0, 0, 1})
			},
			target: source.ErrShape,
		},
		{
			name: "neighbors float",
			mutate: func(t *testing.T, f source.MemoryFile) {
				f[NeighborsArray] = mustArray(t, 1, 2, []float32{1, 0})
			},
			target: source.ErrDType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := smallSource(t)
			tt.mutate(t, src)

			store := blobstore.NewMemoryStore()
			_, err := Export(ctx, src, store)
			require.ErrorIs(t, err, tt.target)

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, names, "nothing is written before the shapes are checked")
		})
	}
}

func TestExport_Existing(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	_, err := Export(ctx, smallSource(t), store, WithCompression(CompressionZSTD))
	require.NoError(t, err)

	_, err = Export(ctx, smallSource(t), store)
	require.ErrorIs(t, err, ErrDatasetExists)

	_, err = Export(ctx, smallSource(t), store, WithForce(true))
	require.NoError(t, err)

	// The forced export replaced the compressed files with plain ones.
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		dataset.ManifestName, dataset.TrainName, dataset.TestName, dataset.GroundTruthName,
	}, names)
}

func TestExport_InvalidBlockSize(t *testing.T) {
	_, err := Export(context.Background(), smallSource(t), blobstore.NewMemoryStore(), WithBlockSize(-1))
	require.ErrorIs(t, err, ErrInvalidBlockSize)
}

func TestExport_MemoryAccounting(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 16})

	train := make([]float32, 10*4)
	src := smallSource(t)
	src[TrainArray] = mustArray(t, 10, 4, train)

	_, err := Export(ctx, src, blobstore.NewMemoryStore(), WithBlockSize(8), WithResourceController(rc))
	require.NoError(t, err)
	assert.Zero(t, rc.MemoryUsage())
}

func TestExport_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := blobstore.NewMemoryStore()
	_, err := Export(ctx, smallSource(t), store)
	require.ErrorIs(t, err, context.Canceled)

	exists, err := dataset.Exists(context.Background(), store)
	require.NoError(t, err)
	assert.False(t, exists)
}
