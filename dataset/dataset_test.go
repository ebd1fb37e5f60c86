package dataset

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/vecload/blobstore"
	"github.com/hupe1980/vecload/internal/compress"
	"github.com/hupe1980/vecload/pipeline"
	"github.com/hupe1980/vecload/resource"
	"github.com/hupe1980/vecload/vecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	m := Manifest{D: 4, N: 2, M: 1, K: 2}

	require.NoError(t, SaveManifest(ctx, store, m))
	assert.JSONEq(t, `{"d":4,"n":2,"m":1,"k":2}`, string(store.Bytes(ManifestName)))

	got, err := LoadManifest(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestDecodeManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing field", `{"d":4,"n":2,"m":1}`},
		{"extra field", `{"d":4,"n":2,"m":1,"k":2,"x":0}`},
		{"negative", `{"d":4,"n":-2,"m":1,"k":2}`},
		{"float", `{"d":4.5,"n":2,"m":1,"k":2}`},
		{"string", `{"d":"4","n":2,"m":1,"k":2}`},
		{"not an object", `[4,2,1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeManifest([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestDecodeManifest_WideVectors(t *testing.T) {
	m, err := DecodeManifest([]byte(`{"d":70000,"n":2,"m":1,"k":2}`))
	require.NoError(t, err)
	assert.Equal(t, Manifest{D: 70000, N: 2, M: 1, K: 2}, m)
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(context.Background(), blobstore.NewMemoryStore())
	assert.ErrorIs(t, err, ErrNoManifest)
}

type fixture struct {
	train [][]float32
	test  [][]float32
	truth [][]int32
}

func smallFixture() fixture {
	return fixture{
		train: [][]float32{{0, 1, 2, 3}, {1, 1, 2, 3}},
		test:  [][]float32{{0.5, 1, 2, 3}},
		truth: [][]int32{{1, 0}},
	}
}

func writeContainer[T vecs.Scalar](t *testing.T, s blobstore.Store, base string, typ compress.Type, recs [][]T) {
	t.Helper()
	w, err := CreateContainer(context.Background(), s, base, typ)
	require.NoError(t, err)
	vw := vecs.NewWriter[T](w)
	for _, r := range recs {
		require.NoError(t, vw.Write(r))
	}
	require.NoError(t, w.Close())
}

func writeFixture(t *testing.T, s blobstore.Store, typ compress.Type, f fixture, m Manifest) {
	t.Helper()
	writeContainer(t, s, TrainName, typ, f.train)
	writeContainer(t, s, TestName, typ, f.test)
	writeContainer(t, s, GroundTruthName, typ, f.truth)
	require.NoError(t, SaveManifest(context.Background(), s, m))
}

func TestVerify(t *testing.T) {
	for _, typ := range compress.All() {
		t.Run(typ.String(), func(t *testing.T) {
			store := blobstore.NewLocalStore(t.TempDir())
			writeFixture(t, store, typ, smallFixture(), Manifest{D: 4, N: 2, M: 1, K: 2})

			report, err := Verify(context.Background(), store)
			require.NoError(t, err)
			assert.Equal(t, uint64(2), report.DistinctNeighbors)
			assert.Contains(t, report.Files, TrainName+typ.Suffix())
			if typ == compress.None {
				// 2 records of 4 + 4*4 bytes
				assert.Equal(t, int64(40), report.Files[TrainName])
			}
		})
	}
}

func TestVerify_RateLimited(t *testing.T) {
	store := blobstore.NewMemoryStore()
	writeFixture(t, store, compress.None, smallFixture(), Manifest{D: 4, N: 2, M: 1, K: 2})

	t.Run("within limit", func(t *testing.T) {
		rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
		report, err := Verify(context.Background(), store, WithController(rc))
		require.NoError(t, err)
		assert.Equal(t, uint64(2), report.DistinctNeighbors)
	})

	t.Run("throttled past deadline", func(t *testing.T) {
		// 40 bytes of train data at 16 bytes/s cannot finish in time.
		rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 16})
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err := Verify(ctx, store, WithController(rc))
		assert.Error(t, err)
	})
}

func TestVerify_Failures(t *testing.T) {
	t.Run("count", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		writeFixture(t, store, compress.None, smallFixture(), Manifest{D: 4, N: 3, M: 1, K: 2})
		_, err := Verify(context.Background(), store)
		assert.ErrorIs(t, err, pipeline.ErrUnexpectedCount)
	})

	t.Run("dimension", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		writeFixture(t, store, compress.None, smallFixture(), Manifest{D: 4, N: 2, M: 1, K: 3})
		_, err := Verify(context.Background(), store)
		assert.ErrorIs(t, err, pipeline.ErrUnexpectedDimension)
	})

	t.Run("neighbor out of range", func(t *testing.T) {
		f := smallFixture()
		f.truth = [][]int32{{1, 2}}
		store := blobstore.NewMemoryStore()
		writeFixture(t, store, compress.None, f, Manifest{D: 4, N: 2, M: 1, K: 2})
		_, err := Verify(context.Background(), store)
		require.ErrorIs(t, err, ErrNeighborOutOfRange)
		var ne *NeighborError
		require.ErrorAs(t, err, &ne)
		assert.Equal(t, NeighborError{Row: 0, Column: 1, ID: 2, N: 2}, *ne)
	})

	t.Run("missing file", func(t *testing.T) {
		store := blobstore.NewMemoryStore()
		require.NoError(t, SaveManifest(context.Background(), store, Manifest{D: 4}))
		_, err := Verify(context.Background(), store)
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	writeFixture(t, store, compress.ZSTD, smallFixture(), Manifest{D: 4, N: 2, M: 1, K: 2})
	require.NoError(t, store.Put(ctx, "unrelated.txt", []byte("keep")))

	ok, err := Exists(ctx, store)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, Remove(ctx, store))

	ok, err = Exists(ctx, store)
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"unrelated.txt"}, names)
}

func TestContainerWriter_Abort(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	w, err := CreateContainer(ctx, store, TrainName, compress.LZ4)
	require.NoError(t, err)
	assert.Equal(t, "train.fvecs.lz4", w.Name)
	_, err = w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	_, err = OpenContainer(ctx, store, TrainName)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
