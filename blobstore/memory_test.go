package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Create(ctx, "groundtruth.ivecs")
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)

	ok, err := Exists(ctx, store, "groundtruth.ivecs")
	require.NoError(t, err)
	assert.False(t, ok, "blob must not be visible before Close")

	require.NoError(t, w.Close())

	blob, err := store.Open(ctx, "groundtruth.ivecs")
	require.NoError(t, err)
	assert.Equal(t, int64(3), blob.Size())
	got, err := io.ReadAll(blob)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	aborted, err := store.Create(ctx, "other")
	require.NoError(t, err)
	_, err = aborted.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, aborted.Abort())
	assert.Nil(t, store.Bytes("other"))

	names, err := store.List(ctx, "ground")
	require.NoError(t, err)
	assert.Equal(t, []string{"groundtruth.ivecs"}, names)

	require.NoError(t, store.Delete(ctx, "groundtruth.ivecs"))
	_, err = store.Open(ctx, "groundtruth.ivecs")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Stat(ctx, "groundtruth.ivecs")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PutCopies(t *testing.T) {
	store := NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, store.Put(context.Background(), "k", data))
	data[0] = 'z'
	assert.Equal(t, []byte("abc"), store.Bytes("k"))
}
