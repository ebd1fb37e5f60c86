package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/vecload/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	blobName := "train.fvecs"
	data := []byte("hello world, this is a test blob")

	w, err := store.Create(ctx, blobName)
	require.NoError(t, err)

	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	// Not visible before Close.
	_, err = os.Stat(filepath.Join(tmpDir, blobName))
	require.True(t, os.IsNotExist(err))
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ErrClosed)

	info, err := store.Stat(ctx, blobName)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)

	blob, err := store.Open(ctx, blobName)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), blob.Size())
	got, err := io.ReadAll(blob)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	require.NoError(t, blob.Close())

	require.NoError(t, store.Delete(ctx, blobName))
	require.NoError(t, store.Delete(ctx, blobName))

	_, err = store.Open(ctx, blobName)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Stat(ctx, blobName)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_Abort(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)
	ctx := context.Background()

	w, err := store.Create(ctx, "test.fvecs")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	_, err = w.Write([]byte("more"))
	assert.ErrorIs(t, err, ErrClosed)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_ListAndPut(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "not-yet-created"))
	ctx := context.Background()

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Put(ctx, "manifest.json", []byte(`{}`)))
	require.NoError(t, store.Put(ctx, "b/test.fvecs", []byte("x")))
	require.NoError(t, store.Put(ctx, "a.ivecs", []byte("y")))

	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ivecs", "b/test.fvecs", "manifest.json"}, names)

	names, err = store.List(ctx, "b/")
	require.NoError(t, err)
	assert.Equal(t, []string{"b/test.fvecs"}, names)

	require.NoError(t, store.Delete(ctx, "b/test.fvecs"))
	names, err = store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ivecs", "manifest.json"}, names)
}

func TestLocalStore_WriteFailure(t *testing.T) {
	tmpDir := t.TempDir()
	boom := errors.New("disk full")
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("train.fvecs", fs.Fault{FailAfterBytes: 8, FailAfterReadBytes: -1, Err: boom})

	store := NewLocalStore(tmpDir, WithFileSystem(ffs))
	ctx := context.Background()

	w, err := store.Create(ctx, "train.fvecs")
	require.NoError(t, err)
	_, err = w.Write(make([]byte, 16))
	require.ErrorIs(t, err, boom)
	require.NoError(t, w.Abort())

	ok, err := Exists(ctx, store, "train.fvecs")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStore_SyncFailure(t *testing.T) {
	tmpDir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("manifest.json", fs.Fault{FailAfterBytes: -1, FailAfterReadBytes: -1, FailOnSync: true})

	store := NewLocalStore(tmpDir, WithFileSystem(ffs))
	err := store.Put(context.Background(), "manifest.json", []byte(`{"d":1}`))
	require.Error(t, err)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file must be cleaned up")
}

func TestReadAll(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx := context.Background()

	payload := make([]byte, 100_000)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, store.Put(ctx, "big", payload))

	got, err := ReadAll(ctx, store, "big")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = ReadAll(ctx, store, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = ReadAll(canceled, store, "big")
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, store.Put(ctx, "empty", nil))
	got, err = ReadAll(ctx, store, "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}
