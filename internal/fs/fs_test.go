package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, lfs.MkdirAll(dir, 0755))

	f, err := lfs.CreateTemp(dir, "test.txt.tmp-*")
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	require.NoError(t, f.Close())

	final := filepath.Join(dir, "test.txt")
	require.NoError(t, lfs.Rename(f.Name(), final))

	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test.txt", entries[0].Name())

	r, err := lfs.Open(final)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	require.NoError(t, r.Close())

	require.NoError(t, lfs.Remove(final))
	_, err = lfs.Stat(final)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS_Write(t *testing.T) {
	tmp := t.TempDir()
	boom := errors.New("disk full")
	ffs := NewFaultyFS(nil)
	ffs.AddRule("data", Fault{FailAfterBytes: 4, FailAfterReadBytes: -1, Err: boom})

	f, err := ffs.CreateTemp(tmp, "data-*")
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("1234"))
	require.NoError(t, err)
	_, err = f.Write([]byte("5"))
	assert.ErrorIs(t, err, boom)

	other, err := ffs.CreateTemp(tmp, "other-*")
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Write([]byte("no limit here"))
	assert.NoError(t, err)
}

func TestFaultyFS_Read(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "in.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	ffs := NewFaultyFS(nil)
	ffs.AddRule("in.bin", Fault{FailAfterBytes: -1, FailAfterReadBytes: 6})

	f, err := ffs.Open(path)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 4)
	n, err := io.ReadFull(f, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = f.Read(buf)
	assert.EqualError(t, err, "injected fault error")
}

func TestFaultyFS_SyncAndClose(t *testing.T) {
	ffs := NewFaultyFS(nil)
	ffs.AddRule("x", Fault{FailAfterBytes: -1, FailAfterReadBytes: -1, FailOnSync: true, FailOnClose: true})

	f, err := ffs.CreateTemp(t.TempDir(), "x-*")
	require.NoError(t, err)
	assert.Error(t, f.Sync())
	assert.Error(t, f.Close())
}
