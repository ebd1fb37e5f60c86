package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hupe1980/vecload/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		notFound bool
	}{
		{"NoSuchKey", minio.ErrorResponse{Code: "NoSuchKey"}, true},
		{"NotFound", minio.ErrorResponse{Code: "NotFound"}, true},
		{"AccessDenied", minio.ErrorResponse{Code: "AccessDenied"}, false},
		{"plain", errors.New("network down"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, errors.Is(mapNotFound(tt.err), blobstore.ErrNotFound))
		})
	}
}

func TestStore_Keys(t *testing.T) {
	s := NewStore(nil, "bucket", "datasets/sift/")
	assert.Equal(t, "datasets/sift/train.fvecs", s.key("train.fvecs"))
	assert.Equal(t, "train.fvecs", s.relative("datasets/sift/train.fvecs"))

	bare := NewStore(nil, "bucket", "")
	assert.Equal(t, "manifest.json", bare.key("manifest.json"))
	assert.Equal(t, "manifest.json", bare.relative("manifest.json"))
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	store, err := Dial(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}, "test-vecload", "test-prefix/")
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := store.client.BucketExists(ctx, store.bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, store.client.MakeBucket(ctx, store.bucket, minio.MakeBucketOptions{}))
	}

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "manifest.json", data))

	blob, err := store.Open(ctx, "manifest.json")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())
	got, err := io.ReadAll(blob)
	require.NoError(t, err)
	require.Equal(t, data, got)
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "manifest.json")

	require.NoError(t, store.Delete(ctx, "manifest.json"))
	_, err = store.Open(ctx, "manifest.json")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	wb, err := store.Create(ctx, "train.fvecs")
	require.NoError(t, err)
	_, err = wb.Write(bytes.Repeat([]byte{1}, 13))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	info, err := store.Stat(ctx, "train.fvecs")
	require.NoError(t, err)
	assert.Equal(t, int64(13), info.Size)

	_ = store.Delete(ctx, "train.fvecs")
}
