package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/vecload/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store implements blobstore.Store for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// Config describes a MinIO endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Region    string
}

// Dial creates a MinIO client from static credentials and wraps it in a Store.
func Dial(cfg Config, bucket, rootPrefix string) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return NewStore(client, bucket, rootPrefix), nil
}

// NewStore creates a new MinIO blob store.
// bucket is the MinIO bucket name.
// rootPrefix is prepended to all keys (e.g. "datasets/sift/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open opens an existing blob for reading.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	// GetObject is lazy; stat first so a missing key fails here.
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, mapNotFound(err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapNotFound(err)
	}

	return &minioBlob{ReadCloser: obj, size: info.Size}, nil
}

// Put writes a blob atomically.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// Create creates a new blob for streaming writes.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	key := s.key(name)
	pr, pw := io.Pipe()

	blob := &minioWritableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	// Start upload in background
	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

// Stat returns blob metadata.
func (s *Store) Stat(ctx context.Context, name string) (blobstore.Info, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.key(name), minio.StatObjectOptions{})
	if err != nil {
		return blobstore.Info{}, mapNotFound(err)
	}
	return blobstore.Info{Name: name, Size: info.Size}, nil
}

// Delete removes a blob.
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		if errors.Is(mapNotFound(err), blobstore.ErrNotFound) {
			return nil // Already gone
		}
		return err
	}
	return nil
}

// List returns all blob names with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	if strings.HasSuffix(prefix, "/") {
		fullPrefix += "/"
	}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    fullPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := s.relative(obj.Key); name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

// relative strips the root prefix from a key.
func (s *Store) relative(key string) string {
	name := strings.TrimPrefix(key, s.prefix)
	return strings.TrimPrefix(name, "/")
}

func mapNotFound(err error) error {
	errResp := minio.ToErrorResponse(err)
	if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
		return blobstore.ErrNotFound
	}
	return err
}

// minioBlob implements blobstore.Blob for MinIO.
type minioBlob struct {
	io.ReadCloser
	size int64
}

func (b *minioBlob) Size() int64 {
	return b.size
}

// minioWritableBlob implements blobstore.WritableBlob for MinIO.
type minioWritableBlob struct {
	pw   *io.PipeWriter
	done chan error

	mu       sync.Mutex
	finished bool
}

func (b *minioWritableBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	finished := b.finished
	b.mu.Unlock()
	if finished {
		return 0, blobstore.ErrClosed
	}
	return b.pw.Write(p)
}

func (b *minioWritableBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return blobstore.ErrClosed
	}
	b.finished = true
	_ = b.pw.Close()
	return <-b.done
}

// Abort makes PutObject fail, so no object is created.
func (b *minioWritableBlob) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return nil
	}
	b.finished = true
	_ = b.pw.CloseWithError(errors.New("upload aborted"))
	<-b.done
	return nil
}
