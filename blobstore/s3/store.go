package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/hupe1980/vecload/blobstore"
)

// UploadConfig configures the S3 uploader.
type UploadConfig struct {
	// PartSize is the minimum part size for multipart uploads.
	PartSize int64
	// Concurrency is the number of concurrent part uploads.
	Concurrency int
	// EnableChecksum enables CRC32C integrity validation.
	EnableChecksum bool
}

// DefaultUploadConfig returns production-optimized upload settings.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		PartSize:       8 * 1024 * 1024, // 8MB - container files are large and sequential
		Concurrency:    5,
		EnableChecksum: true,
	}
}

// Store implements blobstore.Store for S3.
type Store struct {
	client Client
	bucket string
	prefix string
	upload UploadConfig
}

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "datasets/sift/").
func NewStore(client Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		upload: DefaultUploadConfig(),
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open streams an object. The body is read sequentially.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &s3Blob{ReadCloser: resp.Body, size: aws.ToInt64(resp.ContentLength)}, nil
}

// Create starts a streaming upload. The object is created when Close
// completes the upload.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	pr, pw := io.Pipe()
	uploader := manager.NewUploader(s.client, func(u *manager.Uploader) {
		u.PartSize = s.upload.PartSize
		u.Concurrency = s.upload.Concurrency
		u.LeavePartsOnError = false
	})

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   pr,
	}
	if s.upload.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}

	blob := &s3WritableBlob{
		pw:   pw,
		done: make(chan error, 1),
	}

	go func() {
		_, err := uploader.Upload(ctx, input)
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

// Put writes a small object in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

// Stat returns object metadata.
func (s *Store) Stat(ctx context.Context, name string) (blobstore.Info, error) {
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return blobstore.Info{}, mapNotFound(err)
	}
	return blobstore.Info{Name: name, Size: aws.ToInt64(head.ContentLength)}, nil
}

// Delete removes an object. S3 deletes are idempotent.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns all object names with the given prefix, relative to the root.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	if strings.HasSuffix(prefix, "/") {
		fullPrefix += "/"
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			relPath := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
			relPath = strings.TrimPrefix(relPath, "/")
			if relPath != "" {
				keys = append(keys, relPath)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func mapNotFound(err error) error {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return blobstore.ErrNotFound
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return blobstore.ErrNotFound
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
		return blobstore.ErrNotFound
	}
	return err
}

type s3Blob struct {
	io.ReadCloser
	size int64
}

func (b *s3Blob) Size() int64 {
	return b.size
}

// s3WritableBlob feeds an in-flight upload through a pipe.
type s3WritableBlob struct {
	pw   *io.PipeWriter
	done chan error

	mu       sync.Mutex
	finished bool
	closeErr error
}

func (b *s3WritableBlob) Write(p []byte) (int, error) {
	b.mu.Lock()
	finished := b.finished
	b.mu.Unlock()
	if finished {
		return 0, blobstore.ErrClosed
	}
	return b.pw.Write(p)
}

func (b *s3WritableBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished {
		return blobstore.ErrClosed
	}
	b.finished = true

	// Close the write end to signal EOF to the uploader
	_ = b.pw.Close()
	b.closeErr = <-b.done
	return b.closeErr
}

// Abort fails the upload; the uploader aborts any multipart upload it started.
func (b *s3WritableBlob) Abort() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.finished {
		return nil
	}
	b.finished = true

	_ = b.pw.CloseWithError(errUploadAborted)
	// The upload fails with errUploadAborted; nothing was published.
	<-b.done
	return nil
}

var errUploadAborted = errors.New("s3: upload aborted")
