package s3

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client is the subset of the S3 API used by Store.
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Options configures clients created by New and NewCommitStoreFromConfig.
type Options struct {
	// Region overrides the region from the shared AWS config.
	Region string
	// Endpoint overrides the S3 endpoint (LocalStack, custom gateways).
	Endpoint string
	// UsePathStyle forces path-style addressing.
	UsePathStyle bool
	// Upload tunes multipart uploads. Zero value means DefaultUploadConfig.
	Upload UploadConfig
}

func loadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// New creates a Store using the default AWS credential chain.
func New(ctx context.Context, bucket, rootPrefix string, opts Options) (*Store, error) {
	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	store := NewStore(client, bucket, rootPrefix)
	if opts.Upload != (UploadConfig{}) {
		store.upload = opts.Upload
	}
	return store, nil
}

// NewCommitStoreFromConfig creates a CommitStore using the default AWS
// credential chain for both S3 and DynamoDB.
func NewCommitStoreFromConfig(ctx context.Context, bucket, rootPrefix, tableName string, opts Options) (*CommitStore, error) {
	store, err := New(ctx, bucket, rootPrefix, opts)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		return nil, err
	}
	baseURI := "s3://" + bucket + "/" + rootPrefix
	return NewCommitStore(store, dynamodb.NewFromConfig(cfg), tableName, baseURI), nil
}
