package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/vecload/blobstore"
)

// DefaultManifestName is the blob committed through DynamoDB.
const DefaultManifestName = "manifest.json"

// CommitStore implements blobstore.Store backed by S3 with DynamoDB
// for atomic manifest commits. Container files live in S3; the manifest
// lives in DynamoDB and is written with a conditional put, so a dataset is
// published exactly once per version even with concurrent exporters.
//
// Table schema:
//   - Partition key: base_uri (string) - the S3 prefix/path
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name vecload-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	*Store
	ddbClient    DDBClient
	tableName    string
	baseURI      string
	manifestName string
}

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// ErrConcurrentModification is returned when a concurrent write is detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// NewCommitStore creates a new S3+DynamoDB commit store.
// The baseURI should be "s3://bucket/prefix" format used as partition key.
func NewCommitStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *CommitStore {
	return &CommitStore{
		Store:        s3Store,
		ddbClient:    ddbClient,
		tableName:    tableName,
		baseURI:      baseURI,
		manifestName: DefaultManifestName,
	}
}

// Open reads the latest committed manifest from DynamoDB, everything else
// from S3.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != s.manifestName {
		return s.Store.Open(ctx, name)
	}
	version, body, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return &manifestBlob{Reader: bytes.NewReader(body), size: int64(len(body))}, nil
}

// Put commits the manifest with a conditional write, everything else goes to S3.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != s.manifestName {
		return s.Store.Put(ctx, name, data)
	}
	return s.commit(ctx, data)
}

// Create rejects streaming writes of the manifest, which must go through Put.
func (s *CommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	if name == s.manifestName {
		return nil, fmt.Errorf("s3: %s must be committed with Put", name)
	}
	return s.Store.Create(ctx, name)
}

// Stat reports the committed manifest or an S3 object.
func (s *CommitStore) Stat(ctx context.Context, name string) (blobstore.Info, error) {
	if name != s.manifestName {
		return s.Store.Stat(ctx, name)
	}
	version, body, err := s.latest(ctx)
	if err != nil {
		return blobstore.Info{}, err
	}
	if version == 0 {
		return blobstore.Info{}, blobstore.ErrNotFound
	}
	return blobstore.Info{Name: name, Size: int64(len(body))}, nil
}

// Delete removes every committed manifest version, or an S3 object.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	if name != s.manifestName {
		return s.Store.Delete(ctx, name)
	}
	items, err := s.query(ctx, 0)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"base_uri": item["base_uri"],
				"version":  item["version"],
			},
		}); err != nil {
			return fmt.Errorf("failed to delete version from DynamoDB: %w", err)
		}
	}
	return nil
}

// List lists S3 objects plus the manifest if one is committed.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	names, err := s.Store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if n != s.manifestName {
			out = append(out, n)
		}
	}
	if len(prefix) <= len(s.manifestName) && s.manifestName[:len(prefix)] == prefix {
		version, _, err := s.latest(ctx)
		if err != nil {
			return nil, err
		}
		if version > 0 {
			out = append(out, s.manifestName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *CommitStore) query(ctx context.Context, limit int32) ([]map[string]types.AttributeValue, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}
	resp, err := s.ddbClient.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	return resp.Items, nil
}

// latest returns the latest committed version and its manifest body.
// Version 0 means nothing is committed.
func (s *CommitStore) latest(ctx context.Context) (uint64, []byte, error) {
	items, err := s.query(ctx, 1)
	if err != nil {
		return 0, nil, err
	}
	if len(items) == 0 {
		return 0, nil, nil
	}

	item := items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, nil, errors.New("invalid version attribute in DynamoDB")
	}
	bodyAttr, ok := item["manifest"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, nil, errors.New("invalid manifest attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse version: %w", err)
	}

	return version, []byte(bodyAttr.Value), nil
}

// commit atomically commits a new manifest version using DynamoDB conditional write.
func (s *CommitStore) commit(ctx context.Context, manifest []byte) error {
	currentVersion, _, err := s.latest(ctx)
	if err != nil {
		return err
	}

	newVersion := currentVersion + 1

	// Conditional put: only succeed if this version doesn't exist yet
	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(newVersion, 10)},
			"manifest": &types.AttributeValueMemberS{Value: string(manifest)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})

	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}

	return nil
}

type manifestBlob struct {
	*bytes.Reader
	size int64
}

func (b *manifestBlob) Close() error {
	return nil
}

func (b *manifestBlob) Size() int64 {
	return b.size
}
