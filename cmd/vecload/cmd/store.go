package cmd

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/hupe1980/vecload/blobstore"
	"github.com/hupe1980/vecload/blobstore/minio"
	"github.com/hupe1980/vecload/blobstore/s3"
	"github.com/hupe1980/vecload/config"
)

// openStore opens the dataset at location: a directory for the local
// backend, a key prefix below the configured prefix otherwise.
func openStore(ctx context.Context, cfg config.Storage, location string) (blobstore.Store, error) {
	switch cfg.Backend {
	case config.BackendLocal, "":
		return blobstore.NewLocalStore(location), nil
	case config.BackendS3:
		prefix := path.Join(cfg.S3.Prefix, location)
		opts := s3.Options{
			Region:       cfg.S3.Region,
			Endpoint:     cfg.S3.Endpoint,
			UsePathStyle: cfg.S3.UsePathStyle,
		}
		if cfg.S3.CommitTable != "" {
			store, err := s3.NewCommitStoreFromConfig(ctx, cfg.S3.Bucket, prefix, cfg.S3.CommitTable, opts)
			if err != nil {
				return nil, err
			}
			return store, nil
		}
		store, err := s3.New(ctx, cfg.S3.Bucket, prefix, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMinIO:
		store, err := minio.Dial(minio.Config{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Secure:    cfg.MinIO.Secure,
			Region:    cfg.MinIO.Region,
		}, cfg.MinIO.Bucket, path.Join(cfg.MinIO.Prefix, location))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// datasetName derives the table prefix from a dataset location: the base
// name of the directory or key prefix.
func datasetName(backend, location string) (string, error) {
	var name string
	if backend == config.BackendLocal || backend == "" {
		abs, err := filepath.Abs(location)
		if err != nil {
			return "", err
		}
		name = filepath.Base(abs)
		if name == string(filepath.Separator) {
			return "", fmt.Errorf("cannot derive a table name from %q", location)
		}
	} else {
		name = path.Base(strings.TrimSuffix(location, "/"))
	}
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("cannot derive a table name from %q", location)
	}
	return name, nil
}
