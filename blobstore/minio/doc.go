// Package minio provides a blobstore.Store implementation using the MinIO client.
//
// MinIO is a high-performance, S3-compatible object storage system. This package
// uses the official MinIO Go client library for compatibility with MinIO
// and other S3-compatible storage systems like Ceph, SeaweedFS, and Garage.
//
// # Basic Usage
//
//	store, err := minioblob.Dial(minioblob.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "vectors", "sift-128/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = vecload.Export(ctx, src, store)
//
// # Features
//
//   - Streaming uploads for large container files
//   - Works with any S3-compatible storage (Ceph, Garage, SeaweedFS)
//   - Air-gap friendly (no AWS dependencies required)
package minio
