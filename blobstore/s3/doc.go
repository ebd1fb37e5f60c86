// Package s3 provides Amazon S3 implementations of the blobstore.Store interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", "datasets/sift-128/", s3.Options{
//	    Region: "us-east-1",
//	})
//
//	err = vecload.Export(ctx, src, store)
//
// # Features
//
//   - Streaming multipart uploads for large container files
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
//   - CommitStore: DynamoDB conditional writes make the manifest the single
//     publication point even with concurrent exporters
package s3
