// Package vecload prepares ANN benchmark datasets and bulk-loads them into
// PostgreSQL vector tables.
//
// A dataset is a directory (or object-store prefix) holding three container
// files of length-prefixed records and a manifest:
//
//	train.fvecs         n float32 vectors of dimension d
//	test.fvecs          m float32 query vectors of dimension d
//	groundtruth.ivecs   m int32 rows of k nearest train ids
//	manifest.json       {"d": d, "n": n, "m": m, "k": k}
//
// Container files may carry a .zst or .lz4 suffix and are then decompressed
// transparently. The manifest is written last, so a dataset is complete
// exactly when its manifest exists.
//
// # Export
//
// Export converts a source.File (for example an HDF5 file opened with
// source/hdf5) into a dataset:
//
//	f, _ := hdf5.Open("sift-128-euclidean.hdf5")
//	store, _ := blobstore.NewLocalStore("./sift")
//	m, err := vecload.Export(ctx, f, store, vecload.WithBlockSize(4096))
//
// # Load
//
// Load reads a dataset and creates {name}_train and {name}_test, streaming
// rows with the binary COPY protocol. Both tables load concurrently on their
// own connections:
//
//	results, err := vecload.Load(ctx, store, postgres.PgxDialer{},
//	    vecload.WithName("sift"), vecload.WithForce(true))
//
// Every load is checked against the manifest: a short or long container file
// fails with pipeline.ErrUnexpectedCount, a vector of the wrong width with
// pipeline.ErrUnexpectedDimension.
//
// # Storage
//
// Datasets live in any blobstore.Store: local directories, memory, S3 (with
// an optional DynamoDB-backed manifest commit) and MinIO.
package vecload
