// Package dataset describes an exported benchmark dataset and its files.
//
// A dataset lives in a blobstore.Store and consists of
//
//	train.fvecs        n float32 vectors of dimension d
//	test.fvecs         m float32 vectors of dimension d
//	groundtruth.ivecs  m int32 vectors of k neighbor ids into train
//	manifest.json      {"d":d,"n":n,"m":m,"k":k}
//
// Container files may carry a ".zst" or ".lz4" suffix, in which case they are
// transparently decompressed. The manifest is written last and its presence
// marks the dataset as complete.
package dataset
