// Package fs is the file system seam under blobstore.LocalStore.
//
// [LocalFS] forwards to package os. [FaultyFS] wraps another FileSystem and
// fails reads, writes or syncs of matching files after a byte budget, which
// lets tests exercise partially written containers and failed publishes:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("train.fvecs", fs.Fault{FailAfterBytes: -1, FailAfterReadBytes: 1024})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// Operations take no context; cancellation is handled a level up, by the
// readers and writers that stream through these files.
package fs
