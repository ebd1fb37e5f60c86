package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/vecload/blobstore"
	"github.com/hupe1980/vecload/internal/compress"
)

const writeBufferSize = 256 * 1024

// Container is an open container file.
type Container struct {
	io.Reader
	// Name is the blob name actually opened, including any compression suffix.
	Name string
	// Size is the stored (possibly compressed) size in bytes.
	Size int64

	blob   blobstore.Blob
	decomp io.ReadCloser
}

// Close releases the decompressor and the blob.
func (c *Container) Close() error {
	derr := c.decomp.Close()
	if err := c.blob.Close(); err != nil {
		return err
	}
	return derr
}

// OpenContainer opens base, probing for compressed variants in the order
// plain, zstd, lz4.
func OpenContainer(ctx context.Context, s blobstore.Store, base string) (*Container, error) {
	for _, typ := range compress.All() {
		name := base + typ.Suffix()
		blob, err := s.Open(ctx, name)
		if errors.Is(err, blobstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: open %s: %w", name, err)
		}
		decomp, err := compress.NewReader(blob, typ)
		if err != nil {
			_ = blob.Close()
			return nil, fmt.Errorf("dataset: open %s: %w", name, err)
		}
		return &Container{Reader: decomp, Name: name, Size: blob.Size(), blob: blob, decomp: decomp}, nil
	}
	return nil, fmt.Errorf("dataset: open %s: %w", base, blobstore.ErrNotFound)
}

// ContainerWriter writes a container file. Nothing is visible under its name
// until Close succeeds.
type ContainerWriter struct {
	*bufio.Writer
	Name string

	blob blobstore.WritableBlob
	comp io.WriteCloser
}

// CreateContainer creates base with the compression suffix for typ.
func CreateContainer(ctx context.Context, s blobstore.Store, base string, typ compress.Type) (*ContainerWriter, error) {
	name := base + typ.Suffix()
	blob, err := s.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("dataset: create %s: %w", name, err)
	}
	comp, err := compress.NewWriter(blob, typ)
	if err != nil {
		_ = blob.Abort()
		return nil, fmt.Errorf("dataset: create %s: %w", name, err)
	}
	return &ContainerWriter{
		Writer: bufio.NewWriterSize(comp, writeBufferSize),
		Name:   name,
		blob:   blob,
		comp:   comp,
	}, nil
}

// Close flushes, finishes the compression frame and publishes the blob.
// On failure the blob is aborted.
func (w *ContainerWriter) Close() error {
	if err := w.Writer.Flush(); err != nil {
		_ = w.blob.Abort()
		return fmt.Errorf("dataset: write %s: %w", w.Name, err)
	}
	if err := w.comp.Close(); err != nil {
		_ = w.blob.Abort()
		return fmt.Errorf("dataset: write %s: %w", w.Name, err)
	}
	if err := w.blob.Close(); err != nil {
		return fmt.Errorf("dataset: publish %s: %w", w.Name, err)
	}
	return nil
}

// Abort discards the file.
func (w *ContainerWriter) Abort() error {
	_ = w.comp.Close()
	return w.blob.Abort()
}

// Exists reports whether s holds a completed dataset.
func Exists(ctx context.Context, s blobstore.Store) (bool, error) {
	return blobstore.Exists(ctx, s, ManifestName)
}

// Remove deletes a dataset. The manifest goes first so a partially removed
// dataset is never mistaken for a complete one.
func Remove(ctx context.Context, s blobstore.Store) error {
	if err := s.Delete(ctx, ManifestName); err != nil {
		return fmt.Errorf("dataset: remove %s: %w", ManifestName, err)
	}
	for _, base := range []string{TrainName, TestName, GroundTruthName} {
		for _, typ := range compress.All() {
			name := base + typ.Suffix()
			if err := s.Delete(ctx, name); err != nil {
				return fmt.Errorf("dataset: remove %s: %w", name, err)
			}
		}
	}
	return nil
}
