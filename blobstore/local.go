package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/vecload/internal/fs"
)

const tempMarker = ".tmp-"

// LocalStore implements Store using the local file system.
type LocalStore struct {
	root string
	fs   fs.FileSystem
}

// LocalOption configures a LocalStore.
type LocalOption func(*LocalStore)

// WithFileSystem replaces the file system, e.g. with fs.FaultyFS in tests.
func WithFileSystem(fsys fs.FileSystem) LocalOption {
	return func(s *LocalStore) {
		s.fs = fsys
	}
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string, opts ...LocalOption) *LocalStore {
	s := &LocalStore{root: root, fs: fs.Default}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the directory the store is rooted at.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (Blob, error) {
	f, err := s.fs.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	adviseSequential(f)
	return &localBlob{File: f, size: info.Size()}, nil
}

// Create creates a temp file next to the target and renames it on Close.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	target := s.path(name)
	dir := filepath.Dir(target)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := s.fs.CreateTemp(dir, filepath.Base(target)+tempMarker+"*")
	if err != nil {
		return nil, err
	}
	return &localWritableBlob{fs: s.fs, f: f, target: target}, nil
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Abort()
		return err
	}
	return w.Close()
}

// Stat returns blob metadata.
func (s *LocalStore) Stat(_ context.Context, name string) (Info, error) {
	info, err := s.fs.Stat(s.path(name))
	if err != nil {
		return Info{}, err
	}
	if info.IsDir() {
		return Info{}, &os.PathError{Op: "stat", Path: s.path(name), Err: ErrNotFound}
	}
	return Info{Name: name, Size: info.Size()}, nil
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := s.fs.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// List returns all blobs matching the prefix. In-flight temp files are skipped.
func (s *LocalStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	if err := s.walk("", prefix, &names); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *LocalStore) walk(rel, prefix string, names *[]string) error {
	entries, err := s.fs.ReadDir(s.path(rel))
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := path.Join(rel, e.Name())
		if e.IsDir() {
			if err := s.walk(name, prefix, names); err != nil {
				return err
			}
			continue
		}
		if strings.Contains(e.Name(), tempMarker) {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			*names = append(*names, name)
		}
	}
	return nil
}

type localBlob struct {
	fs.File
	size int64
}

func (b *localBlob) Size() int64 {
	return b.size
}

type localWritableBlob struct {
	fs     fs.FileSystem
	f      fs.File
	target string
	done   atomic.Bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.done.Load() {
		return 0, ErrClosed
	}
	return w.f.Write(p)
}

// Close syncs, closes and renames the temp file into place.
func (w *localWritableBlob) Close() error {
	if !w.done.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = w.fs.Remove(w.f.Name())
		return err
	}
	if err := w.f.Close(); err != nil {
		_ = w.fs.Remove(w.f.Name())
		return err
	}
	if err := w.fs.Rename(w.f.Name(), w.target); err != nil {
		_ = w.fs.Remove(w.f.Name())
		return err
	}
	return nil
}

func (w *localWritableBlob) Abort() error {
	if !w.done.CompareAndSwap(false, true) {
		return nil
	}
	_ = w.f.Close()
	return w.fs.Remove(w.f.Name())
}

var _ io.ReadCloser = (*localBlob)(nil)
