package fs

import (
	"io"
	"os"
)

// File is an open file. Writable files come from CreateTemp and are renamed
// into place once complete.
type File interface {
	io.ReadWriteCloser
	Name() string
	Sync() error
	Stat() (os.FileInfo, error)
}

// FileSystem is the set of operations a local dataset store performs.
type FileSystem interface {
	Open(name string) (File, error)
	CreateTemp(dir, pattern string) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
}

// LocalFS is the os-backed FileSystem.
type LocalFS struct{}

func (LocalFS) Open(name string) (File, error) { return os.Open(name) }

func (LocalFS) CreateTemp(dir, pattern string) (File, error) { return os.CreateTemp(dir, pattern) }

func (LocalFS) Remove(name string) error { return os.Remove(name) }

func (LocalFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (LocalFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (LocalFS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (LocalFS) ReadDir(name string) ([]os.DirEntry, error) { return os.ReadDir(name) }

// Default is the file system used by blobstore.LocalStore unless replaced.
var Default FileSystem = LocalFS{}
