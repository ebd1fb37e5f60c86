//go:build linux

package blobstore

import "golang.org/x/sys/unix"

// adviseSequential hints the kernel that the file is read front to back.
func adviseSequential(f any) {
	if fd, ok := f.(interface{ Fd() uintptr }); ok {
		_ = unix.Fadvise(int(fd.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	}
}
