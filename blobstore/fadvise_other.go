//go:build !linux

package blobstore

func adviseSequential(any) {}
