//go:build !unix

package bfbridge

import (
	"unsafe"

	"github.com/wippyai/bfbridge/errors"
)

// NewBuffer allocates size bytes on the Go heap. Without mmap the region is
// only suitable for backends that do not retain the pointer across cgo calls.
func NewBuffer(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, errors.InvalidBuffer("buffer size must be positive, got %d", size)
	}
	mem := make([]byte, size)
	return &Buffer{ptr: unsafe.Pointer(&mem[0]), mapped: mem, n: size}, nil
}

func unmap([]byte) error {
	return nil
}
