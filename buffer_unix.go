//go:build unix

package bfbridge

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/wippyai/bfbridge/errors"
)

// NewBuffer maps size bytes of anonymous memory outside the Go heap, so the
// region can be handed to native code and kept there.
func NewBuffer(size int) (*Buffer, error) {
	if size <= 0 {
		return nil, errors.InvalidBuffer("buffer size must be positive, got %d", size)
	}
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.New(errors.PhaseInstance, errors.KindOutOfMemory).
			Detail("map %d byte communication buffer", size).
			Cause(err).
			Build()
	}
	return &Buffer{ptr: unsafe.Pointer(&mem[0]), mapped: mem, n: size}, nil
}

func unmap(mem []byte) error {
	return unix.Munmap(mem)
}
