package bfbridge

import (
	"unsafe"

	"github.com/wippyai/bfbridge/errors"
)

// DefaultBufferSize fits a 2048x2048 tile with 4 channels of 16-bit samples.
const DefaultBufferSize = 33554432

// Buffer is a borrowed view over the memory region shared with the managed
// side. The memory belongs to whoever created it: buffers from NewBuffer are
// released with Free, wrapped memory stays with its owner.
type Buffer struct {
	ptr    unsafe.Pointer
	mapped []byte
	n      int
}

// WrapBuffer returns a view over n bytes of foreign memory at ptr.
// The view is not validated here; the bridge rejects nil pointers and
// negative lengths when an instance is created.
func WrapBuffer(ptr unsafe.Pointer, n int) *Buffer {
	return &Buffer{ptr: ptr, n: n}
}

// FromBytes returns a view over a Go slice.
// Backends that hand the pointer to C and keep it (the JNI backend) must not
// be given Go memory; use NewBuffer there.
func FromBytes(p []byte) *Buffer {
	if len(p) == 0 {
		return &Buffer{}
	}
	return &Buffer{ptr: unsafe.Pointer(&p[0]), n: len(p)}
}

// Pointer returns the start of the region.
func (b *Buffer) Pointer() unsafe.Pointer {
	if b == nil {
		return nil
	}
	return b.ptr
}

// Len returns the region length in bytes.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return b.n
}

// Valid reports whether the view points at usable memory.
func (b *Buffer) Valid() bool {
	return b != nil && b.ptr != nil && b.n >= 0
}

// Bytes returns the region as a slice aliasing the shared memory.
func (b *Buffer) Bytes() []byte {
	if !b.Valid() || b.n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.ptr), b.n)
}

// Write copies p to the start of the region.
func (b *Buffer) Write(p []byte) (int, error) {
	if !b.Valid() {
		return 0, errors.InvalidBuffer("buffer is nil or has negative length")
	}
	if len(p) > b.n {
		return 0, errors.InvalidInput(errors.PhaseCall,
			"input of %d bytes does not fit the %d byte communication buffer", len(p), b.n)
	}
	return copy(b.Bytes(), p), nil
}

// CString terminates the region at offset n and returns the text before it.
// n is clamped so the terminator always lands inside the region.
func (b *Buffer) CString(n int) string {
	data := b.Bytes()
	if len(data) == 0 {
		return ""
	}
	if n < 0 {
		n = 0
	}
	if n > len(data)-1 {
		n = len(data) - 1
	}
	data[n] = 0
	return string(data[:n])
}

// Free releases memory obtained from NewBuffer. It is a no-op for wrapped
// memory and safe to call more than once.
func (b *Buffer) Free() error {
	if b == nil || b.mapped == nil {
		return nil
	}
	err := unmap(b.mapped)
	b.mapped = nil
	b.ptr = nil
	b.n = 0
	return err
}
