package bfbridge

import (
	"testing"
	"unsafe"

	"github.com/wippyai/bfbridge/errors"
)

func TestNewBuffer(t *testing.T) {
	buf, err := NewBuffer(4096)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	if !buf.Valid() || buf.Len() != 4096 || buf.Pointer() == nil {
		t.Fatalf("unexpected buffer: valid=%v len=%d", buf.Valid(), buf.Len())
	}

	data := buf.Bytes()
	data[0], data[4095] = 1, 2
	if got := buf.Bytes(); got[0] != 1 || got[4095] != 2 {
		t.Error("Bytes should alias the same memory")
	}

	if err := buf.Free(); err != nil {
		t.Fatalf("Free failed: %v", err)
	}
	if err := buf.Free(); err != nil {
		t.Fatalf("second Free failed: %v", err)
	}
	if buf.Valid() {
		t.Error("freed buffer should not be valid")
	}
}

func TestNewBuffer_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		if _, err := NewBuffer(size); !errors.Is(err, errors.KindErr(errors.KindInvalidBuffer)) {
			t.Errorf("NewBuffer(%d) err = %v, want invalid buffer", size, err)
		}
	}
}

func TestWrapBuffer(t *testing.T) {
	backing := make([]byte, 32)
	buf := WrapBuffer(unsafe.Pointer(&backing[0]), len(backing))
	if !buf.Valid() {
		t.Fatal("wrapped buffer should be valid")
	}
	if err := buf.Free(); err != nil {
		t.Fatalf("Free of wrapped memory: %v", err)
	}
	if !buf.Valid() {
		t.Error("Free must not release wrapped memory")
	}

	if WrapBuffer(nil, 8).Valid() {
		t.Error("nil pointer should not be valid")
	}
	if WrapBuffer(unsafe.Pointer(&backing[0]), -1).Valid() {
		t.Error("negative length should not be valid")
	}
	var nilBuf *Buffer
	if nilBuf.Valid() || nilBuf.Len() != 0 || nilBuf.Bytes() != nil {
		t.Error("nil buffer should be empty and invalid")
	}
}

func TestBuffer_Write(t *testing.T) {
	buf := FromBytes(make([]byte, 8))

	n, err := buf.Write([]byte("path"))
	if err != nil || n != 4 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if string(buf.Bytes()[:4]) != "path" {
		t.Errorf("buffer = %q", buf.Bytes())
	}

	if _, err := buf.Write([]byte("too long for it")); !errors.Is(err, errors.KindErr(errors.KindInvalidInput)) {
		t.Errorf("oversized Write err = %v, want invalid input", err)
	}
	if _, err := FromBytes(nil).Write([]byte("x")); !errors.Is(err, errors.KindErr(errors.KindInvalidBuffer)) {
		t.Errorf("Write to empty view err = %v, want invalid buffer", err)
	}
}

func TestBuffer_CString(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want string
	}{
		{"within", 3, "abc"},
		{"zero", 0, ""},
		{"negative", -5, ""},
		{"clamped", 100, "abcdefg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := FromBytes([]byte("abcdefgh"))
			if got := buf.CString(tt.n); got != tt.want {
				t.Errorf("CString(%d) = %q, want %q", tt.n, got, tt.want)
			}
			if data := buf.Bytes(); data[len(tt.want)] != 0 {
				t.Error("terminator not written")
			}
		})
	}
}
