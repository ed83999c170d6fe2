package bridge

import (
	"testing"
	"unsafe"

	"github.com/wippyai/bfbridge"
	"github.com/wippyai/bfbridge/errors"
	"github.com/wippyai/bfbridge/internal/jvmtest"
	"github.com/wippyai/bfbridge/jvm/refs"
)

func attached(t *testing.T) (*Thread, *jvmtest.Backend) {
	t.Helper()
	lockThread(t)
	vm, backend := newVM(t)
	thread, err := vm.Attach()
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(thread.Detach)
	return thread, backend
}

func TestNewInstance_InvalidBuffer(t *testing.T) {
	thread, backend := attached(t)
	var word [8]byte

	tests := []struct {
		name string
		buf  *bfbridge.Buffer
	}{
		{"nil buffer", nil},
		{"nil pointer", bfbridge.WrapBuffer(nil, 16)},
		{"negative length", bfbridge.WrapBuffer(unsafe.Pointer(&word[0]), -1)},
		{"empty slice", bfbridge.FromBytes(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := thread.NewInstance(tt.buf)
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseInstance, Kind: errors.KindInvalidBuffer}) {
				t.Fatalf("err = %v, want invalid buffer", err)
			}
			inst.Close()
			(&Instance{}).Close()
			if got := backend.LiveRefs(refs.Global); got != 0 {
				t.Errorf("created %d global refs", got)
			}
		})
	}
}

func TestNewInstance_ZeroLengthBuffer(t *testing.T) {
	thread, _ := attached(t)
	var word [1]byte
	inst, err := thread.NewInstance(bfbridge.WrapBuffer(unsafe.Pointer(&word[0]), 0))
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	inst.Close()
}

func TestNewInstance_UnconstructedThread(t *testing.T) {
	for name, thread := range map[string]*Thread{"nil": nil, "zero": {}} {
		t.Run(name, func(t *testing.T) {
			_, err := thread.NewInstance(bfbridge.FromBytes(make([]byte, 8)))
			if !errors.Is(err, errors.KindErr(errors.KindNotInitialized)) {
				t.Fatalf("err = %v, want not initialized", err)
			}
		})
	}
}

func TestNewInstance_DirectBufferFailures(t *testing.T) {
	tests := []struct {
		name      string
		faults    jvmtest.Faults
		kind      errors.Kind
		described int
	}{
		{"out of memory", jvmtest.Faults{DirectBufferOOM: true}, errors.KindOutOfMemory, 1},
		{"unsupported", jvmtest.Faults{NoDirectBuffers: true}, errors.KindNoDirectBuffers, 0},
		{"constructor throws", jvmtest.Faults{ConstructorFails: true}, errors.KindRemote, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thread, backend := attached(t)
			backend.SetFaults(tt.faults)

			_, err := thread.NewInstance(bfbridge.FromBytes(make([]byte, 64)))
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseInstance, Kind: tt.kind}) {
				t.Fatalf("err = %v, want %s", err, tt.kind)
			}
			if got := backend.LiveRefs(refs.Global); got != 0 {
				t.Errorf("leaked %d global refs", got)
			}
			if got := len(backend.Described()); got != tt.described {
				t.Errorf("described %d exceptions, want %d", got, tt.described)
			}
		})
	}
}

func TestInstance_Lifecycle(t *testing.T) {
	thread, backend := attached(t)
	buf := bfbridge.FromBytes(make([]byte, 256))

	inst, err := thread.NewInstance(buf)
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	if !inst.Valid() {
		t.Fatal("instance should be valid")
	}
	if inst.Buffer() != buf {
		t.Error("Buffer should return the bound buffer")
	}
	if got := backend.LiveRefs(refs.Global); got != 1 {
		t.Errorf("global refs = %d, want 1", got)
	}
	if got := backend.LiveRefs(refs.Local); got != 1 {
		t.Errorf("local refs = %d, want only the class ref", got)
	}

	inst.Close()
	inst.Close()
	if got := backend.LiveRefs(refs.Global); got != 0 {
		t.Errorf("global refs after Close = %d, want 0", got)
	}
	if !buf.Valid() || buf.Len() != 256 {
		t.Error("Close must leave the caller's buffer alone")
	}
	if inst.SizeX() != -1 {
		t.Error("calls on a closed instance should fail")
	}
}

func TestInstance_Move(t *testing.T) {
	thread, backend := attached(t)
	inst, err := thread.NewInstance(bfbridge.FromBytes(make([]byte, 64)))
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}

	moved := inst.Move()
	if inst.Valid() || inst.Buffer() != nil {
		t.Error("source should be null, buffer view included, after Move")
	}
	inst.Close()
	if got := backend.LiveRefs(refs.Global); got != 1 {
		t.Fatalf("closing the moved-from instance released the object")
	}
	if (&Instance{}).Move().Valid() {
		t.Error("moving a null Instance should yield a null Instance")
	}

	moved.Close()
	if got := backend.LiveRefs(refs.Global); got != 0 {
		t.Errorf("global refs = %d, want 0", got)
	}
}

func TestTeardownOrder(t *testing.T) {
	lockThread(t)
	backend := jvmtest.New(t.Name(), jvmtest.NewImage(samplePath))
	vm, err := NewVM(backend, Options{ClassPath: classPathDir(t)})
	if err != nil {
		t.Fatalf("NewVM failed: %v", err)
	}
	thread, err := vm.Attach()
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	buf, err := bfbridge.NewBuffer(4096)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	inst, err := thread.NewInstance(buf)
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	if rc, err := inst.Open(samplePath); err != nil || rc != 1 {
		t.Fatalf("Open = %d, %v", rc, err)
	}

	inst.Close()
	thread.Detach()
	if err := vm.Close(); err != nil {
		t.Fatalf("VM Close failed: %v", err)
	}
	if err := buf.Free(); err != nil {
		t.Fatalf("Free failed: %v", err)
	}

	if backend.Detaches() != 1 || backend.Destroys() != 1 {
		t.Errorf("detaches/destroys = %d/%d, want 1/1", backend.Detaches(), backend.Destroys())
	}
	if got := backend.LiveRefs(refs.Global); got != 0 {
		t.Errorf("leaked %d global refs", got)
	}
	if got := backend.LiveRefs(refs.Local); got != 0 {
		t.Errorf("leaked %d local refs", got)
	}
}

func TestInstance_CloseAfterVMClose(t *testing.T) {
	lockThread(t)
	vm, backend := newVM(t)
	thread, err := vm.Attach()
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	inst, err := thread.NewInstance(bfbridge.FromBytes(make([]byte, 64)))
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	vm.Close()

	inst.Close()
	thread.Detach()
	if got := backend.LiveRefs(refs.Global); got != 1 {
		t.Errorf("Close reached a destroyed runtime")
	}
}
