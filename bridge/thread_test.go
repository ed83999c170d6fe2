package bridge

import (
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/wippyai/bfbridge"
	"github.com/wippyai/bfbridge/errors"
	"github.com/wippyai/bfbridge/internal/jvmtest"
	"github.com/wippyai/bfbridge/jvm"
	"github.com/wippyai/bfbridge/jvm/refs"
)

func TestAttach_PopulatesMethodTable(t *testing.T) {
	lockThread(t)
	vm, _ := newVM(t)
	thread, err := vm.Attach()
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer thread.Detach()

	table := thread.Methods()
	if table.Len() != MethodCount {
		t.Errorf("resolved %d methods, want %d", table.Len(), MethodCount)
	}
	if table.Constructor() == 0 {
		t.Error("constructor not resolved")
	}
	if MethodCount != 42 {
		t.Errorf("MethodCount = %d, want 42", MethodCount)
	}
}

func TestMethodDescriptorsParse(t *testing.T) {
	for _, m := range Methods() {
		t.Run(m.Name(), func(t *testing.T) {
			d, err := jvm.ParseDescriptor(m.Descriptor())
			if err != nil {
				t.Fatalf("descriptor %q: %v", m.Descriptor(), err)
			}
			if !strings.HasPrefix(m.Name(), "BF") {
				t.Errorf("unexpected method name %q", m.Name())
			}
			if m.Name() != m.String() {
				t.Errorf("String = %q, want %q", m.String(), m.Name())
			}
			for _, p := range d.Params {
				if p != 'I' && p != 'L' {
					t.Errorf("unexpected parameter type %c", p)
				}
			}
		})
	}
	if Method(-1).Name() != "" || Method(MethodCount).Descriptor() != "" {
		t.Error("out of range methods should have no name or descriptor")
	}
}

// remoteThread is a Thread living on its own locked OS thread.
type remoteThread struct {
	thread  *Thread
	err     error
	release chan bool
	done    chan struct{}
}

// attachOn attaches from a new locked goroutine, which stays parked until
// finish tells it whether to detach.
func attachOn(vm *VM) *remoteThread {
	rt := &remoteThread{release: make(chan bool), done: make(chan struct{})}
	ready := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(rt.done)

		rt.thread, rt.err = vm.Attach()
		close(ready)
		if detach := <-rt.release; detach && rt.err == nil {
			rt.thread.Detach()
		}
	}()
	<-ready
	return rt
}

func (rt *remoteThread) finish(detach bool) {
	rt.release <- detach
	<-rt.done
}

func TestAttach_IndependentThreads(t *testing.T) {
	vm, backend := newVM(t)
	const n = 4

	threads := make([]*remoteThread, n)
	for i := range threads {
		threads[i] = attachOn(vm)
		if threads[i].err != nil {
			t.Fatalf("thread %d: Attach failed: %v", i, threads[i].err)
		}
		if got := threads[i].thread.Methods().Len(); got != MethodCount {
			t.Errorf("thread %d resolved %d methods", i, got)
		}
	}
	if backend.Attaches() != n {
		t.Fatalf("attaches = %d, want %d", backend.Attaches(), n)
	}

	threads[0].finish(true)
	if backend.Detaches() != 1 {
		t.Fatalf("detaches = %d, want 1", backend.Detaches())
	}
	for i, rt := range threads[1:] {
		if !rt.thread.Valid() {
			t.Errorf("thread %d invalidated by another thread's detach", i+1)
		}
	}

	var wg sync.WaitGroup
	for _, rt := range threads[1:] {
		wg.Add(1)
		go func(rt *remoteThread) {
			defer wg.Done()
			rt.finish(true)
		}(rt)
	}
	wg.Wait()
	if backend.Detaches() != n {
		t.Errorf("detaches = %d, want %d", backend.Detaches(), n)
	}
}

func TestAttach_SharedAttachmentPerOSThread(t *testing.T) {
	lockThread(t)
	vm, backend := newVM(t)

	first, err := vm.Attach()
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	second, err := vm.Attach()
	if err != nil {
		t.Fatalf("second Attach failed: %v", err)
	}
	if backend.Attaches() != 1 {
		t.Fatalf("attaches = %d, want 1", backend.Attaches())
	}

	first.Detach()
	if backend.Detaches() != 0 {
		t.Fatal("detached while another Thread still uses the attachment")
	}
	if !second.Valid() {
		t.Fatal("second Thread should remain valid")
	}

	first.Detach()
	if backend.Detaches() != 0 {
		t.Fatal("second Detach of the same Thread must be a no-op")
	}

	second.Detach()
	if backend.Detaches() != 1 {
		t.Fatalf("detaches = %d, want 1", backend.Detaches())
	}
	if got := backend.LiveRefs(refs.Local); got != 0 {
		t.Errorf("leaked %d local refs", got)
	}
}

func TestAttach_Status(t *testing.T) {
	lockThread(t)
	vm, backend := newVM(t)
	backend.SetFaults(jvmtest.Faults{AttachStatus: jvm.Detached})

	_, err := vm.Attach()
	if errors.CodeOf(err) != errors.CodeJNIDetached {
		t.Fatalf("code = %v, want %v (err %v)", errors.CodeOf(err), errors.CodeJNIDetached, err)
	}
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseAttach, Kind: errors.KindJNIStatus}) {
		t.Errorf("err = %v, want attach jni status", err)
	}

	backend.SetFaults(jvmtest.Faults{})
	thread, err := vm.Attach()
	if err != nil {
		t.Fatalf("Attach after failure: %v", err)
	}
	thread.Detach()
}

func TestAttach_ClassNotFoundDetaches(t *testing.T) {
	lockThread(t)
	vm, backend := newVM(t)
	backend.SetFaults(jvmtest.Faults{MissingClass: true})

	_, err := vm.Attach()
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseAttach, Kind: errors.KindClassNotFound}) {
		t.Fatalf("err = %v, want class not found", err)
	}
	if backend.Attaches() != 1 || backend.Detaches() != 1 {
		t.Errorf("attaches/detaches = %d/%d, want 1/1", backend.Attaches(), backend.Detaches())
	}
}

func TestAttach_MethodNotFound(t *testing.T) {
	for _, name := range []string{"<init>", "BFSetCommunicationBuffer", "BFGetSizeZ", "BFDumpOMEXMLMetadata"} {
		t.Run(name, func(t *testing.T) {
			lockThread(t)
			vm, backend := newVM(t)
			backend.SetFaults(jvmtest.Faults{MissingMethod: name})

			_, err := vm.Attach()
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindMethodNotFound}) {
				t.Fatalf("err = %v, want method not found", err)
			}
			if !strings.Contains(err.Error(), name) {
				t.Errorf("error %q should name %s", err, name)
			}
			if backend.Detaches() != 1 {
				t.Errorf("detaches = %d, want 1", backend.Detaches())
			}
			if got := backend.LiveRefs(refs.Local); got != 0 {
				t.Errorf("leaked %d local refs", got)
			}
		})
	}
}

func TestThread_Move(t *testing.T) {
	lockThread(t)
	vm, backend := newVM(t)
	thread, err := vm.Attach()
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	moved := thread.Move()
	if thread.Valid() {
		t.Error("source should be null after Move")
	}
	thread.Detach()
	if backend.Detaches() != 0 {
		t.Fatal("detaching the moved-from Thread must be a no-op")
	}
	if _, err := thread.NewInstance(bfbridge.FromBytes(make([]byte, 16))); !errors.Is(err, errors.KindErr(errors.KindNotInitialized)) {
		t.Errorf("NewInstance on moved-from Thread err = %v", err)
	}

	if (&Thread{}).Move().Valid() {
		t.Error("moving a null Thread should yield a null Thread")
	}

	moved.Detach()
	if backend.Detaches() != 1 {
		t.Errorf("detaches = %d, want 1", backend.Detaches())
	}
}

func TestThread_DetachAfterVMClose(t *testing.T) {
	lockThread(t)
	vm, backend := newVM(t)
	thread, err := vm.Attach()
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := vm.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if thread.Valid() {
		t.Error("Thread should report its VM is gone")
	}
	thread.Detach()
	if backend.Detaches() != 0 {
		t.Errorf("Detach reached a destroyed runtime")
	}
	if _, err := vm.Attach(); !errors.Is(err, errors.KindErr(errors.KindNotInitialized)) {
		t.Errorf("Attach on closed VM err = %v", err)
	}
}
