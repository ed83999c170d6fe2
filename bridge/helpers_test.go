package bridge

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/wippyai/bfbridge"
	"github.com/wippyai/bfbridge/internal/jvmtest"
)

const samplePath = "/data/sample.svs"

func lockThread(t *testing.T) {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)
}

func classPathDir(t *testing.T, entries ...string) string {
	t.Helper()
	dir := t.TempDir()
	if len(entries) == 0 {
		entries = []string{"bfbridge.jar", "formats-gpl.jar"}
	}
	for _, name := range entries {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newVM(t *testing.T, images ...*jvmtest.Image) (*VM, *jvmtest.Backend) {
	t.Helper()
	if len(images) == 0 {
		images = []*jvmtest.Image{jvmtest.NewImage(samplePath)}
	}
	backend := jvmtest.New(t.Name(), images...)
	vm, err := NewVM(backend, Options{ClassPath: classPathDir(t)})
	if err != nil {
		t.Fatalf("NewVM failed: %v", err)
	}
	t.Cleanup(func() { vm.Close() })
	return vm, backend
}

// session builds VM, Thread and Instance on the locked test goroutine.
func session(t *testing.T, bufSize int) (*Instance, *jvmtest.Backend) {
	t.Helper()
	lockThread(t)
	vm, backend := newVM(t)
	thread, err := vm.Attach()
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	inst, err := thread.NewInstance(bfbridge.FromBytes(make([]byte, bufSize)))
	if err != nil {
		t.Fatalf("NewInstance failed: %v", err)
	}
	t.Cleanup(func() {
		inst.Close()
		thread.Detach()
	})
	return inst, backend
}
