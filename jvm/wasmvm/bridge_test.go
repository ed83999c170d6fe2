package wasmvm

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/wippyai/bfbridge"
	"github.com/wippyai/bfbridge/bridge"
	"github.com/wippyai/bfbridge/internal/wasmtest"
	"github.com/wippyai/bfbridge/reader"
)

func TestBridgeOverWasm(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "org.camicroscope.BFBridge.wasm"), wasmtest.Bridge(true), 0o600); err != nil {
		t.Fatalf("failed to write module: %v", err)
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	vm, err := bridge.NewVM(New(Config{Mode: ModeInterpreter}), bridge.Options{ClassPath: dir})
	if err != nil {
		t.Fatalf("NewVM: %v", err)
	}
	defer vm.Close()

	thread, err := vm.Attach()
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer thread.Detach()

	buf := bfbridge.FromBytes(make([]byte, 4096))
	inst, err := thread.NewInstance(buf)
	if err != nil {
		t.Fatalf("NewInstance: %v", err)
	}
	defer inst.Close()

	r := reader.New(inst)
	if ok, err := r.IsCompatible("slide.svs"); err != nil || !ok {
		t.Fatalf("IsCompatible = %v, %v", ok, err)
	}
	if err := r.Open("slide.svs"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if format, err := r.Format(); err != nil || format != "WASM" {
		t.Errorf("Format = %q, %v", format, err)
	}
	if w, h, err := r.Size(); err != nil || w != 1024 || h != 768 {
		t.Errorf("Size = %dx%d, %v", w, h, err)
	}
	if mpp, err := r.MPPX(0); err != nil || mpp != 0.25 {
		t.Errorf("MPPX = %v, %v", mpp, err)
	}
	px, err := r.OpenBytes(0, 0, 0, 16, 8)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}
	if len(px) != 128 {
		t.Errorf("OpenBytes returned %d bytes, want 128", len(px))
	}
	if _, err := r.LookupTable8(); err == nil {
		t.Error("LookupTable8 succeeded, want the remote failure")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
