package bridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/bfbridge/errors"
	"github.com/wippyai/bfbridge/internal/jvmtest"
	"github.com/wippyai/bfbridge/jvm"
)

func TestNewVM_EmptyClassPath(t *testing.T) {
	for _, cp := range []string{"", " ", "\t\n "} {
		t.Run("classpath="+strings.ReplaceAll(cp, "\n", `\n`), func(t *testing.T) {
			backend := jvmtest.New(t.Name())
			_, err := NewVM(backend, Options{ClassPath: cp})
			if !errors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidClassPath}) {
				t.Fatalf("err = %v, want invalid classpath", err)
			}
			if backend.Creates() != 0 {
				t.Errorf("runtime started %d times, want 0", backend.Creates())
			}
			if Created(backend.Name()) {
				t.Error("configuration errors must not consume the construction attempt")
			}
		})
	}
}

func TestNewVM_UnreadableClassPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	backend := jvmtest.New(t.Name())
	_, err := NewVM(backend, Options{ClassPath: missing})
	if !errors.Is(err, errors.KindErr(errors.KindInvalidClassPath)) {
		t.Fatalf("err = %v, want invalid classpath", err)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error %q should name the path", err)
	}
	if backend.Creates() != 0 {
		t.Error("runtime must not start")
	}
}

func TestNewVM_Options(t *testing.T) {
	lockThread(t)
	dir := classPathDir(t, "a.jar", "b.jar")
	backend := jvmtest.New(t.Name(), jvmtest.NewImage(samplePath))
	vm, err := NewVM(backend, Options{
		ClassPath:  dir,
		CacheDir:   "/var/cache/bf",
		JVMOptions: []string{"-Xmx2g"},
	})
	if err != nil {
		t.Fatalf("NewVM failed: %v", err)
	}
	defer vm.Close()

	sep := string(filepath.ListSeparator)
	d := dir + string(os.PathSeparator)
	wantCP := "-Djava.class.path=" + d + sep + d + "*" + sep + d + "a.jar" + sep + d + "b.jar"

	got := backend.Options()
	want := []string{wantCP, "-XX:+UseParallelGC", "-Dbfbridge.cachedir=/var/cache/bf", "-Xmx2g"}
	if len(got) != len(want) {
		t.Fatalf("options = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("option[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if vm.ClassPathOption() != wantCP {
		t.Errorf("ClassPathOption = %q", vm.ClassPathOption())
	}
	if vm.Backend() != backend.Name() {
		t.Errorf("Backend = %q, want %q", vm.Backend(), backend.Name())
	}
}

func TestNewVM_TrailingSeparatorKept(t *testing.T) {
	dir := classPathDir(t, "x.jar") + string(os.PathSeparator)
	opt, err := classPathOption(dir)
	if err != nil {
		t.Fatalf("classPathOption failed: %v", err)
	}
	if strings.Contains(opt, string(os.PathSeparator)+string(os.PathSeparator)) {
		t.Errorf("option %q doubles the separator", opt)
	}
}

func TestNewVM_CreateStatus(t *testing.T) {
	for _, status := range []jvm.Status{jvm.Err, jvm.NoMemory, jvm.InvalidArgs, -17} {
		t.Run(status.String(), func(t *testing.T) {
			backend := jvmtest.New(t.Name())
			backend.SetFaults(jvmtest.Faults{CreateStatus: status})
			_, err := NewVM(backend, Options{ClassPath: classPathDir(t)})
			if errors.CodeOf(err) != errors.Code(status) {
				t.Fatalf("code = %d, want %d (err %v)", errors.CodeOf(err), status, err)
			}
			if !errors.Is(err, errors.KindErr(errors.KindJNIStatus)) {
				t.Errorf("err = %v, want jni status kind", err)
			}
			if !strings.Contains(err.Error(), status.String()) {
				t.Errorf("message %q should reference the code", err)
			}
		})
	}
}

func TestNewVM_MissingEnvDestroysRuntime(t *testing.T) {
	backend := jvmtest.New(t.Name())
	backend.SetFaults(jvmtest.Faults{NoEnv: true})
	_, err := NewVM(backend, Options{ClassPath: classPathDir(t)})
	if errors.CodeOf(err) != errors.Code(jvm.Err) {
		t.Fatalf("code = %d, want %d (err %v)", errors.CodeOf(err), jvm.Err, err)
	}
	if backend.Creates() != 1 {
		t.Errorf("creates = %d, want 1", backend.Creates())
	}
	if backend.Destroys() != 1 {
		t.Errorf("destroys = %d, want 1", backend.Destroys())
	}
}

func TestNewVM_ClassNotFoundIsFinal(t *testing.T) {
	lockThread(t)
	backend := jvmtest.New(t.Name())
	backend.SetFaults(jvmtest.Faults{MissingClass: true})
	cp := classPathDir(t)

	_, err := NewVM(backend, Options{ClassPath: cp})
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseCreate, Kind: errors.KindClassNotFound}) {
		t.Fatalf("err = %v, want class not found", err)
	}
	if !strings.Contains(err.Error(), "-Djava.class.path=") {
		t.Errorf("message %q should embed the classpath option", err)
	}
	if backend.Destroys() != 1 {
		t.Errorf("destroys = %d, want 1", backend.Destroys())
	}
	if len(backend.Described()) != 1 {
		t.Errorf("described = %v, want the NoClassDefFoundError", backend.Described())
	}

	backend.SetFaults(jvmtest.Faults{})
	_, err = NewVM(backend, Options{ClassPath: cp})
	if !errors.Is(err, errors.KindErr(errors.KindAlreadyCreated)) {
		t.Fatalf("second NewVM err = %v, want already created", err)
	}
	if backend.Creates() != 1 {
		t.Errorf("creates = %d, want 1", backend.Creates())
	}
}

func TestNewVM_CloseThenCreateFails(t *testing.T) {
	lockThread(t)
	vm, backend := newVM(t)
	if err := vm.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	_, err := NewVM(backend, Options{ClassPath: classPathDir(t)})
	if !errors.Is(err, errors.KindErr(errors.KindAlreadyCreated)) {
		t.Fatalf("err = %v, want already created", err)
	}
}

func TestNewVM_NilBackend(t *testing.T) {
	_, err := NewVM(nil, Options{ClassPath: "/tmp"})
	if !errors.Is(err, errors.KindErr(errors.KindNotInitialized)) {
		t.Fatalf("err = %v, want not initialized", err)
	}
}

func TestVM_CloseIdempotent(t *testing.T) {
	lockThread(t)
	vm, backend := newVM(t)
	if !vm.Valid() {
		t.Fatal("new VM should be valid")
	}
	if err := vm.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := vm.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if vm.Valid() {
		t.Error("closed VM should not be valid")
	}
	if backend.Destroys() != 1 {
		t.Errorf("destroys = %d, want 1", backend.Destroys())
	}
}

func TestVM_Move(t *testing.T) {
	lockThread(t)
	vm, backend := newVM(t)

	moved := vm.Move()
	if vm.Valid() {
		t.Error("source should be null after Move")
	}
	if !moved.Valid() {
		t.Fatal("destination should own the runtime")
	}
	if err := vm.Close(); err != nil {
		t.Fatalf("closing moved-from VM: %v", err)
	}
	if backend.Destroys() != 0 {
		t.Fatal("closing the moved-from VM must not destroy the runtime")
	}

	again := vm.Move()
	if again.Valid() {
		t.Error("moving a null VM should yield a null VM")
	}

	if err := moved.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if backend.Destroys() != 1 {
		t.Errorf("destroys = %d, want 1", backend.Destroys())
	}
}

func TestVM_NullHandle(t *testing.T) {
	var vm *VM
	if vm.Valid() {
		t.Error("nil VM should not be valid")
	}
	if err := vm.Close(); err != nil {
		t.Errorf("Close on nil VM: %v", err)
	}
	if _, err := vm.Attach(); !errors.Is(err, errors.KindErr(errors.KindNotInitialized)) {
		t.Errorf("Attach on nil VM err = %v, want not initialized", err)
	}
	if _, err := (&VM{}).Attach(); !errors.Is(err, errors.KindErr(errors.KindNotInitialized)) {
		t.Errorf("Attach on zero VM err = %v, want not initialized", err)
	}
}
