package bridge

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/bfbridge/errors"
	"github.com/wippyai/bfbridge/jvm"
)

// Options configures VM creation.
type Options struct {
	// ClassPath is a directory holding the bridging class and its jars.
	ClassPath string
	// CacheDir, when set, lets the bridging class memoize opened files there.
	CacheDir string
	// JVMOptions are appended after the generated options.
	JVMOptions []string
}

// vmState is shared by a VM and everything attached to it, so teardown is
// visible to Threads and Instances that outlive their VM handle.
type vmState struct {
	vm          jvm.VM
	attachments map[int]*attachment
	backend     string
	classPath   string
	mu          sync.Mutex
	closed      atomic.Bool
}

// VM owns the process runtime. The zero VM is null.
type VM struct {
	st *vmState
}

// NewVM starts the runtime of backend with the class path built from
// opts.ClassPath and checks that the bridging class can be found.
//
// Only one call per backend can get past option validation in a process.
// That call consumes the attempt whether or not it succeeds.
func NewVM(backend jvm.Backend, opts Options) (*VM, error) {
	if backend == nil {
		return nil, errors.NotInitialized(errors.PhaseCreate, "backend")
	}
	options, err := vmOptions(opts)
	if err != nil {
		return nil, err
	}

	name := backend.Name()
	if !claim(name) {
		return nil, errors.AlreadyCreated(name)
	}

	Logger().Debug("creating VM", zap.String("backend", name), zap.Strings("options", options))

	vm, env, status := backend.CreateVM(options)
	if status.Failed() || vm == nil || env == nil {
		if !status.Failed() {
			status = jvm.Err
		}
		if vm != nil {
			if s := vm.Destroy(); s.Failed() {
				Logger().Warn("destroy after incomplete runtime creation", zap.Stringer("status", s))
			}
		}
		return nil, errors.New(errors.PhaseCreate, errors.KindJNIStatus).
			Code(errors.Code(status)).
			Detail("JNI_CreateJavaVM failed with code %d (%s), see the JNI return codes", int(status), status).
			Build()
	}

	class := env.FindClass(ClassName)
	if class == 0 {
		detail := "FindClass failed because org.camicroscope.BFBridge (or a dependency of it) could not be found. Are the jars in: " + options[0]
		if describeException(env, "FindClass") {
			detail += " An exception was described."
		}
		if s := vm.Destroy(); s.Failed() {
			Logger().Warn("destroy after failed class lookup", zap.Stringer("status", s))
		}
		return nil, errors.ClassNotFound(errors.PhaseCreate, ClassName, detail)
	}
	env.DeleteLocalRef(class)

	return &VM{st: &vmState{
		vm:          vm,
		attachments: make(map[int]*attachment),
		backend:     name,
		classPath:   options[0],
	}}, nil
}

// Valid reports whether v owns a live runtime.
func (v *VM) Valid() bool {
	return v != nil && v.st != nil && !v.st.closed.Load()
}

// Backend returns the backend name, or "" for a null VM.
func (v *VM) Backend() string {
	if v == nil || v.st == nil {
		return ""
	}
	return v.st.backend
}

// ClassPathOption returns the class path option the runtime was started with.
func (v *VM) ClassPathOption() string {
	if v == nil || v.st == nil {
		return ""
	}
	return v.st.classPath
}

// Move transfers ownership to a new VM and leaves v null.
func (v *VM) Move() *VM {
	if v == nil || v.st == nil {
		return &VM{}
	}
	moved := &VM{st: v.st}
	v.st = nil
	return moved
}

// Close destroys the runtime. All Threads must be detached first. Closing a
// null or closed VM does nothing. A closed runtime cannot be recreated.
func (v *VM) Close() error {
	if v == nil || v.st == nil {
		return nil
	}
	st := v.st
	v.st = nil

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed.Swap(true) {
		return nil
	}
	if n := len(st.attachments); n > 0 {
		Logger().Warn("destroying VM with attached threads", zap.Int("threads", n))
	}
	st.attachments = nil

	if status := st.vm.Destroy(); status.Failed() {
		return errors.Status(errors.PhaseCreate, int(status), "DestroyJavaVM")
	}
	Logger().Debug("VM destroyed", zap.String("backend", st.backend))
	return nil
}
