package jvmtest

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/wippyai/bfbridge/jvm"
	"github.com/wippyai/bfbridge/jvm/refs"
)

// Faults selects where the fake runtime fails.
type Faults struct {
	// MissingMethod hides the named method from GetMethodID.
	MissingMethod string
	// ThrowFrom leaves a pending exception after every call to the named method.
	ThrowFrom string
	// CreateStatus and AttachStatus are returned instead of success when negative.
	CreateStatus jvm.Status
	AttachStatus jvm.Status
	// NoEnv makes CreateVM report success without an environment.
	NoEnv bool
	// MissingClass makes FindClass fail with a pending NoClassDefFoundError.
	MissingClass bool
	// NoDirectBuffers makes NewDirectByteBuffer return null without an exception.
	NoDirectBuffers bool
	// DirectBufferOOM makes NewDirectByteBuffer throw OutOfMemoryError.
	DirectBufferOOM bool
	// ConstructorFails makes NewObject throw.
	ConstructorFails bool
}

// Backend is a fake jvm.Backend.
type Backend struct {
	images    map[string]*Image
	vm        *VM
	name      string
	options   []string
	described []string
	faults    Faults
	mu        sync.Mutex

	creates  atomic.Int32
	attaches atomic.Int32
	detaches atomic.Int32
	destroys atomic.Int32
}

// New creates a fake backend serving the given images.
func New(name string, images ...*Image) *Backend {
	b := &Backend{name: name, images: make(map[string]*Image)}
	for _, img := range images {
		b.images[img.Path] = img
	}
	return b
}

// Name implements jvm.Backend.
func (b *Backend) Name() string { return b.name }

// SetFaults replaces the active fault set.
func (b *Backend) SetFaults(f Faults) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = f
}

func (b *Backend) activeFaults() Faults {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.faults
}

// AddImage makes an image available to subsequently created objects.
func (b *Backend) AddImage(img *Image) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.images[img.Path] = img
}

// CreateVM implements jvm.Backend.
func (b *Backend) CreateVM(options []string) (jvm.VM, jvm.Env, jvm.Status) {
	b.creates.Add(1)
	b.mu.Lock()
	b.options = append([]string(nil), options...)
	status, noEnv := b.faults.CreateStatus, b.faults.NoEnv
	b.mu.Unlock()
	if status.Failed() {
		return nil, nil, status
	}

	vm := &VM{backend: b, table: refs.NewTable(), counter: &refs.Counter{}}
	vm.table.Subscribe(vm.counter)
	vm.env = &Env{vm: vm}
	b.mu.Lock()
	b.vm = vm
	b.mu.Unlock()
	if noEnv {
		return vm, nil, jvm.OK
	}
	return vm, vm.env, jvm.OK
}

// Options returns the options passed to the last CreateVM.
func (b *Backend) Options() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.options...)
}

// Described returns the exception descriptions consumed so far.
func (b *Backend) Described() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.described...)
}

func (b *Backend) Creates() int  { return int(b.creates.Load()) }
func (b *Backend) Attaches() int { return int(b.attaches.Load()) }
func (b *Backend) Detaches() int { return int(b.detaches.Load()) }
func (b *Backend) Destroys() int { return int(b.destroys.Load()) }

// LiveRefs returns the live references of the current VM.
func (b *Backend) LiveRefs(scope refs.Scope) int {
	b.mu.Lock()
	vm := b.vm
	b.mu.Unlock()
	if vm == nil {
		return 0
	}
	return int(vm.counter.Live(scope))
}

// VM is the fake runtime.
type VM struct {
	backend   *Backend
	table     *refs.Table
	counter   *refs.Counter
	env       *Env
	destroyed atomic.Bool
}

// AttachCurrentThread implements jvm.VM.
func (v *VM) AttachCurrentThread() (jvm.Env, jvm.Status) {
	if v.destroyed.Load() {
		return nil, jvm.Err
	}
	if status := v.backend.activeFaults().AttachStatus; status.Failed() {
		return nil, status
	}
	v.backend.attaches.Add(1)
	return v.env, jvm.OK
}

// DetachCurrentThread implements jvm.VM.
func (v *VM) DetachCurrentThread() jvm.Status {
	if v.destroyed.Load() {
		return jvm.Err
	}
	v.backend.detaches.Add(1)
	return jvm.OK
}

// Destroy implements jvm.VM.
func (v *VM) Destroy() jvm.Status {
	if v.destroyed.Swap(true) {
		return jvm.Err
	}
	v.backend.destroys.Add(1)
	return jvm.OK
}

// Env is the fake per-thread environment. All threads share one Env.
type Env struct {
	vm      *VM
	pending string
	mu      sync.Mutex
}

func (e *Env) throw(format string, args ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = fmt.Sprintf(format, args...)
}

// FindClass implements jvm.Env.
func (e *Env) FindClass(name string) jvm.Ref {
	if e.vm.backend.activeFaults().MissingClass || name != ClassName {
		e.throw("java.lang.NoClassDefFoundError: %s", name)
		return 0
	}
	return jvm.Ref(e.vm.table.Insert(refs.Local, &class{name: name}))
}

// GetMethodID implements jvm.Env.
func (e *Env) GetMethodID(cls jvm.Ref, name, sig string) jvm.MethodID {
	if _, ok := e.lookup(cls).(*class); !ok {
		e.throw("java.lang.NullPointerException")
		return 0
	}
	if e.vm.backend.activeFaults().MissingMethod == name {
		e.throw("java.lang.NoSuchMethodError: %s%s", name, sig)
		return 0
	}
	for i, m := range classMethods {
		if m.name == name && m.sig == sig {
			return jvm.MethodID(i + 1)
		}
	}
	e.throw("java.lang.NoSuchMethodError: %s%s", name, sig)
	return 0
}

func (e *Env) method(id jvm.MethodID) (method, bool) {
	all := classMethods
	if id == 0 || int(id) > len(all) {
		return method{}, false
	}
	return all[id-1], true
}

func (e *Env) lookup(r jvm.Ref) any {
	v, _ := e.vm.table.Get(refs.Handle(r))
	return v
}

// NewObject implements jvm.Env.
func (e *Env) NewObject(cls jvm.Ref, ctor jvm.MethodID, args ...jvm.Value) jvm.Ref {
	if _, ok := e.lookup(cls).(*class); !ok {
		e.throw("java.lang.NullPointerException")
		return 0
	}
	if m, ok := e.method(ctor); !ok || m.name != "<init>" {
		e.throw("java.lang.IllegalArgumentException: not a constructor")
		return 0
	}
	if e.vm.backend.activeFaults().ConstructorFails {
		e.throw("java.lang.ExceptionInInitializerError")
		return 0
	}

	b := e.vm.backend
	b.mu.Lock()
	images := make(map[string]*Image, len(b.images))
	for k, v := range b.images {
		images[k] = v
	}
	b.mu.Unlock()
	return jvm.Ref(e.vm.table.Insert(refs.Local, &object{images: images}))
}

// NewGlobalRef implements jvm.Env.
func (e *Env) NewGlobalRef(obj jvm.Ref) jvm.Ref {
	v := e.lookup(obj)
	if v == nil {
		return 0
	}
	return jvm.Ref(e.vm.table.Insert(refs.Global, v))
}

func (e *Env) deleteRef(r jvm.Ref, scope refs.Scope) {
	if s, ok := e.vm.table.Scope(refs.Handle(r)); ok && s == scope {
		e.vm.table.Delete(refs.Handle(r))
	}
}

// DeleteGlobalRef implements jvm.Env.
func (e *Env) DeleteGlobalRef(obj jvm.Ref) { e.deleteRef(obj, refs.Global) }

// DeleteLocalRef implements jvm.Env.
func (e *Env) DeleteLocalRef(obj jvm.Ref) { e.deleteRef(obj, refs.Local) }

// NewDirectByteBuffer implements jvm.Env.
func (e *Env) NewDirectByteBuffer(addr unsafe.Pointer, n int) jvm.Ref {
	f := e.vm.backend.activeFaults()
	switch {
	case f.NoDirectBuffers:
		return 0
	case f.DirectBufferOOM:
		e.throw("java.lang.OutOfMemoryError: Direct buffer memory")
		return 0
	case addr == nil || n < 0:
		e.throw("java.lang.IllegalArgumentException: capacity %d", n)
		return 0
	}
	var data []byte
	if n > 0 {
		data = unsafe.Slice((*byte)(addr), n)
	}
	return jvm.Ref(e.vm.table.Insert(refs.Local, &directBuffer{data: data}))
}

func (e *Env) invoke(obj jvm.Ref, id jvm.MethodID, args []jvm.Value) float64 {
	o, ok := e.lookup(obj).(*object)
	if !ok {
		e.throw("java.lang.NullPointerException")
		return 0
	}
	m, ok := e.method(id)
	if !ok {
		e.throw("java.lang.NoSuchMethodError")
		return 0
	}
	if m.name == e.vm.backend.activeFaults().ThrowFrom {
		e.throw("java.lang.RuntimeException: thrown from %s", m.name)
	}
	if m.name == "BFSetCommunicationBuffer" {
		if len(args) == 1 {
			if buf, ok := e.lookup(args[0].Ref).(*directBuffer); ok {
				o.buf = buf.data
				return 0
			}
		}
		e.throw("java.lang.NullPointerException")
		return 0
	}
	if m.call == nil {
		return 0
	}
	return m.call(o, args)
}

// CallVoidMethod implements jvm.Env.
func (e *Env) CallVoidMethod(obj jvm.Ref, m jvm.MethodID, args ...jvm.Value) {
	e.invoke(obj, m, args)
}

// CallIntMethod implements jvm.Env.
func (e *Env) CallIntMethod(obj jvm.Ref, m jvm.MethodID, args ...jvm.Value) int32 {
	return int32(e.invoke(obj, m, args))
}

// CallDoubleMethod implements jvm.Env.
func (e *Env) CallDoubleMethod(obj jvm.Ref, m jvm.MethodID, args ...jvm.Value) float64 {
	return e.invoke(obj, m, args)
}

// ExceptionCheck implements jvm.Env.
func (e *Env) ExceptionCheck() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending != ""
}

// ExceptionDescribe implements jvm.Env.
func (e *Env) ExceptionDescribe() {
	e.ExceptionText()
}

// ExceptionText implements jvm.ExceptionTexter.
func (e *Env) ExceptionText() string {
	e.mu.Lock()
	text := e.pending
	e.pending = ""
	e.mu.Unlock()

	if text != "" {
		b := e.vm.backend
		b.mu.Lock()
		b.described = append(b.described, text)
		b.mu.Unlock()
	}
	return text
}
