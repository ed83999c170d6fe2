package wasmvm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/bfbridge/jvm"
	"github.com/wippyai/bfbridge/jvm/refs"
)

const (
	hostModule  = "bfbridge"
	hostThrow   = "throw"
	ctorExport  = "<init>"
	reactorInit = "_initialize"
	pageSize    = 65536
)

type envKey struct{}

// VM is a wazero runtime holding the compiled classes.
type VM struct {
	ctx       context.Context
	runtime   wazero.Runtime
	cache     wazero.CompilationCache
	classes   map[string]*class
	table     *refs.Table
	destroyed atomic.Bool
}

func (v *VM) start(classPath []string) error {
	if _, err := wasi_snapshot_preview1.Instantiate(v.ctx, v.runtime); err != nil {
		return fmt.Errorf("instantiate WASI: %w", err)
	}
	_, err := v.runtime.NewHostModuleBuilder(hostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(throwFromGuest), []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}, nil).
		Export(hostThrow).
		Instantiate(v.ctx)
	if err != nil {
		return fmt.Errorf("instantiate host module: %w", err)
	}

	for _, entry := range classPath {
		if !strings.HasSuffix(entry, ".wasm") {
			continue
		}
		key := strings.TrimSuffix(filepath.Base(entry), ".wasm")
		if _, dup := v.classes[key]; dup {
			continue
		}
		bin, err := os.ReadFile(entry)
		if err != nil {
			return fmt.Errorf("read %s: %w", entry, err)
		}
		compiled, err := v.runtime.CompileModule(v.ctx, bin)
		if err != nil {
			return fmt.Errorf("compile %s: %w", entry, err)
		}
		v.classes[key] = newClass(key, compiled)
		Logger().Debug("class module compiled", zap.String("class", key), zap.String("path", entry))
	}
	return nil
}

// lookupClass finds the module for a JNI class name such as a/b/C.
func (v *VM) lookupClass(name string) *class {
	dotted := strings.ReplaceAll(name, "/", ".")
	if c, ok := v.classes[dotted]; ok {
		return c
	}
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return v.classes[dotted[i+1:]]
	}
	return nil
}

// LiveRefs returns the number of live references in scope.
func (v *VM) LiveRefs(scope refs.Scope) int {
	return v.table.Len(scope)
}

func (v *VM) newEnv() *Env {
	return &Env{vm: v}
}

// insert stores value and counts the reference on objects.
func (v *VM) insert(scope refs.Scope, value any) jvm.Ref {
	o, isObject := value.(*object)
	if isObject {
		o.holds.Add(1)
	}
	h := v.table.Insert(scope, value)
	if h == 0 && isObject {
		o.Drop()
	}
	return jvm.Ref(h)
}

func (v *VM) instantiate(c *class) (*object, error) {
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions(reactorInit).
		WithStdout(os.Stdout).
		WithStderr(os.Stderr)
	mod, err := v.runtime.InstantiateModule(v.ctx, c.compiled, cfg)
	if err != nil {
		return nil, err
	}
	return &object{vm: v, class: c, mod: mod, fns: make(map[jvm.MethodID]api.Function)}, nil
}

// AttachCurrentThread implements jvm.VM. Each attachment gets its own
// environment, and with it its own pending exception.
func (v *VM) AttachCurrentThread() (jvm.Env, jvm.Status) {
	if v.destroyed.Load() {
		return nil, jvm.Err
	}
	return v.newEnv(), jvm.OK
}

// DetachCurrentThread implements jvm.VM.
func (v *VM) DetachCurrentThread() jvm.Status {
	if v.destroyed.Load() {
		return jvm.Err
	}
	return jvm.OK
}

// Destroy implements jvm.VM. Every instance is closed with the runtime.
func (v *VM) Destroy() jvm.Status {
	if !v.destroyed.CompareAndSwap(false, true) {
		return jvm.Err
	}
	v.shutdown()
	return jvm.OK
}

func (v *VM) shutdown() {
	v.table.Close()
	if err := v.runtime.Close(v.ctx); err != nil {
		Logger().Warn("closing wasm runtime", zap.Error(err))
	}
	if v.cache != nil {
		if err := v.cache.Close(v.ctx); err != nil {
			Logger().Warn("closing compilation cache", zap.Error(err))
		}
	}
}

// throwFromGuest backs the bfbridge.throw import.
func throwFromGuest(ctx context.Context, mod api.Module, stack []uint64) {
	env, _ := ctx.Value(envKey{}).(*Env)
	if env == nil {
		return
	}
	ptr, n := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
	mem := guestMemory(mod)
	if mem == nil {
		env.throw("java.lang.IllegalStateException: throw from a module without memory")
		return
	}
	text, ok := mem.Read(ptr, n)
	if !ok {
		env.throw(fmt.Sprintf("java.lang.IndexOutOfBoundsException: throw text at %d+%d", ptr, n))
		return
	}
	env.throw(string(text))
}

type method struct {
	name string
	desc jvm.Descriptor
	typ  signature
	ctor bool
}

// class is one compiled module and the methods resolved against it.
type class struct {
	name     string
	compiled wazero.CompiledModule
	exports  map[string]api.FunctionDefinition

	mu      sync.Mutex
	methods []*method
	ids     map[string]jvm.MethodID
}

func newClass(name string, compiled wazero.CompiledModule) *class {
	return &class{
		name:     name,
		compiled: compiled,
		exports:  compiled.ExportedFunctions(),
		ids:      make(map[string]jvm.MethodID),
	}
}

// resolve checks name and sig against the module exports and returns a
// stable MethodID.
func (c *class) resolve(name, sig string) (jvm.MethodID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := name + sig
	if id, ok := c.ids[key]; ok {
		return id, nil
	}

	desc, err := jvm.ParseDescriptor(sig)
	if err != nil {
		return 0, err
	}
	typ, err := mapDescriptor(desc)
	if err != nil {
		return 0, err
	}
	m := &method{name: name, desc: desc, typ: typ, ctor: name == ctorExport}
	if m.ctor && desc.Return != 'V' {
		return 0, fmt.Errorf("constructor must return void")
	}

	def, exported := c.exports[name]
	switch {
	case !exported && m.ctor && len(desc.Params) == 0:
	case !exported:
		return 0, fmt.Errorf("%s does not export %s", c.name, name)
	case !typ.matches(def):
		return 0, fmt.Errorf("%s exports %s as %s, descriptor %s needs %s",
			c.name, name, signature{def.ParamTypes(), def.ResultTypes()}, sig, typ)
	}

	c.methods = append(c.methods, m)
	id := jvm.MethodID(len(c.methods))
	c.ids[key] = id
	return id, nil
}

func (c *class) method(id jvm.MethodID) *method {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id == 0 || int(id) > len(c.methods) {
		return nil
	}
	return c.methods[id-1]
}
