package wasmvm

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/bfbridge/jvm"
	"github.com/wippyai/bfbridge/jvm/refs"
)

// Env is the environment of one attachment. It is not safe for concurrent
// use, matching the thread confinement of a JNI environment.
type Env struct {
	vm      *VM
	pending string
	thrown  bool
}

var (
	_ jvm.Env             = (*Env)(nil)
	_ jvm.ExceptionTexter = (*Env)(nil)
)

// throw records an exception. The first one stays pending until cleared.
func (e *Env) throw(text string) {
	if e.thrown {
		Logger().Debug("exception suppressed", zap.String("exception", text))
		return
	}
	e.pending, e.thrown = text, true
}

func (e *Env) classAt(r jvm.Ref) (*class, bool) {
	v, ok := e.vm.table.Get(refs.Handle(r))
	if !ok {
		return nil, false
	}
	c, ok := v.(*class)
	return c, ok
}

func (e *Env) objectAt(r jvm.Ref) (*object, bool) {
	v, ok := e.vm.table.Get(refs.Handle(r))
	if !ok {
		return nil, false
	}
	o, ok := v.(*object)
	return o, ok
}

func (e *Env) FindClass(name string) jvm.Ref {
	c := e.vm.lookupClass(name)
	if c == nil {
		e.throw("java.lang.NoClassDefFoundError: " + name)
		return 0
	}
	return e.vm.insert(refs.Local, c)
}

func (e *Env) GetMethodID(cls jvm.Ref, name, sig string) jvm.MethodID {
	c, ok := e.classAt(cls)
	if !ok {
		e.throw("java.lang.NullPointerException: GetMethodID on an invalid class reference")
		return 0
	}
	id, err := c.resolve(name, sig)
	if err != nil {
		e.throw(fmt.Sprintf("java.lang.NoSuchMethodError: %s%s: %v", name, sig, err))
		return 0
	}
	return id
}

func (e *Env) NewObject(cls jvm.Ref, ctor jvm.MethodID, args ...jvm.Value) jvm.Ref {
	c, ok := e.classAt(cls)
	if !ok {
		e.throw("java.lang.NullPointerException: NewObject on an invalid class reference")
		return 0
	}
	m := c.method(ctor)
	if m == nil || !m.ctor {
		e.throw("java.lang.IllegalArgumentException: NewObject needs a constructor ID")
		return 0
	}
	o, err := e.vm.instantiate(c)
	if err != nil {
		e.throw(fmt.Sprintf("java.lang.InstantiationError: %s: %v", c.name, err))
		return 0
	}
	if _, exported := c.exports[ctorExport]; exported {
		if _, ok := o.call(e, ctor, m, args); !ok || e.thrown {
			o.close()
			return 0
		}
	}
	return e.vm.insert(refs.Local, o)
}

func (e *Env) NewGlobalRef(obj jvm.Ref) jvm.Ref {
	v, ok := e.vm.table.Get(refs.Handle(obj))
	if !ok {
		return 0
	}
	return e.vm.insert(refs.Global, v)
}

func (e *Env) DeleteGlobalRef(obj jvm.Ref) {
	e.deleteRef(obj, refs.Global)
}

func (e *Env) DeleteLocalRef(obj jvm.Ref) {
	e.deleteRef(obj, refs.Local)
}

func (e *Env) deleteRef(obj jvm.Ref, scope refs.Scope) {
	if obj == 0 {
		return
	}
	h := refs.Handle(obj)
	if s, ok := e.vm.table.Scope(h); !ok || s != scope {
		Logger().Warn("ignoring delete of a mismatched reference",
			zap.Uint32("handle", uint32(h)), zap.Stringer("scope", scope))
		return
	}
	e.vm.table.Delete(h)
}

func (e *Env) NewDirectByteBuffer(addr unsafe.Pointer, n int) jvm.Ref {
	if addr == nil || n < 0 {
		e.throw("java.lang.IllegalArgumentException: invalid direct buffer")
		return 0
	}
	return e.vm.insert(refs.Local, &direct{addr: addr, n: n})
}

func (e *Env) invoke(obj jvm.Ref, id jvm.MethodID, args []jvm.Value) (*method, []uint64, bool) {
	o, ok := e.objectAt(obj)
	if !ok {
		e.throw("java.lang.NullPointerException: call on an invalid object reference")
		return nil, nil, false
	}
	m := o.class.method(id)
	if m == nil || m.ctor {
		e.throw(fmt.Sprintf("java.lang.NoSuchMethodError: method ID %d on %s", id, o.class.name))
		return nil, nil, false
	}
	res, ok := o.call(e, id, m, args)
	return m, res, ok
}

func (e *Env) CallVoidMethod(obj jvm.Ref, id jvm.MethodID, args ...jvm.Value) {
	e.invoke(obj, id, args)
}

func (e *Env) CallIntMethod(obj jvm.Ref, id jvm.MethodID, args ...jvm.Value) int32 {
	m, res, ok := e.invoke(obj, id, args)
	if !ok || len(res) == 0 {
		return -1
	}
	return int32(decodeResult(m.desc.Return, res[0]))
}

func (e *Env) CallDoubleMethod(obj jvm.Ref, id jvm.MethodID, args ...jvm.Value) float64 {
	m, res, ok := e.invoke(obj, id, args)
	if !ok || len(res) == 0 {
		return -1
	}
	return decodeResult(m.desc.Return, res[0])
}

func (e *Env) ExceptionCheck() bool {
	return e.thrown
}

// ExceptionDescribe logs the pending exception and clears it.
func (e *Env) ExceptionDescribe() {
	if !e.thrown {
		return
	}
	Logger().Warn("guest exception", zap.String("exception", e.ExceptionText()))
}

// ExceptionText returns the pending exception and clears it.
func (e *Env) ExceptionText() string {
	text := e.pending
	e.pending, e.thrown = "", false
	return text
}
