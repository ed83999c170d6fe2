package wasmvm

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/bfbridge/jvm"
	"github.com/wippyai/bfbridge/jvm/refs"
)

// direct is host memory handed out as a direct byte buffer.
type direct struct {
	addr unsafe.Pointer
	n    int
}

func (d *direct) bytes() []byte {
	return unsafe.Slice((*byte)(d.addr), d.n)
}

// binding is a direct buffer mirrored into one instance's memory.
type binding struct {
	host   []byte
	offset uint32
}

// object is a module instance. It is closed when its last reference goes.
type object struct {
	vm    *VM
	class *class
	mod   api.Module
	holds atomic.Int32

	mu       sync.Mutex
	fns      map[jvm.MethodID]api.Function
	bindings []*binding
}

var _ refs.Dropper = (*object)(nil)

func (o *object) Drop() {
	if o.holds.Add(-1) == 0 {
		o.close()
	}
}

func (o *object) close() {
	if err := o.mod.Close(o.vm.ctx); err != nil {
		Logger().Debug("closing instance", zap.String("class", o.class.name), zap.Error(err))
	}
}

func (o *object) function(id jvm.MethodID, m *method) api.Function {
	if fn, ok := o.fns[id]; ok {
		return fn
	}
	fn := o.mod.ExportedFunction(m.name)
	if fn != nil {
		o.fns[id] = fn
	}
	return fn
}

// bind returns the guest region backing the buffer behind r. The first time
// the buffer is seen memory grows to hold it and its contents are copied in.
func (o *object) bind(r jvm.Ref) (*binding, error) {
	if r == 0 {
		return nil, nil
	}
	v, _ := o.vm.table.Get(refs.Handle(r))
	d, ok := v.(*direct)
	if !ok {
		return nil, fmt.Errorf("java.lang.ClassCastException: argument is not a direct ByteBuffer")
	}
	host := d.bytes()
	for _, b := range o.bindings {
		if unsafe.SliceData(b.host) == unsafe.SliceData(host) && len(b.host) == len(host) {
			return b, nil
		}
	}

	mem := guestMemory(o.mod)
	if mem == nil {
		return nil, fmt.Errorf("java.lang.UnsupportedOperationException: %s exports no memory", o.class.name)
	}
	b := &binding{host: host, offset: mem.Size()}
	if pages := (uint32(len(host)) + pageSize - 1) / pageSize; pages > 0 {
		prev, ok := mem.Grow(pages)
		if !ok {
			return nil, fmt.Errorf("java.lang.OutOfMemoryError: cannot grow %s memory by %d pages", o.class.name, pages)
		}
		b.offset = prev * pageSize
	}
	copyRegion(mem, b, true, len(host))
	o.bindings = append(o.bindings, b)
	Logger().Debug("direct buffer bound",
		zap.String("class", o.class.name), zap.Uint32("offset", b.offset), zap.Int("size", len(host)))
	return b, nil
}

// mirror copies the first n bytes of every bound buffer into guest memory,
// or out of it when in is false.
func (o *object) mirror(in bool, n int) {
	if n <= 0 || len(o.bindings) == 0 {
		return
	}
	mem := guestMemory(o.mod)
	if mem == nil {
		return
	}
	for _, b := range o.bindings {
		copyRegion(mem, b, in, min(n, len(b.host)))
	}
}

func copyRegion(mem api.Memory, b *binding, in bool, n int) {
	view, ok := mem.Read(b.offset, uint32(n))
	if !ok {
		return
	}
	if in {
		copy(view, b.host)
	} else {
		copy(b.host, view)
	}
}

// guestMemory returns the memory the module exports, or nil. Memory() on a
// module without one is a typed nil and cannot be compared against nil.
func guestMemory(mod api.Module) api.Memory {
	for name := range mod.ExportedMemoryDefinitions() {
		return mod.ExportedMemory(name)
	}
	return nil
}

// inputLength is the largest int argument. Buffer input travels as a prefix
// whose length is passed alongside it.
func inputLength(desc jvm.Descriptor, args []jvm.Value) int {
	n := 0
	for i, kind := range desc.Params {
		if kind == 'I' && int(args[i].Int) > n {
			n = int(args[i].Int)
		}
	}
	return n
}

// outputLength is the byte count an int result reports.
func outputLength(kind byte, res []uint64) int {
	if len(res) == 0 || (kind != 'I' && kind != 'J') {
		return 0
	}
	if kind == 'J' {
		return int(min(int64(res[0]), math.MaxInt32))
	}
	return int(api.DecodeI32(res[0]))
}

func encodeArg(kind byte, v jvm.Value) uint64 {
	switch kind {
	case 'J':
		return api.EncodeI64(int64(v.Int))
	case 'F':
		return api.EncodeF32(float32(v.Int))
	case 'D':
		return api.EncodeF64(float64(v.Int))
	}
	return api.EncodeI32(v.Int)
}

func decodeResult(kind byte, raw uint64) float64 {
	switch kind {
	case 'J':
		return float64(int64(raw))
	case 'F':
		return float64(api.DecodeF32(raw))
	case 'D':
		return api.DecodeF64(raw)
	}
	return float64(api.DecodeI32(raw))
}

// call runs m on the instance. It reports false when the call did not run
// to completion, with an exception left pending on e.
func (o *object) call(e *Env, id jvm.MethodID, m *method, args []jvm.Value) ([]uint64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if len(args) != len(m.desc.Params) {
		e.throw(fmt.Sprintf("java.lang.IllegalArgumentException: %s takes %d arguments, got %d",
			m.name, len(m.desc.Params), len(args)))
		return nil, false
	}
	fn := o.function(id, m)
	if fn == nil {
		e.throw(fmt.Sprintf("java.lang.NoSuchMethodError: %s.%s", o.class.name, m.name))
		return nil, false
	}

	params := make([]uint64, 0, len(m.typ.params))
	for i, kind := range m.desc.Params {
		if kind != 'L' {
			params = append(params, encodeArg(kind, args[i]))
			continue
		}
		b, err := o.bind(args[i].Ref)
		if err != nil {
			e.throw(err.Error())
			return nil, false
		}
		if b == nil {
			params = append(params, 0, 0)
		} else {
			params = append(params, api.EncodeU32(b.offset), api.EncodeU32(uint32(len(b.host))))
		}
	}

	o.mirror(true, inputLength(m.desc, args))
	res, err := fn.Call(context.WithValue(o.vm.ctx, envKey{}, e), params...)
	if err != nil {
		e.throw("java.lang.RuntimeException: " + err.Error())
		return nil, false
	}
	o.mirror(false, outputLength(m.desc.Return, res))
	return res, true
}
