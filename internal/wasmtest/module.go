// Package wasmtest assembles small WebAssembly modules for the wasm backend's
// tests, without a toolchain.
//
// Every module imports bfbridge.throw as function 0, declares the function
// types below and two mutable i32 globals. Global 0 conventionally holds the
// buffer pointer and global 1 is free for constructors.
package wasmtest

// Function types, indexes into the type section.
const (
	TypeI32I32ToVoid byte = iota
	TypeVoidToI32
	TypeI32ToI32
	TypeI32I32ToI32
	TypeI32ToF64
	TypeVoidToVoid
	TypeI32x5ToI32
	TypeI32x3ToI32
)

// BodySetBuffer stores its pointer argument in global 0.
var BodySetBuffer = []byte{0x20, 0x00, 0x24, 0x00, 0x0b}

// Func is one exported function.
type Func struct {
	Name string
	Type byte
	Body []byte
}

// Assemble encodes funcs as a module, with one page of exported memory named
// "memory" when memory is set. Function indexes start at 1.
func Assemble(memory bool, funcs []Func) []byte {
	module := []byte{
		0x00, 0x61, 0x73, 0x6d, // magic
		0x01, 0x00, 0x00, 0x00, // version
	}
	section := func(id byte, payload []byte) {
		module = append(module, id)
		module = append(module, ULEB128(uint32(len(payload)))...)
		module = append(module, payload...)
	}
	name := func(dst []byte, s string) []byte {
		dst = append(dst, ULEB128(uint32(len(s)))...)
		return append(dst, s...)
	}

	section(0x01, []byte{
		0x08,
		0x60, 0x02, 0x7f, 0x7f, 0x00, // (i32, i32) -> ()
		0x60, 0x00, 0x01, 0x7f, // () -> i32
		0x60, 0x01, 0x7f, 0x01, 0x7f, // (i32) -> i32
		0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, // (i32, i32) -> i32
		0x60, 0x01, 0x7f, 0x01, 0x7c, // (i32) -> f64
		0x60, 0x00, 0x00, // () -> ()
		0x60, 0x05, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f, // (i32 x5) -> i32
		0x60, 0x03, 0x7f, 0x7f, 0x7f, 0x01, 0x7f, // (i32 x3) -> i32
	})

	imports := name(name([]byte{0x01}, "bfbridge"), "throw")
	section(0x02, append(imports, 0x00, TypeI32I32ToVoid))

	fns := ULEB128(uint32(len(funcs)))
	for _, fn := range funcs {
		fns = append(fns, fn.Type)
	}
	section(0x03, fns)

	if memory {
		section(0x05, []byte{0x01, 0x00, 0x01})
	}

	section(0x06, []byte{
		0x02,
		0x7f, 0x01, 0x41, 0x00, 0x0b, // mut i32 = 0
		0x7f, 0x01, 0x41, 0x00, 0x0b, // mut i32 = 0
	})

	count := len(funcs)
	if memory {
		count++
	}
	exports := ULEB128(uint32(count))
	if memory {
		exports = append(name(exports, "memory"), 0x02, 0x00)
	}
	for i, fn := range funcs {
		exports = append(name(exports, fn.Name), 0x00)
		exports = append(exports, ULEB128(uint32(i+1))...)
	}
	section(0x07, exports)

	code := ULEB128(uint32(len(funcs)))
	for _, fn := range funcs {
		body := append([]byte{0x00}, fn.Body...)
		code = append(code, ULEB128(uint32(len(body)))...)
		code = append(code, body...)
	}
	section(0x0a, code)

	return module
}

func ULEB128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func SLEB128(v int32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

// ReturnI32 is the body of a function returning v.
func ReturnI32(v int32) []byte {
	return append(append([]byte{0x41}, SLEB128(v)...), 0x0b)
}
