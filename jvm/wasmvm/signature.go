package wasmvm

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/bfbridge/jvm"
)

// signature is the wasm function type a method descriptor maps to.
type signature struct {
	params  []api.ValueType
	results []api.ValueType
}

func valueType(kind byte) (api.ValueType, bool) {
	switch kind {
	case 'I', 'Z', 'B', 'C', 'S':
		return api.ValueTypeI32, true
	case 'J':
		return api.ValueTypeI64, true
	case 'F':
		return api.ValueTypeF32, true
	case 'D':
		return api.ValueTypeF64, true
	}
	return 0, false
}

// mapDescriptor translates a parsed descriptor. Reference parameters become
// a pointer and a length; reference and array results are not supported.
func mapDescriptor(d jvm.Descriptor) (signature, error) {
	var sig signature
	for _, p := range d.Params {
		switch p {
		case 'L':
			sig.params = append(sig.params, api.ValueTypeI32, api.ValueTypeI32)
		case '[':
			return signature{}, fmt.Errorf("array parameters are not supported")
		default:
			vt, _ := valueType(p)
			sig.params = append(sig.params, vt)
		}
	}
	if d.Return == 'V' {
		return sig, nil
	}
	vt, ok := valueType(d.Return)
	if !ok {
		return signature{}, fmt.Errorf("return type %c is not supported", d.Return)
	}
	sig.results = []api.ValueType{vt}
	return sig, nil
}

func (s signature) matches(def api.FunctionDefinition) bool {
	return equalTypes(s.params, def.ParamTypes()) && equalTypes(s.results, def.ResultTypes())
}

func (s signature) String() string {
	return fmt.Sprintf("(%s) -> (%s)", typeList(s.params), typeList(s.results))
}

func equalTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func typeList(types []api.ValueType) string {
	s := ""
	for i, t := range types {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(t)
	}
	return s
}
