package jvm

import (
	"fmt"
	"strings"
)

// Descriptor is a parsed method descriptor such as "(IIIII)I".
// Each type is reduced to its leading character, so every reference or array
// type becomes 'L' or '['.
type Descriptor struct {
	Params []byte
	Return byte
}

// ParseDescriptor parses a JVM method descriptor.
func ParseDescriptor(sig string) (Descriptor, error) {
	if !strings.HasPrefix(sig, "(") {
		return Descriptor{}, fmt.Errorf("invalid method descriptor: %s", sig)
	}
	end := strings.IndexByte(sig, ')')
	if end < 0 {
		return Descriptor{}, fmt.Errorf("invalid method descriptor: %s", sig)
	}

	var d Descriptor
	params := sig[1:end]
	for i := 0; i < len(params); {
		kind, n, err := fieldType(params[i:])
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w in %s", err, sig)
		}
		d.Params = append(d.Params, kind)
		i += n
	}

	ret := sig[end+1:]
	if ret == "V" {
		d.Return = 'V'
		return d, nil
	}
	kind, n, err := fieldType(ret)
	if err != nil || n != len(ret) {
		return Descriptor{}, fmt.Errorf("invalid return type in %s", sig)
	}
	d.Return = kind
	return d, nil
}

// fieldType reads one field type and returns its kind and encoded length.
func fieldType(s string) (byte, int, error) {
	if s == "" {
		return 0, 0, fmt.Errorf("missing type")
	}
	switch s[0] {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		return s[0], 1, nil
	case 'L':
		semi := strings.IndexByte(s, ';')
		if semi < 2 {
			return 0, 0, fmt.Errorf("unterminated class type")
		}
		return 'L', semi + 1, nil
	case '[':
		dims := 0
		for dims < len(s) && s[dims] == '[' {
			dims++
		}
		_, n, err := fieldType(s[dims:])
		if err != nil {
			return 0, 0, err
		}
		return '[', dims + n, nil
	}
	return 0, 0, fmt.Errorf("invalid type descriptor char '%c'", s[0])
}
