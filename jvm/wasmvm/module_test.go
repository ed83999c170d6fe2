package wasmvm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/bfbridge/internal/wasmtest"
)

// Bodies for the test modules. Global 0 holds the buffer pointer and
// global 1 is set by the constructor. Function 0 is the throw import.
var (
	bodyFirst  = []byte{0x23, 0x00, 0x2d, 0x00, 0x00, 0x0b}
	bodyFill   = []byte{0x23, 0x00, 0x20, 0x00, 0x3a, 0x00, 0x00, 0x41, 0x01, 0x0b}
	bodyAdd    = []byte{0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b}
	bodyHalf   = []byte{0x20, 0x00, 0xb7, 0x44, 0, 0, 0, 0, 0, 0, 0xe0, 0x3f, 0xa2, 0x0b}
	bodyTrap   = []byte{0x00, 0x0b}
	bodyThrow  = []byte{0x23, 0x00, 0x41, 0x05, 0x10, 0x00, 0x41, 0x7f, 0x0b}
	bodyInit   = []byte{0x41, 0x07, 0x24, 0x01, 0x0b}
	bodyInited = []byte{0x23, 0x01, 0x0b}
	bodyIgnore = []byte{0x0b}
)

// echoFuncs is a module that works on a buffer passed to BFSetBuffer.
// BFPeek reads the first byte like BFFirst, with an int argument that
// announces how much input the call carries.
var echoFuncs = []wasmtest.Func{
	{Name: "BFSetBuffer", Type: wasmtest.TypeI32I32ToVoid, Body: wasmtest.BodySetBuffer},
	{Name: "BFFirst", Type: wasmtest.TypeVoidToI32, Body: bodyFirst},
	{Name: "BFPeek", Type: wasmtest.TypeI32ToI32, Body: bodyFirst},
	{Name: "BFFill", Type: wasmtest.TypeI32ToI32, Body: bodyFill},
	{Name: "BFAdd", Type: wasmtest.TypeI32I32ToI32, Body: bodyAdd},
	{Name: "BFHalf", Type: wasmtest.TypeI32ToF64, Body: bodyHalf},
	{Name: "BFTrap", Type: wasmtest.TypeVoidToI32, Body: bodyTrap},
	{Name: "BFThrow", Type: wasmtest.TypeVoidToI32, Body: bodyThrow},
	{Name: "<init>", Type: wasmtest.TypeVoidToVoid, Body: bodyInit},
	{Name: "BFInited", Type: wasmtest.TypeVoidToI32, Body: bodyInited},
}

// plainFuncs has no memory and no constructor.
var plainFuncs = []wasmtest.Func{
	{Name: "BFSetBuffer", Type: wasmtest.TypeI32I32ToVoid, Body: bodyIgnore},
	{Name: "BFAdd", Type: wasmtest.TypeI32I32ToI32, Body: bodyAdd},
	{Name: "BFThrow", Type: wasmtest.TypeVoidToI32, Body: bodyThrow},
}

// classPath writes the modules to a temp dir and returns the class path
// option naming them, with a jar entry that must be skipped.
func classPath(t *testing.T, modules map[string][]byte) string {
	t.Helper()

	dir := t.TempDir()
	entries := []string{filepath.Join(dir, "bioformats_package.jar")}
	for file, bin := range modules {
		path := filepath.Join(dir, file)
		if err := os.WriteFile(path, bin, 0o600); err != nil {
			t.Fatalf("failed to write module: %v", err)
		}
		entries = append(entries, path)
	}
	return classPathOption + strings.Join(entries, string(filepath.ListSeparator))
}
