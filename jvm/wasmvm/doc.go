// Package wasmvm is a jvm.Backend that hosts the bridging class as a
// WebAssembly module on wazero.
//
// Class path entries ending in .wasm are compiled when the VM is created.
// A class a/b/C resolves to the module named a.b.C.wasm, or C.wasm when no
// fully qualified module exists. Every NewObject instantiates a fresh
// anonymous instance of the module.
//
// # Guest contract
//
// Each method is an exported function named like the method, with
// parameters and result mapped from the descriptor:
//
//	I Z B C S  -> i32
//	J          -> i64
//	F          -> f32
//	D          -> f64
//	L...;      -> i32 pointer, i32 length (direct byte buffer)
//	V result   -> no result
//
// A constructor is the optional export "<init>" of type () -> (). Modules
// built as WASI reactors get "_initialize" run at instantiation.
//
// Direct byte buffers are emulated. The first time a buffer is passed to an
// object, guest memory grows to hold a region of the same size and the host
// bytes are copied into it. After that only prefixes travel: before a call,
// as many bytes as its largest int argument are copied in, and after it, as
// many bytes as an int or long result reports are copied back out. This is
// the shape of every bridge call, where inputs are passed with their length
// and results return the byte count they wrote. Guests without exported
// memory cannot take a buffer, and binding one throws
// UnsupportedOperationException.
//
// Guests raise exceptions through the host import
//
//	(import "bfbridge" "throw" (func (param i32 i32)))
//
// which records the UTF-8 text at (pointer, length) as pending. A trap also
// leaves a pending exception, and the call returns -1.
//
// Passing "-Dbfbridge.cachedir=<dir>" enables wazero's on-disk compilation
// cache in dir.
package wasmvm
