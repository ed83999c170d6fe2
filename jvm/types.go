package jvm

import (
	"strconv"
	"unsafe"
)

// Status is a JNI return code. Zero means success, negative values are
// failures.
type Status int32

const (
	OK          Status = 0
	Err         Status = -1
	Detached    Status = -2
	Version     Status = -3
	NoMemory    Status = -4
	Exists      Status = -5
	InvalidArgs Status = -6
)

// Failed reports whether s is a failure status.
func (s Status) Failed() bool {
	return s < 0
}

func (s Status) String() string {
	switch s {
	case OK:
		return "JNI_OK"
	case Err:
		return "JNI_ERR"
	case Detached:
		return "JNI_EDETACHED"
	case Version:
		return "JNI_EVERSION"
	case NoMemory:
		return "JNI_ENOMEM"
	case Exists:
		return "JNI_EEXIST"
	case InvalidArgs:
		return "JNI_EINVAL"
	}
	return "status " + strconv.Itoa(int(s))
}

// Ref is an opaque object reference. The zero Ref is null.
type Ref uintptr

// MethodID identifies a resolved method. The zero MethodID is null.
type MethodID uintptr

// ValueKind tags the member of a Value in use.
type ValueKind uint8

const (
	KindInt ValueKind = iota
	KindObject
)

// Value is one call argument, the Go counterpart of jvalue restricted to the
// types the bridge passes.
type Value struct {
	Ref  Ref
	Int  int32
	Kind ValueKind
}

// Int wraps an int argument.
func Int(v int32) Value {
	return Value{Int: v, Kind: KindInt}
}

// Object wraps a reference argument.
func Object(r Ref) Value {
	return Value{Ref: r, Kind: KindObject}
}

// Backend creates the process VM.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string

	// CreateVM starts a runtime with the given option strings and attaches
	// the calling OS thread. On failure VM and Env are nil.
	CreateVM(options []string) (VM, Env, Status)
}

// VM is a running runtime.
type VM interface {
	// AttachCurrentThread attaches the calling OS thread, or returns the
	// existing environment if it is already attached.
	AttachCurrentThread() (Env, Status)

	// DetachCurrentThread detaches the calling OS thread.
	DetachCurrentThread() Status

	// Destroy shuts the runtime down. The VM cannot be used afterwards.
	Destroy() Status
}

// Env is a per-thread environment.
type Env interface {
	FindClass(name string) Ref
	GetMethodID(class Ref, name, sig string) MethodID

	NewObject(class Ref, ctor MethodID, args ...Value) Ref
	NewGlobalRef(obj Ref) Ref
	DeleteGlobalRef(obj Ref)
	DeleteLocalRef(obj Ref)

	// NewDirectByteBuffer wraps n bytes at addr without copying. It returns
	// the zero Ref when the runtime lacks direct buffer support or when
	// allocation fails; the two cases are told apart by ExceptionCheck.
	NewDirectByteBuffer(addr unsafe.Pointer, n int) Ref

	CallVoidMethod(obj Ref, m MethodID, args ...Value)
	CallIntMethod(obj Ref, m MethodID, args ...Value) int32
	CallDoubleMethod(obj Ref, m MethodID, args ...Value) float64

	// ExceptionCheck reports whether an exception is pending.
	ExceptionCheck() bool

	// ExceptionDescribe prints the pending exception and clears it.
	ExceptionDescribe()
}

// ExceptionTexter is implemented by environments that can return the pending
// exception description instead of printing it. The text is consumed.
type ExceptionTexter interface {
	ExceptionText() string
}
