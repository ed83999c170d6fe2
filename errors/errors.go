package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates which stage of the bridge lifecycle failed
type Phase string

const (
	PhaseConfig   Phase = "config"   // classpath and option assembly
	PhaseCreate   Phase = "create"   // VM creation
	PhaseAttach   Phase = "attach"   // thread attachment
	PhaseResolve  Phase = "resolve"  // class and method lookup
	PhaseInstance Phase = "instance" // remote object and buffer binding
	PhaseCall     Phase = "call"     // remote method invocation
	PhaseDecode   Phase = "decode"   // pixel and table decoding
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidClassPath Kind = "invalid_classpath"
	KindInvalidBuffer    Kind = "invalid_buffer"
	KindInvalidInput     Kind = "invalid_input"
	KindJNIStatus        Kind = "jni_status"
	KindClassNotFound    Kind = "class_not_found"
	KindMethodNotFound   Kind = "method_not_found"
	KindOutOfMemory      Kind = "out_of_memory"
	KindNoDirectBuffers  Kind = "no_direct_buffers"
	KindNotInitialized   Kind = "not_initialized"
	KindAlreadyCreated   Kind = "already_created"
	KindRemote           Kind = "remote"
	KindTooLarge         Kind = "too_large"
	KindInvalidData      Kind = "invalid_data"
)

// Code is the numeric reason attached to an Error.
// Negative values are JNI status codes reported by the runtime.
// Non-negative values are reasons detected by the bridge itself.
type Code int

const (
	CodeInvalidClassPath Code = iota
	CodeClassNotFound
	CodeMethodNotFound
	CodeInvalidBuffer
	CodeOutOfMemory
	CodeNoDirectBuffers
	CodeNotInitialized
	CodeAlreadyCreated
	CodeInvalidInput
	CodeRemote
	CodeTooLarge
	CodeInvalidData
)

// JNI status codes as returned by JNI_CreateJavaVM and AttachCurrentThread.
const (
	CodeJNIError       Code = -1
	CodeJNIDetached    Code = -2
	CodeJNIVersion     Code = -3
	CodeJNINoMemory    Code = -4
	CodeJNIExists      Code = -5
	CodeJNIInvalidArgs Code = -6
)

var kindCodes = map[Kind]Code{
	KindInvalidClassPath: CodeInvalidClassPath,
	KindClassNotFound:    CodeClassNotFound,
	KindMethodNotFound:   CodeMethodNotFound,
	KindInvalidBuffer:    CodeInvalidBuffer,
	KindOutOfMemory:      CodeOutOfMemory,
	KindNoDirectBuffers:  CodeNoDirectBuffers,
	KindNotInitialized:   CodeNotInitialized,
	KindAlreadyCreated:   CodeAlreadyCreated,
	KindInvalidInput:     CodeInvalidInput,
	KindRemote:           CodeRemote,
	KindTooLarge:         CodeTooLarge,
	KindInvalidData:      CodeInvalidData,
	KindJNIStatus:        CodeJNIError,
}

// String returns the symbolic name of a JNI status or the decimal value.
func (c Code) String() string {
	switch c {
	case CodeJNIError:
		return "JNI_ERR"
	case CodeJNIDetached:
		return "JNI_EDETACHED"
	case CodeJNIVersion:
		return "JNI_EVERSION"
	case CodeJNINoMemory:
		return "JNI_ENOMEM"
	case CodeJNIExists:
		return "JNI_EEXIST"
	case CodeJNIInvalidArgs:
		return "JNI_EINVAL"
	}
	return strconv.Itoa(int(c))
}

// Error is the structured error type used throughout the bridge
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Name   string // class, method or path the error refers to
	Detail string
	Code   Code
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Code < 0 {
		b.WriteString(" (code ")
		b.WriteString(strconv.Itoa(int(e.Code)))
		b.WriteByte(')')
	}

	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(e.Name)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Release exists for callers that mirror explicit error disposal.
// Errors are garbage collected, so it does nothing.
func (e *Error) Release() {}

// Is forwards to the standard library so callers need one errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As forwards to the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// KindErr returns a matcher for errors.Is that ignores the phase.
func KindErr(kind Kind) *Error {
	return &Error{Kind: kind}
}

// CodeOf extracts the reason code from err, or CodeJNIError when err is not
// a bridge error.
func CodeOf(err error) Code {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return CodeJNIError
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder. The code defaults to the one registered
// for kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
			Code:  kindCodes[kind],
		},
	}
}

// Name sets the class, method or path the error refers to
func (b *Builder) Name(name string) *Builder {
	b.err.Name = name
	return b
}

// Code overrides the reason code
func (b *Builder) Code(code Code) *Builder {
	b.err.Code = code
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidClassPath creates a classpath configuration error
func InvalidClassPath(path string, detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidClassPath,
		Code:   CodeInvalidClassPath,
		Name:   path,
		Detail: detail,
		Cause:  cause,
	}
}

// Status creates an error for a negative status returned by the runtime
func Status(phase Phase, status int, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindJNIStatus,
		Code:   Code(status),
		Detail: fmt.Sprintf("%s failed with code %d (%s)", what, status, Code(status)),
	}
}

// ClassNotFound creates a missing class error
func ClassNotFound(phase Phase, class string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClassNotFound,
		Code:   CodeClassNotFound,
		Name:   class,
		Detail: detail,
	}
}

// MethodNotFound creates a missing method error
func MethodNotFound(method, descriptor string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindMethodNotFound,
		Code:   CodeMethodNotFound,
		Name:   method,
		Detail: fmt.Sprintf("no method %s with descriptor %s", method, descriptor),
	}
}

// InvalidBuffer creates an invalid communication buffer error
func InvalidBuffer(detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseInstance,
		Kind:   KindInvalidBuffer,
		Code:   CodeInvalidBuffer,
		Detail: detail,
	}
}

// OutOfMemory creates an allocation failure error
func OutOfMemory(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfMemory,
		Code:   CodeOutOfMemory,
		Detail: what,
	}
}

// NoDirectBuffers creates an error for runtimes lacking direct buffer access
func NoDirectBuffers() *Error {
	return &Error{
		Phase:  PhaseInstance,
		Kind:   KindNoDirectBuffers,
		Code:   CodeNoDirectBuffers,
		Detail: "runtime does not support direct byte buffers over native memory",
	}
}

// NotInitialized creates a not-initialized error for null handles
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Code:   CodeNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// AlreadyCreated creates an error for a second VM construction
func AlreadyCreated(backend string) *Error {
	return &Error{
		Phase:  PhaseCreate,
		Kind:   KindAlreadyCreated,
		Code:   CodeAlreadyCreated,
		Name:   backend,
		Detail: "a VM was already created in this process and cannot be created again",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Code:   CodeInvalidInput,
		Detail: detail,
	}
}

// Remote creates an error carrying the failure text reported by the bridging class
func Remote(method string, text string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindRemote,
		Code:   CodeRemote,
		Name:   method,
		Detail: strings.TrimRight(text, "\x00\n\r\t "),
	}
}

// TooLarge reports a result the bridging class could not fit in the buffer.
func TooLarge(method string, text string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindTooLarge,
		Code:   CodeTooLarge,
		Name:   method,
		Detail: strings.TrimRight(text, "\x00\n\r\t "),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Code:   kindCodes[kind],
		Detail: detail,
		Cause:  cause,
	}
}
