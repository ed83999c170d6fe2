//go:build cgo && bfbridge_jni

package jni

/*
#cgo LDFLAGS: -ljvm
#include <jni.h>
#include <stdint.h>
#include <stdlib.h>

static jint bf_create_vm(JavaVM **vm, JNIEnv **env, char **opts, int n) {
	JavaVMOption *options = calloc(n > 0 ? n : 1, sizeof(JavaVMOption));
	if (options == NULL) {
		return JNI_ENOMEM;
	}
	for (int i = 0; i < n; i++) {
		options[i].optionString = opts[i];
	}
	JavaVMInitArgs args;
	args.version = JNI_VERSION_1_8;
	args.nOptions = n;
	args.options = options;
	args.ignoreUnrecognized = JNI_FALSE;
	jint rc = JNI_CreateJavaVM(vm, (void **)env, &args);
	free(options);
	return rc;
}

static jint bf_attach(JavaVM *vm, JNIEnv **env) {
	return (*vm)->AttachCurrentThread(vm, (void **)env, NULL);
}

static jint bf_detach(JavaVM *vm) { return (*vm)->DetachCurrentThread(vm); }
static jint bf_destroy(JavaVM *vm) { return (*vm)->DestroyJavaVM(vm); }

static uintptr_t bf_find_class(JNIEnv *env, const char *name) {
	return (uintptr_t)(*env)->FindClass(env, name);
}

static uintptr_t bf_get_method_id(JNIEnv *env, uintptr_t cls, const char *name, const char *sig) {
	return (uintptr_t)(*env)->GetMethodID(env, (jclass)cls, name, sig);
}

static void bf_set_int(jvalue *args, int i, jint v) { args[i].i = v; }
static void bf_set_object(jvalue *args, int i, uintptr_t v) { args[i].l = (jobject)v; }

static uintptr_t bf_new_object(JNIEnv *env, uintptr_t cls, uintptr_t ctor, const jvalue *args) {
	return (uintptr_t)(*env)->NewObjectA(env, (jclass)cls, (jmethodID)ctor, args);
}

static uintptr_t bf_new_global_ref(JNIEnv *env, uintptr_t obj) {
	return (uintptr_t)(*env)->NewGlobalRef(env, (jobject)obj);
}

static void bf_delete_global_ref(JNIEnv *env, uintptr_t obj) { (*env)->DeleteGlobalRef(env, (jobject)obj); }
static void bf_delete_local_ref(JNIEnv *env, uintptr_t obj) { (*env)->DeleteLocalRef(env, (jobject)obj); }

static uintptr_t bf_new_direct_byte_buffer(JNIEnv *env, void *addr, jlong n) {
	return (uintptr_t)(*env)->NewDirectByteBuffer(env, addr, n);
}

static void bf_call_void(JNIEnv *env, uintptr_t obj, uintptr_t m, const jvalue *args) {
	(*env)->CallVoidMethodA(env, (jobject)obj, (jmethodID)m, args);
}

static jint bf_call_int(JNIEnv *env, uintptr_t obj, uintptr_t m, const jvalue *args) {
	return (*env)->CallIntMethodA(env, (jobject)obj, (jmethodID)m, args);
}

static jdouble bf_call_double(JNIEnv *env, uintptr_t obj, uintptr_t m, const jvalue *args) {
	return (*env)->CallDoubleMethodA(env, (jobject)obj, (jmethodID)m, args);
}

static jboolean bf_exception_check(JNIEnv *env) { return (*env)->ExceptionCheck(env); }
static void bf_exception_describe(JNIEnv *env) { (*env)->ExceptionDescribe(env); }
*/
import "C"

import (
	"unsafe"

	"github.com/wippyai/bfbridge/jvm"
)

func init() {
	jvm.Register(Name, New)
}

// Backend creates the process JVM through JNI_CreateJavaVM.
type Backend struct{}

// New returns the JNI backend.
func New() (jvm.Backend, error) {
	return Backend{}, nil
}

func (Backend) Name() string {
	return Name
}

// CreateVM passes options to the JVM verbatim. Unrecognized options are
// an error, as with the java launcher.
func (Backend) CreateVM(options []string) (jvm.VM, jvm.Env, jvm.Status) {
	opts := make([]*C.char, len(options))
	for i, o := range options {
		opts[i] = C.CString(o)
	}
	defer func() {
		for _, p := range opts {
			C.free(unsafe.Pointer(p))
		}
	}()

	var cOpts **C.char
	if len(opts) > 0 {
		cOpts = (**C.char)(C.malloc(C.size_t(len(opts)) * C.size_t(unsafe.Sizeof(uintptr(0)))))
		defer C.free(unsafe.Pointer(cOpts))
		copy(unsafe.Slice(cOpts, len(opts)), opts)
	}

	var vm *C.JavaVM
	var env *C.JNIEnv
	rc := C.bf_create_vm(&vm, &env, cOpts, C.int(len(opts)))
	if rc != C.JNI_OK {
		return nil, nil, jvm.Status(rc)
	}
	return &VM{vm: vm}, &Env{env: env}, jvm.OK
}

// VM wraps a JavaVM pointer.
type VM struct {
	vm *C.JavaVM
}

func (v *VM) AttachCurrentThread() (jvm.Env, jvm.Status) {
	var env *C.JNIEnv
	if rc := C.bf_attach(v.vm, &env); rc != C.JNI_OK {
		return nil, jvm.Status(rc)
	}
	return &Env{env: env}, jvm.OK
}

func (v *VM) DetachCurrentThread() jvm.Status {
	return jvm.Status(C.bf_detach(v.vm))
}

func (v *VM) Destroy() jvm.Status {
	return jvm.Status(C.bf_destroy(v.vm))
}

// Env wraps the JNIEnv of one attached thread.
type Env struct {
	env *C.JNIEnv
}

func ref(r jvm.Ref) C.uintptr_t {
	return C.uintptr_t(r)
}

// jvalues converts args into a C-layout jvalue array, nil when empty.
func jvalues(args []jvm.Value) *C.jvalue {
	if len(args) == 0 {
		return nil
	}
	vals := make([]C.jvalue, len(args))
	for i, a := range args {
		switch a.Kind {
		case jvm.KindObject:
			C.bf_set_object(&vals[0], C.int(i), ref(a.Ref))
		default:
			C.bf_set_int(&vals[0], C.int(i), C.jint(a.Int))
		}
	}
	return &vals[0]
}

func (e *Env) FindClass(name string) jvm.Ref {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return jvm.Ref(C.bf_find_class(e.env, cName))
}

func (e *Env) GetMethodID(cls jvm.Ref, name, sig string) jvm.MethodID {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	cSig := C.CString(sig)
	defer C.free(unsafe.Pointer(cSig))
	return jvm.MethodID(C.bf_get_method_id(e.env, ref(cls), cName, cSig))
}

func (e *Env) NewObject(cls jvm.Ref, ctor jvm.MethodID, args ...jvm.Value) jvm.Ref {
	p := jvalues(args)
	return jvm.Ref(C.bf_new_object(e.env, ref(cls), C.uintptr_t(ctor), p))
}

func (e *Env) NewGlobalRef(obj jvm.Ref) jvm.Ref {
	return jvm.Ref(C.bf_new_global_ref(e.env, ref(obj)))
}

func (e *Env) DeleteGlobalRef(obj jvm.Ref) {
	C.bf_delete_global_ref(e.env, ref(obj))
}

func (e *Env) DeleteLocalRef(obj jvm.Ref) {
	C.bf_delete_local_ref(e.env, ref(obj))
}

func (e *Env) NewDirectByteBuffer(addr unsafe.Pointer, n int) jvm.Ref {
	return jvm.Ref(C.bf_new_direct_byte_buffer(e.env, addr, C.jlong(n)))
}

func (e *Env) CallVoidMethod(obj jvm.Ref, m jvm.MethodID, args ...jvm.Value) {
	p := jvalues(args)
	C.bf_call_void(e.env, ref(obj), C.uintptr_t(m), p)
}

func (e *Env) CallIntMethod(obj jvm.Ref, m jvm.MethodID, args ...jvm.Value) int32 {
	p := jvalues(args)
	return int32(C.bf_call_int(e.env, ref(obj), C.uintptr_t(m), p))
}

func (e *Env) CallDoubleMethod(obj jvm.Ref, m jvm.MethodID, args ...jvm.Value) float64 {
	p := jvalues(args)
	return float64(C.bf_call_double(e.env, ref(obj), C.uintptr_t(m), p))
}

func (e *Env) ExceptionCheck() bool {
	return C.bf_exception_check(e.env) != C.JNI_FALSE
}

func (e *Env) ExceptionDescribe() {
	C.bf_exception_describe(e.env)
}
