// Package jvm defines the runtime contract the bridge is written against.
//
// The interfaces mirror the small slice of the JNI invocation and function
// tables the bridge needs: VM creation, thread attachment, class and method
// lookup, object and reference management, direct byte buffers, three call
// shapes and exception inspection. Like JNI, lookups report failure with a
// zero Ref or MethodID and a pending exception rather than a Go error.
//
// Backends register themselves by name from an init function:
//
//	func init() {
//	    jvm.Register("wasm", func() (jvm.Backend, error) { return New(Config{}), nil })
//	}
//
// and are obtained with New:
//
//	backend, err := jvm.New("wasm")
package jvm
