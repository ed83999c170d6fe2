//go:build !cgo || !bfbridge_jni

package jni

import "github.com/wippyai/bfbridge/jvm"

// New reports that the JNI backend is not part of this build.
func New() (jvm.Backend, error) {
	return nil, ErrUnavailable
}
