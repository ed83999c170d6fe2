// Package jni is the jvm.Backend that embeds a HotSpot-compatible JVM
// through the JNI invocation API.
//
// The cgo implementation is only built with the bfbridge_jni tag, since it
// needs the JDK headers and libjvm at build time:
//
//	CGO_CFLAGS="-I$JAVA_HOME/include -I$JAVA_HOME/include/linux" \
//	CGO_LDFLAGS="-L$JAVA_HOME/lib/server -ljvm" \
//	go build -tags bfbridge_jni ./...
//
// Without the tag New returns ErrUnavailable and no backend is registered.
// Direct byte buffers handed to the JVM must not live in Go memory; use
// bfbridge.NewBuffer.
package jni

import "errors"

// Name is the registry name of this backend.
const Name = "jni"

// ErrUnavailable is returned by New in builds without JNI support.
var ErrUnavailable = errors.New("jni backend not compiled in (build with cgo and -tags bfbridge_jni)")
