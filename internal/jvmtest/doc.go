// Package jvmtest provides an in-process fake of the jvm contract.
//
// The fake hosts a Go rendition of the bridging class over in-memory images,
// counts lifecycle calls, tracks live references and can be told to fail at
// any lifecycle step. Each Backend should get a unique name because the
// bridge allows only one VM per backend name per process.
package jvmtest
