// Package bridge drives the org.camicroscope.BFBridge class inside an
// embedded Java VM.
//
// Three nested handles make up the lifecycle:
//
//	VM        one per backend per process, created with NewVM
//	Thread    one per OS thread, created with VM.Attach
//	Instance  one per session, created with Thread.NewInstance
//
// Teardown runs in reverse: Instance.Close, Thread.Detach, VM.Close. Closing
// the VM while threads are still attached is a caller error.
//
// # Thread Affinity
//
// A Thread may only be used from the OS thread that attached it. Lock the
// goroutine before attaching and keep it locked until Detach:
//
//	runtime.LockOSThread()
//	defer runtime.UnlockOSThread()
//
// Several Threads attached from the same OS thread share one runtime
// attachment, which is detached when the last of them is released. An
// Instance must only be used on the Thread that created it. None of this is
// checked.
//
// # Calls
//
// Instance methods map one to one onto the remote methods and return their
// raw status. Negative results mean failure, after which ErrorString returns
// the text the remote side left in the communication buffer. The reader
// package turns these statuses into Go errors.
//
// # Move
//
// VM, Thread and Instance have Move methods that hand ownership to a new
// handle and leave the source null. Every operation on a null handle is a
// no-op or returns a not-initialized error.
package bridge
