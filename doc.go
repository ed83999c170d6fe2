// Package bfbridge embeds a Java virtual machine in the host process and drives
// the Bio-Formats image decoding library through a single bridging class,
// org.camicroscope.BFBridge.
//
// The library is organized into several packages with distinct responsibilities:
//
//	bfbridge/            Root package with the communication Buffer
//	├── bridge/          VM, Thread and Instance lifecycle plus the 42 call wrappers
//	├── jvm/             Backend contract mirroring the JNI function table
//	│   ├── jni/         cgo backend talking to a real JVM (build tag bfbridge_jni)
//	│   ├── wasmvm/      wazero backend hosting a WebAssembly build of the bridge
//	│   └── refs/        Handle table for local and global references
//	├── reader/          Go-friendly reader with (value, error) results
//	├── imaging/         Raw pixel bytes to image.Image conversion
//	├── worker/          OS-thread-locked goroutine owning one Thread
//	├── config/          TOML and environment configuration
//	├── errors/          Structured error types
//	└── cmd/bfinfo/      Command line inspector with an interactive mode
//
// # Quick Start
//
//	runtime.LockOSThread()
//	defer runtime.UnlockOSThread()
//
//	vm, err := bridge.NewVM(backend, bridge.Options{ClassPath: "/opt/bfbridge/jars"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer vm.Close()
//
//	thread, err := vm.Attach()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer thread.Detach()
//
//	buf, err := bfbridge.NewBuffer(bfbridge.DefaultBufferSize)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer buf.Free()
//
//	inst, err := thread.NewInstance(buf)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close()
//
//	r := reader.New(inst)
//	if err := r.Open("/data/slide.svs"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Lifetimes
//
// Only one VM can ever be created per backend in a process. Once it is closed a
// new one cannot be started. Threads must be detached before the VM is closed,
// and instances must be closed before their thread is detached.
//
// # Thread Safety
//
// A Thread is bound to the OS thread that attached it. Goroutines using the
// bridge directly must call runtime.LockOSThread before Attach and stay locked
// until Detach. The worker package does this for you.
//
// # Communication Buffer
//
// Variable length data (paths, pixels, metadata, error text) travels through
// one caller-owned memory region per Instance. The bridge never frees it.
package bfbridge
