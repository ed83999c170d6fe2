// Package worker runs bridge calls on a dedicated OS thread.
//
// Attachments to the runtime belong to OS threads, while goroutines move
// between threads freely. A Worker owns one goroutine locked to its OS
// thread for its whole life and one bridge.Thread attached there. Any
// goroutine can hand it work:
//
//	w, err := worker.Start(vm)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	err = w.Do(ctx, func(t *bridge.Thread) error {
//		...
//	})
//
// A Session adds one Instance and Reader owned by the worker, which is the
// usual shape for serving image requests.
package worker
