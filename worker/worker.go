package worker

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/bfbridge/bridge"
	"github.com/wippyai/bfbridge/errors"
)

// Func runs on the worker's OS thread with its attached Thread.
type Func func(t *bridge.Thread) error

type result struct {
	err   error
	panic any
}

type request struct {
	fn   Func
	done chan result
}

// Worker serialises calls onto one locked OS thread.
type Worker struct {
	requests  chan request
	quit      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
}

// Start launches the worker goroutine and attaches its OS thread to vm. It
// returns the attach error when attaching fails.
func Start(vm *bridge.VM) (*Worker, error) {
	w := &Worker{
		requests: make(chan request),
		quit:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	ready := make(chan error, 1)
	go w.run(vm, ready)
	if err := <-ready; err != nil {
		<-w.exited
		return nil, err
	}
	return w, nil
}

func (w *Worker) run(vm *bridge.VM, ready chan<- error) {
	defer close(w.exited)
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	thread, err := vm.Attach()
	if err != nil {
		ready <- err
		return
	}
	defer thread.Detach()
	ready <- nil
	bridge.Logger().Debug("worker started")

	for {
		select {
		case req := <-w.requests:
			req.done <- call(thread, req.fn)
		case <-w.quit:
			bridge.Logger().Debug("worker stopped")
			return
		}
	}
}

func call(thread *bridge.Thread, fn Func) (res result) {
	defer func() {
		if p := recover(); p != nil {
			bridge.Logger().Error("worker call panicked", zap.Any("panic", p))
			res.panic = p
		}
	}()
	return result{err: fn(thread)}
}

// Do runs fn on the worker and returns its error. ctx bounds only the wait
// for the worker to accept fn: once running, fn completes and Do waits for
// it. A panic in fn is re-raised in the caller.
func (w *Worker) Do(ctx context.Context, fn Func) error {
	req := request{fn: fn, done: make(chan result, 1)}
	select {
	case w.requests <- req:
	case <-w.quit:
		return errors.NotInitialized(errors.PhaseCall, "Worker")
	case <-ctx.Done():
		return ctx.Err()
	}
	res := <-req.done
	if res.panic != nil {
		panic(res.panic)
	}
	return res.err
}

// Close stops the worker after the call in flight, detaches its Thread and
// unlocks the OS thread. It is safe to call more than once.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		close(w.quit)
	})
	<-w.exited
	return nil
}
