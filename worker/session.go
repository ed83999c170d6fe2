package worker

import (
	"context"
	"sync"

	"github.com/wippyai/bfbridge"
	"github.com/wippyai/bfbridge/bridge"
	"github.com/wippyai/bfbridge/reader"
)

// Session is a Worker owning one Instance bound to a caller buffer.
type Session struct {
	w    *Worker
	inst *bridge.Instance
	r    *reader.Reader
	once sync.Once
}

// NewSession starts a worker and creates an Instance over buf on it. The
// caller keeps ownership of buf and must keep it alive until Close.
func NewSession(vm *bridge.VM, buf *bfbridge.Buffer) (*Session, error) {
	w, err := Start(vm)
	if err != nil {
		return nil, err
	}
	s := &Session{w: w}
	err = w.Do(context.Background(), func(t *bridge.Thread) error {
		inst, err := t.NewInstance(buf)
		if err != nil {
			return err
		}
		s.inst = inst
		s.r = reader.New(inst)
		return nil
	})
	if err != nil {
		w.Close()
		return nil, err
	}
	return s, nil
}

// Read runs fn with the session's Reader on the worker thread.
func (s *Session) Read(ctx context.Context, fn func(r *reader.Reader) error) error {
	return s.w.Do(ctx, func(*bridge.Thread) error {
		return fn(s.r)
	})
}

// Do runs fn with the session's Instance on the worker thread.
func (s *Session) Do(ctx context.Context, fn func(inst *bridge.Instance) error) error {
	return s.w.Do(ctx, func(*bridge.Thread) error {
		return fn(s.inst)
	})
}

// Close releases the Instance and stops the worker. Later calls do
// nothing.
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		err = s.w.Do(context.Background(), func(*bridge.Thread) error {
			s.inst.Close()
			return nil
		})
		s.w.Close()
	})
	return err
}
