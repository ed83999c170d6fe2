package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/bfbridge/errors"
	"github.com/wippyai/bfbridge/jvm"
)

// attachment is one OS thread's attachment to the runtime, shared by every
// Thread created on that OS thread.
type attachment struct {
	st   *vmState
	env  jvm.Env
	tid  int
	refs int
}

// live reports whether the attachment and its VM are still usable.
func (a *attachment) live() bool {
	if a == nil || a.st.closed.Load() {
		return false
	}
	a.st.mu.Lock()
	defer a.st.mu.Unlock()
	return a.refs > 0
}

// release drops one reference and detaches the OS thread on the last one.
// It must run on the attached OS thread.
func (a *attachment) release() {
	st := a.st
	st.mu.Lock()
	defer st.mu.Unlock()

	if a.refs == 0 {
		return
	}
	a.refs--
	if a.refs > 0 || st.closed.Load() {
		return
	}
	delete(st.attachments, a.tid)
	if status := st.vm.DetachCurrentThread(); status.Failed() {
		Logger().Warn("DetachCurrentThread failed", zap.Int("tid", a.tid), zap.Stringer("status", status))
		return
	}
	Logger().Debug("thread detached", zap.Int("tid", a.tid))
}

// acquire attaches the calling OS thread or takes another reference to its
// existing attachment.
func (st *vmState) acquire() (*attachment, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed.Load() {
		return nil, errors.NotInitialized(errors.PhaseAttach, "VM")
	}

	tid := currentThreadID()
	if a, ok := st.attachments[tid]; ok {
		a.refs++
		return a, nil
	}

	env, status := st.vm.AttachCurrentThread()
	if status.Failed() || env == nil {
		if !status.Failed() {
			status = jvm.Err
		}
		return nil, errors.New(errors.PhaseAttach, errors.KindJNIStatus).
			Code(errors.Code(status)).
			Detail("AttachCurrentThread failed with code %d (%s), see the JNI return codes", int(status), status).
			Build()
	}
	a := &attachment{st: st, env: env, tid: tid, refs: 1}
	st.attachments[tid] = a
	Logger().Debug("thread attached", zap.Int("tid", tid))
	return a, nil
}

// Thread is the calling OS thread's binding to the bridging class with every
// method resolved. The zero Thread is null.
type Thread struct {
	att   *attachment
	table *MethodTable
	class jvm.Ref
}

// Attach binds the calling OS thread. The goroutine must stay locked to its
// OS thread until Detach.
func (v *VM) Attach() (*Thread, error) {
	if v == nil || v.st == nil {
		return nil, errors.NotInitialized(errors.PhaseAttach, "VM")
	}
	att, err := v.st.acquire()
	if err != nil {
		return nil, err
	}
	env := att.env

	class := env.FindClass(ClassName)
	if class == 0 {
		detail := "FindClass failed because org.camicroscope.BFBridge (or a dependency of it) could not be found."
		if describeException(env, "FindClass") {
			detail += " An exception was described."
		}
		att.release()
		return nil, errors.ClassNotFound(errors.PhaseAttach, ClassName, detail)
	}

	table, err := resolveMethods(env, class)
	if err != nil {
		env.DeleteLocalRef(class)
		att.release()
		return nil, err
	}

	return &Thread{att: att, table: table, class: class}, nil
}

// Valid reports whether t is attached to a live VM.
func (t *Thread) Valid() bool {
	return t != nil && t.att != nil && !t.att.st.closed.Load()
}

// Methods returns the resolved method table, or nil for a null Thread.
func (t *Thread) Methods() *MethodTable {
	if t == nil {
		return nil
	}
	return t.table
}

// Move transfers the binding to a new Thread and leaves t null.
func (t *Thread) Move() *Thread {
	if t == nil || t.att == nil {
		return &Thread{}
	}
	moved := &Thread{att: t.att, table: t.table, class: t.class}
	t.att, t.table, t.class = nil, nil, 0
	return moved
}

// Detach releases the binding. The OS thread is detached from the runtime
// when its last Thread is released. Detaching a null Thread, or one whose VM
// is closed, does nothing to the runtime.
func (t *Thread) Detach() {
	if t == nil || t.att == nil {
		return
	}
	att := t.att
	if !att.st.closed.Load() {
		att.env.DeleteLocalRef(t.class)
		att.release()
	}
	t.att, t.table, t.class = nil, nil, 0
}
