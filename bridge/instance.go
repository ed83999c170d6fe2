package bridge

import (
	"go.uber.org/zap"

	"github.com/wippyai/bfbridge"
	"github.com/wippyai/bfbridge/errors"
	"github.com/wippyai/bfbridge/jvm"
)

// Instance is one bridging object bound to a communication buffer. The
// buffer stays owned by the caller and is never freed here. The zero
// Instance is null.
type Instance struct {
	att   *attachment
	table *MethodTable
	buf   *bfbridge.Buffer
	obj   jvm.Ref
}

// NewInstance constructs a bridging object and binds buf to it as a direct
// byte buffer. The Instance must be used on t's OS thread only.
func (t *Thread) NewInstance(buf *bfbridge.Buffer) (*Instance, error) {
	if !t.Valid() {
		return nil, errors.NotInitialized(errors.PhaseInstance, "Thread")
	}
	if buf == nil || buf.Pointer() == nil || buf.Len() < 0 {
		return nil, errors.InvalidBuffer("communication buffer is nil or has negative length")
	}

	env := t.att.env
	local := env.NewObject(t.class, t.table.Constructor())
	if local == 0 {
		describeException(env, constructorName)
		return nil, errors.New(errors.PhaseInstance, errors.KindRemote).
			Name(constructorName).
			Detail("could not construct %s", ClassName).
			Build()
	}
	obj := env.NewGlobalRef(local)
	env.DeleteLocalRef(local)
	if obj == 0 {
		describeException(env, "NewGlobalRef")
		return nil, errors.OutOfMemory(errors.PhaseInstance, "NewGlobalRef failed")
	}

	direct := env.NewDirectByteBuffer(buf.Pointer(), buf.Len())
	if direct == 0 {
		if describeException(env, "NewDirectByteBuffer") {
			env.DeleteGlobalRef(obj)
			return nil, errors.OutOfMemory(errors.PhaseInstance, "NewDirectByteBuffer failed")
		}
		env.DeleteGlobalRef(obj)
		return nil, errors.NoDirectBuffers()
	}

	env.CallVoidMethod(obj, t.table.ID(BFSetCommunicationBuffer), jvm.Object(direct))
	env.DeleteLocalRef(direct)
	if describeException(env, BFSetCommunicationBuffer.Name()) {
		env.DeleteGlobalRef(obj)
		return nil, errors.New(errors.PhaseInstance, errors.KindRemote).
			Name(BFSetCommunicationBuffer.Name()).
			Detail("binding the communication buffer threw").
			Build()
	}

	t.att.st.mu.Lock()
	tid := t.att.tid
	t.att.st.mu.Unlock()
	Logger().Debug("instance created", zap.Int("tid", tid), zap.Int("buffer", buf.Len()))

	return &Instance{att: t.att, table: t.table, buf: buf, obj: obj}, nil
}

// Valid reports whether i holds a remote object on a live attachment.
func (i *Instance) Valid() bool {
	return i != nil && i.obj != 0 && i.att.live()
}

// Buffer returns the bound communication buffer, or nil for a null Instance.
func (i *Instance) Buffer() *bfbridge.Buffer {
	if i == nil {
		return nil
	}
	return i.buf
}

// Move transfers the remote object to a new Instance and leaves i null,
// including its buffer view.
func (i *Instance) Move() *Instance {
	if i == nil || i.obj == 0 {
		return &Instance{}
	}
	moved := &Instance{att: i.att, table: i.table, buf: i.buf, obj: i.obj}
	i.att, i.table, i.buf, i.obj = nil, nil, nil, 0
	return moved
}

// Close releases the remote object. It does nothing for a null Instance and
// does not touch the runtime once the Thread or VM is gone. The buffer is
// left to its owner.
func (i *Instance) Close() {
	if i == nil || i.obj == 0 {
		return
	}
	if i.att.live() {
		i.att.env.DeleteGlobalRef(i.obj)
	}
	i.att, i.table, i.buf, i.obj = nil, nil, nil, 0
}
