//go:build !linux

package bridge

import "sync/atomic"

var nextThreadID atomic.Int64

// currentThreadID returns a fresh key per call where the OS thread ID is not
// available, so Threads on such platforms never share an attachment.
func currentThreadID() int {
	return -int(nextThreadID.Add(1))
}
