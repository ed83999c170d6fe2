package bridge

import "golang.org/x/sys/unix"

// currentThreadID identifies the calling OS thread.
func currentThreadID() int {
	return unix.Gettid()
}
