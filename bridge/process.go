package bridge

import "sync"

// A JVM cannot be created again in a process once one has existed, so each
// backend name gets a single construction attempt.
var process = struct {
	created map[string]bool
	mu      sync.Mutex
}{created: make(map[string]bool)}

// claim consumes the construction attempt for backend. It reports false when
// the attempt was already used.
func claim(backend string) bool {
	process.mu.Lock()
	defer process.mu.Unlock()
	if process.created[backend] {
		return false
	}
	process.created[backend] = true
	return true
}

// Created reports whether a VM construction was attempted for backend in
// this process. Once true, NewVM with that backend always fails.
func Created(backend string) bool {
	process.mu.Lock()
	defer process.mu.Unlock()
	return process.created[backend]
}
