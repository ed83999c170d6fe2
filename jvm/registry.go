package jvm

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultBackend is the preferred backend. It is registered only in builds
// with the bfbridge_jni tag.
const DefaultBackend = "jni"

// FallbackBackend stands in for DefaultBackend when that is not registered.
const FallbackBackend = "wasm"

// ErrBackendNotFound is returned by New for unregistered names.
var ErrBackendNotFound = errors.New("backend not found")

// Factory creates a Backend.
type Factory func() (Backend, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register registers a backend factory. It panics on duplicate names.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("jvm backend %s already registered", name))
	}
	factories[name] = factory
}

// Default returns DefaultBackend when it is registered and FallbackBackend
// otherwise.
func Default() string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	if _, ok := factories[DefaultBackend]; ok {
		return DefaultBackend
	}
	return FallbackBackend
}

// New creates a backend by name. An empty name selects Default().
func New(name string) (Backend, error) {
	if name == "" {
		name = Default()
	}

	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown jvm backend %q (registered: %v): %w", name, List(), ErrBackendNotFound)
	}
	return factory()
}

// List returns the registered backend names in sorted order.
func List() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
