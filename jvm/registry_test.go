package jvm

import (
	"errors"
	"testing"
)

type namedBackend string

func (b namedBackend) Name() string { return string(b) }

func (b namedBackend) CreateVM([]string) (VM, Env, Status) { return nil, nil, Err }

func TestRegistry(t *testing.T) {
	Register("registry-test", func() (Backend, error) { return namedBackend("registry-test"), nil })

	b, err := New("registry-test")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if b.Name() != "registry-test" {
		t.Errorf("Name = %q, want registry-test", b.Name())
	}

	found := false
	for _, name := range List() {
		if name == "registry-test" {
			found = true
		}
	}
	if !found {
		t.Errorf("List() = %v, missing registry-test", List())
	}

	if _, err := New("missing-backend"); !errors.Is(err, ErrBackendNotFound) {
		t.Errorf("New(missing) error = %v, want ErrBackendNotFound", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register("registry-test", func() (Backend, error) { return nil, nil })
}

func TestDefault(t *testing.T) {
	if got := Default(); got != FallbackBackend {
		t.Fatalf("Default() = %q without %s registered, want %q", got, DefaultBackend, FallbackBackend)
	}
	if _, err := New(""); !errors.Is(err, ErrBackendNotFound) {
		t.Errorf("New(\"\") error = %v, want ErrBackendNotFound for the unregistered fallback", err)
	}

	Register(DefaultBackend, func() (Backend, error) { return namedBackend(DefaultBackend), nil })
	if got := Default(); got != DefaultBackend {
		t.Errorf("Default() = %q, want %q once registered", got, DefaultBackend)
	}
	b, err := New("")
	if err != nil {
		t.Fatalf("New(\"\") failed: %v", err)
	}
	if b.Name() != DefaultBackend {
		t.Errorf("Name = %q, want %q", b.Name(), DefaultBackend)
	}
}
