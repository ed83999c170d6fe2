package refs

import (
	"sync"
	"sync/atomic"
)

type entry struct {
	value any
	scope Scope
	valid bool
}

// Table maps handles to values. It is safe for concurrent use.
type Table struct {
	entries   []entry
	freeList  []Handle
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Insert stores value under a new handle. It returns 0 once the table is closed.
func (t *Table) Insert(scope Scope, value any) Handle {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0
	}

	e := entry{value: value, scope: scope, valid: true}
	var h Handle
	if n := len(t.freeList); n > 0 {
		h = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[h-1] = e
	} else {
		t.entries = append(t.entries, e)
		h = Handle(len(t.entries))
	}
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Scope: scope, Value: value})
	return h
}

// Get retrieves the value behind a live handle.
func (t *Table) Get(h Handle) (any, bool) {
	e, ok := t.lookup(h)
	return e.value, ok
}

// Scope returns the scope of a live handle.
func (t *Table) Scope(h Handle) (Scope, bool) {
	e, ok := t.lookup(h)
	return e.scope, ok
}

func (t *Table) lookup(h Handle) (entry, bool) {
	if h == 0 {
		return entry{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx := int(h) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		return entry{}, false
	}
	return t.entries[idx], true
}

// Delete removes a handle and returns its value. Deleting an invalid or
// already deleted handle returns (nil, false).
func (t *Table) Delete(h Handle) (any, bool) {
	if h == 0 {
		return nil, false
	}

	t.mu.Lock()
	idx := int(h) - 1
	if idx >= len(t.entries) || !t.entries[idx].valid {
		t.mu.Unlock()
		return nil, false
	}
	e := t.entries[idx]
	t.entries[idx] = entry{}
	t.freeList = append(t.freeList, h)
	t.mu.Unlock()

	if d, ok := e.value.(Dropper); ok {
		d.Drop()
	}
	t.notify(Event{Type: EventDeleted, Handle: h, Scope: e.scope, Value: e.value})
	return e.value, true
}

// Len returns the number of live handles in scope.
func (t *Table) Len(scope Scope) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.entries {
		if e.valid && e.scope == scope {
			n++
		}
	}
	return n
}

// Each calls fn for every live handle until fn returns false.
func (t *Table) Each(fn func(Handle, Scope, any) bool) {
	t.mu.RLock()
	snapshot := make([]entry, len(t.entries))
	copy(snapshot, t.entries)
	t.mu.RUnlock()

	for i, e := range snapshot {
		if e.valid && !fn(Handle(i+1), e.scope, e.value) {
			return
		}
	}
}

// Clear deletes every live handle in scope.
func (t *Table) Clear(scope Scope) {
	var handles []Handle
	t.Each(func(h Handle, s Scope, _ any) bool {
		if s == scope {
			handles = append(handles, h)
		}
		return true
	})
	for _, h := range handles {
		t.Delete(h)
	}
}

// Close deletes every handle and stops accepting inserts.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.Clear(Local)
	t.Clear(Global)
	return nil
}

// Subscribe adds an observer for lifecycle events.
func (t *Table) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *Table) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnRefEvent(e)
	}
}

// Counter is an Observer keeping live reference totals.
type Counter struct {
	local  atomic.Int64
	global atomic.Int64
}

// OnRefEvent implements Observer.
func (c *Counter) OnRefEvent(e Event) {
	n := &c.local
	if e.Scope == Global {
		n = &c.global
	}
	if e.Type == EventCreated {
		n.Add(1)
	} else {
		n.Add(-1)
	}
}

// Live returns the number of live references in scope.
func (c *Counter) Live(scope Scope) int64 {
	if scope == Global {
		return c.global.Load()
	}
	return c.local.Load()
}
