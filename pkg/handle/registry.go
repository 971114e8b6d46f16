package handle

import (
	"fmt"
	"sync"
)

// Registry is a generation-checked arena of values of one type.
type Registry[T any] struct {
	mu        sync.Mutex
	entries   []entry[T]
	freeList  []int
	live      int
	closed    bool
	observers []Observer
}

type entry[T any] struct {
	value       T
	generation  uint32
	borrowCount uint32
	valid       bool
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		entries:  make([]entry[T], 0, 64),
		freeList: make([]int, 0, 16),
	}
}

// Subscribe adds an observer for lifecycle events.
func (r *Registry[T]) Subscribe(o Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, o)
	r.mu.Unlock()
}

// Insert stores value and returns a fresh handle for it.
func (r *Registry[T]) Insert(value T) Handle {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		panic("handle: insert into closed registry")
	}

	var slot int
	if n := len(r.freeList); n > 0 {
		slot = r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
	} else {
		r.entries = append(r.entries, entry[T]{})
		slot = len(r.entries) - 1
	}
	e := &r.entries[slot]
	e.value = value
	e.valid = true
	e.borrowCount = 0
	r.live++
	h := newHandle(slot, e.generation)
	ev := Event{Handle: h, Type: EventCreated, Live: r.live}
	obs := r.observers
	r.mu.Unlock()

	notify(obs, ev)
	return h
}

// Take consumes the handle and returns its value. The slot is freed and any
// later use of h panics. Taking a handle that is stale, foreign to this
// registry or currently borrowed panics.
func (r *Registry[T]) Take(h Handle) T {
	r.mu.Lock()
	e := r.lookupLocked(h)
	if e.borrowCount > 0 {
		r.mu.Unlock()
		panic(fmt.Sprintf("handle: %s taken while borrowed", h))
	}
	value := r.freeLocked(h, e)
	ev := Event{Handle: h, Type: EventTaken, Live: r.live}
	obs := r.observers
	r.mu.Unlock()

	notify(obs, ev)
	return value
}

// Borrow runs fn with the value behind h. The value must not be retained
// after fn returns. While fn runs the handle cannot be taken or dropped.
func (r *Registry[T]) Borrow(h Handle, fn func(T) error) error {
	r.mu.Lock()
	e := r.lookupLocked(h)
	e.borrowCount++
	value := e.value
	ev := Event{Handle: h, Type: EventBorrowed, Live: r.live}
	obs := r.observers
	r.mu.Unlock()
	notify(obs, ev)

	defer func() {
		r.mu.Lock()
		// Close may have invalidated the slot while fn ran.
		if slot := h.slot(); slot < len(r.entries) {
			if e := &r.entries[slot]; e.valid && e.generation == h.generation() && e.borrowCount > 0 {
				e.borrowCount--
			}
		}
		ev := Event{Handle: h, Type: EventBorrowReturned, Live: r.live}
		obs := r.observers
		r.mu.Unlock()
		notify(obs, ev)
	}()

	return fn(value)
}

// Get probes h without consuming it. It never panics.
func (r *Registry[T]) Get(h Handle) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	e, ok := r.entryLocked(h)
	if !ok {
		return zero, false
	}
	return e.value, true
}

// Drop frees h and calls Drop on its value when it implements Dropper.
// It reports false for stale or borrowed handles instead of panicking.
func (r *Registry[T]) Drop(h Handle) bool {
	r.mu.Lock()
	e, ok := r.entryLocked(h)
	if !ok || e.borrowCount > 0 {
		r.mu.Unlock()
		return false
	}
	value := r.freeLocked(h, e)
	ev := Event{Handle: h, Type: EventDropped, Live: r.live}
	obs := r.observers
	r.mu.Unlock()

	if d, ok := any(value).(Dropper); ok {
		d.Drop()
	}
	notify(obs, ev)
	return true
}

// Len returns the number of live values.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Each calls fn for every live value in slot order until fn returns false.
// fn must not call back into the registry.
func (r *Registry[T]) Each(fn func(Handle, T) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		e := &r.entries[i]
		if !e.valid {
			continue
		}
		if !fn(newHandle(i, e.generation), e.value) {
			return
		}
	}
}

// Close drops every live value and rejects further inserts.
func (r *Registry[T]) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true

	var dropped []T
	for i := range r.entries {
		if r.entries[i].valid {
			dropped = append(dropped, r.entries[i].value)
		}
	}
	r.entries = nil
	r.freeList = nil
	r.live = 0
	r.mu.Unlock()

	for _, v := range dropped {
		if d, ok := any(v).(Dropper); ok {
			d.Drop()
		}
	}
	return nil
}

func (r *Registry[T]) entryLocked(h Handle) (*entry[T], bool) {
	if h == 0 {
		return nil, false
	}
	slot := h.slot()
	if slot < 0 || slot >= len(r.entries) {
		return nil, false
	}
	e := &r.entries[slot]
	if !e.valid || e.generation != h.generation() {
		return nil, false
	}
	return e, true
}

// lookupLocked is entryLocked for paths where an invalid handle is a
// contract violation. It releases the lock before panicking.
func (r *Registry[T]) lookupLocked(h Handle) *entry[T] {
	e, ok := r.entryLocked(h)
	if !ok {
		r.mu.Unlock()
		panic(fmt.Sprintf("handle: stale or foreign %s", h))
	}
	return e
}

func (r *Registry[T]) freeLocked(h Handle, e *entry[T]) T {
	var zero T
	value := e.value
	e.value = zero
	e.valid = false
	e.borrowCount = 0
	e.generation = nextGeneration(e.generation)
	r.freeList = append(r.freeList, h.slot())
	r.live--
	return value
}

func notify(obs []Observer, ev Event) {
	for _, o := range obs {
		o(ev)
	}
}
