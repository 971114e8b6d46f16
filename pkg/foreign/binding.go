// Package foreign binds native values to the host through handles.
//
// Each foreign type the host can hold is registered once as a Binding. The
// binding owns the registry for that type and is the only way to export a
// value, resolve a wrapper (owned or borrowed), iterate a host collection of
// wrappers or normalize a one-or-many argument.
package foreign

import (
	"fmt"
	"iter"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/handle"
	"github.com/ajitpratap0/colbridge/pkg/host"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/metrics"
)

var (
	bindingsMu sync.Mutex
	bindings   = make(map[string]string)
)

// Binding pairs one host foreign type name with its registry.
type Binding[T any] struct {
	name string
	reg  *handle.Registry[T]
}

// Register declares the foreign type name. Registering the same name twice
// panics.
func Register[T any](name string) *Binding[T] {
	bindingsMu.Lock()
	defer bindingsMu.Unlock()

	if prev, ok := bindings[name]; ok {
		panic(fmt.Sprintf("foreign: type %q already registered for %s", name, prev))
	}
	bindings[name] = fmt.Sprintf("%T", *new(T))

	reg := handle.NewRegistry[T]()
	reg.Subscribe(metrics.HandleObserver(name))
	reg.Subscribe(func(ev handle.Event) {
		logger.ForBinding(name).Debug("handle event",
			zap.Stringer("handle", ev.Handle),
			zap.Stringer("event", ev.Type),
			zap.Int("live", ev.Live))
	})
	return &Binding[T]{name: name, reg: reg}
}

// Registered returns the registered type names in sorted order.
func Registered() []string {
	bindingsMu.Lock()
	defer bindingsMu.Unlock()

	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name returns the host type name.
func (b *Binding[T]) Name() string { return b.name }

// Live returns the number of values currently held by the host.
func (b *Binding[T]) Live() int { return b.reg.Len() }

// Export hands v to the host and returns the wrapper carrying its handle.
func (b *Binding[T]) Export(v T) *Ref {
	return &Ref{h: b.reg.Insert(v), binding: b.name}
}

// Accepts reports whether w was issued by this binding.
func (b *Binding[T]) Accepts(w host.Wrapper) bool {
	return w != nil && w.Binding() == b.name
}

func (b *Binding[T]) mismatch(w host.Wrapper) error {
	got := "nil"
	if w != nil {
		got = w.Binding()
	}
	return errors.Newf(errors.ErrorTypeInvalidArgument,
		"expected %s, got %s reference", b.name, got).
		WithDetail("binding", b.name)
}

// Owned consumes the handle carried by w and returns its value. The wrapper
// is dead afterwards. A stale handle or a wrapper of another type panics.
func (b *Binding[T]) Owned(w host.Wrapper) T {
	if !b.Accepts(w) {
		panic(b.mismatch(w).Error())
	}
	return b.reg.Take(w.Ptr())
}

// Borrow runs fn with the value behind w without consuming the handle. The
// value is only valid inside fn. A wrapper of another type is an
// InvalidArgument error.
func (b *Binding[T]) Borrow(w host.Wrapper, fn func(T) error) error {
	if !b.Accepts(w) {
		return b.mismatch(w)
	}
	return b.reg.Borrow(w.Ptr(), fn)
}

// Release frees the value behind r, as when the host garbage collects the
// wrapper. It reports false when the handle was already consumed or belongs
// to another type.
func (b *Binding[T]) Release(r host.Wrapper) bool {
	return b.Accepts(r) && b.reg.Drop(r.Ptr())
}

// Close releases every value still held by the host.
func (b *Binding[T]) Close() error {
	return b.reg.Close()
}

// Iter yields the owned value of every wrapper in c. The length is read once
// when iteration starts and every step reads the element afresh; ranging over
// the sequence again starts over from c.
func (b *Binding[T]) Iter(c host.Indexable) iter.Seq[T] {
	return func(yield func(T) bool) {
		for i, v := range indexed(c) {
			if !yield(b.Owned(b.wrapperAt(v, i))) {
				return
			}
		}
	}
}

// IterBorrowed calls fn with the borrowed value of every wrapper in c, in
// order, and stops at the first error.
func (b *Binding[T]) IterBorrowed(c host.Indexable, fn func(int, T) error) error {
	for i, v := range indexed(c) {
		err := b.Borrow(b.wrapperAt(v, i), func(val T) error { return fn(i, val) })
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *Binding[T]) wrapperAt(v any, i int) host.Wrapper {
	w, ok := v.(host.Wrapper)
	if !ok {
		panic(fmt.Sprintf("foreign: element %d of %s collection is %s, not a wrapper", i, b.name, host.Describe(v)))
	}
	return w
}

// Ref is the wrapper the native side hands to the host.
type Ref struct {
	h       handle.Handle
	binding string
}

// Ptr returns the handle carried by r.
func (r *Ref) Ptr() handle.Handle { return r.h }

// Binding returns the foreign type name r was exported under.
func (r *Ref) Binding() string { return r.binding }

func (r *Ref) String() string {
	return fmt.Sprintf("%s(%s)", r.binding, r.h)
}
