package foreign

import (
	"fmt"
	"iter"
	"slices"

	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/host"
)

// indexed walks c from 0 to the length read when iteration starts.
func indexed(c host.Indexable) iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		n := c.Length()
		for i := 0; i < n; i++ {
			if !yield(i, c.Get(i)) {
				return
			}
		}
	}
}

// Values yields the elements of c unchanged.
func Values(c host.Indexable) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range indexed(c) {
			if !yield(v) {
				return
			}
		}
	}
}

// Collect gathers the elements of c into a slice.
func Collect(c host.Indexable) []any {
	return slices.Collect(Values(c))
}

// Slice adapts a generic host array to Indexable.
type Slice []any

func (s Slice) Length() int { return len(s) }

func (s Slice) Get(i int) any { return s[i] }

// OneOrMany is a normalized argument that was either one wrapper or a
// collection of them.
type OneOrMany[T any] struct {
	b    *Binding[T]
	one  host.Wrapper
	many host.Indexable
}

// IsOne reports whether the argument was a single wrapper.
func (o OneOrMany[T]) IsOne() bool { return o.one != nil }

// Len returns the number of items.
func (o OneOrMany[T]) Len() int {
	if o.one != nil {
		return 1
	}
	return o.many.Length()
}

// Owned resolves every item, consuming the handles, in order.
func (o OneOrMany[T]) Owned() []T {
	if o.one != nil {
		return []T{o.b.Owned(o.one)}
	}
	return slices.Collect(o.b.Iter(o.many))
}

// Each borrows every item in order and stops at the first error.
func (o OneOrMany[T]) Each(fn func(int, T) error) error {
	if o.one != nil {
		return o.b.Borrow(o.one, func(v T) error { return fn(0, v) })
	}
	return o.b.IterBorrowed(o.many, fn)
}

// Normalize accepts a single wrapper of this binding or a collection of
// them. A value that is both is treated as a single item. Wrappers of other
// types fail with InvalidArgument; in an array every element is checked up
// front, a host collection is checked as it is resolved.
func (b *Binding[T]) Normalize(v any) (OneOrMany[T], error) {
	w, isWrapper := v.(host.Wrapper)
	if isWrapper && b.Accepts(w) {
		return OneOrMany[T]{b: b, one: w}, nil
	}
	if s, ok := v.(Slice); ok {
		v = []any(s)
	}
	if arr, ok := v.([]any); ok {
		if b.acceptsAll(arr) {
			return OneOrMany[T]{b: b, many: Slice(arr)}, nil
		}
	} else if c, ok := v.(host.Indexable); ok {
		return OneOrMany[T]{b: b, many: c}, nil
	}
	got := fmt.Sprintf("%T", v)
	if isWrapper {
		got = w.Binding() + " reference"
	}
	return OneOrMany[T]{}, errors.Newf(errors.ErrorTypeInvalidArgument,
		"expected %s or a collection of %s, got %s", b.name, b.name, got).
		WithDetail("binding", b.name)
}

func (b *Binding[T]) acceptsAll(arr []any) bool {
	for _, v := range arr {
		if w, ok := v.(host.Wrapper); !ok || !b.Accepts(w) {
			return false
		}
	}
	return true
}
