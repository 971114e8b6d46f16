package foreign

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/handle"
)

type widget struct{ id int }

// counting is a host collection that records how often it is read.
type counting struct {
	items   []any
	lengths int
	gets    []int
}

func (c *counting) Length() int {
	c.lengths++
	return len(c.items)
}

func (c *counting) Get(i int) any {
	c.gets = append(c.gets, i)
	return c.items[i]
}

// both is a wrapper that also looks like a collection.
type both struct {
	*Ref
	items []any
}

func (b both) Length() int   { return len(b.items) }
func (b both) Get(i int) any { return b.items[i] }

func newBinding(t *testing.T) *Binding[*widget] {
	t.Helper()
	b := Register[*widget](t.Name())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestRegisterTwicePanics(t *testing.T) {
	newBinding(t)
	assert.Panics(t, func() { Register[*widget](t.Name()) })
	assert.Contains(t, Registered(), t.Name())
}

func TestOwnedAndBorrowed(t *testing.T) {
	b := newBinding(t)
	ref := b.Export(&widget{id: 1})
	assert.Equal(t, 1, b.Live())

	err := b.Borrow(ref, func(w *widget) error {
		assert.Equal(t, 1, w.id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Live(), "borrowing keeps the handle alive")

	w := b.Owned(ref)
	assert.Equal(t, 1, w.id)
	assert.Equal(t, 0, b.Live())

	assert.Panics(t, func() { b.Owned(ref) }, "consumed handle is stale")
	assert.Panics(t, func() { _ = b.Borrow(ref, func(*widget) error { return nil }) })
	assert.False(t, b.Release(ref))
}

func TestBorrowErrorPropagates(t *testing.T) {
	b := newBinding(t)
	ref := b.Export(&widget{})
	boom := fmt.Errorf("boom")
	assert.Equal(t, boom, b.Borrow(ref, func(*widget) error { return boom }))
	assert.True(t, b.Release(ref))
}

func TestIterSnapshotsLengthAndRestarts(t *testing.T) {
	b := newBinding(t)
	c := &counting{}
	for i := 0; i < 3; i++ {
		c.items = append(c.items, b.Export(&widget{id: i}))
	}

	seq := Values(c)
	var seen []any
	for v := range seq {
		seen = append(seen, v)
		// Growing the collection mid-iteration does not extend the walk.
		if len(seen) == 1 {
			c.items = append(c.items, "late")
		}
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, []int{0, 1, 2}, c.gets)

	assert.Len(t, slices.Collect(seq), 4, "ranging again rereads the length")
	assert.Equal(t, 2, c.lengths)
}

func TestIterResolvesOwned(t *testing.T) {
	b := newBinding(t)
	c := Slice{b.Export(&widget{id: 7}), b.Export(&widget{id: 8})}

	var ids []int
	for w := range b.Iter(c) {
		ids = append(ids, w.id)
	}
	assert.Equal(t, []int{7, 8}, ids)
	assert.Equal(t, 0, b.Live())
}

func TestIterEarlyStop(t *testing.T) {
	b := newBinding(t)
	c := &counting{items: []any{b.Export(&widget{id: 1}), b.Export(&widget{id: 2})}}
	for range b.Iter(c) {
		break
	}
	assert.Equal(t, []int{0}, c.gets)
	assert.Equal(t, 1, b.Live())
}

func TestIterBorrowed(t *testing.T) {
	b := newBinding(t)
	c := Slice{b.Export(&widget{id: 1}), b.Export(&widget{id: 2})}

	var ids []int
	err := b.IterBorrowed(c, func(i int, w *widget) error {
		ids = append(ids, i*10+w.id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 12}, ids)
	assert.Equal(t, 2, b.Live())
}

func TestIterNonWrapperPanics(t *testing.T) {
	b := newBinding(t)
	assert.Panics(t, func() {
		for range b.Iter(Slice{1.0}) {
		}
	})
}

func TestNormalize(t *testing.T) {
	b := newBinding(t)

	one, err := b.Normalize(b.Export(&widget{id: 1}))
	require.NoError(t, err)
	assert.True(t, one.IsOne())
	assert.Equal(t, 1, one.Len())
	assert.Equal(t, 1, one.Owned()[0].id)

	many, err := b.Normalize([]any{b.Export(&widget{id: 2}), b.Export(&widget{id: 3})})
	require.NoError(t, err)
	assert.False(t, many.IsOne())
	assert.Equal(t, 2, many.Len())
	got := many.Owned()
	assert.Equal(t, 2, got[0].id)
	assert.Equal(t, 3, got[1].id)

	coll, err := b.Normalize(Slice{b.Export(&widget{id: 4})})
	require.NoError(t, err)
	assert.False(t, coll.IsOne())

	var ids []int
	require.NoError(t, coll.Each(func(_ int, w *widget) error {
		ids = append(ids, w.id)
		return nil
	}))
	assert.Equal(t, []int{4}, ids)
}

func TestNormalizePrefersSingle(t *testing.T) {
	b := newBinding(t)
	ref := b.Export(&widget{id: 5})
	v := both{Ref: ref, items: []any{b.Export(&widget{id: 6})}}

	n, err := b.Normalize(v)
	require.NoError(t, err)
	assert.True(t, n.IsOne())
	assert.Equal(t, 5, n.Owned()[0].id)
}

func TestNormalizeRejects(t *testing.T) {
	b := newBinding(t)
	for _, v := range []any{nil, 42.0, "x", []any{1.0}, map[string]any{}} {
		_, err := b.Normalize(v)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
		assert.Contains(t, err.Error(), fmt.Sprintf("%T", v))
	}
}

func TestRefString(t *testing.T) {
	b := newBinding(t)
	ref := b.Export(&widget{})
	assert.Equal(t, t.Name()+"("+ref.Ptr().String()+")", ref.String())
	assert.NotEqual(t, handle.Handle(0), ref.Ptr())
}

func TestWrapperOfAnotherBinding(t *testing.T) {
	b := newBinding(t)
	other := Register[*widget](t.Name() + "Other")
	t.Cleanup(func() { _ = other.Close() })

	// Both registries hand out the same first handle.
	mine := b.Export(&widget{id: 1})
	theirs := other.Export(&widget{id: 2})
	require.Equal(t, mine.Ptr(), theirs.Ptr())
	assert.True(t, b.Accepts(mine))
	assert.False(t, b.Accepts(theirs))

	err := b.Borrow(theirs, func(*widget) error {
		t.Fatal("resolved a wrapper of another type")
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
	assert.Contains(t, err.Error(), t.Name()+"Other reference")

	_, err = b.Normalize(theirs)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))

	_, err = b.Normalize([]any{mine, theirs})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))

	assert.Panics(t, func() { b.Owned(theirs) })
	assert.False(t, b.Release(theirs))
	assert.Equal(t, 1, other.Live(), "the other binding keeps its value")
	assert.Equal(t, 1, b.Live())
}
