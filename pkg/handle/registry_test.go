package handle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dropCounter struct{ n *int }

func (d dropCounter) Drop() { *d.n++ }

func TestInsertTake(t *testing.T) {
	r := NewRegistry[string]()
	h := r.Insert("a")
	require.NotZero(t, h)
	assert.Equal(t, 1, r.Len())

	assert.Equal(t, "a", r.Take(h))
	assert.Equal(t, 0, r.Len())
}

func TestTakeTwicePanics(t *testing.T) {
	r := NewRegistry[int]()
	h := r.Insert(7)
	r.Take(h)
	assert.Panics(t, func() { r.Take(h) })
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	r := NewRegistry[string]()
	old := r.Insert("first")
	r.Take(old)

	fresh := r.Insert("second")
	assert.Equal(t, old.slot(), fresh.slot(), "slot should be reused")
	assert.NotEqual(t, old, fresh)

	_, ok := r.Get(old)
	assert.False(t, ok)
	assert.Panics(t, func() { r.Take(old) })
	assert.Equal(t, "second", r.Take(fresh))
}

func TestZeroAndForeignHandles(t *testing.T) {
	r := NewRegistry[int]()
	assert.Panics(t, func() { r.Take(0) })
	assert.Panics(t, func() { _ = r.Borrow(Handle(99), func(int) error { return nil }) })
	_, ok := r.Get(0)
	assert.False(t, ok)
}

func TestBorrowScoped(t *testing.T) {
	r := NewRegistry[[]int]()
	h := r.Insert([]int{1, 2, 3})

	var seen int
	err := r.Borrow(h, func(v []int) error {
		seen = len(v)
		assert.Panics(t, func() { r.Take(h) }, "take during borrow")
		assert.False(t, r.Drop(h), "drop during borrow")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)

	// The handle stays valid after a borrow.
	assert.Equal(t, []int{1, 2, 3}, r.Take(h))
}

func TestBorrowPropagatesError(t *testing.T) {
	r := NewRegistry[int]()
	h := r.Insert(1)
	boom := errors.New("boom")
	err := r.Borrow(h, func(int) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, r.Take(h))
}

func TestBorrowReleasedOnPanic(t *testing.T) {
	r := NewRegistry[int]()
	h := r.Insert(1)
	assert.Panics(t, func() {
		_ = r.Borrow(h, func(int) error { panic("inside") })
	})
	assert.Equal(t, 1, r.Take(h))
}

func TestDropCallsDropper(t *testing.T) {
	var n int
	r := NewRegistry[dropCounter]()
	h := r.Insert(dropCounter{&n})
	assert.True(t, r.Drop(h))
	assert.False(t, r.Drop(h))
	assert.Equal(t, 1, n)
}

func TestCloseDropsLive(t *testing.T) {
	var n int
	r := NewRegistry[dropCounter]()
	r.Insert(dropCounter{&n})
	r.Insert(dropCounter{&n})
	h := r.Insert(dropCounter{&n})
	r.Take(h)

	require.NoError(t, r.Close())
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, r.Len())
	assert.Panics(t, func() { r.Insert(dropCounter{&n}) })
	require.NoError(t, r.Close())
}

func TestEachSlotOrder(t *testing.T) {
	r := NewRegistry[string]()
	r.Insert("a")
	b := r.Insert("b")
	r.Insert("c")
	r.Take(b)

	var got []string
	r.Each(func(_ Handle, v string) bool {
		got = append(got, v)
		return true
	})
	assert.Equal(t, []string{"a", "c"}, got)
}

func TestObserverEvents(t *testing.T) {
	r := NewRegistry[int]()
	var events []EventType
	var live []int
	r.Subscribe(func(ev Event) {
		events = append(events, ev.Type)
		live = append(live, ev.Live)
	})

	h := r.Insert(1)
	_ = r.Borrow(h, func(int) error { return nil })
	r.Take(h)
	r.Drop(r.Insert(2))

	assert.Equal(t, []EventType{
		EventCreated, EventBorrowed, EventBorrowReturned, EventTaken, EventCreated, EventDropped,
	}, events)
	assert.Equal(t, []int{1, 1, 1, 0, 1, 0}, live)
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "borrow_returned", EventBorrowReturned.String())
	assert.Equal(t, "unknown", EventType(42).String())
}

func TestHandleSurvivesFloat64(t *testing.T) {
	r := NewRegistry[string]()
	h := r.Insert("a")
	r.Take(h)
	r.entries[h.slot()].generation = generationMask

	high := r.Insert("b")
	assert.Equal(t, uint32(generationMask), high.generation())
	assert.LessOrEqual(t, uint64(high), uint64(MaxHandle))

	back := Handle(uint64(float64(high)))
	require.Equal(t, high, back)
	v, ok := r.Get(back)
	require.True(t, ok)
	assert.Equal(t, "b", v)

	r.Take(high)
	wrapped := r.Insert("c")
	assert.Equal(t, uint32(0), wrapped.generation(), "generation wraps")
	assert.Equal(t, high.slot(), wrapped.slot())
	_, ok = r.Get(high)
	assert.False(t, ok)
}
