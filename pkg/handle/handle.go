// Package handle implements the arena that backs foreign handles.
//
// A Handle packs a slot index and the generation the slot had when the value
// was inserted. Freeing a slot bumps its generation, so a handle that outlived
// its value never resolves to whatever reuses the slot. Resolving a stale
// handle is a contract violation and panics.
//
// Handles fit in 53 bits so a host that only has float64 numbers carries them
// exactly: 32 bits of slot and a 21-bit generation that wraps.
package handle

import "fmt"

// Handle is an opaque reference to a value in a Registry.
// Handle 0 is reserved and always invalid.
type Handle uint64

// MaxHandle is the largest value a Handle can take.
const MaxHandle Handle = 1<<53 - 1

const generationMask = 1<<21 - 1

func newHandle(slot int, gen uint32) Handle {
	return Handle(uint64(gen&generationMask)<<32 | uint64(uint32(slot+1)))
}

func nextGeneration(gen uint32) uint32 {
	return (gen + 1) & generationMask
}

func (h Handle) slot() int {
	return int(uint32(h)) - 1
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

// String renders the handle as slot@generation.
func (h Handle) String() string {
	if h == 0 {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d@%d)", h.slot(), h.generation())
}

// EventType identifies a lifecycle transition.
type EventType uint8

const (
	EventCreated EventType = iota
	EventTaken
	EventDropped
	EventBorrowed
	EventBorrowReturned
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventTaken:
		return "taken"
	case EventDropped:
		return "dropped"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow_returned"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle transition. Live is the number of occupied
// slots after the transition.
type Event struct {
	Handle Handle
	Type   EventType
	Live   int
}

// Observer receives lifecycle events. Observers run with the registry lock
// released and must not block.
type Observer func(Event)

// Dropper is optionally implemented by values that need cleanup when the
// registry discards them without handing them to an owner.
type Dropper interface {
	Drop()
}
