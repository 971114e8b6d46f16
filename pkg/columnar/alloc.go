package columnar

import (
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/colbridge/pkg/config"
)

// NewAllocator returns the Arrow allocator selected by kind. The checked
// allocator tracks outstanding bytes; tests use it to assert that every
// intermediate array is released.
func NewAllocator(kind config.Allocator) memory.Allocator {
	switch kind {
	case config.AllocatorChecked:
		return memory.NewCheckedAllocator(memory.NewGoAllocator())
	default:
		return memory.DefaultAllocator
	}
}
