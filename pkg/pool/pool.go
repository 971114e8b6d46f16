// Package pool provides typed object pooling for the scratch slices that
// conversions allocate per call.
//
// The package provides:
//   - Generic type-safe object pooling with Pool[T]
//   - Validity mask pooling for column builders
//   - Byte buffer pooling with size-based buckets
//
// Example usage:
//
//	valid := pool.GetValidity(len(values))
//	defer pool.PutValidity(valid)
//	builder.AppendValues(values, *valid)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and automatic reset.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		gets      int64
	}
}

// New creates a new typed pool. reset, when non-nil, runs before an object
// goes back into the pool.
//
// Example:
//
//	p := New(
//	    func() *Buffer { return &Buffer{data: make([]byte, 0, 1024)} },
//	    func(b *Buffer) { b.data = b.data[:0] },
//	)
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return newFn()
	}
	return p
}

// Get retrieves an object from the pool, creating one if it is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	atomic.AddInt64(&p.stats.gets, 1)
	return p.pool.Get().(T)
}

// Put returns an object to the pool for reuse.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns the number of objects created, checked out, and requested.
func (p *Pool[T]) Stats() (allocated, inUse, gets int64) {
	return atomic.LoadInt64(&p.stats.allocated),
		atomic.LoadInt64(&p.stats.inUse),
		atomic.LoadInt64(&p.stats.gets)
}

var validityPool = New(
	func() *[]bool {
		b := make([]bool, 0, 1024)
		return &b
	},
	func(b *[]bool) { *b = (*b)[:0] },
)

// GetValidity returns a pooled validity mask of length n with every entry
// true. Return it with PutValidity once the builder has consumed it.
func GetValidity(n int) *[]bool {
	m := validityPool.Get()
	if cap(*m) < n {
		*m = make([]bool, n)
	}
	*m = (*m)[:n]
	for i := range *m {
		(*m)[i] = true
	}
	return m
}

// PutValidity returns a mask obtained from GetValidity.
func PutValidity(m *[]bool) {
	if m != nil {
		validityPool.Put(m)
	}
}

// BufferPool manages byte buffer pooling with size-based buckets.
type BufferPool struct {
	pools []*Pool[*[]byte]
	sizes []int
}

// NewBufferPool creates a buffer pool with power-of-4 buckets from 512B to
// 16MB. Larger requests are allocated directly.
func NewBufferPool() *BufferPool {
	sizes := []int{
		512,      // 512B
		4096,     // 4KB
		16384,    // 16KB
		65536,    // 64KB
		262144,   // 256KB
		1048576,  // 1MB
		4194304,  // 4MB
		16777216, // 16MB
	}

	pools := make([]*Pool[*[]byte], len(sizes))
	for i, size := range sizes {
		pools[i] = New(
			func() *[]byte {
				b := make([]byte, size)
				return &b
			},
			nil,
		)
	}
	return &BufferPool{pools: pools, sizes: sizes}
}

// Get returns a buffer of length size whose capacity is the bucket size.
func (p *BufferPool) Get(size int) []byte {
	for i, s := range p.sizes {
		if s >= size {
			buf := p.pools[i].Get()
			return (*buf)[:size]
		}
	}
	return make([]byte, size)
}

// Put returns a buffer to the bucket matching its capacity.
func (p *BufferPool) Put(buf []byte) {
	size := cap(buf)
	for i, s := range p.sizes {
		if s == size {
			b := buf[:size]
			p.pools[i].Put(&b)
			return
		}
	}
}

// Buffers is the shared buffer pool used for encoding typed buffers.
var Buffers = NewBufferPool()
