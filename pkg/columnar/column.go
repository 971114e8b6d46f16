// Package columnar adapts Arrow chunked arrays into the named columns and
// frames exchanged across the host boundary.
//
// Columns and frames are immutable: every operation returns a new value and
// leaves its receiver untouched. They hold Arrow references; Release drops
// them early, otherwise the garbage collector reclaims the Go-allocated
// buffers.
package columnar

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/schema"
)

// Column is a named, possibly chunked, typed sequence of values.
type Column struct {
	name string
	data *arrow.Chunked
	mem  memory.Allocator
}

// NewColumn wraps data under name. The column takes over the caller's
// reference to data.
func NewColumn(name string, data *arrow.Chunked, mem memory.Allocator) *Column {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	return &Column{name: name, data: data, mem: mem}
}

// FromArray builds a single-chunk column. The caller keeps its reference to arr.
func FromArray(name string, arr arrow.Array) *Column {
	return FromArrays(name, arr.DataType(), arr)
}

// FromArrays builds a column with one chunk per array. The caller keeps its
// references.
func FromArrays(name string, dt arrow.DataType, arrs ...arrow.Array) *Column {
	ch := arrow.NewChunked(dt, arrs)
	return &Column{name: name, data: ch, mem: memory.DefaultAllocator}
}

// WithAllocator returns c using mem for the arrays later operations build.
func (c *Column) WithAllocator(mem memory.Allocator) *Column {
	out := c.Clone()
	out.mem = mem
	return out
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Rename returns a copy of c named name.
func (c *Column) Rename(name string) *Column {
	out := c.Clone()
	out.name = name
	return out
}

// Len returns the number of elements.
func (c *Column) Len() int { return c.data.Len() }

// NullN returns the number of null elements.
func (c *Column) NullN() int { return c.data.NullN() }

// ArrowType returns the Arrow type of the column.
func (c *Column) ArrowType() arrow.DataType { return c.data.DataType() }

// DType returns the host data type of the column.
func (c *Column) DType() schema.DataType {
	dt, _ := schema.FromArrow(c.data.DataType())
	return dt
}

// Chunked exposes the underlying chunked array. It stays owned by c.
func (c *Column) Chunked() *arrow.Chunked { return c.data }

// Chunks returns the underlying arrays. They stay owned by c.
func (c *Column) Chunks() []arrow.Array { return c.data.Chunks() }

// NChunks returns the number of chunks.
func (c *Column) NChunks() int { return len(c.data.Chunks()) }

// ChunkLengths returns the length of every chunk in order.
func (c *Column) ChunkLengths() []int {
	chunks := c.data.Chunks()
	lengths := make([]int, len(chunks))
	for i, ch := range chunks {
		lengths[i] = ch.Len()
	}
	return lengths
}

// Allocator returns the allocator used for arrays derived from c.
func (c *Column) Allocator() memory.Allocator { return c.mem }

// Clone returns a column sharing c's buffers.
func (c *Column) Clone() *Column {
	c.data.Retain()
	return &Column{name: c.name, data: c.data, mem: c.mem}
}

// Release drops c's reference to its buffers. c must not be used afterwards.
func (c *Column) Release() {
	if c.data != nil {
		c.data.Release()
		c.data = nil
	}
}

// Get returns element i. An index outside [0, Len) panics.
func (c *Column) Get(i int) Value {
	if i < 0 || i >= c.Len() {
		panic(fmt.Sprintf("columnar: index %d out of range for column %q of length %d", i, c.name, c.Len()))
	}
	for _, chunk := range c.data.Chunks() {
		if i < chunk.Len() {
			return valueAt(chunk, i)
		}
		i -= chunk.Len()
	}
	panic("unreachable")
}

// Contiguous returns the single array backing c after concatenating its
// chunks. The caller owns the returned reference.
func (c *Column) Contiguous() (arrow.Array, error) {
	chunks := c.data.Chunks()
	switch len(chunks) {
	case 0:
		return array.MakeArrayOfNull(c.mem, c.data.DataType(), 0), nil
	case 1:
		chunks[0].Retain()
		return chunks[0], nil
	}
	arr, err := array.Concatenate(chunks, c.mem)
	if err != nil {
		return nil, errors.Engine(err)
	}
	return arr, nil
}

// Rechunk returns c with all chunks merged into one.
func (c *Column) Rechunk() (*Column, error) {
	if c.NChunks() == 1 {
		return c.Clone(), nil
	}
	arr, err := c.Contiguous()
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	out := FromArray(c.name, arr)
	out.mem = c.mem
	return out, nil
}

// Slice returns length elements starting at offset. A negative offset counts
// from the end. The range is clamped to the column.
func (c *Column) Slice(offset, length int) *Column {
	n := c.Len()
	if offset < 0 {
		offset += n
		if offset < 0 {
			offset = 0
		}
	}
	if offset > n {
		offset = n
	}
	end := offset + length
	if length < 0 || end > n {
		end = n
	}
	sliced := array.NewChunkedSlice(c.data, int64(offset), int64(end))
	return &Column{name: c.name, data: sliced, mem: c.mem}
}

// Head returns the first n elements.
func (c *Column) Head(n int) *Column { return c.Slice(0, n) }

// Tail returns the last n elements.
func (c *Column) Tail(n int) *Column {
	if n > c.Len() {
		n = c.Len()
	}
	return c.Slice(c.Len()-n, n)
}

// Append returns a column holding c's chunks followed by other's. The types
// must match.
func (c *Column) Append(other *Column) (*Column, error) {
	if !arrow.TypeEqual(c.data.DataType(), other.data.DataType()) {
		return nil, errors.Newf(errors.ErrorTypeEngine,
			"cannot append series, data types don't match: %s and %s",
			schema.Describe(c.data.DataType()), schema.Describe(other.data.DataType()))
	}
	chunks := append(append([]arrow.Array{}, c.data.Chunks()...), other.data.Chunks()...)
	out := FromArrays(c.name, c.data.DataType(), chunks...)
	out.mem = c.mem
	return out, nil
}

// Filter keeps the elements where mask is true. mask must be a boolean
// column of the same length; null mask entries drop the element.
func (c *Column) Filter(ctx context.Context, mask *Column) (*Column, error) {
	if mask.data.DataType().ID() != arrow.BOOL {
		return nil, errors.New(errors.ErrorTypeInvalidArgument, "Expected a boolean mask")
	}
	if mask.Len() != c.Len() {
		return nil, errors.Newf(errors.ErrorTypeEngine,
			"filter's length: %d differs from that of the series: %d", mask.Len(), c.Len())
	}

	values, err := c.Contiguous()
	if err != nil {
		return nil, err
	}
	defer values.Release()
	m, err := mask.Contiguous()
	if err != nil {
		return nil, err
	}
	defer m.Release()

	out, err := compute.FilterArray(compute.WithAllocator(ctx, c.mem), values, m, *compute.DefaultFilterOptions())
	if err != nil {
		return nil, errors.Engine(err)
	}
	defer out.Release()
	res := FromArray(c.name, out)
	res.mem = c.mem
	return res, nil
}

// Take gathers the elements at indices in order.
func (c *Column) Take(ctx context.Context, indices arrow.Array) (*Column, error) {
	values, err := c.Contiguous()
	if err != nil {
		return nil, err
	}
	defer values.Release()

	out, err := compute.TakeArray(compute.WithAllocator(ctx, c.mem), values, indices)
	if err != nil {
		return nil, errors.Engine(err)
	}
	defer out.Release()
	res := FromArray(c.name, out)
	res.mem = c.mem
	return res, nil
}

// Cast converts c to type to. Strict casting fails on overflow and
// truncation; otherwise values are converted best effort.
func (c *Column) Cast(ctx context.Context, to arrow.DataType, strict bool) (*Column, error) {
	if arrow.TypeEqual(c.data.DataType(), to) {
		return c.Clone(), nil
	}

	var opts *compute.CastOptions
	if strict {
		opts = compute.SafeCastOptions(to)
	} else {
		opts = compute.UnsafeCastOptions(to)
	}
	ctx = compute.WithAllocator(ctx, c.mem)

	chunks := c.data.Chunks()
	casted := make([]arrow.Array, 0, len(chunks))
	defer func() {
		for _, a := range casted {
			a.Release()
		}
	}()
	for _, chunk := range chunks {
		out, err := compute.CastArray(ctx, chunk, opts)
		if err != nil {
			return nil, errors.Engine(err)
		}
		casted = append(casted, out)
	}
	res := FromArrays(c.name, to, casted...)
	res.mem = c.mem
	return res, nil
}

// Equal reports whether c and other hold equal values of the same type.
// Names are not compared.
func (c *Column) Equal(other *Column) bool {
	if !arrow.TypeEqual(c.data.DataType(), other.data.DataType()) {
		return false
	}
	return array.ChunkedEqual(c.data, other.data)
}

// Values returns every element in order.
func (c *Column) Values() []Value {
	out := make([]Value, 0, c.Len())
	for _, chunk := range c.data.Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			out = append(out, valueAt(chunk, i))
		}
	}
	return out
}

// String renders the column the way the host prints a series.
func (c *Column) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "shape: (%d,)\n", c.Len())
	fmt.Fprintf(&b, "Series: '%s' [%s]\n[\n", c.name, schema.Describe(c.data.DataType()))
	const limit = 10
	n := c.Len()
	for i := 0; i < n; i++ {
		if n > limit && i == limit/2 {
			b.WriteString("\t...\n")
			i = n - limit/2
		}
		fmt.Fprintf(&b, "\t%s\n", FormatValue(c.Get(i)))
	}
	b.WriteString("]")
	return b.String()
}

// FormatValue renders a single value for display.
func FormatValue(v Value) string {
	switch v.Kind {
	case ValueNull:
		return "null"
	case ValueString:
		return fmt.Sprintf("%q", v.Str)
	case ValueList:
		parts := make([]string, 0, v.List.Len())
		for _, e := range v.List.Values() {
			parts = append(parts, FormatValue(e))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(v.Interface())
	}
}
