package bridge

import (
	"context"
	"math"
	"strings"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/dispatch"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/foreign"
	"github.com/ajitpratap0/colbridge/pkg/host"
	"github.com/ajitpratap0/colbridge/pkg/schema"
)

const defaultPreview = 10

// Series is a named column as the host sees it.
type Series struct {
	col *columnar.Column
}

func newSeries(col *columnar.Column) *Series {
	return &Series{col: col}
}

// NewSeries accepts (values), (name, values), (name, values, dtype) or
// (name, values, dtype, strict). A name that is not a string becomes "".
// dtype is a host type code and is applied as a cast after construction.
func NewSeries(args ...any) (*Series, error) {
	if len(args) == 0 || len(args) > 4 {
		return nil, toHost(errors.Newf(errors.ErrorTypeInvalidInput,
			"Series takes between 1 and 4 arguments, got %d", len(args)))
	}

	name, values := "", args[0]
	var opts []dispatch.Option
	opts = append(opts, dispatch.WithConfig(active.Load()))

	if len(args) > 1 && !host.IsMissing(args[1]) {
		if s, ok := args[0].(string); ok {
			name = s
		}
		values = args[1]
		if len(args) > 2 && !host.IsMissing(args[2]) {
			code, ok := host.Number(args[2])
			if !ok {
				return nil, toHost(errors.Newf(errors.ErrorTypeInvalidArgument,
					"dtype must be a type code, got %s", host.Describe(args[2])))
			}
			if code != math.Trunc(code) {
				return nil, toHost(errors.Newf(errors.ErrorTypeInvalidArgument,
					"dtype must be an integral type code, got %v", code))
			}
			opts = append(opts, dispatch.WithType(schema.FromCode(int(code))))
		}
		if len(args) > 3 && !host.IsMissing(args[3]) {
			strict, ok := args[3].(bool)
			if !ok {
				return nil, toHost(errors.Newf(errors.ErrorTypeInvalidArgument,
					"strict must be a boolean, got %s", host.Describe(args[3])))
			}
			opts = append(opts, dispatch.WithStrict(strict))
		}
	}

	col, err := dispatch.MakeColumn(name, values, opts...)
	if err != nil {
		return nil, toHost(err)
	}
	return newSeries(col), nil
}

// Export hands s to the host by reference.
func (s *Series) Export() *foreign.Ref { return seriesBinding.Export(s) }

// Column returns the underlying column. It stays owned by s.
func (s *Series) Column() *columnar.Column { return s.col }

// Name returns the series name.
func (s *Series) Name() string { return s.col.Name() }

// Rename renames s in place.
func (s *Series) Rename(name string) {
	old := s.col
	s.col = old.Rename(name)
	old.Release()
}

// Len returns the number of values.
func (s *Series) Len() int { return s.col.Len() }

// DType returns the display name of the series type.
func (s *Series) DType() string { return schema.Describe(s.col.ArrowType()) }

// NChunks returns the number of chunks.
func (s *Series) NChunks() int { return s.col.NChunks() }

// ChunkLengths returns the length of every chunk.
func (s *Series) ChunkLengths() []int { return s.col.ChunkLengths() }

// Rechunk merges the chunks. In place it updates s and returns nil;
// otherwise it returns a new series.
func (s *Series) Rechunk(inPlace bool) (*Series, error) {
	col, err := s.col.Rechunk()
	if err != nil {
		return nil, toHost(err)
	}
	if inPlace {
		s.col.Release()
		s.col = col
		return nil, nil
	}
	return newSeries(col), nil
}

// Slice returns length values from offset; a negative offset counts from
// the end.
func (s *Series) Slice(offset, length int) *Series {
	return newSeries(s.col.Slice(offset, length))
}

// Limit returns the first n values.
func (s *Series) Limit(n int) *Series { return newSeries(s.col.Head(n)) }

// Head returns the first n values, 10 when n is omitted.
func (s *Series) Head(n ...int) *Series { return newSeries(s.col.Head(preview(n))) }

// Tail returns the last n values, 10 when n is omitted.
func (s *Series) Tail(n ...int) *Series { return newSeries(s.col.Tail(preview(n))) }

func preview(n []int) int {
	if len(n) == 0 {
		return defaultPreview
	}
	return n[0]
}

// Append adds other's values to the end of s in place.
func (s *Series) Append(other *Series) error {
	col, err := s.col.Append(other.col)
	if err != nil {
		return toHost(err)
	}
	s.col.Release()
	s.col = col
	return nil
}

// Filter keeps the values where mask is true.
func (s *Series) Filter(mask *Series) (*Series, error) {
	col, err := s.col.Filter(context.Background(), mask.col)
	if err != nil {
		return nil, toHost(err)
	}
	return newSeries(col), nil
}

// Cast converts s to the type with the given host code. strict defaults to
// false.
func (s *Series) Cast(code int, strict ...bool) (*Series, error) {
	to, err := schema.FromCode(code).Arrow()
	if err != nil {
		return nil, toHost(err)
	}
	col, err := s.col.Cast(context.Background(), to, len(strict) > 0 && strict[0])
	if err != nil {
		return nil, toHost(err)
	}
	return newSeries(col), nil
}

// Clone returns a series sharing s's buffers.
func (s *Series) Clone() *Series { return newSeries(s.col.Clone()) }

// Get returns value i as a host value. i must be in range.
func (s *Series) Get(i int) any {
	v := dispatch.ValueAt(s.col, i)
	if list, ok := v.(*columnar.Column); ok {
		return newSeries(list)
	}
	return v
}

// ToArray converts s to a typed buffer, or a generic array for strings and
// booleans.
func (s *Series) ToArray() (any, error) {
	out, err := dispatch.ToHostArray(s.col)
	return out, toHost(err)
}

// ToJSON renders a preview of at most the first five values as
// "{ name: [v0, v1] }".
func (s *Series) ToJSON() string {
	n := min(s.col.Len(), 5)
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = columnar.FormatValue(s.col.Get(i))
	}
	return "{ " + s.col.Name() + ": [" + strings.Join(parts, ", ") + "] }"
}

func (s *Series) String() string { return s.col.String() }

// Release drops the series' buffers early.
func (s *Series) Release() { s.col.Release() }
