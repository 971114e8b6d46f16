// Package dispatch turns untyped host values into columns and frames, and
// columns back into host values.
//
// A host value is classified once (see host.Classify) and the class picks
// exactly one construction path: generic arrays are sampled for their element
// type, typed buffers go through the codec, anything else is rejected.
package dispatch

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/pkg/codec"
	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/config"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/host"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/metrics"
	"github.com/ajitpratap0/colbridge/pkg/pool"
	"github.com/ajitpratap0/colbridge/pkg/schema"
)

// Path is the construction path a host value takes.
type Path string

const (
	PathGenericArray Path = "generic_array"
	PathTypedBuffer  Path = "typed_buffer"
	PathInvalid      Path = "invalid"
)

// PathOf returns the path MakeColumn takes for v.
func PathOf(v any) Path {
	k := host.Classify(v)
	switch {
	case k == host.KindArray:
		return PathGenericArray
	case k.IsTypedBuffer():
		return PathTypedBuffer
	default:
		return PathInvalid
	}
}

type options struct {
	dtype  *schema.DataType
	strict bool
	empty  config.Policy
	mixed  config.Policy
	mem    memory.Allocator
}

// Option configures MakeColumn.
type Option func(*options)

// WithType casts the built column to dt.
func WithType(dt schema.DataType) Option {
	return func(o *options) { o.dtype = &dt }
}

// WithStrict makes the WithType cast fail on overflow or truncation.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithEmptyPolicy sets how empty and all-null generic arrays are handled.
func WithEmptyPolicy(p config.Policy) Option {
	return func(o *options) { o.empty = p }
}

// WithMixedPolicy sets how elements that differ from the sampled kind are
// handled.
func WithMixedPolicy(p config.Policy) Option {
	return func(o *options) { o.mixed = p }
}

// WithAllocator builds columns with mem.
func WithAllocator(mem memory.Allocator) Option {
	return func(o *options) { o.mem = mem }
}

// WithConfig applies the conversion section of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		if cfg == nil {
			return
		}
		o.strict = cfg.Conversion.Strict
		o.empty = cfg.Conversion.EmptyPolicy
		o.mixed = cfg.Conversion.MixedPolicy
		o.mem = columnar.NewAllocator(cfg.Conversion.Allocator)
	}
}

func newOptions(opts []Option) *options {
	def := config.Default().Conversion
	o := &options{
		strict: def.Strict,
		empty:  def.EmptyPolicy,
		mixed:  def.MixedPolicy,
		mem:    memory.DefaultAllocator,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// MakeColumn builds a column named name from value.
func MakeColumn(name string, value any, opts ...Option) (*columnar.Column, error) {
	o := newOptions(opts)
	path := PathOf(value)
	timer := metrics.NewTimer(string(path))
	defer timer.Stop()

	var (
		col *columnar.Column
		err error
	)
	switch path {
	case PathGenericArray:
		col, err = fromGenericArray(name, value.([]any), o)
	case PathTypedBuffer:
		col, err = codec.BufferToColumn(name, value, o.mem)
	default:
		err = errors.Newf(errors.ErrorTypeInvalidInput,
			"cannot build column %q: expected an Array or a typed array, got %s", name, host.Describe(value)).
			WithDetail("column", name)
	}
	if err == nil && o.dtype != nil {
		col, err = castTo(col, *o.dtype, o.strict)
	}

	dtype := ""
	if col != nil {
		dtype = col.DType().String()
	}
	metrics.RecordConversion(string(path), dtype, err)
	log := logger.ForColumn(name, dtype)
	if err != nil {
		log.Debug("column conversion failed", zap.String("path", string(path)), zap.Error(err))
		return nil, err
	}
	log.Debug("column converted", zap.String("path", string(path)), zap.Int("len", col.Len()))
	return col, nil
}

func castTo(col *columnar.Column, dt schema.DataType, strict bool) (*columnar.Column, error) {
	defer col.Release()
	to, err := dt.Arrow()
	if err != nil {
		return nil, err
	}
	return col.Cast(context.Background(), to, strict)
}

func fromGenericArray(name string, values []any, o *options) (*columnar.Column, error) {
	inf := schema.Infer(values)

	if inf.Empty() {
		if o.empty == config.PolicyNull {
			arr := array.MakeArrayOfNull(o.mem, arrow.Null, len(values))
			return wrap(name, arr, o.mem), nil
		}
		return nil, errors.Newf(errors.ErrorTypeEmptyInput,
			"cannot infer a type for column %q: no non-null values among %d", name, len(values)).
			WithDetail("column", name)
	}

	if len(inf.Mixed) > 0 && o.mixed != config.PolicyNull {
		i := inf.Mixed[0]
		return nil, errors.Newf(errors.ErrorTypeInvalidInput,
			"column %q: element %d is %s but the column was inferred as %s from element %d",
			name, i, host.Describe(values[i]), inf.Type, inf.Sampled).
			WithDetail("column", name).
			WithDetail("index", i)
	}

	valid := pool.GetValidity(len(values))
	defer pool.PutValidity(valid)

	var arr arrow.Array
	switch inf.Type {
	case schema.Float64:
		vals := make([]float64, len(values))
		for i, v := range values {
			if f, ok := host.Number(v); ok {
				vals[i] = f
			} else {
				(*valid)[i] = false
			}
		}
		b := array.NewFloat64Builder(o.mem)
		defer b.Release()
		b.AppendValues(vals, *valid)
		arr = b.NewArray()
	case schema.Bool:
		vals := make([]bool, len(values))
		for i, v := range values {
			if x, ok := v.(bool); ok {
				vals[i] = x
			} else {
				(*valid)[i] = false
			}
		}
		b := array.NewBooleanBuilder(o.mem)
		defer b.Release()
		b.AppendValues(vals, *valid)
		arr = b.NewArray()
	case schema.Utf8:
		vals := make([]string, len(values))
		for i, v := range values {
			if s, ok := v.(string); ok {
				vals[i] = s
			} else {
				(*valid)[i] = false
			}
		}
		b := array.NewStringBuilder(o.mem)
		defer b.Release()
		b.AppendValues(vals, *valid)
		arr = b.NewArray()
	default:
		return nil, errors.Newf(errors.ErrorTypeInvalidInput,
			"column %q: element %d is %s; only numbers, booleans and strings are supported",
			name, inf.Sampled, host.Describe(values[inf.Sampled])).
			WithDetail("column", name).
			WithDetail("index", inf.Sampled)
	}
	return wrap(name, arr, o.mem), nil
}

// wrap consumes arr into a single-chunk column.
func wrap(name string, arr arrow.Array, mem memory.Allocator) *columnar.Column {
	defer arr.Release()
	return columnar.NewColumn(name, arrow.NewChunked(arr.DataType(), []arrow.Array{arr}), mem)
}

// ValueAt returns element i of col as a host value: nil, bool, string, a
// sized number, time values for temporal types, or a *columnar.Column for a
// list element. An index outside the column panics.
func ValueAt(col *columnar.Column, i int) any {
	return col.Get(i).Interface()
}

// ToHostArray converts the whole column. Primitive columns become a typed
// buffer and must be contiguous; string and boolean columns become a generic
// array with nil for nulls.
func ToHostArray(col *columnar.Column) (any, error) {
	switch dt := col.DType(); dt {
	case schema.Utf8, schema.Bool:
		out := make([]any, 0, col.Len())
		for _, v := range col.Values() {
			out = append(out, v.Interface())
		}
		return out, nil
	default:
		return codec.ColumnToBuffer(col)
	}
}
