// Package codec converts between host typed buffers and columns.
//
// Decoding copies the buffer into a freshly built single-chunk column with no
// nulls. Encoding succeeds only for columns that are one chunk without nulls;
// anything else must be rechunked (or have its nulls removed) first.
package codec

import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/host"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/metrics"
	"github.com/ajitpratap0/colbridge/pkg/schema"
)

// Primitive is the set of element types with a typed buffer mirror.
type Primitive interface {
	int8 | int16 | int32 | uint8 | uint16 | uint32 | float32 | float64
}

// Decode builds a column named name holding a copy of buf.
func Decode[T Primitive](name string, buf []T, mem memory.Allocator) *columnar.Column {
	if mem == nil {
		mem = memory.DefaultAllocator
	}
	arr := build(buf, mem)
	defer arr.Release()

	metrics.RecordBytesCopied(metrics.DirectionDecode, len(buf)*int(unsafe.Sizeof(*new(T))))
	logger.ForColumn(name, arr.DataType().String()).Debug("decoded typed buffer", zap.Int("len", len(buf)))

	return columnar.NewColumn(name, arrow.NewChunked(arr.DataType(), []arrow.Array{arr}), mem)
}

func build[T Primitive](buf []T, mem memory.Allocator) arrow.Array {
	var bld array.Builder
	switch b := any(buf).(type) {
	case []int8:
		ib := array.NewInt8Builder(mem)
		ib.AppendValues(b, nil)
		bld = ib
	case []int16:
		ib := array.NewInt16Builder(mem)
		ib.AppendValues(b, nil)
		bld = ib
	case []int32:
		ib := array.NewInt32Builder(mem)
		ib.AppendValues(b, nil)
		bld = ib
	case []uint8:
		ub := array.NewUint8Builder(mem)
		ub.AppendValues(b, nil)
		bld = ub
	case []uint16:
		ub := array.NewUint16Builder(mem)
		ub.AppendValues(b, nil)
		bld = ub
	case []uint32:
		ub := array.NewUint32Builder(mem)
		ub.AppendValues(b, nil)
		bld = ub
	case []float32:
		fb := array.NewFloat32Builder(mem)
		fb.AppendValues(b, nil)
		bld = fb
	case []float64:
		fb := array.NewFloat64Builder(mem)
		fb.AppendValues(b, nil)
		bld = fb
	}
	defer bld.Release()
	return bld.NewArray()
}

// BufferToColumn decodes any host typed buffer. A value that is not a typed
// buffer is InvalidInput.
func BufferToColumn(name string, buf any, mem memory.Allocator) (*columnar.Column, error) {
	switch b := buf.(type) {
	case []int8:
		return Decode(name, b, mem), nil
	case []int16:
		return Decode(name, b, mem), nil
	case []int32:
		return Decode(name, b, mem), nil
	case []float32:
		return Decode(name, b, mem), nil
	case []float64:
		return Decode(name, b, mem), nil
	case []uint8:
		return Decode(name, b, mem), nil
	case host.Uint8Clamped:
		return Decode(name, []uint8(b), mem), nil
	case []uint16:
		return Decode(name, b, mem), nil
	case []uint32:
		return Decode(name, b, mem), nil
	}
	return nil, errors.Newf(errors.ErrorTypeInvalidInput, "expected a typed array, got %s", host.Describe(buf)).
		WithDetail("column", name)
}

// checkContiguous returns the single chunk of col, or NotContiguous.
func checkContiguous(col *columnar.Column) (arrow.Array, error) {
	if n := col.NChunks(); n > 1 {
		return nil, errors.Newf(errors.ErrorTypeNotContiguous,
			"column %q has %d chunks; rechunk before converting to a typed array", col.Name(), n).
			WithDetail("chunks", n)
	}
	if nulls := col.NullN(); nulls > 0 {
		return nil, errors.Newf(errors.ErrorTypeNotContiguous,
			"column %q has %d null values and cannot be viewed as a typed array", col.Name(), nulls).
			WithDetail("nulls", nulls)
	}
	if col.NChunks() == 0 {
		return nil, nil
	}
	return col.Chunks()[0], nil
}

// Encode copies a contiguous column of element type T into a new slice.
func Encode[T Primitive](col *columnar.Column) ([]T, error) {
	out, err := ColumnToBuffer(col)
	if err != nil {
		return nil, err
	}
	buf, ok := out.([]T)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
			"column %q of type %s does not encode as %T", col.Name(), col.DType(), *new([]T))
	}
	return buf, nil
}

// ColumnToBuffer copies a contiguous primitive column into a freshly allocated
// typed buffer of the matching element type.
func ColumnToBuffer(col *columnar.Column) (any, error) {
	dt := col.DType()
	switch dt {
	case schema.Int8, schema.Int16, schema.Int32, schema.UInt8, schema.UInt16, schema.UInt32,
		schema.Float32, schema.Float64:
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
			"column %q of type %s has no typed array equivalent", col.Name(), schema.Describe(col.ArrowType())).
			WithDetail("dtype", dt.String())
	}

	arr, err := checkContiguous(col)
	if err != nil {
		return nil, err
	}

	var out any
	var size int
	switch dt {
	case schema.Int8:
		out, size = copyValues(arr, (*array.Int8).Int8Values), 1
	case schema.Int16:
		out, size = copyValues(arr, (*array.Int16).Int16Values), 2
	case schema.Int32:
		out, size = copyValues(arr, (*array.Int32).Int32Values), 4
	case schema.UInt8:
		out, size = copyValues(arr, (*array.Uint8).Uint8Values), 1
	case schema.UInt16:
		out, size = copyValues(arr, (*array.Uint16).Uint16Values), 2
	case schema.UInt32:
		out, size = copyValues(arr, (*array.Uint32).Uint32Values), 4
	case schema.Float32:
		out, size = copyValues(arr, (*array.Float32).Float32Values), 4
	case schema.Float64:
		out, size = copyValues(arr, (*array.Float64).Float64Values), 8
	}

	metrics.RecordBytesCopied(metrics.DirectionEncode, col.Len()*size)
	logger.ForColumn(col.Name(), dt.String()).Debug("encoded typed buffer", zap.Int("len", col.Len()))
	return out, nil
}

func copyValues[A any, T Primitive](arr arrow.Array, values func(A) []T) []T {
	if arr == nil {
		return []T{}
	}
	src := values(arr.(A))
	out := make([]T, len(src))
	copy(out, src)
	return out
}
