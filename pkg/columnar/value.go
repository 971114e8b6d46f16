package columnar

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ajitpratap0/colbridge/pkg/schema"
)

// ValueKind tags the payload a Value carries.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueInt
	ValueUint
	ValueFloat
	ValueString
	ValueList
)

// Value is one element read out of a column.
//
// Temporal values are carried as ValueInt: days since the epoch for Date,
// milliseconds since the epoch for Datetime, nanoseconds since midnight for
// Time.
type Value struct {
	Kind  ValueKind
	DType schema.DataType
	Bool  bool
	Int   int64
	Uint  uint64
	Float float64
	Str   string
	List  *Column
}

// IsNull reports whether v is a missing value.
func (v Value) IsNull() bool {
	return v.Kind == ValueNull
}

// Interface converts v to the natural Go value for its type: nil, bool, the
// sized integer or float type, string, time.Time for Date and Datetime,
// time.Duration for Time, or *Column for list elements.
func (v Value) Interface() any {
	switch v.Kind {
	case ValueBool:
		return v.Bool
	case ValueInt:
		switch v.DType {
		case schema.Int8:
			return int8(v.Int)
		case schema.Int16:
			return int16(v.Int)
		case schema.Int32:
			return int32(v.Int)
		case schema.Date:
			return time.Unix(v.Int*86400, 0).UTC()
		case schema.Datetime:
			return time.UnixMilli(v.Int).UTC()
		case schema.Time:
			return time.Duration(v.Int)
		default:
			return v.Int
		}
	case ValueUint:
		switch v.DType {
		case schema.UInt8:
			return uint8(v.Uint)
		case schema.UInt16:
			return uint16(v.Uint)
		case schema.UInt32:
			return uint32(v.Uint)
		default:
			return v.Uint
		}
	case ValueFloat:
		if v.DType == schema.Float32 {
			return float32(v.Float)
		}
		return v.Float
	case ValueString:
		return v.Str
	case ValueList:
		return v.List
	default:
		return nil
	}
}

// Equal compares two values by kind and payload. Two nulls are equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueNull:
		return true
	case ValueBool:
		return v.Bool == o.Bool
	case ValueInt:
		return v.Int == o.Int
	case ValueUint:
		return v.Uint == o.Uint
	case ValueFloat:
		return v.Float == o.Float || (math.IsNaN(v.Float) && math.IsNaN(o.Float))
	case ValueString:
		return v.Str == o.Str
	case ValueList:
		return array.ChunkedEqual(v.List.data, o.List.data)
	}
	return false
}

// appendKey appends a byte encoding of v used for row hashing.
func (v Value) appendKey(buf []byte) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case ValueBool:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case ValueInt:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v.Int))
	case ValueUint:
		buf = binary.LittleEndian.AppendUint64(buf, v.Uint)
	case ValueFloat:
		f := v.Float
		if math.IsNaN(f) {
			f = math.NaN()
		}
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	case ValueString:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Str)))
		buf = append(buf, v.Str...)
	case ValueList:
		n := v.List.Len()
		buf = binary.LittleEndian.AppendUint32(buf, uint32(n))
		for i := 0; i < n; i++ {
			buf = v.List.Get(i).appendKey(buf)
		}
	}
	return buf
}

// valueAt reads element i of a single Arrow array.
func valueAt(arr arrow.Array, i int) Value {
	dt, _ := schema.FromArrow(arr.DataType())
	if arr.IsNull(i) {
		return Value{Kind: ValueNull, DType: dt}
	}

	switch a := arr.(type) {
	case *array.Int8:
		return Value{Kind: ValueInt, DType: dt, Int: int64(a.Value(i))}
	case *array.Int16:
		return Value{Kind: ValueInt, DType: dt, Int: int64(a.Value(i))}
	case *array.Int32:
		return Value{Kind: ValueInt, DType: dt, Int: int64(a.Value(i))}
	case *array.Int64:
		return Value{Kind: ValueInt, DType: dt, Int: a.Value(i)}
	case *array.Uint8:
		return Value{Kind: ValueUint, DType: dt, Uint: uint64(a.Value(i))}
	case *array.Uint16:
		return Value{Kind: ValueUint, DType: dt, Uint: uint64(a.Value(i))}
	case *array.Uint32:
		return Value{Kind: ValueUint, DType: dt, Uint: uint64(a.Value(i))}
	case *array.Uint64:
		return Value{Kind: ValueUint, DType: dt, Uint: a.Value(i)}
	case *array.Float32:
		return Value{Kind: ValueFloat, DType: dt, Float: float64(a.Value(i))}
	case *array.Float64:
		return Value{Kind: ValueFloat, DType: dt, Float: a.Value(i)}
	case *array.Boolean:
		return Value{Kind: ValueBool, DType: dt, Bool: a.Value(i)}
	case *array.String:
		return Value{Kind: ValueString, DType: dt, Str: a.Value(i)}
	case *array.LargeString:
		return Value{Kind: ValueString, DType: dt, Str: a.Value(i)}
	case *array.Date32:
		return Value{Kind: ValueInt, DType: dt, Int: int64(a.Value(i))}
	case *array.Date64:
		return Value{Kind: ValueInt, DType: dt, Int: int64(a.Value(i)) / 86400000}
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		ms := int64(a.Value(i)) * int64(unit.Multiplier()) / int64(time.Millisecond)
		return Value{Kind: ValueInt, DType: dt, Int: ms}
	case *array.Time32:
		unit := a.DataType().(*arrow.Time32Type).Unit
		return Value{Kind: ValueInt, DType: dt, Int: int64(a.Value(i)) * int64(unit.Multiplier())}
	case *array.Time64:
		unit := a.DataType().(*arrow.Time64Type).Unit
		return Value{Kind: ValueInt, DType: dt, Int: int64(a.Value(i)) * int64(unit.Multiplier())}
	case *array.Dictionary:
		inner := valueAt(a.Dictionary(), a.GetValueIndex(i))
		inner.DType = dt
		return inner
	case *array.List:
		start, end := a.ValueOffsets(i)
		sub := array.NewSlice(a.ListValues(), start, end)
		defer sub.Release()
		return Value{Kind: ValueList, DType: dt, List: FromArray("", sub)}
	case *array.LargeList:
		start, end := a.ValueOffsets(i)
		sub := array.NewSlice(a.ListValues(), start, end)
		defer sub.Release()
		return Value{Kind: ValueList, DType: dt, List: FromArray("", sub)}
	}
	return Value{Kind: ValueNull, DType: dt}
}
