// Package schema defines the column data types exchanged with the host and
// their mapping onto Arrow types.
package schema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/colbridge/pkg/errors"
)

// DataType is a column type. Values 0 through 17 are the integer codes the
// host uses on the wire.
type DataType uint8

const (
	Int8 DataType = iota
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
	Bool
	Utf8
	List
	Date
	Datetime
	Time
	Object
	Categorical

	// Null is the type of a column built without any value to infer from.
	// It has no host code.
	Null DataType = 255
)

// MaxCode is the largest host type code.
const MaxCode = int(Categorical)

var names = [...]string{
	Int8:        "i8",
	Int16:       "i16",
	Int32:       "i32",
	Int64:       "i64",
	UInt8:       "u8",
	UInt16:      "u16",
	UInt32:      "u32",
	UInt64:      "u64",
	Float32:     "f32",
	Float64:     "f64",
	Bool:        "bool",
	Utf8:        "str",
	List:        "list",
	Date:        "date",
	Datetime:    "datetime(ms)",
	Time:        "time",
	Object:      "object",
	Categorical: "cat",
}

// FromCode maps a host type code to its DataType. A code outside 0..17 is a
// contract violation and panics.
func FromCode(code int) DataType {
	if code < 0 || code > MaxCode {
		panic(fmt.Sprintf("schema: type code %d out of range [0, %d]", code, MaxCode))
	}
	return DataType(code)
}

// Code returns the host code of dt, or -1 for Null.
func (dt DataType) Code() int {
	if dt == Null {
		return -1
	}
	return int(dt)
}

func (dt DataType) String() string {
	if dt == Null {
		return "null"
	}
	if int(dt) < len(names) {
		return names[dt]
	}
	return fmt.Sprintf("dtype(%d)", uint8(dt))
}

// IsNumeric reports whether dt is an integer or floating point type.
func (dt DataType) IsNumeric() bool {
	return dt <= Float64
}

// Arrow returns the Arrow type that stores dt. List needs an inner type and
// Object has no Arrow representation; both report UnsupportedType.
func (dt DataType) Arrow() (arrow.DataType, error) {
	switch dt {
	case Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case UInt8:
		return arrow.PrimitiveTypes.Uint8, nil
	case UInt16:
		return arrow.PrimitiveTypes.Uint16, nil
	case UInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case UInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case Utf8:
		return arrow.BinaryTypes.String, nil
	case Date:
		return arrow.FixedWidthTypes.Date32, nil
	case Datetime:
		return &arrow.TimestampType{Unit: arrow.Millisecond}, nil
	case Time:
		return arrow.FixedWidthTypes.Time64ns, nil
	case Categorical:
		return &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Uint32, ValueType: arrow.BinaryTypes.String}, nil
	case Null:
		return arrow.Null, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType, "%s has no arrow representation", dt)
	}
}

// ListOf returns the Arrow list type whose elements are inner.
func ListOf(inner DataType) (arrow.DataType, error) {
	t, err := inner.Arrow()
	if err != nil {
		return nil, err
	}
	return arrow.ListOf(t), nil
}

// FromArrow maps an Arrow type back onto a DataType. Types without a host
// equivalent map to Object with ok false.
func FromArrow(t arrow.DataType) (dt DataType, ok bool) {
	switch t.ID() {
	case arrow.INT8:
		return Int8, true
	case arrow.INT16:
		return Int16, true
	case arrow.INT32:
		return Int32, true
	case arrow.INT64:
		return Int64, true
	case arrow.UINT8:
		return UInt8, true
	case arrow.UINT16:
		return UInt16, true
	case arrow.UINT32:
		return UInt32, true
	case arrow.UINT64:
		return UInt64, true
	case arrow.FLOAT32:
		return Float32, true
	case arrow.FLOAT64:
		return Float64, true
	case arrow.BOOL:
		return Bool, true
	case arrow.STRING, arrow.LARGE_STRING:
		return Utf8, true
	case arrow.LIST, arrow.LARGE_LIST:
		return List, true
	case arrow.DATE32, arrow.DATE64:
		return Date, true
	case arrow.TIMESTAMP:
		return Datetime, true
	case arrow.TIME32, arrow.TIME64:
		return Time, true
	case arrow.DICTIONARY:
		return Categorical, true
	case arrow.NULL:
		return Null, true
	default:
		return Object, false
	}
}

// Describe renders an Arrow type the way the host displays dtypes, with the
// element type for lists.
func Describe(t arrow.DataType) string {
	dt, ok := FromArrow(t)
	if !ok {
		return t.String()
	}
	if lt, isList := t.(arrow.ListLikeType); isList && dt == List {
		return fmt.Sprintf("list [%s]", Describe(lt.Elem()))
	}
	return dt.String()
}

// ParseName maps a display name such as "i32" back to its DataType.
func ParseName(s string) (DataType, bool) {
	if s == "null" {
		return Null, true
	}
	for i, n := range names {
		if n == s {
			return DataType(i), true
		}
	}
	return 0, false
}
