// Package host defines the Go shapes of values that arrive from the
// dynamically typed host and the single classification over them.
//
// The host hands the native side plain values: nil for null, Undefined for
// undefined, numbers, booleans, strings, generic arrays ([]any), typed
// buffers (typed Go slices), plain objects and foreign wrappers. Everything
// that inspects a host value goes through Classify so the same input always
// takes the same path.
package host

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/ajitpratap0/colbridge/pkg/handle"
)

// Undefined is the host's "no value" that is distinct from null.
type Undefined struct{}

// Uint8Clamped is a Uint8ClampedArray. It decodes exactly like []uint8.
type Uint8Clamped []uint8

// Wrapper is a host object that carries a foreign handle. Ptr must be read at
// the moment of use; the native side never caches it. Binding names the
// foreign type the handle was issued for.
type Wrapper interface {
	Ptr() handle.Handle
	Binding() string
}

// Indexable is a host collection with a length and positional access.
type Indexable interface {
	Length() int
	Get(i int) any
}

// Entry is one key/value pair of an Object.
type Entry struct {
	Key   string
	Value any
}

// Object is a plain host object with its keys in insertion order.
type Object []Entry

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, e := range o {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, e := range o {
		keys[i] = e.Key
	}
	return keys
}

// ObjectFromMap converts a Go map into an Object with sorted keys, since Go
// maps carry no insertion order.
func ObjectFromMap(m map[string]any) Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	obj := make(Object, len(keys))
	for i, k := range keys {
		obj[i] = Entry{Key: k, Value: m[k]}
	}
	return obj
}

// Kind is the tagged classification of a host value.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindNull
	KindUndefined
	KindBool
	KindString
	KindNumber
	KindWrapper
	KindArray
	KindInt8Array
	KindInt16Array
	KindInt32Array
	KindFloat32Array
	KindFloat64Array
	KindUint8Array
	KindUint8ClampedArray
	KindUint16Array
	KindUint32Array
	KindIndexable
	KindObject
)

var kindNames = [...]string{
	KindUnknown:           "unknown",
	KindNull:              "null",
	KindUndefined:         "undefined",
	KindBool:              "boolean",
	KindString:            "string",
	KindNumber:            "number",
	KindWrapper:           "wrapper",
	KindArray:             "Array",
	KindInt8Array:         "Int8Array",
	KindInt16Array:        "Int16Array",
	KindInt32Array:        "Int32Array",
	KindFloat32Array:      "Float32Array",
	KindFloat64Array:      "Float64Array",
	KindUint8Array:        "Uint8Array",
	KindUint8ClampedArray: "Uint8ClampedArray",
	KindUint16Array:       "Uint16Array",
	KindUint32Array:       "Uint32Array",
	KindIndexable:         "indexable",
	KindObject:            "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsTypedBuffer reports whether k is one of the typed buffer kinds.
func (k Kind) IsTypedBuffer() bool {
	return k >= KindInt8Array && k <= KindUint32Array
}

// Classify returns the kind of v. The checks run in a fixed order: null,
// undefined, boolean, string, number, wrapper, generic array, the typed
// buffers (Int8, Int16, Int32, Float32, Float64, Uint8, Uint8Clamped, Uint16,
// Uint32), indexable collections, objects.
func Classify(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case Undefined, *Undefined:
		return KindUndefined
	case bool:
		return KindBool
	case string:
		return KindString
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	}
	if _, ok := v.(Wrapper); ok {
		return KindWrapper
	}
	switch v.(type) {
	case []any:
		return KindArray
	case []int8:
		return KindInt8Array
	case []int16:
		return KindInt16Array
	case []int32:
		return KindInt32Array
	case []float32:
		return KindFloat32Array
	case []float64:
		return KindFloat64Array
	case Uint8Clamped:
		return KindUint8ClampedArray
	case []uint8:
		return KindUint8Array
	case []uint16:
		return KindUint16Array
	case []uint32:
		return KindUint32Array
	}
	if _, ok := v.(Indexable); ok {
		return KindIndexable
	}
	switch v.(type) {
	case Object, map[string]any:
		return KindObject
	}
	return KindUnknown
}

// IsMissing reports whether v is null or undefined.
func IsMissing(v any) bool {
	k := Classify(v)
	return k == KindNull || k == KindUndefined
}

// Number converts any Go numeric value to the host's float64 number.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// AsObject returns v as an Object when it classifies as KindObject.
func AsObject(v any) (Object, bool) {
	switch o := v.(type) {
	case Object:
		return o, true
	case map[string]any:
		return ObjectFromMap(o), true
	}
	return nil, false
}

// Describe names v's host type for error messages.
func Describe(v any) string {
	k := Classify(v)
	if k != KindUnknown {
		return k.String()
	}
	return reflect.TypeOf(v).String()
}
