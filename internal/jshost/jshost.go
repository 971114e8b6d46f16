//go:build js && wasm

// Package jshost adapts JavaScript values into the host shapes of pkg/host
// and back.
//
// Typed arrays are copied into Go slices on the way in and into fresh typed
// arrays on the way out; JavaScript memory is never aliased. Objects that
// carry a numeric "ptr" are foreign wrappers and objects with a numeric
// "length" and a "get" method are indexable collections. Both read through
// to the JavaScript object on every access.
package jshost

import (
	"syscall/js"
	"unsafe"

	"github.com/ajitpratap0/colbridge/pkg/foreign"
	"github.com/ajitpratap0/colbridge/pkg/handle"
	"github.com/ajitpratap0/colbridge/pkg/host"
)

var (
	array        = js.Global().Get("Array")
	object       = js.Global().Get("Object")
	uint8Array   = js.Global().Get("Uint8Array")
	uint8Clamped = js.Global().Get("Uint8ClampedArray")
)

// typedArrays is in the order the constructor probes them.
var typedArrays = []struct {
	ctor js.Value
	from func(js.Value) any
}{
	{js.Global().Get("Int8Array"), func(v js.Value) any { return copyIn[int8](v) }},
	{js.Global().Get("Int16Array"), func(v js.Value) any { return copyIn[int16](v) }},
	{js.Global().Get("Int32Array"), func(v js.Value) any { return copyIn[int32](v) }},
	{js.Global().Get("Float32Array"), func(v js.Value) any { return copyIn[float32](v) }},
	{js.Global().Get("Float64Array"), func(v js.Value) any { return copyIn[float64](v) }},
	{uint8Array, func(v js.Value) any { return copyIn[uint8](v) }},
	{uint8Clamped, func(v js.Value) any { return host.Uint8Clamped(copyIn[uint8](v)) }},
	{js.Global().Get("Uint16Array"), func(v js.Value) any { return copyIn[uint16](v) }},
	{js.Global().Get("Uint32Array"), func(v js.Value) any { return copyIn[uint32](v) }},
}

// FromJS converts v into a host value.
func FromJS(v js.Value) any {
	switch v.Type() {
	case js.TypeNull:
		return nil
	case js.TypeUndefined:
		return host.Undefined{}
	case js.TypeBoolean:
		return v.Bool()
	case js.TypeNumber:
		return v.Float()
	case js.TypeString:
		return v.String()
	case js.TypeObject:
		return fromObject(v)
	}
	return v
}

func fromObject(v js.Value) any {
	if p := v.Get("ptr"); p.Type() == js.TypeNumber {
		return Wrapper{v}
	}
	if array.Call("isArray", v).Bool() {
		out := make([]any, v.Length())
		for i := range out {
			out[i] = FromJS(v.Index(i))
		}
		return out
	}
	for _, ta := range typedArrays {
		if v.InstanceOf(ta.ctor) {
			return ta.from(v)
		}
	}
	if v.Get("length").Type() == js.TypeNumber && v.Get("get").Type() == js.TypeFunction {
		return Collection{v}
	}
	keys := object.Call("keys", v)
	obj := make(host.Object, keys.Length())
	for i := range obj {
		k := keys.Index(i).String()
		obj[i] = host.Entry{Key: k, Value: FromJS(v.Get(k))}
	}
	return obj
}

// Wrapper is a JavaScript object holding a foreign handle in its "ptr"
// property and the foreign type name in "__type".
type Wrapper struct {
	v js.Value
}

// Ptr reads the handle from the object.
func (w Wrapper) Ptr() handle.Handle { return handle.Handle(uint64(w.v.Get("ptr").Float())) }

// Binding reads the foreign type name from the object. It is empty when the
// object carries none, which no binding accepts.
func (w Wrapper) Binding() string {
	if t := w.v.Get("__type"); t.Type() == js.TypeString {
		return t.String()
	}
	return ""
}

// Collection is a JavaScript collection read through its "length" property
// and "get" method.
type Collection struct {
	v js.Value
}

func (c Collection) Length() int { return c.v.Get("length").Int() }

func (c Collection) Get(i int) any { return FromJS(c.v.Call("get", i)) }

// ToJS converts a host value into a JavaScript value. Typed buffers become
// typed arrays and references become objects with "ptr" and "__type"
// properties.
func ToJS(v any) js.Value {
	switch x := v.(type) {
	case nil:
		return js.Null()
	case host.Undefined:
		return js.Undefined()
	case *foreign.Ref:
		out := object.New()
		out.Set("ptr", float64(x.Ptr()))
		out.Set("__type", x.Binding())
		return out
	case []any:
		out := array.New(len(x))
		for i, e := range x {
			out.SetIndex(i, ToJS(e))
		}
		return out
	case host.Object:
		out := object.New()
		for _, e := range x {
			out.Set(e.Key, ToJS(e.Value))
		}
		return out
	case []int8:
		return copyOut(js.Global().Get("Int8Array"), x)
	case []int16:
		return copyOut(js.Global().Get("Int16Array"), x)
	case []int32:
		return copyOut(js.Global().Get("Int32Array"), x)
	case []float32:
		return copyOut(js.Global().Get("Float32Array"), x)
	case []float64:
		return copyOut(js.Global().Get("Float64Array"), x)
	case host.Uint8Clamped:
		return copyOut(uint8Clamped, []uint8(x))
	case []uint8:
		return copyOut(uint8Array, x)
	case []uint16:
		return copyOut(js.Global().Get("Uint16Array"), x)
	case []uint32:
		return copyOut(js.Global().Get("Uint32Array"), x)
	case int64:
		// Outside the safe integer range a JS number loses precision.
		return js.ValueOf(float64(x))
	case uint64:
		return js.ValueOf(float64(x))
	}
	return js.ValueOf(v)
}

func bytesOf[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

// copyIn copies a typed array into a fresh, correctly aligned Go slice.
func copyIn[T any](v js.Value) []T {
	out := make([]T, v.Length())
	if len(out) == 0 {
		return out
	}
	view := uint8Array.New(v.Get("buffer"), v.Get("byteOffset"), v.Get("byteLength"))
	js.CopyBytesToGo(bytesOf(out), view)
	return out
}

func copyOut[T any](ctor js.Value, s []T) js.Value {
	out := ctor.New(len(s))
	if len(s) == 0 {
		return out
	}
	view := uint8Array.New(out.Get("buffer"), out.Get("byteOffset"), out.Get("byteLength"))
	js.CopyBytesToJS(view, bytesOf(s))
	return out
}
