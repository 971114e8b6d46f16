package host

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/colbridge/pkg/handle"
)

type wrapper struct{ h handle.Handle }

func (w wrapper) Ptr() handle.Handle { return w.h }

func (w wrapper) Binding() string { return "test" }

type list []any

func (l list) Length() int   { return len(l) }
func (l list) Get(i int) any { return l[i] }

// both is a wrapper that is also indexable.
type both struct {
	wrapper
	list
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Kind
	}{
		{"nil", nil, KindNull},
		{"undefined", Undefined{}, KindUndefined},
		{"bool", true, KindBool},
		{"string", "x", KindString},
		{"float", 1.5, KindNumber},
		{"int", 3, KindNumber},
		{"wrapper", wrapper{}, KindWrapper},
		{"array", []any{1.0}, KindArray},
		{"int8", []int8{1}, KindInt8Array},
		{"int16", []int16{1}, KindInt16Array},
		{"int32", []int32{1}, KindInt32Array},
		{"float32", []float32{1}, KindFloat32Array},
		{"float64", []float64{1}, KindFloat64Array},
		{"uint8", []uint8{1}, KindUint8Array},
		{"clamped", Uint8Clamped{1}, KindUint8ClampedArray},
		{"uint16", []uint16{1}, KindUint16Array},
		{"uint32", []uint32{1}, KindUint32Array},
		{"indexable", list{1}, KindIndexable},
		{"object", Object{{Key: "a", Value: 1.0}}, KindObject},
		{"map", map[string]any{"a": 1.0}, KindObject},
		{"wrapper wins over indexable", both{}, KindWrapper},
		{"int64 slice", []int64{1}, KindUnknown},
		{"struct", struct{}{}, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.value))
			// Classification is a pure function of the value.
			assert.Equal(t, Classify(tt.value), Classify(tt.value))
		})
	}
}

func TestTypedBufferKinds(t *testing.T) {
	assert.True(t, KindUint8ClampedArray.IsTypedBuffer())
	assert.True(t, KindInt8Array.IsTypedBuffer())
	assert.False(t, KindArray.IsTypedBuffer())
	assert.False(t, KindIndexable.IsTypedBuffer())
}

func TestObjectFromMapSortsKeys(t *testing.T) {
	obj := ObjectFromMap(map[string]any{"b": 2.0, "a": 1.0, "c": 3.0})
	assert.Equal(t, []string{"a", "b", "c"}, obj.Keys())

	v, ok := obj.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)
	_, ok = obj.Get("z")
	assert.False(t, ok)
}

func TestNumber(t *testing.T) {
	n, ok := Number(int16(-4))
	assert.True(t, ok)
	assert.Equal(t, -4.0, n)

	_, ok = Number("4")
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Float64Array", Describe([]float64{}))
	assert.Equal(t, "null", Describe(nil))
	assert.Equal(t, "[]int64", Describe([]int64{}))
	assert.Equal(t, "kind(200)", Kind(200).String())
}
