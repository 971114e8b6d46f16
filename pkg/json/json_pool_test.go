package json

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/host"
)

func TestDecodeHostKeepsKeyOrder(t *testing.T) {
	v, err := UnmarshalHost([]byte(`{"z": [1, 2], "a": ["x", null], "m": {"k": true}}`))
	require.NoError(t, err)

	obj, ok := v.(host.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())
	assert.Equal(t, []any{1.0, 2.0}, obj[0].Value)
	assert.Equal(t, []any{"x", nil}, obj[1].Value)
	assert.Equal(t, host.Object{{Key: "k", Value: true}}, obj[2].Value)
}

func TestDecodeHostArrays(t *testing.T) {
	v, err := DecodeHost(strings.NewReader(`[[1, 2], [true, false], []]`))
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{1.0, 2.0}, []any{true, false}, []any{}}, v)
}

func TestDecodeHostRejectsTrailingData(t *testing.T) {
	_, err := UnmarshalHost([]byte(`[1] [2]`))
	require.Error(t, err)
}

func TestMarshalHost(t *testing.T) {
	data, err := MarshalHost(host.Object{
		{Key: "b", Value: []any{1.0, nil, host.Undefined{}}},
		{Key: "a", Value: []uint8{1, 2}},
		{Key: "c", Value: host.Uint8Clamped{255}},
		{Key: "d", Value: []float32{0.5}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"b":[1,null,null],"a":[1,2],"c":[255],"d":[0.5]}`, string(data))
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("abc")
	PutBuffer(buf)
	assert.Equal(t, 0, GetBuffer().Len())
}
