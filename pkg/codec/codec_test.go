package codec

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/host"
	"github.com/ajitpratap0/colbridge/pkg/schema"
	"github.com/ajitpratap0/colbridge/pkg/testutil"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		buf   any
		dtype schema.DataType
		want  any
	}{
		{"int8", []int8{-128, 0, 127}, schema.Int8, []int8{-128, 0, 127}},
		{"int16", []int16{-1, 2, 300}, schema.Int16, []int16{-1, 2, 300}},
		{"int32", []int32{1, -2, 3}, schema.Int32, []int32{1, -2, 3}},
		{"uint8", []uint8{0, 255}, schema.UInt8, []uint8{0, 255}},
		{"uint8 clamped", host.Uint8Clamped{1, 2, 3}, schema.UInt8, []uint8{1, 2, 3}},
		{"uint16", []uint16{65535, 1}, schema.UInt16, []uint16{65535, 1}},
		{"uint32", []uint32{4294967295}, schema.UInt32, []uint32{4294967295}},
		{"float32", []float32{1.5, -0.25}, schema.Float32, []float32{1.5, -0.25}},
		{"float64", []float64{3.14, 2.71}, schema.Float64, []float64{3.14, 2.71}},
		{"empty", []int32{}, schema.Int32, []int32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := testutil.CheckedAllocator(t)

			col, err := BufferToColumn("x", tt.buf, mem)
			require.NoError(t, err)
			defer col.Release()

			assert.Equal(t, "x", col.Name())
			assert.Equal(t, tt.dtype, col.DType())
			assert.Equal(t, 0, col.NullN())
			assert.Equal(t, 1, col.NChunks())

			out, err := ColumnToBuffer(col)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestDecodeCopiesInput(t *testing.T) {
	buf := []float64{1, 2, 3}
	col := Decode("a", buf, nil)
	buf[0] = 99
	assert.Equal(t, 1.0, col.Get(0).Interface())

	out, err := Encode[float64](col)
	require.NoError(t, err)
	out[1] = 42
	assert.Equal(t, 2.0, col.Get(1).Interface())
}

func TestBufferToColumnRejectsNonBuffers(t *testing.T) {
	for _, v := range []any{nil, []any{1.0}, "abc", []int64{1}, 3.0} {
		_, err := BufferToColumn("x", v, nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput), "%T", v)
	}
}

func TestColumnToBufferUnsupported(t *testing.T) {
	b := array.NewStringBuilder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues([]string{"a"}, nil)
	arr := b.NewArray()
	defer arr.Release()

	col := columnar.FromArray("s", arr)
	_, err := ColumnToBuffer(col)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedType))
}

func TestColumnToBufferWithNulls(t *testing.T) {
	b := array.NewInt32Builder(memory.DefaultAllocator)
	defer b.Release()
	b.AppendValues([]int32{1, 0}, []bool{true, false})
	arr := b.NewArray()
	defer arr.Release()

	_, err := ColumnToBuffer(columnar.FromArray("n", arr))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotContiguous))
}

func TestChunkedColumnNeedsRechunk(t *testing.T) {
	a := Decode("a", []int32{1, 2, 3}, nil)
	b := Decode("b", []int32{4, 5}, nil)

	joined, err := a.Append(b)
	require.NoError(t, err)
	sliced := joined.Slice(1, 3)
	require.Equal(t, 2, sliced.NChunks())

	_, err = ColumnToBuffer(sliced)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotContiguous))

	one, err := sliced.Rechunk()
	require.NoError(t, err)
	out, err := ColumnToBuffer(one)
	require.NoError(t, err)
	assert.Equal(t, []int32{2, 3, 4}, out)
}

func TestSlicedSingleChunk(t *testing.T) {
	col := Decode("a", []uint16{10, 20, 30, 40}, nil)
	out, err := Encode[uint16](col.Slice(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []uint16{20, 30}, out)
}

func TestEncodeTypeMismatch(t *testing.T) {
	col := Decode("a", []int8{1}, nil)
	_, err := Encode[float64](col)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedType))
}

func TestCastThenEncode(t *testing.T) {
	col := Decode("a", []float64{1, 2}, nil)
	dt, err := schema.Int16.Arrow()
	require.NoError(t, err)
	cast, err := col.Cast(context.Background(), dt, true)
	require.NoError(t, err)

	out, err := Encode[int16](cast)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2}, out)
}
