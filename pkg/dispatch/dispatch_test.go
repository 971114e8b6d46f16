package dispatch

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/config"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/host"
	"github.com/ajitpratap0/colbridge/pkg/schema"
	"github.com/ajitpratap0/colbridge/pkg/testutil"
)

func values(c *columnar.Column) []any {
	out := make([]any, c.Len())
	for i := range out {
		out[i] = ValueAt(c, i)
	}
	return out
}

func TestPathOf(t *testing.T) {
	tests := []struct {
		value any
		want  Path
	}{
		{[]any{1.0}, PathGenericArray},
		{[]any{}, PathGenericArray},
		{[]int8{1}, PathTypedBuffer},
		{host.Uint8Clamped{1}, PathTypedBuffer},
		{[]uint32{1}, PathTypedBuffer},
		{[]float64{1}, PathTypedBuffer},
		{"abc", PathInvalid},
		{nil, PathInvalid},
		{map[string]any{}, PathInvalid},
		{[]int64{1}, PathInvalid},
	}
	for _, tt := range tests {
		// Classification is stable across calls.
		for i := 0; i < 3; i++ {
			assert.Equal(t, tt.want, PathOf(tt.value), "%#v", tt.value)
		}
	}
}

func TestGenericArrays(t *testing.T) {
	tests := []struct {
		name  string
		input []any
		dtype schema.DataType
		want  []any
	}{
		{"numbers", []any{1.0, 2, nil, host.Undefined{}}, schema.Float64, []any{1.0, 2.0, nil, nil}},
		{"bools", []any{true, nil, false}, schema.Bool, []any{true, nil, false}},
		{"strings", []any{"a", "b", nil}, schema.Utf8, []any{"a", "b", nil}},
		{"leading nulls", []any{nil, "x"}, schema.Utf8, []any{nil, "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := MakeColumn("c", tt.input)
			require.NoError(t, err)
			assert.Equal(t, "c", col.Name())
			assert.Equal(t, tt.dtype, col.DType())
			assert.Equal(t, tt.want, values(col))
		})
	}
}

func TestEmptyPolicy(t *testing.T) {
	for _, input := range [][]any{{}, {nil, host.Undefined{}}} {
		_, err := MakeColumn("e", input)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeEmptyInput))

		col, err := MakeColumn("e", input, WithEmptyPolicy(config.PolicyNull))
		require.NoError(t, err)
		assert.Equal(t, schema.Null, col.DType())
		assert.Equal(t, len(input), col.Len())
		assert.Equal(t, len(input), col.NullN())
	}
}

func TestMixedPolicy(t *testing.T) {
	input := []any{1.0, "two", 3.0}

	_, err := MakeColumn("m", input)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))
	assert.Contains(t, err.Error(), "element 1")

	col, err := MakeColumn("m", input, WithMixedPolicy(config.PolicyNull))
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, nil, 3.0}, values(col))
}

func TestUnsupportedElements(t *testing.T) {
	_, err := MakeColumn("n", []any{[]any{1.0}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))
}

func TestInvalidInput(t *testing.T) {
	for _, v := range []any{"abc", 1.0, nil, map[string]any{"a": 1}} {
		_, err := MakeColumn("x", v)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput), "%T", v)
	}
}

func TestTypedBuffers(t *testing.T) {
	col, err := MakeColumn("t", []int16{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, schema.Int16, col.DType())
	assert.Equal(t, []any{int16(1), int16(2), int16(3)}, values(col))

	back, err := ToHostArray(col)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2, 3}, back)
}

func TestWithType(t *testing.T) {
	col, err := MakeColumn("a", []any{1.0, 2.0}, WithType(schema.Int32))
	require.NoError(t, err)
	assert.Equal(t, schema.Int32, col.DType())
	assert.Equal(t, []any{int32(1), int32(2)}, values(col))

	loose, err := MakeColumn("a", []any{1.5}, WithType(schema.Int32))
	require.NoError(t, err)
	assert.Equal(t, []any{int32(1)}, values(loose))

	_, err = MakeColumn("a", []any{1.5}, WithType(schema.Int32), WithStrict(true))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEngine))

	_, err = MakeColumn("a", []any{1.0}, WithType(schema.Object))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedType))
}

func TestWithConfigReleasesEverything(t *testing.T) {
	cfg := config.Default()
	cfg.Conversion.Allocator = config.AllocatorChecked
	cfg.Conversion.MixedPolicy = config.PolicyNull

	var mem *memory.CheckedAllocator
	grab := func(o *options) { mem = o.mem.(*memory.CheckedAllocator) }

	col, err := MakeColumn("a", []any{1.0, "x", 2.0}, WithConfig(cfg), grab, WithType(schema.Float32))
	require.NoError(t, err)
	assert.Equal(t, []any{float32(1), nil, float32(2)}, values(col))
	col.Release()
	mem.AssertSize(t, 0)
}

func TestToHostArray(t *testing.T) {
	strs, err := MakeColumn("s", []any{"a", nil})
	require.NoError(t, err)
	out, err := ToHostArray(strs)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", nil}, out)

	nums, err := MakeColumn("n", []any{1.0, nil})
	require.NoError(t, err)
	_, err = ToHostArray(nums)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotContiguous))

	ints, err := MakeColumn("i", []any{1.0}, WithType(schema.Int64))
	require.NoError(t, err)
	_, err = ToHostArray(ints)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedType))
}

func TestValueAtPanicsOutOfRange(t *testing.T) {
	col, err := MakeColumn("a", []any{1.0})
	require.NoError(t, err)
	assert.Panics(t, func() { ValueAt(col, 1) })
}

func TestConversionMetrics(t *testing.T) {
	c := testutil.Collector(t, "dispatch_test")

	_, err := MakeColumn("a", []any{1.0})
	require.NoError(t, err)
	_, err = MakeColumn("a", "bad")
	require.Error(t, err)

	n, err := promtest.GatherAndCount(c.Registry(), "dispatch_test_conversions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per path and status")

	n, err = promtest.GatherAndCount(c.Registry(), "dispatch_test_conversion_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMakeFrame(t *testing.T) {
	obj := host.Object{
		{Key: "b", Value: []any{1.0, 2.0}},
		{Key: "a", Value: []any{"x", "y"}},
	}
	f, err := MakeFrame(obj)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, f.Columns())
	assert.Equal(t, []schema.DataType{schema.Float64, schema.Utf8}, f.DTypes())

	m, err := MakeFrame(map[string]any{"z": []float32{1}, "y": []any{true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "z"}, m.Columns())

	arr, err := MakeFrame([]any{[]any{1.0}, []int32{2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"column_0", "column_1"}, arr.Columns())

	_, err = MakeFrame("nope")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))

	_, err = MakeFrame(map[string]any{"a": []any{1.0}, "b": []any{1.0, 2.0}})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEngine))

	_, err = MakeFrame(map[string]any{"a": "scalar"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))
}
