package columnar

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/config"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/schema"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := NewFrame(
		float64Column(t, "a", []float64{1, 2, 1, 2}),
		stringColumn(t, "b", []string{"x", "y", "x", "z"}),
	)
	require.NoError(t, err)
	return f
}

func TestNewFrameValidation(t *testing.T) {
	_, err := NewFrame(float64Column(t, "a", []float64{1}), float64Column(t, "a", []float64{2}))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEngine))
	assert.Contains(t, err.Error(), "more than one occurrence")

	_, err = NewFrame(float64Column(t, "a", []float64{1}), float64Column(t, "b", []float64{2, 3}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has length 2")

	empty, err := NewFrame()
	require.NoError(t, err)
	h, w := empty.Shape()
	assert.Equal(t, 0, h)
	assert.Equal(t, 0, w)
}

func TestFrameAccessors(t *testing.T) {
	f := sampleFrame(t)
	h, w := f.Shape()
	assert.Equal(t, 4, h)
	assert.Equal(t, 2, w)
	assert.Equal(t, []string{"a", "b"}, f.Columns())
	assert.Equal(t, []schema.DataType{schema.Float64, schema.Utf8}, f.DTypes())

	b, err := f.Column("b")
	require.NoError(t, err)
	assert.Equal(t, "y", b.Get(1).Interface())

	_, err = f.Column("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found: nope")
}

func TestWithColumn(t *testing.T) {
	f := sampleFrame(t)

	added, err := f.WithColumn(float64Column(t, "c", []float64{0, 0, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, added.Columns())
	assert.Equal(t, 2, f.Width(), "receiver unchanged")

	replaced, err := f.WithColumn(stringColumn(t, "a", []string{"p", "q", "r", "s"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, replaced.Columns())
	assert.Equal(t, schema.Utf8, replaced.ColumnAt(0).DType())

	_, err = f.WithColumn(float64Column(t, "c", []float64{1}))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeEngine))
}

func TestDropAndRename(t *testing.T) {
	f := sampleFrame(t)

	dropped, err := f.Drop("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, dropped.Columns())

	_, err = f.Drop("zzz")
	require.Error(t, err)

	renamed, err := f.SetColumnNames([]string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, renamed.Columns())
	assert.Equal(t, []string{"a", "b"}, f.Columns())

	_, err = f.SetColumnNames([]string{"x"})
	require.Error(t, err)
	_, err = f.SetColumnNames([]string{"x", "x"})
	require.Error(t, err)
}

func TestDistinct(t *testing.T) {
	ctx := context.Background()
	f := sampleFrame(t)

	all, err := f.Distinct(ctx, nil, KeepFirst)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Height())
	assert.Equal(t, []any{1.0, 2.0, 2.0}, interfaces(all.ColumnAt(0)))
	assert.Equal(t, []any{"x", "y", "z"}, interfaces(all.ColumnAt(1)))

	first, err := f.Distinct(ctx, []string{"a"}, KeepFirst)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, interfaces(first.ColumnAt(1)))

	last, err := f.Distinct(ctx, []string{"a"}, KeepLast)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "z"}, interfaces(last.ColumnAt(1)))
	assert.Equal(t, []any{1.0, 2.0}, interfaces(last.ColumnAt(0)))

	_, err = f.Distinct(ctx, []string{"q"}, KeepFirst)
	require.Error(t, err)
}

func TestDistinctTreatsNullsAsEqual(t *testing.T) {
	col := int32Column(t, memory.DefaultAllocator, "a", []int32{0, 0, 1}, []bool{false, false, true})
	f, err := NewFrame(col)
	require.NoError(t, err)

	out, err := f.Distinct(context.Background(), nil, KeepFirst)
	require.NoError(t, err)
	assert.Equal(t, []any{nil, int32(1)}, interfaces(out.ColumnAt(0)))
}

func TestFrameEqualAndTable(t *testing.T) {
	f := sampleFrame(t)
	g := sampleFrame(t)
	assert.True(t, f.Equal(g))

	renamed, err := g.SetColumnNames([]string{"a", "c"})
	require.NoError(t, err)
	assert.False(t, f.Equal(renamed))

	tbl := f.Table()
	defer tbl.Release()
	assert.Equal(t, int64(4), tbl.NumRows())
	assert.Equal(t, int64(2), tbl.NumCols())
	assert.Equal(t, "b", tbl.Schema().Field(1).Name)
}

func TestFrameString(t *testing.T) {
	f := sampleFrame(t)
	assert.Equal(t, "shape: (4, 2)\na (f64) | b (str)\n1 | \"x\"\n2 | \"y\"\n1 | \"x\"\n2 | \"z\"", f.String())
}

func TestNewAllocator(t *testing.T) {
	_, checked := NewAllocator(config.AllocatorChecked).(*memory.CheckedAllocator)
	assert.True(t, checked)
	assert.Equal(t, memory.DefaultAllocator, NewAllocator(config.AllocatorGo))
}
