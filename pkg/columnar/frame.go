package columnar

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/cespare/xxhash/v2"

	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/schema"
)

// Keep selects which row of a duplicate group Distinct retains.
type Keep uint8

const (
	KeepFirst Keep = iota
	KeepLast
)

// Frame is an ordered set of uniquely named columns of equal length.
type Frame struct {
	columns []*Column
}

// NewFrame builds a frame from cols. The frame takes its own references.
// Duplicate names or unequal lengths are engine errors.
func NewFrame(cols ...*Column) (*Frame, error) {
	if err := validate(cols); err != nil {
		return nil, err
	}
	f := &Frame{columns: make([]*Column, len(cols))}
	for i, c := range cols {
		f.columns[i] = c.Clone()
	}
	return f, nil
}

func validate(cols []*Column) error {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, dup := seen[c.name]; dup {
			return errors.Newf(errors.ErrorTypeEngine, "column with name '%s' has more than one occurrence", c.name)
		}
		seen[c.name] = struct{}{}
	}
	for _, c := range cols[min(1, len(cols)):] {
		if c.Len() != cols[0].Len() {
			return errors.Newf(errors.ErrorTypeEngine,
				"could not create a new DataFrame: series '%s' has length %d while series '%s' has length %d",
				c.name, c.Len(), cols[0].name, cols[0].Len())
		}
	}
	return nil
}

// Height returns the number of rows.
func (f *Frame) Height() int {
	if len(f.columns) == 0 {
		return 0
	}
	return f.columns[0].Len()
}

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.columns) }

// Shape returns (height, width).
func (f *Frame) Shape() (int, int) { return f.Height(), f.Width() }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.name
	}
	return names
}

// DTypes returns the column types in order.
func (f *Frame) DTypes() []schema.DataType {
	out := make([]schema.DataType, len(f.columns))
	for i, c := range f.columns {
		out[i] = c.DType()
	}
	return out
}

// ColumnAt returns the i-th column. It stays owned by f.
func (f *Frame) ColumnAt(i int) *Column { return f.columns[i] }

// Column returns the column called name as a new reference.
func (f *Frame) Column(name string) (*Column, error) {
	i := f.index(name)
	if i < 0 {
		return nil, errors.Newf(errors.ErrorTypeEngine, "not found: %s", name)
	}
	return f.columns[i].Clone(), nil
}

func (f *Frame) index(name string) int {
	for i, c := range f.columns {
		if c.name == name {
			return i
		}
	}
	return -1
}

// WithColumn returns a frame where col replaces the column of the same name,
// or is appended when there is none.
func (f *Frame) WithColumn(col *Column) (*Frame, error) {
	cols := make([]*Column, len(f.columns), len(f.columns)+1)
	copy(cols, f.columns)
	if i := f.index(col.name); i >= 0 {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	if len(f.columns) > 0 && col.Len() != f.Height() {
		return nil, errors.Newf(errors.ErrorTypeEngine,
			"unable to add a column of length %d to a DataFrame of height %d", col.Len(), f.Height())
	}
	return NewFrame(cols...)
}

// Drop returns a frame without the named columns.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		if f.index(n) < 0 {
			return nil, errors.Newf(errors.ErrorTypeEngine, "not found: %s", n)
		}
		drop[n] = struct{}{}
	}
	kept := make([]*Column, 0, len(f.columns))
	for _, c := range f.columns {
		if _, ok := drop[c.name]; !ok {
			kept = append(kept, c)
		}
	}
	return NewFrame(kept...)
}

// SetColumnNames returns a frame with its columns renamed in order.
func (f *Frame) SetColumnNames(names []string) (*Frame, error) {
	if len(names) != len(f.columns) {
		return nil, errors.Newf(errors.ErrorTypeEngine,
			"the number of names (%d) does not match the number of columns (%d)", len(names), len(f.columns))
	}
	cols := make([]*Column, len(f.columns))
	for i, c := range f.columns {
		cols[i] = c.Rename(names[i])
	}
	defer releaseAll(cols)
	return NewFrame(cols...)
}

// Slice returns length rows starting at offset.
func (f *Frame) Slice(offset, length int) *Frame {
	out := &Frame{columns: make([]*Column, len(f.columns))}
	for i, c := range f.columns {
		out.columns[i] = c.Slice(offset, length)
	}
	return out
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame { return f.Slice(0, n) }

// Row returns the values of row i in column order.
func (f *Frame) Row(i int) []Value {
	row := make([]Value, len(f.columns))
	for j, c := range f.columns {
		row[j] = c.Get(i)
	}
	return row
}

// Distinct drops duplicate rows, comparing only the subset columns (all
// columns when subset is empty). Rows keep their original relative order.
func (f *Frame) Distinct(ctx context.Context, subset []string, keep Keep) (*Frame, error) {
	keyCols := f.columns
	if len(subset) > 0 {
		keyCols = make([]*Column, len(subset))
		for i, name := range subset {
			j := f.index(name)
			if j < 0 {
				return nil, errors.Newf(errors.ErrorTypeEngine, "not found: %s", name)
			}
			keyCols[i] = f.columns[j]
		}
	}

	height := f.Height()
	rowKey := func(i int, buf []byte) []byte {
		for _, c := range keyCols {
			buf = c.Get(i).appendKey(buf)
		}
		return buf
	}

	// Groups are confirmed by comparing encoded keys, so hash collisions
	// never merge distinct rows.
	seen := make(map[uint64][][]byte, height)
	kept := make([]int, 0, height)
	visit := func(i int) {
		key := rowKey(i, nil)
		h := xxhash.Sum64(key)
		for _, k := range seen[h] {
			if string(k) == string(key) {
				return
			}
		}
		seen[h] = append(seen[h], key)
		kept = append(kept, i)
	}
	if keep == KeepLast {
		for i := height - 1; i >= 0; i-- {
			visit(i)
		}
		sort.Ints(kept)
	} else {
		for i := 0; i < height; i++ {
			visit(i)
		}
	}

	if len(kept) == height {
		return f.Clone(), nil
	}
	return f.take(ctx, kept)
}

func (f *Frame) take(ctx context.Context, rows []int) (*Frame, error) {
	mem := memory.DefaultAllocator
	if len(f.columns) > 0 {
		mem = f.columns[0].mem
	}
	b := array.NewInt64Builder(mem)
	defer b.Release()
	for _, r := range rows {
		b.Append(int64(r))
	}
	idx := b.NewArray()
	defer idx.Release()

	cols := make([]*Column, 0, len(f.columns))
	defer func() { releaseAll(cols) }()
	for _, c := range f.columns {
		taken, err := c.Take(ctx, idx)
		if err != nil {
			return nil, err
		}
		cols = append(cols, taken)
	}
	return NewFrame(cols...)
}

// Equal reports whether both frames have the same names, types and values.
func (f *Frame) Equal(other *Frame) bool {
	if f.Width() != other.Width() || f.Height() != other.Height() {
		return false
	}
	for i, c := range f.columns {
		o := other.columns[i]
		if c.name != o.name || !c.Equal(o) {
			return false
		}
	}
	return true
}

// Clone returns a frame sharing f's buffers.
func (f *Frame) Clone() *Frame {
	out := &Frame{columns: make([]*Column, len(f.columns))}
	for i, c := range f.columns {
		out.columns[i] = c.Clone()
	}
	return out
}

// Release drops the frame's references.
func (f *Frame) Release() {
	releaseAll(f.columns)
	f.columns = nil
}

// Schema returns the Arrow schema of the frame.
func (f *Frame) Schema() *arrow.Schema {
	fields := make([]arrow.Field, len(f.columns))
	for i, c := range f.columns {
		fields[i] = arrow.Field{Name: c.name, Type: c.ArrowType(), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// Table returns the frame as an Arrow table. The caller releases it.
func (f *Frame) Table() arrow.Table {
	sc := f.Schema()
	cols := make([]arrow.Column, len(f.columns))
	for i, c := range f.columns {
		cols[i] = *arrow.NewColumn(sc.Field(i), c.data)
	}
	defer func() {
		for i := range cols {
			cols[i].Release()
		}
	}()
	return array.NewTable(sc, cols, int64(f.Height()))
}

// String renders the frame as a small text table.
func (f *Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "shape: (%d, %d)\n", f.Height(), f.Width())
	for i, c := range f.columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		fmt.Fprintf(&b, "%s (%s)", c.name, schema.Describe(c.ArrowType()))
	}
	b.WriteString("\n")
	n := min(f.Height(), 10)
	for r := 0; r < n; r++ {
		for i, v := range f.Row(r) {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(FormatValue(v))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func releaseAll(cols []*Column) {
	for _, c := range cols {
		c.Release()
	}
}
