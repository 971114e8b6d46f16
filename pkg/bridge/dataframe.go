package bridge

import (
	"context"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/dispatch"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/foreign"
	"github.com/ajitpratap0/colbridge/pkg/host"
	"github.com/ajitpratap0/colbridge/pkg/json"
	"github.com/ajitpratap0/colbridge/pkg/lazy"
	"github.com/ajitpratap0/colbridge/pkg/schema"
)

// DataFrame is a frame as the host sees it.
type DataFrame struct {
	frame *columnar.Frame
}

// NewDataFrame builds a frame from an object of name to values, an array of
// value arrays, or an array of Series references.
func NewDataFrame(input any) (*DataFrame, error) {
	if refs, ok := input.([]any); ok && len(refs) > 0 {
		if n, err := seriesBinding.Normalize(refs); err == nil {
			return fromSeries(n)
		}
	}
	f, err := dispatch.MakeFrame(input, dispatch.WithConfig(active.Load()))
	if err != nil {
		return nil, toHost(err)
	}
	return &DataFrame{frame: f}, nil
}

func fromSeries(n foreign.OneOrMany[*Series]) (*DataFrame, error) {
	cols := make([]*columnar.Column, 0, n.Len())
	err := n.Each(func(_ int, s *Series) error {
		cols = append(cols, s.col.Clone())
		return nil
	})
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	if err != nil {
		return nil, toHost(err)
	}
	f, err := columnar.NewFrame(cols...)
	if err != nil {
		return nil, toHost(err)
	}
	return &DataFrame{frame: f}, nil
}

// Export hands df to the host by reference.
func (df *DataFrame) Export() *foreign.Ref { return frameBinding.Export(df) }

// Frame returns the underlying frame. It stays owned by df.
func (df *DataFrame) Frame() *columnar.Frame { return df.frame }

// Assign returns a new frame with the referenced series added or replaced.
func (df *DataFrame) Assign(series host.Wrapper) (*DataFrame, error) {
	var out *columnar.Frame
	err := seriesBinding.Borrow(series, func(s *Series) error {
		f, err := df.frame.WithColumn(s.col)
		out = f
		return err
	})
	if err != nil {
		return nil, toHost(err)
	}
	return &DataFrame{frame: out}, nil
}

// DTypes returns the display name of every column type.
func (df *DataFrame) DTypes() []string {
	out := make([]string, df.frame.Width())
	for i := range out {
		out[i] = schema.Describe(df.frame.ColumnAt(i).ArrowType())
	}
	return out
}

// Height returns the number of rows.
func (df *DataFrame) Height() int { return df.frame.Height() }

// Width returns the number of columns.
func (df *DataFrame) Width() int { return df.frame.Width() }

// Shape returns height and width.
func (df *DataFrame) Shape() (int, int) { return df.frame.Shape() }

// Columns returns the column names.
func (df *DataFrame) Columns() []string { return df.frame.Columns() }

// SetColumns renames every column in place. names must all be strings and
// match the width.
func (df *DataFrame) SetColumns(names []any) error {
	strs, ok := stringSlice(names)
	if !ok {
		return toHost(errors.New(errors.ErrorTypeInvalidArgument, "Invalid names passed at argument to columns"))
	}
	f, err := df.frame.SetColumnNames(strs)
	if err != nil {
		return toHost(err)
	}
	df.frame.Release()
	df.frame = f
	return nil
}

// GetColumn returns the column called name.
func (df *DataFrame) GetColumn(name string) (*Series, error) {
	col, err := df.frame.Column(name)
	if err != nil {
		return nil, toHost(err)
	}
	return newSeries(col), nil
}

// Clone returns a frame sharing df's buffers.
func (df *DataFrame) Clone() *DataFrame { return &DataFrame{frame: df.frame.Clone()} }

// FrameEqual reports whether the referenced frame has the same names, types
// and values.
func (df *DataFrame) FrameEqual(other host.Wrapper) bool {
	var eq bool
	_ = frameBinding.Borrow(other, func(o *DataFrame) error {
		eq = df.frame.Equal(o.frame)
		return nil
	})
	return eq
}

// Drop returns a frame without the given columns. Each argument is a name or
// an array of names.
func (df *DataFrame) Drop(names ...any) (*DataFrame, error) {
	var flat []string
	for _, n := range names {
		switch v := n.(type) {
		case string:
			flat = append(flat, v)
		case []string:
			flat = append(flat, v...)
		case []any:
			strs, ok := stringSlice(v)
			if !ok {
				return nil, toHost(errors.New(errors.ErrorTypeInvalidArgument, "Invalid column names to drop."))
			}
			flat = append(flat, strs...)
		default:
			return nil, toHost(errors.New(errors.ErrorTypeInvalidArgument, "Invalid column names to drop."))
		}
	}
	f, err := df.frame.Drop(flat...)
	if err != nil {
		return nil, toHost(err)
	}
	return &DataFrame{frame: f}, nil
}

// DropDuplicateOptions mirrors the host's options object. A nil
// MaintainOrder keeps the first occurrence.
type DropDuplicateOptions struct {
	Subset        []string
	MaintainOrder *bool
}

// DropDuplicates removes duplicate rows. Keeping order keeps the first
// occurrence of each row, otherwise the last.
func (df *DataFrame) DropDuplicates(opts *DropDuplicateOptions) (*DataFrame, error) {
	keep := columnar.KeepFirst
	var subset []string
	if opts != nil {
		subset = opts.Subset
		if opts.MaintainOrder != nil && !*opts.MaintainOrder {
			keep = columnar.KeepLast
		}
	}
	f, err := df.frame.Distinct(context.Background(), subset, keep)
	if err != nil {
		return nil, toHost(err)
	}
	return &DataFrame{frame: f}, nil
}

// Lazy starts a lazy query over df.
func (df *DataFrame) Lazy() *LazyFrame {
	return &LazyFrame{lf: lazy.New(df.frame)}
}

// ToJSON encodes df as an object of column name to values.
func (df *DataFrame) ToJSON() (string, error) {
	obj := make(host.Object, df.frame.Width())
	for i := range obj {
		col := df.frame.ColumnAt(i)
		values := make([]any, col.Len())
		for j := range values {
			values[j] = jsonValue(col.Get(j))
		}
		obj[i] = host.Entry{Key: col.Name(), Value: values}
	}
	data, err := json.MarshalHost(obj)
	if err != nil {
		return "", toHost(errors.Wrap(err, errors.ErrorTypeInternal, "encoding frame"))
	}
	return string(data), nil
}

func jsonValue(v columnar.Value) any {
	if v.Kind == columnar.ValueList {
		out := make([]any, v.List.Len())
		for i := range out {
			out[i] = jsonValue(v.List.Get(i))
		}
		return out
	}
	return v.Interface()
}

func (df *DataFrame) String() string { return df.frame.String() }

// Release drops the frame's buffers early.
func (df *DataFrame) Release() { df.frame.Release() }

func stringSlice(values []any) ([]string, bool) {
	out := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}
