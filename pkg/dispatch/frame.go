package dispatch

import (
	"fmt"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/host"
)

// MakeFrame builds a frame from an object mapping column names to values, or
// from a generic array of value arrays. Columns of the second form are named
// column_0, column_1 and so on.
func MakeFrame(input any, opts ...Option) (*columnar.Frame, error) {
	var names []string
	var values []any

	if obj, ok := host.AsObject(input); ok {
		for _, e := range obj {
			names = append(names, e.Key)
			values = append(values, e.Value)
		}
	} else if arr, ok := input.([]any); ok {
		for i, v := range arr {
			names = append(names, fmt.Sprintf("column_%d", i))
			values = append(values, v)
		}
	} else {
		return nil, errors.Newf(errors.ErrorTypeInvalidInput,
			"input data is neither an object nor an Array, got %s", host.Describe(input))
	}

	cols := make([]*columnar.Column, 0, len(names))
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	for i, name := range names {
		col, err := MakeColumn(name, values[i], opts...)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return columnar.NewFrame(cols...)
}
