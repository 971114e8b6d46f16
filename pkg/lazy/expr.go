// Package lazy records column expressions against a frame and evaluates them
// on Collect.
package lazy

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/config"
	"github.com/ajitpratap0/colbridge/pkg/dispatch"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/schema"
)

type exprKind uint8

const (
	kindCol exprKind = iota
	kindLit
	kindAlias
	kindCast
)

// Expr is an immutable column expression.
type Expr struct {
	kind   exprKind
	name   string
	value  any
	dtype  schema.DataType
	strict bool
	inner  *Expr
}

// Col selects the column called name.
func Col(name string) *Expr {
	return &Expr{kind: kindCol, name: name}
}

// Lit is a host scalar broadcast to the frame height. Its column is named
// "literal" unless aliased.
func Lit(v any) *Expr {
	return &Expr{kind: kindLit, name: "literal", value: v}
}

// Alias renames the result of e.
func (e *Expr) Alias(name string) *Expr {
	return &Expr{kind: kindAlias, name: name, inner: e}
}

// Cast converts the result of e to dt, best effort.
func (e *Expr) Cast(dt schema.DataType) *Expr {
	return &Expr{kind: kindCast, dtype: dt, inner: e}
}

// StrictCast converts the result of e to dt and fails on lossy values.
func (e *Expr) StrictCast(dt schema.DataType) *Expr {
	return &Expr{kind: kindCast, dtype: dt, strict: true, inner: e}
}

// OutputName is the name of the column e produces.
func (e *Expr) OutputName() string {
	if e.kind == kindCast {
		return e.inner.OutputName()
	}
	return e.name
}

func (e *Expr) String() string {
	switch e.kind {
	case kindCol:
		return fmt.Sprintf("col(%q)", e.name)
	case kindLit:
		if s, ok := e.value.(string); ok {
			return "lit(" + strconv.Quote(s) + ")"
		}
		return fmt.Sprintf("lit(%v)", e.value)
	case kindAlias:
		return fmt.Sprintf("%s.alias(%q)", e.inner, e.name)
	default:
		return fmt.Sprintf("%s.cast(%s)", e.inner, e.dtype)
	}
}

// evaluate computes e against f. The caller owns the returned column.
func (e *Expr) evaluate(ctx context.Context, f *columnar.Frame) (*columnar.Column, error) {
	switch e.kind {
	case kindCol:
		return f.Column(e.name)
	case kindLit:
		values := make([]any, f.Height())
		for i := range values {
			values[i] = e.value
		}
		return dispatch.MakeColumn(e.name, values, dispatch.WithEmptyPolicy(config.PolicyNull))
	case kindAlias:
		col, err := e.inner.evaluate(ctx, f)
		if err != nil {
			return nil, err
		}
		defer col.Release()
		return col.Rename(e.name), nil
	case kindCast:
		col, err := e.inner.evaluate(ctx, f)
		if err != nil {
			return nil, err
		}
		defer col.Release()
		to, err := e.dtype.Arrow()
		if err != nil {
			return nil, err
		}
		return col.Cast(ctx, to, e.strict)
	}
	return nil, errors.Newf(errors.ErrorTypeInternal, "unknown expression kind %d", e.kind)
}
