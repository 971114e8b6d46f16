package bridge

import (
	"context"

	"github.com/ajitpratap0/colbridge/pkg/foreign"
	"github.com/ajitpratap0/colbridge/pkg/lazy"
	"github.com/ajitpratap0/colbridge/pkg/schema"
)

// Expr is the host's reference to a lazy expression. Methods consume the
// receiver and return a new reference.
type Expr struct {
	*foreign.Ref
}

// Col references the column called name.
func Col(name string) Expr { return Expr{exprBinding.Export(lazy.Col(name))} }

// Lit is a scalar broadcast to the frame height.
func Lit(v any) Expr { return Expr{exprBinding.Export(lazy.Lit(v))} }

// Alias renames the expression result.
func (e Expr) Alias(name string) Expr {
	return Expr{exprBinding.Export(exprBinding.Owned(e).Alias(name))}
}

// Cast converts the expression result to the type with the given host code.
func (e Expr) Cast(code int) Expr {
	return Expr{exprBinding.Export(exprBinding.Owned(e).Cast(schema.FromCode(code)))}
}

// LazyFrame is a lazy query as the host sees it.
type LazyFrame struct {
	lf *lazy.LazyFrame
}

// WithColumns accepts one expression reference or a collection of them and
// consumes them.
func (l *LazyFrame) WithColumns(exprs any) (*LazyFrame, error) {
	n, err := exprBinding.Normalize(exprs)
	if err != nil {
		return nil, toHost(err)
	}
	return &LazyFrame{lf: l.lf.WithColumns(n.Owned()...)}, nil
}

// Describe renders the recorded plan.
func (l *LazyFrame) Describe() string { return l.lf.Describe() }

// Collect runs the query.
func (l *LazyFrame) Collect(ctx context.Context) (*DataFrame, error) {
	f, err := l.lf.Collect(ctx)
	if err != nil {
		return nil, toHost(err)
	}
	return &DataFrame{frame: f}, nil
}
