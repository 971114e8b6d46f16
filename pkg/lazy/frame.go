package lazy

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/pkg/columnar"
	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/observability"
)

// LazyFrame is a frame plus the column operations to run on Collect.
type LazyFrame struct {
	source *columnar.Frame
	steps  [][]*Expr
}

// New starts a lazy query over f. f is not modified.
func New(f *columnar.Frame) *LazyFrame {
	return &LazyFrame{source: f.Clone()}
}

// WithColumns adds the results of exprs as columns, replacing columns of the
// same name. All exprs see the frame as it was before this step; their
// results are added in order.
func (lf *LazyFrame) WithColumns(exprs ...*Expr) *LazyFrame {
	steps := make([][]*Expr, len(lf.steps), len(lf.steps)+1)
	copy(steps, lf.steps)
	steps = append(steps, append([]*Expr(nil), exprs...))
	return &LazyFrame{source: lf.source, steps: steps}
}

// Describe renders the recorded plan.
func (lf *LazyFrame) Describe() string {
	var b strings.Builder
	b.WriteString("FRAME")
	for _, step := range lf.steps {
		parts := make([]string, len(step))
		for i, e := range step {
			parts[i] = e.String()
		}
		b.WriteString(" -> WITH_COLUMNS [" + strings.Join(parts, ", ") + "]")
	}
	return b.String()
}

// Collect evaluates the plan and returns the resulting frame.
func (lf *LazyFrame) Collect(ctx context.Context) (*columnar.Frame, error) {
	ctx, span := observability.StartSpan(logger.ContextWithOperation(ctx, "collect"), "lazy.collect")
	span.SetAttribute("steps", len(lf.steps))

	out, err := lf.collect(ctx, span)
	span.End(err)
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Debug("lazy frame collected",
		zap.Int("steps", len(lf.steps)),
		zap.Int("height", out.Height()),
		zap.Int("width", out.Width()))
	return out, nil
}

func (lf *LazyFrame) collect(ctx context.Context, span *observability.Span) (*columnar.Frame, error) {
	cur := lf.source.Clone()
	for i, step := range lf.steps {
		span.AddEvent("with_columns",
			attribute.Int("step", i),
			attribute.Int("expressions", len(step)),
			attribute.Int("width", cur.Width()))
		cols := make([]*columnar.Column, 0, len(step))
		for _, e := range step {
			col, err := e.evaluate(ctx, cur)
			if err != nil {
				releaseColumns(cols)
				cur.Release()
				return nil, err
			}
			cols = append(cols, col)
		}

		next := cur
		for _, col := range cols {
			f, err := next.WithColumn(col)
			if next != cur {
				next.Release()
			}
			if err != nil {
				releaseColumns(cols)
				cur.Release()
				return nil, err
			}
			next = f
		}
		releaseColumns(cols)
		if next != cur {
			cur.Release()
		}
		cur = next
	}
	return cur, nil
}

func releaseColumns(cols []*columnar.Column) {
	for _, c := range cols {
		c.Release()
	}
}
