// Package bridge is the host-facing surface: Series, DataFrame and lazy
// expressions as the host sees them.
//
// Every method that can fail returns a *HostError, a single message the host
// raises as its own exception. Values the host holds by reference are
// exported through foreign bindings; methods that take such references
// resolve them at the moment of the call.
package bridge

import (
	stderrors "errors"
	"sync/atomic"

	"github.com/ajitpratap0/colbridge/pkg/config"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/foreign"
	"github.com/ajitpratap0/colbridge/pkg/host"
	"github.com/ajitpratap0/colbridge/pkg/lazy"
)

var (
	seriesBinding = foreign.Register[*Series]("Series")
	frameBinding  = foreign.Register[*DataFrame]("DataFrame")
	exprBinding   = foreign.Register[*lazy.Expr]("Expr")
)

var active atomic.Pointer[config.Config]

func init() {
	active.Store(config.Default())
}

// Configure sets the conversion settings used by constructors.
func Configure(cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}
	active.Store(cfg)
}

// HostError is the flattened error the host sees.
type HostError struct {
	Message string
	Type    errors.ErrorType
}

func (e *HostError) Error() string { return e.Message }

func toHost(err error) error {
	if err == nil {
		return nil
	}
	if he, ok := err.(*HostError); ok {
		return he
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return &HostError{Message: err.Error(), Type: errors.ErrorTypeInternal}
	}
	msg := e.Message
	if e.Cause != nil && e.Cause.Error() != e.Message {
		msg += ": " + e.Cause.Error()
	}
	return &HostError{Message: msg, Type: e.Type}
}

// ReleaseSeries frees a Series reference the host dropped.
func ReleaseSeries(w host.Wrapper) bool { return seriesBinding.Release(w) }

// ReleaseDataFrame frees a DataFrame reference the host dropped.
func ReleaseDataFrame(w host.Wrapper) bool { return frameBinding.Release(w) }

// ReleaseExpr frees an expression reference the host dropped.
func ReleaseExpr(w host.Wrapper) bool { return exprBinding.Release(w) }

// WithSeries borrows the referenced Series for the duration of fn.
func WithSeries(w host.Wrapper, fn func(*Series) error) error {
	return toHost(seriesBinding.Borrow(w, fn))
}

// WithDataFrame borrows the referenced DataFrame for the duration of fn.
func WithDataFrame(w host.Wrapper, fn func(*DataFrame) error) error {
	return toHost(frameBinding.Borrow(w, fn))
}
