//go:build js && wasm

// Command colbridge-wasm exposes the bridge to a JavaScript host as the
// global object "colbridge". Failures come back as Error values for the
// calling shim to throw.
package main

import (
	"context"
	"syscall/js"

	"go.uber.org/zap"

	"github.com/ajitpratap0/colbridge/internal/jshost"
	"github.com/ajitpratap0/colbridge/pkg/bridge"
	"github.com/ajitpratap0/colbridge/pkg/errors"
	"github.com/ajitpratap0/colbridge/pkg/host"
	"github.com/ajitpratap0/colbridge/pkg/logger"
)

type hostFunc func(args []any) (any, error)

func export(target js.Value, name string, fn hostFunc) {
	target.Set(name, js.FuncOf(func(_ js.Value, jsArgs []js.Value) any {
		args := make([]any, len(jsArgs))
		for i, a := range jsArgs {
			args[i] = jshost.FromJS(a)
		}
		out, err := fn(args)
		if err != nil {
			return js.Global().Get("Error").New(err.Error())
		}
		return jshost.ToJS(out)
	}))
}

func wrapperArg(args []any, i int) host.Wrapper {
	if i < len(args) {
		if w, ok := args[i].(host.Wrapper); ok {
			return w
		}
	}
	panic("colbridge: argument is not a reference")
}

func main() {
	if err := logger.Init(logger.Config{Level: "warn", Encoding: "console"}); err != nil {
		panic(err)
	}
	lib := js.Global().Get("Object").New()

	export(lib, "series", func(args []any) (any, error) {
		s, err := bridge.NewSeries(args...)
		if err != nil {
			return nil, err
		}
		return s.Export(), nil
	})
	export(lib, "seriesToArray", func(args []any) (out any, err error) {
		err = bridge.WithSeries(wrapperArg(args, 0), func(s *bridge.Series) error {
			out, err = s.ToArray()
			return err
		})
		return out, err
	})
	export(lib, "seriesDType", func(args []any) (out any, err error) {
		err = bridge.WithSeries(wrapperArg(args, 0), func(s *bridge.Series) error {
			out = s.DType()
			return nil
		})
		return out, err
	})
	export(lib, "seriesToJSON", func(args []any) (out any, err error) {
		err = bridge.WithSeries(wrapperArg(args, 0), func(s *bridge.Series) error {
			out = s.ToJSON()
			return nil
		})
		return out, err
	})
	export(lib, "releaseSeries", func(args []any) (any, error) {
		return bridge.ReleaseSeries(wrapperArg(args, 0)), nil
	})

	export(lib, "dataFrame", func(args []any) (any, error) {
		var input any = host.Undefined{}
		if len(args) > 0 {
			input = args[0]
		}
		df, err := bridge.NewDataFrame(input)
		if err != nil {
			return nil, err
		}
		return df.Export(), nil
	})
	export(lib, "frameToJSON", func(args []any) (out any, err error) {
		err = bridge.WithDataFrame(wrapperArg(args, 0), func(df *bridge.DataFrame) error {
			out, err = df.ToJSON()
			return err
		})
		return out, err
	})
	export(lib, "frameWithColumns", func(args []any) (any, error) {
		var out *bridge.DataFrame
		err := bridge.WithDataFrame(wrapperArg(args, 0), func(df *bridge.DataFrame) error {
			var exprs any
			if len(args) > 1 {
				exprs = args[1]
			}
			lf, err := df.Lazy().WithColumns(exprs)
			if err != nil {
				return err
			}
			out, err = lf.Collect(context.Background())
			return err
		})
		if err != nil {
			return nil, err
		}
		return out.Export(), nil
	})
	export(lib, "col", func(args []any) (any, error) {
		if len(args) == 0 {
			return nil, &bridge.HostError{Message: "col expects a column name", Type: errors.ErrorTypeInvalidArgument}
		}
		name, _ := args[0].(string)
		return bridge.Col(name).Ref, nil
	})
	export(lib, "releaseDataFrame", func(args []any) (any, error) {
		return bridge.ReleaseDataFrame(wrapperArg(args, 0)), nil
	})

	js.Global().Set("colbridge", lib)
	logger.Get().Info("colbridge ready", zap.String("component", "wasm"))
	select {}
}
