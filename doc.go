// Package colbridge converts untyped host values into strongly typed columns
// and back, across a foreign-function boundary.
//
// The host is dynamically typed: it hands over plain values, generic arrays,
// typed buffers, plain objects and wrappers around values the native side
// owns. colbridge classifies each value once, picks a conversion path, and
// builds Apache Arrow backed columns and frames from it. Typed buffers are
// copied in and out; columns never alias host memory.
//
// # Packages
//
//   - pkg/host: the Go shapes of host values and their classification
//   - pkg/handle, pkg/foreign: generation-checked handles, owned and
//     borrowed resolution, collection iteration, one-or-many normalization
//   - pkg/codec: typed buffer to column and back for the primitive types
//   - pkg/dispatch: host value to column and frame construction
//   - pkg/columnar: the column and frame engine over arrow-go
//   - pkg/lazy: column expressions and deferred with_columns queries
//   - pkg/bridge: Series, DataFrame and Expr as the host sees them
//
// # Quick Start
//
//	s, err := bridge.NewSeries("a", []int32{1, 2, 3})
//	if err != nil {
//	    return err
//	}
//	buf, err := s.ToArray() // []int32{1, 2, 3}
//
//	df, err := bridge.NewDataFrame(host.Object{
//	    {Key: "a", Value: []any{1.0, 2.0}},
//	    {Key: "b", Value: []any{"x", nil}},
//	})
//
// # Configuration
//
// Conversion policies, logging, metrics and tracing are configured through
// pkg/config (YAML, JSON or TOML, with COLBRIDGE_* environment overrides).
// The colbridge command in cmd/colbridge inspects JSON documents and writes
// typed buffers and Arrow IPC files.
package colbridge
