package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/colbridge/pkg/config"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	shutdown, err := InitTracing(config.TracingConfig{Enabled: false}, nil)
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	_, span := StartSpan(context.Background(), "noop")
	assert.False(t, span.span.SpanContext().IsValid())
	span.End(nil)
}

func TestSpansAreExported(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(config.TracingConfig{
		Enabled:     true,
		ServiceName: "colbridge-test",
		SampleRate:  1,
	}, &buf)
	require.NoError(t, err)

	err = Trace(context.Background(), "lazy.collect", func(ctx context.Context) error {
		_, child := StartSpan(ctx, "dispatch.make_column")
		child.SetAttribute("column", "a")
		child.SetAttribute("len", 3)
		child.End(nil)
		return errors.New("boom")
	})
	require.Error(t, err)

	require.NoError(t, shutdown(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "lazy.collect")
	assert.Contains(t, out, "dispatch.make_column")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "colbridge-test")
}
