// Package testutil provides testing utilities for colbridge
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/colbridge/pkg/logger"
	"github.com/ajitpratap0/colbridge/pkg/metrics"
)

// TestLogger installs a logger that writes to the test output as the global
// logger. The previous logger is restored when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	l := zaptest.NewLogger(t)
	swapLogger(t, l)
	return l
}

// ObservedLogs installs a global logger that records entries at level and
// above, and returns the recorded entries.
func ObservedLogs(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	swapLogger(t, zap.New(core))
	return logs
}

func swapLogger(t *testing.T, l *zap.Logger) {
	prev := logger.Get()
	logger.Set(l)
	t.Cleanup(func() { logger.Set(prev) })
}

// TestContext creates a test context with a 30-second timeout, cancelled
// when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// CheckedAllocator returns an allocator that fails the test if any buffer
// allocated from it is still live when the test completes.
func CheckedAllocator(t *testing.T) *memory.CheckedAllocator {
	t.Helper()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	t.Cleanup(func() { mem.AssertSize(t, 0) })
	return mem
}

// Collector installs a fresh metrics collector under namespace and restores
// the previous one when the test completes.
func Collector(t *testing.T, namespace string) *metrics.Collector {
	t.Helper()
	prev := metrics.Current()
	c := metrics.NewCollector(namespace)
	metrics.Install(c)
	t.Cleanup(func() { metrics.Install(prev) })
	return c
}

// RecordSpans installs a global tracer provider that records every ended
// span. The previous provider is restored when the test completes.
func RecordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}
