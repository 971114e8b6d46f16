// Package metrics provides Prometheus instrumentation for the conversion
// boundary.
//
// # Overview
//
// The metrics package provides:
//   - Conversion outcomes per dispatch path and data type
//   - Bytes copied by the typed-buffer codec
//   - Foreign handle lifecycle events and live handle gauges
//   - An HTTP handler exposing the active registry
//
// # Basic Usage
//
//	metrics.RecordConversion("generic_array", "f64", err)
//	metrics.RecordBytesCopied(metrics.DirectionDecode, 8*len(buf))
//	registry.Subscribe(metrics.HandleObserver("Series"))
//
// All recording functions go through the installed Collector. Install(nil)
// turns recording into a no-op.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajitpratap0/colbridge/pkg/handle"
)

// Codec copy directions.
const (
	DirectionDecode = "decode"
	DirectionEncode = "encode"
)

// Collector owns one set of boundary metrics registered on one registry.
type Collector struct {
	registry *prometheus.Registry

	conversions       *prometheus.CounterVec   // path, dtype, status
	conversionLatency *prometheus.HistogramVec // path
	bytesCopied       *prometheus.CounterVec   // direction
	handleEvents      *prometheus.CounterVec   // binding, event
	handlesLive       *prometheus.GaugeVec     // binding
}

// NewCollector creates a collector whose metric names are prefixed with
// namespace, registered on a fresh registry.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		conversions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Host value to column conversions",
			},
			[]string{"path", "dtype", "status"},
		),
		conversionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "conversion_duration_seconds",
				Help:      "Duration of host value to column conversions",
				Buckets: []float64{
					1e-6, // 1μs
					1e-5, // 10μs
					1e-4, // 100μs
					1e-3, // 1ms
					1e-2, // 10ms
					1e-1, // 100ms
					1,
				},
			},
			[]string{"path"},
		),
		bytesCopied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "codec_bytes_copied_total",
				Help:      "Bytes copied between typed buffers and columns",
			},
			[]string{"direction"},
		),
		handleEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "handle_events_total",
				Help:      "Foreign handle lifecycle events",
			},
			[]string{"binding", "event"},
		),
		handlesLive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "handles_live",
				Help:      "Foreign handles currently held by the host",
			},
			[]string{"binding"},
		),
	}
}

// Registry returns the Prometheus registry backing c.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

var current atomic.Pointer[Collector]

func init() {
	current.Store(NewCollector("colbridge"))
}

// Install replaces the active collector. nil disables recording.
func Install(c *Collector) {
	current.Store(c)
}

// Current returns the active collector, or nil when recording is disabled.
func Current() *Collector {
	return current.Load()
}

// RecordConversion counts one conversion. A nil err is a success.
func RecordConversion(path, dtype string, err error) {
	c := current.Load()
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	c.conversions.WithLabelValues(path, dtype, status).Inc()
}

// ObserveConversion records how long a conversion along path took.
func ObserveConversion(path string, d time.Duration) {
	if c := current.Load(); c != nil {
		c.conversionLatency.WithLabelValues(path).Observe(d.Seconds())
	}
}

// RecordBytesCopied adds n bytes to the codec copy counter.
func RecordBytesCopied(direction string, n int) {
	if c := current.Load(); c != nil && n > 0 {
		c.bytesCopied.WithLabelValues(direction).Add(float64(n))
	}
}

// HandleObserver returns a registry observer feeding the handle metrics
// under the given binding name.
func HandleObserver(binding string) handle.Observer {
	return func(ev handle.Event) {
		c := current.Load()
		if c == nil {
			return
		}
		c.handleEvents.WithLabelValues(binding, ev.Type.String()).Inc()
		c.handlesLive.WithLabelValues(binding).Set(float64(ev.Live))
	}
}

// Handler serves the active collector's registry. When recording is disabled
// it serves an empty registry.
func Handler() http.Handler {
	c := current.Load()
	if c == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Timer provides a simple timing mechanism for measuring operation durations.
type Timer struct {
	start time.Time
	path  string
}

// NewTimer creates a new timer for a conversion path and starts it.
//
// Example:
//
//	timer := metrics.NewTimer("typed_buffer")
//	defer timer.Stop()
func NewTimer(path string) *Timer {
	return &Timer{start: time.Now(), path: path}
}

// Stop records the elapsed duration under the timer's path and returns it.
func (t *Timer) Stop() time.Duration {
	d := time.Since(t.start)
	ObserveConversion(t.path, d)
	return d
}
