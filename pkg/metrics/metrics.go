// Package metrics exports lineage events to Prometheus.
//
// A [Registry] implements every hook interface in pkg/observability. Install
// it once at startup:
//
//	m := metrics.NewRegistry()
//	m.Install()
//	http.Handle("/metrics", m.Handler())
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/lineage/pkg/observability"
)

const namespace = "lineage"

// Registry holds all metrics for the application.
type Registry struct {
	// Layout metrics
	LayoutsTotal      *prometheus.CounterVec
	LayoutDuration    prometheus.Histogram
	LayoutNodes       prometheus.Gauge
	LayoutWarnings    *prometheus.CounterVec
	LayoutRebuilds    prometheus.Counter
	RebuildDuration   prometheus.Histogram
	FramesTotal       *prometheus.CounterVec
	FrameDuration     prometheus.Histogram
	FrameVisibleNodes prometheus.Histogram
	FramesTruncated   prometheus.Counter

	// Gesture metrics
	GestureTransitions *prometheus.CounterVec
	GestureInvalid     *prometheus.CounterVec

	// Cache metrics
	CacheRequests *prometheus.CounterVec
	CacheWrites   *prometheus.CounterVec
	CacheBytes    *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with all metrics initialized, plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r := &Registry{registry: reg}
	r.initLayoutMetrics()
	r.initFrameMetrics()
	r.initGestureMetrics()
	r.initCacheMetrics()
	r.initHTTPMetrics()
	return r
}

// Prometheus returns the underlying Prometheus registry.
func (r *Registry) Prometheus() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Install registers r as the layout, frame, gesture and cache hooks.
func (r *Registry) Install() {
	observability.SetLayoutHooks(r)
	observability.SetFrameHooks(r)
	observability.SetGestureHooks(r)
	observability.SetCacheHooks(r)
}

func (r *Registry) initLayoutMetrics() {
	f := promauto.With(r.registry)
	r.LayoutsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "layouts_total",
		Help:      "Layout passes by outcome.",
	}, []string{"status"})
	r.LayoutDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layout_duration_seconds",
		Help:      "Layout pass duration in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})
	r.LayoutNodes = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "layout_nodes",
		Help:      "Node count of the most recent layout.",
	})
	r.LayoutWarnings = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "layout_warnings_total",
		Help:      "Non-fatal input problems by error code.",
	}, []string{"code"})
}

func (r *Registry) initFrameMetrics() {
	f := promauto.With(r.registry)
	r.FramesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "Visible-set computations by detail tier.",
	}, []string{"tier"})
	r.FrameDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "frame_duration_seconds",
		Help:      "Visible-set computation time in seconds.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.002, 0.004, 0.008, 0.016},
	})
	r.FrameVisibleNodes = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "frame_visible_items",
		Help:      "Nodes plus clusters returned per frame.",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 1500},
	})
	r.FramesTruncated = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_truncated_total",
		Help:      "Frames whose visible set hit the cap.",
	})
	r.LayoutRebuilds = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rebuilds_total",
		Help:      "Layouts swapped into a live scene.",
	})
	r.RebuildDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rebuild_duration_seconds",
		Help:      "Background rebuild time in seconds.",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
}

func (r *Registry) initGestureMetrics() {
	f := promauto.With(r.registry)
	r.GestureTransitions = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gesture_transitions_total",
		Help:      "Camera phase changes.",
	}, []string{"from", "to"})
	r.GestureInvalid = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gesture_invalid_events_total",
		Help:      "Events ignored by the camera state machine.",
	}, []string{"phase", "event"})
}

func (r *Registry) initCacheMetrics() {
	f := promauto.With(r.registry)
	r.CacheRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_requests_total",
		Help:      "Cache lookups by key type and result.",
	}, []string{"key_type", "result"})
	r.CacheWrites = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_writes_total",
		Help:      "Cache writes by key type.",
	}, []string{"key_type"})
	r.CacheBytes = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cache_write_bytes",
		Help:      "Size of cache writes in bytes.",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
	}, []string{"key_type"})
}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)
	r.HTTPRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})
	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
}

// =============================================================================
// Hook implementations
// =============================================================================

var (
	_ observability.LayoutHooks  = (*Registry)(nil)
	_ observability.FrameHooks   = (*Registry)(nil)
	_ observability.GestureHooks = (*Registry)(nil)
	_ observability.CacheHooks   = (*Registry)(nil)
)

func (r *Registry) OnLayoutStart(context.Context, int) {}

func (r *Registry) OnLayoutComplete(_ context.Context, nodes int, d time.Duration, err error) {
	if err != nil {
		r.LayoutsTotal.WithLabelValues("error").Inc()
		return
	}
	r.LayoutsTotal.WithLabelValues("ok").Inc()
	r.LayoutDuration.Observe(d.Seconds())
	r.LayoutNodes.Set(float64(nodes))
}

func (r *Registry) OnWarning(_ context.Context, code string) {
	r.LayoutWarnings.WithLabelValues(code).Inc()
}

func (r *Registry) OnFrame(tier string, visible, clusters int, d time.Duration, truncated bool) {
	r.FramesTotal.WithLabelValues(tier).Inc()
	r.FrameDuration.Observe(d.Seconds())
	r.FrameVisibleNodes.Observe(float64(visible + clusters))
	if truncated {
		r.FramesTruncated.Inc()
	}
}

func (r *Registry) OnRebuild(_ int, d time.Duration) {
	r.LayoutRebuilds.Inc()
	r.RebuildDuration.Observe(d.Seconds())
}

func (r *Registry) OnTransition(from, to string) {
	r.GestureTransitions.WithLabelValues(from, to).Inc()
}

func (r *Registry) OnInvalidEvent(phase, event string) {
	r.GestureInvalid.WithLabelValues(phase, event).Inc()
}

func (r *Registry) OnCacheHit(_ context.Context, keyType string) {
	r.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (r *Registry) OnCacheMiss(_ context.Context, keyType string) {
	r.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (r *Registry) OnCacheSet(_ context.Context, keyType string, size int) {
	r.CacheWrites.WithLabelValues(keyType).Inc()
	r.CacheBytes.WithLabelValues(keyType).Observe(float64(size))
}

// RecordHTTPRequest records an HTTP request with its duration.
func (r *Registry) RecordHTTPRequest(method, route, status string, d time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
