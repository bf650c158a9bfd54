package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// queueMetrics is the Prometheus-backed Recorder, grounded on the
// teacher's pkg/metrics/prometheus/cache.go: CounterVec/HistogramVec/
// GaugeVec fields, a constructor that returns nil when metrics are
// disabled, and nil-receiver-safe methods throughout so callers never
// need to nil-check before recording.
type queueMetrics struct {
	requestOutcomes  *prometheus.CounterVec
	acquireLatency   prometheus.Histogram
	freeListLen      prometheus.Gauge
	dirtyListLen     prometheus.Gauge
	cacheSize        prometheus.Gauge
	droppedFrames    *prometheus.CounterVec
	listenerDispatch *prometheus.CounterVec
}

// NewPrometheusRecorder registers and returns a Recorder backed by
// Prometheus collectors under reg. When enabled is false it returns nil —
// callers hold a nil Recorder and every method on it is a no-op, matching
// the teacher's NewCacheMetrics(cfg) pattern.
func NewPrometheusRecorder(reg prometheus.Registerer, enabled bool) Recorder {
	if !enabled {
		return (*queueMetrics)(nil)
	}

	m := &queueMetrics{
		requestOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bufferqueue_request_outcomes_total",
			Help: "RequestBuffer outcomes by kind (config_reuse, free_list_pop, allocated, drop_dirty, timeout, error).",
		}, []string{"outcome"}),
		acquireLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bufferqueue_flush_to_acquire_latency_seconds",
			Help:    "Latency from FlushBuffer to the matching AcquireBuffer.",
			Buckets: prometheus.DefBuckets,
		}),
		freeListLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bufferqueue_free_list_length",
			Help: "Current number of slots in the free list.",
		}),
		dirtyListLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bufferqueue_dirty_list_length",
			Help: "Current number of slots in the dirty list.",
		}),
		cacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bufferqueue_cache_size",
			Help: "Current number of cached slots.",
		}),
		droppedFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bufferqueue_dropped_frames_total",
			Help: "Frames dropped from the dirty list, by reason (level, timestamp).",
		}, []string{"reason"}),
		listenerDispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bufferqueue_listener_dispatch_total",
			Help: "Listener dispatches by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.requestOutcomes,
		m.acquireLatency,
		m.freeListLen,
		m.dirtyListLen,
		m.cacheSize,
		m.droppedFrames,
		m.listenerDispatch,
	)

	return m
}

func (m *queueMetrics) RequestOutcome(outcome RequestOutcome) {
	if m == nil {
		return
	}
	m.requestOutcomes.WithLabelValues(string(outcome)).Inc()
}

func (m *queueMetrics) ObserveRequestToAcquireLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.acquireLatency.Observe(d.Seconds())
}

func (m *queueMetrics) RecordFreeListLen(n int) {
	if m == nil {
		return
	}
	m.freeListLen.Set(float64(n))
}

func (m *queueMetrics) RecordDirtyListLen(n int) {
	if m == nil {
		return
	}
	m.dirtyListLen.Set(float64(n))
}

func (m *queueMetrics) RecordCacheSize(n int) {
	if m == nil {
		return
	}
	m.cacheSize.Set(float64(n))
}

func (m *queueMetrics) RecordDroppedFrame(reason string) {
	if m == nil {
		return
	}
	m.droppedFrames.WithLabelValues(reason).Inc()
}

func (m *queueMetrics) RecordListenerDispatch(kind string) {
	if m == nil {
		return
	}
	m.listenerDispatch.WithLabelValues(kind).Inc()
}
