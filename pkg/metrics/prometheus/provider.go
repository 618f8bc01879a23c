// Package prometheus is the Prometheus-backed implementation of
// pkg/metrics.ProviderMetrics.
package prometheus

import (
	"time"

	"github.com/marmos91/vfsprovider/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// providerMetrics is the Prometheus implementation of
// metrics.ProviderMetrics.
type providerMetrics struct {
	requestsCreated   *prometheus.CounterVec
	requestsCompleted *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	chunksEmitted     *prometheus.CounterVec
	queueDepth        prometheus.Gauge
	mountOutcomes     *prometheus.CounterVec
}

// NewProviderMetrics creates a new Prometheus-backed ProviderMetrics
// instance.
//
// Returns nil if metrics are not enabled (metrics.InitRegistry not
// called), so callers can pass the result straight to NewProvider
// without a branch: a nil ProviderMetrics is already zero-overhead.
func NewProviderMetrics() metrics.ProviderMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &providerMetrics{
		requestsCreated: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vfsprovider_requests_created_total",
				Help: "Total number of requests accepted by CreateRequest, by kind",
			},
			[]string{"kind"},
		),
		requestsCompleted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vfsprovider_requests_completed_total",
				Help: "Total number of requests reaching a terminal state, by kind and outcome",
			},
			[]string{"kind", "outcome"}, // outcome: "success", "error", "cancelled"
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "vfsprovider_request_duration_milliseconds",
				Help: "Time from CreateRequest to terminal completion, in milliseconds",
				Buckets: []float64{
					0.1,  // 100us
					0.5,  // 500us
					1,    // 1ms
					5,    // 5ms
					10,   // 10ms
					50,   // 50ms
					100,  // 100ms
					500,  // 500ms
					1000, // 1s
				},
			},
			[]string{"kind", "outcome"},
		),
		chunksEmitted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vfsprovider_chunks_emitted_total",
				Help: "Total number of hasMore=true Fulfill calls, by kind",
			},
			[]string{"kind"},
		),
		queueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "vfsprovider_submission_queue_depth",
				Help: "Current length of the FIFO submission queue, sampled after each drain",
			},
		),
		mountOutcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "vfsprovider_mount_outcomes_total",
				Help: "Total number of settled mount/unmount deferred handles, by operation and outcome",
			},
			[]string{"op", "outcome"}, // op: "mount", "unmount"; outcome: "resolved", "rejected"
		),
	}
}

func (m *providerMetrics) RecordRequestCreated(kind string) {
	if m == nil {
		return
	}
	m.requestsCreated.WithLabelValues(kind).Inc()
}

func (m *providerMetrics) RecordRequestCompleted(kind, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsCompleted.WithLabelValues(kind, outcome).Inc()
	m.requestDuration.WithLabelValues(kind, outcome).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *providerMetrics) RecordChunk(kind string) {
	if m == nil {
		return
	}
	m.chunksEmitted.WithLabelValues(kind).Inc()
}

func (m *providerMetrics) RecordQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *providerMetrics) RecordMountOutcome(op, outcome string) {
	if m == nil {
		return
	}
	m.mountOutcomes.WithLabelValues(op, outcome).Inc()
}
