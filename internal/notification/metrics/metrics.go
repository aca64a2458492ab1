package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for notification derivation and fan-out.
type Metrics struct {
	Emitted         *prometheus.CounterVec
	EmitFailures    *prometheus.CounterVec
	Deduplicated    prometheus.Counter
	ScanDuration    prometheus.Histogram
	Published       prometheus.Counter
	PublishFailures prometheus.Counter
	PublishDropped  prometheus.Counter
	BreakerOpen     prometheus.Gauge
	BufferDepth     prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		Emitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compliancehub_notifications_emitted_total",
			Help: "Notifications stored by type",
		}, []string{"type"}),
		EmitFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compliancehub_notifications_emit_failures_total",
			Help: "Notifications that could not be stored, by type",
		}, []string{"type"}),
		Deduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compliancehub_notifications_deduplicated_total",
			Help: "Deadline notifications skipped because they were already emitted",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliancehub_notifications_scan_duration_seconds",
			Help:    "Duration of deadline scans",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		Published: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compliancehub_notifications_published_total",
			Help: "Notifications delivered to the fan-out topic",
		}),
		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compliancehub_notifications_publish_failures_total",
			Help: "Failed fan-out produce attempts",
		}),
		PublishDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compliancehub_notifications_publish_dropped_total",
			Help: "Notifications evicted from a full fan-out buffer",
		}),
		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "compliancehub_notifications_publisher_circuit_open",
			Help: "1 while the fan-out circuit breaker is open",
		}),
		BufferDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "compliancehub_notifications_publisher_buffer_depth",
			Help: "Notifications waiting in the fan-out buffer",
		}),
	}
}

func (m *Metrics) IncrementEmitted(notificationType string) {
	m.Emitted.WithLabelValues(notificationType).Inc()
}

func (m *Metrics) IncrementEmitFailure(notificationType string) {
	m.EmitFailures.WithLabelValues(notificationType).Inc()
}

func (m *Metrics) IncrementDeduplicated() {
	m.Deduplicated.Inc()
}

// ObserveScan records a deadline scan duration.
// Call with time.Now() at the start of the scan.
func (m *Metrics) ObserveScan(start time.Time) {
	m.ScanDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementPublished(n int) {
	m.Published.Add(float64(n))
}

func (m *Metrics) IncrementPublishFailure() {
	m.PublishFailures.Inc()
}

func (m *Metrics) IncrementDropped() {
	m.PublishDropped.Inc()
}

func (m *Metrics) SetBreakerOpen(open bool) {
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}

func (m *Metrics) SetBufferDepth(n int) {
	m.BufferDepth.Set(float64(n))
}
