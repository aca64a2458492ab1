package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance ledger.
type Metrics struct {
	RecordsScheduled    prometheus.Counter
	Transitions         *prometheus.CounterVec
	RejectedTransitions *prometheus.CounterVec
	LockContention      prometheus.Counter
	QueryDuration       *prometheus.HistogramVec
}

// New registers the ledger metrics with the default registry.
func New() *Metrics {
	return &Metrics{
		RecordsScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compliancehub_ledger_records_scheduled_total",
			Help: "Total number of compliance records scheduled",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compliancehub_ledger_transitions_total",
			Help: "Successful compliance status transitions by source and target status",
		}, []string{"from", "to"}),
		RejectedTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compliancehub_ledger_transitions_rejected_total",
			Help: "Rejected compliance status transitions by error code",
		}, []string{"code"}),
		LockContention: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compliancehub_ledger_lock_contention_total",
			Help: "Mutations abandoned after exhausting the record lock budget",
		}),
		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "compliancehub_ledger_query_duration_seconds",
			Help:    "Duration of ledger classification queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"query"}),
	}
}

func (m *Metrics) IncrementScheduled() {
	m.RecordsScheduled.Inc()
}

func (m *Metrics) IncrementTransition(from, to string) {
	m.Transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncrementRejected(code string) {
	m.RejectedTransitions.WithLabelValues(code).Inc()
}

func (m *Metrics) IncrementLockContention() {
	m.LockContention.Inc()
}

// ObserveQuery records the duration of a classification query.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveQuery(query string, start time.Time) {
	m.QueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}
