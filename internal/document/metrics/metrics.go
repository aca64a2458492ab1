package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the document workflow.
type Metrics struct {
	Uploads       *prometheus.CounterVec
	UploadBytes   prometheus.Histogram
	Verifications *prometheus.CounterVec
	Comments      prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Uploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compliancehub_documents_uploaded_total",
			Help: "Documents accepted for verification by content type",
		}, []string{"content_type"}),
		UploadBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliancehub_document_upload_size_bytes",
			Help:    "Declared size of uploaded documents",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compliancehub_document_verifications_total",
			Help: "Verification decisions by outcome",
		}, []string{"outcome"}),
		Comments: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compliancehub_document_comments_total",
			Help: "Comments appended to document history",
		}),
	}
}

func (m *Metrics) ObserveUpload(contentType string, size int64) {
	m.Uploads.WithLabelValues(contentType).Inc()
	m.UploadBytes.Observe(float64(size))
}

func (m *Metrics) IncrementVerification(outcome string) {
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementComment() {
	m.Comments.Inc()
}
