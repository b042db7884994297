package metrics

import "github.com/prometheus/client_golang/prometheus"

// Upload results recorded in UploadMetrics.Uploads.
const (
	UploadResultStored   = "stored"
	UploadResultRejected = "rejected"
	UploadResultFailed   = "failed"
)

// UploadMetrics holds Prometheus metrics for background image uploads.
type UploadMetrics struct {
	Uploads *prometheus.CounterVec
	Bytes   prometheus.Histogram
}

// NewUploadMetrics creates and registers upload metrics on the given registry.
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	m := &UploadMetrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "total",
			Help:      "Total number of background uploads, by result.",
		}, []string{"result"}),
		Bytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "size_bytes",
			Help:      "Size of stored background images in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 6),
		}),
	}

	reg.MustRegister(m.Uploads, m.Bytes)
	return m
}
