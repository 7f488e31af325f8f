package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docstack", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docstack", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	DocumentsUploaded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docstack", Name: "documents_uploaded_total", Help: "Number of document files stored."},
	)
	DocumentsDownloaded = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docstack", Name: "documents_downloaded_total", Help: "Number of document downloads served."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(DocumentsUploaded)
	reg.MustRegister(DocumentsDownloaded)
}
