package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emailwise_analysis_total",
			Help: "Email analyses by provenance method",
		},
		[]string{"method"},
	)

	ChatTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emailwise_chat_total",
			Help: "Follow-up chat answers by outcome",
		},
		[]string{"outcome"}, // answered, refused, failed
	)

	AttachmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emailwise_attachments_total",
			Help: "Attachments seen by extractor kind and status",
		},
		[]string{"kind", "status"},
	)

	RemoteCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emailwise_remote_call_seconds",
			Help:    "Completion provider call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
		[]string{"provider", "feature", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "emailwise_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"method", "path", "status"},
	)
)

func RecordAnalysis(method string) {
	AnalysisTotal.WithLabelValues(method).Inc()
}

func RecordChat(outcome string) {
	ChatTotal.WithLabelValues(outcome).Inc()
}

func RecordAttachment(kind, status string) {
	AttachmentsTotal.WithLabelValues(kind, status).Inc()
}

func RecordRemoteCall(provider, feature, status string, duration time.Duration) {
	RemoteCallDuration.WithLabelValues(provider, feature, status).Observe(duration.Seconds())
}

func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
