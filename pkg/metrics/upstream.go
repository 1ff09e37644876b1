package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics records calls made to the catalog API and the identity provider.
type UpstreamMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewUpstreamMetrics registers the upstream request metrics on the provided registerer.
func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	if reg == nil {
		return &UpstreamMetrics{}
	}
	labels := []string{"service", "operation"}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of upstream requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, labels)
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_request_success",
		Help: "Upstream requests that returned a usable response.",
	}, labels)
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_request_failure",
		Help: "Upstream requests that failed.",
	}, append(labels, "code"))
	reg.MustRegister(duration, success, failure)
	return &UpstreamMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// Observe records one finished call. code is empty on success.
func (u *UpstreamMetrics) Observe(service, operation string, took time.Duration, code string) {
	if u == nil || u.duration == nil {
		return
	}
	service, operation = normalizeLabel(service), normalizeLabel(operation)
	u.duration.WithLabelValues(service, operation).Observe(took.Seconds())
	if code == "" {
		u.success.WithLabelValues(service, operation).Inc()
		return
	}
	u.failure.WithLabelValues(service, operation, code).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
