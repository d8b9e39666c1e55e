package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// telemetry holds the service's own operational metrics, exposed on
// /telemetry. This is separate from the domain /metrics report, whose metric
// set is request-scoped and does not fit a static registry.
type telemetry struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newTelemetry() *telemetry {
	t := &telemetry{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostcarbon_http_requests_total",
			Help: "HTTP requests handled, by path and status code.",
		}, []string{"path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hostcarbon_http_request_duration_seconds",
			Help:    "HTTP request latency, by path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}
	t.registry.MustRegister(t.requests, t.duration)
	return t
}

func (t *telemetry) observe(path string, status int, elapsed time.Duration) {
	t.requests.WithLabelValues(path, strconv.Itoa(status)).Inc()
	t.duration.WithLabelValues(path).Observe(elapsed.Seconds())
}

func (t *telemetry) handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
