package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Gateway metrics
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec
	GatewayHealth          *prometheus.GaugeVec

	// Reconciliation metrics
	ReconcileOrdersTotal  *prometheus.CounterVec
	ReconcilePassesTotal  *prometheus.CounterVec
	ReconcilePassDuration prometheus.Histogram
}

// New creates a new Metrics instance registered with the default registry.
func New(namespace string) *Metrics {
	return NewWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a new Metrics instance registered with reg.
func NewWithRegisterer(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "botmarket"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Gateway metrics
		GatewayRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total number of payment gateway requests",
			},
			[]string{"provider", "operation", "outcome"}, // outcome: 2xx, 4xx, 5xx, error, open
		),
		GatewayRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Payment gateway request duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider", "operation"},
		),
		GatewayHealth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "healthy",
				Help:      "Result of the last liveness probe (1=reachable, 0=unreachable)",
			},
			[]string{"provider"},
		),

		// Reconciliation metrics
		ReconcileOrdersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "orders_total",
				Help:      "Orders examined by reconciliation, by outcome",
			},
			[]string{"provider", "outcome"},
		),
		ReconcilePassesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "passes_total",
				Help:      "Reconciliation passes, by result",
			},
			[]string{"result"}, // result: completed, cancelled, error
		),
		ReconcilePassDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "pass_duration_seconds",
				Help:      "Reconciliation pass duration in seconds",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 300},
			},
		),
	}
}

// --- Convenience methods ---
// All recorders are no-ops on a nil receiver.

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGatewayRequest records one HTTP round trip to a payment provider.
// A status of zero means the request failed before a response arrived.
func (m *Metrics) RecordGatewayRequest(provider, operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "error"
	if status > 0 {
		outcome = statusCodeToString(status)
	}
	m.GatewayRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	m.GatewayRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordGatewayRejected records a request short-circuited by an open breaker.
func (m *Metrics) RecordGatewayRejected(provider, operation string) {
	if m == nil {
		return
	}
	m.GatewayRequestsTotal.WithLabelValues(provider, operation, "open").Inc()
}

// SetGatewayHealth sets the liveness of a provider.
func (m *Metrics) SetGatewayHealth(provider string, healthy bool) {
	if m == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.GatewayHealth.WithLabelValues(provider).Set(value)
}

// RecordReconcileOrder records the outcome for one order of a pass.
func (m *Metrics) RecordReconcileOrder(provider, outcome string) {
	if m == nil {
		return
	}
	m.ReconcileOrdersTotal.WithLabelValues(provider, outcome).Inc()
}

// RecordReconcilePass records a finished pass.
func (m *Metrics) RecordReconcilePass(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ReconcilePassesTotal.WithLabelValues(result).Inc()
	m.ReconcilePassDuration.Observe(duration.Seconds())
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
