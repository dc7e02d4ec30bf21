package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// createTestMetrics creates metrics with a custom registry for testing.
// This avoids conflicts with the default registry.
func createTestMetrics() *Metrics {
	return NewWithRegisterer("test", prometheus.NewRegistry())
}

func TestRecordHTTPRequest(t *testing.T) {
	m := createTestMetrics()

	m.RecordHTTPRequest("GET", "/api/v1/payments", 200, 50*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/v1/payments", 201, 10*time.Millisecond)
	m.RecordHTTPRequest("POST", "/api/v1/reconcile", 502, time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/payments", "2xx")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/reconcile", "5xx")))
}

func TestRecordGatewayRequest(t *testing.T) {
	m := createTestMetrics()

	t.Run("categorises responses", func(t *testing.T) {
		m.RecordGatewayRequest("aggregator_a", "lookup", 404, time.Millisecond)
		m.RecordGatewayRequest("aggregator_a", "lookup", 200, time.Millisecond)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues("aggregator_a", "lookup", "4xx")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues("aggregator_a", "lookup", "2xx")))
	})

	t.Run("zero status is a transport error", func(t *testing.T) {
		m.RecordGatewayRequest("pix_only_b", "create", 0, time.Millisecond)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues("pix_only_b", "create", "error")))
	})

	t.Run("open breaker", func(t *testing.T) {
		m.RecordGatewayRejected("card_generic", "lookup")
		assert.Equal(t, float64(1), testutil.ToFloat64(m.GatewayRequestsTotal.WithLabelValues("card_generic", "lookup", "open")))
	})
}

func TestSetGatewayHealth(t *testing.T) {
	m := createTestMetrics()

	m.SetGatewayHealth("aggregator_a", true)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.GatewayHealth.WithLabelValues("aggregator_a")))

	m.SetGatewayHealth("aggregator_a", false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.GatewayHealth.WithLabelValues("aggregator_a")))
}

func TestRecordReconcile(t *testing.T) {
	m := createTestMetrics()

	m.RecordReconcileOrder("aggregator_a", "updated")
	m.RecordReconcileOrder("aggregator_a", "updated")
	m.RecordReconcilePass("completed", 2*time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ReconcileOrdersTotal.WithLabelValues("aggregator_a", "updated")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReconcilePassesTotal.WithLabelValues("completed")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
		m.RecordGatewayRequest("aggregator_a", "lookup", 200, time.Millisecond)
		m.RecordGatewayRejected("aggregator_a", "lookup")
		m.SetGatewayHealth("aggregator_a", true)
		m.RecordReconcileOrder("aggregator_a", "updated")
		m.RecordReconcilePass("completed", time.Second)
	})
}

func TestStatusCodeToString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
		{100, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusCodeToString(tt.code))
		})
	}
}
