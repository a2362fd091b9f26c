package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Exposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OrdersPlaced.Inc()
	m.Requests.WithLabelValues("/api/orders", "201").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersPlaced))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bakery_orders_placed_total 1")
	assert.Contains(t, rec.Body.String(), `bakery_api_http_requests_total{handler="/api/orders",status="201"} 1`)
}
