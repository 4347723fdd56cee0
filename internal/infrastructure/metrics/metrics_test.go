package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New("luthier")

	m.ObserveHTTPRequest("GET", "/api/v1/sales", 200, 10*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/sales", 200, 20*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/sales", 400, time.Millisecond)
	m.ObserveGRPCRequest("/luthier.v1.LuthierService/GetDashboard", "OK")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/sales", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/sales", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.grpcRequests.WithLabelValues("/luthier.v1.LuthierService/GetDashboard", "OK")))
}

func TestMetrics_Histograms(t *testing.T) {
	m := New("luthier")

	m.ObserveDashboard(5*time.Millisecond, false)
	m.ObserveDashboard(time.Microsecond, true)
	m.ObserveSalesListed(42)

	assert.Equal(t, 2, testutil.CollectAndCount(m.dashboardDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.salesListed))
}

func TestMetrics_Handler(t *testing.T) {
	m := New("luthier")
	m.ObserveGRPCRequest("/luthier.v1.LuthierService/RecordSale", "InvalidArgument")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `luthier_grpc_requests_total{code="InvalidArgument",method="/luthier.v1.LuthierService/RecordSale"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
