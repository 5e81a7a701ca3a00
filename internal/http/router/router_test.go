package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodid/internal/cache"
	"github.com/dropDatabas3/hellodid/internal/http/controllers"
	"github.com/dropDatabas3/hellodid/internal/http/services"
	"github.com/dropDatabas3/hellodid/internal/metrics"
	"github.com/dropDatabas3/hellodid/internal/rate"
	"github.com/dropDatabas3/hellodid/internal/store/adapters/memory"
)

func newHandler(t *testing.T, limiter rate.Limiter) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))

	svcs := services.New(services.Deps{
		Store: memory.New(),
		Cache: cache.NewMemory("test:"),
	})
	return New(Deps{
		Controllers: controllers.New(svcs),
		CORSOrigins: []string{"http://localhost:5173"},
		RateLimiter: limiter,
		Metrics:     reg,
	})
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:5555"
	return req
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHandler(t, nil)

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"status":"ready"`)
	require.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "hellodid_http_requests_total")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newHandler(t, nil)

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"NOT_FOUND"`)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/requestAccess", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestPreflight(t *testing.T) {
	h := newHandler(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/consent", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rr := serve(h, req)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestAccess_ValidationBeforeChain(t *testing.T) {
	h := newHandler(t, nil)

	rr := serve(h, postJSON("/requestAccess", `{"requester":"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), `"error":"Missing fields"`)

	// sin cadena configurada, una request válida falla como chain call
	rr = serve(h, postJSON("/requestAccess",
		`{"requester":"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed","subject":"0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359","purpose":{"reason":"KYC"}}`))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Contains(t, rr.Body.String(), "CHAIN_CALL_FAILED")
}

func TestRateLimit(t *testing.T) {
	h := newHandler(t, rate.NewMemoryLimiter(1, time.Minute))

	rr := serve(h, postJSON("/consent", `{}`))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(h, postJSON("/consent", `{}`))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	// health no cuenta
	for i := 0; i < 3; i++ {
		rr = serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
}
