package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamMetrics_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewUpstreamMetrics(reg)

	m.ObserveRequest("GET", "/session", 200, 15*time.Millisecond)
	m.ObserveRequest("GET", "/session", 200, 5*time.Millisecond)
	m.ObserveRequest("PATCH", "/session/:id", 0, time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "iris_upstream_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			key := ""
			for _, lp := range metric.GetLabel() {
				key += lp.GetValue() + " "
			}
			counts[key] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, counts["GET /session 200 "])
	assert.Equal(t, 1.0, counts["PATCH /session/:id error "])
}

func TestMetrics_NilSafe(t *testing.T) {
	var up *UpstreamMetrics
	var auth *AuthMetrics
	assert.NotPanics(t, func() {
		up.ObserveRequest("GET", "/", 200, 0)
		auth.ObserveStep("login", "ok")
	})
}

func TestHandler_ServesRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	NewAuthMetrics(reg).ObserveStep("verify_otp", "authentication")

	r := gin.New()
	r.GET("/metrics", Handler(reg))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `iris_auth_flow_outcomes_total{outcome="authentication",step="verify_otp"} 1`)
}
