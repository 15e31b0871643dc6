package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/artel-team/artel/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOtlpEndpoint(t *testing.T) {
	assert.Equal(t, "collector:4317", otlpEndpoint("http://collector:4317"))
	assert.Equal(t, "collector:4317", otlpEndpoint("https://collector:4317"))
	assert.Equal(t, "collector:4317", otlpEndpoint("collector:4317"))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(1.5).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestSetupTracing_Disabled(t *testing.T) {
	tp, err := SetupTracing(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, tp)

	mp, err := SetupMetrics(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, mp)
}

func TestPrometheusMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/api/v1/things/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	r.GET("/metrics", gin.WrapH(MetricsHandler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/things/42", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `artel_http_requests_total{method="GET",route="/api/v1/things/:id",status="418"} 1`), body)
}
