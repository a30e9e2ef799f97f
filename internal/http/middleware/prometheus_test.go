package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/documents/:id", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/documents/123", nil))
	require.NoError(t, err)
	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/documents/456", nil))
	require.NoError(t, err)

	// Route pattern collapses both requests into one label set.
	count := testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/documents/:id", "200"))
	assert.Equal(t, float64(2), count)
}

func TestPrometheusMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(m.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)

	assert.Equal(t, 0, testutil.CollectAndCount(m.requestCount))
}

func TestPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
