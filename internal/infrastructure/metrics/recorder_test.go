package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_BusinessCounters(t *testing.T) {
	r := NewRecorder("test")

	r.ObserveAllocation(true)
	r.ObserveAllocation(false)
	r.ObserveAllocation(false)
	r.ShipmentConfirmed(3)
	r.CountFinalized(2)
	r.CountApplied(4, 1, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.allocations.WithLabelValues("complete")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.allocations.WithLabelValues("shortfall")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.shipments))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.countFinalizations))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.countLots.WithLabelValues("updated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.countLots.WithLabelValues("skipped")))
}

func TestRecorder_MiddlewareAndHandler(t *testing.T) {
	r := NewRecorder("test")
	app := fiber.New()
	app.Use(r.Middleware())
	app.Get("/metrics", adaptor.HTTPHandler(r.Handler()))
	app.Get("/api/products/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/products/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/api/products/:id", "204")))

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.Contains(string(body), "test_http_requests_total"))
}
