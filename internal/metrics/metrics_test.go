package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := New()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/regions/edit", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", m.Handler())

	for i := 0; i < 3; i++ {
		_, err := app.Test(httptest.NewRequest("GET", "/regions/edit?id=1", nil))
		require.NoError(t, err)
	}

	m.Login("form", true)
	m.Login("github", false)

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	body := string(b)
	assert.True(t, strings.Contains(body, `ticketlogger_http_requests_total{method="GET",route="/regions/edit",status="200"} 3`))
	assert.True(t, strings.Contains(body, `ticketlogger_logins_total{method="github",result="fail"} 1`))
}
