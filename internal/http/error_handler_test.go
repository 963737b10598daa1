package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketlogger/internal/http/server"
	"ticketlogger/internal/i18n"
)

// friendly error surface, no internal leakage
func TestErrorHandlerFriendlyMessage(t *testing.T) {
	ta := newTestApp(t)
	app := fiber.New(fiber.Config{
		Views:        server.Views(ta.cfg.TemplatesDir, ta.deps.Web.I18n),
		ViewsLayout:  "layouts/main",
		ErrorHandler: server.ErrorHandler(ta.deps.Web),
	})
	app.Use(requestid.New())
	app.Use(ta.deps.Web.I18n.Middleware())

	app.Get("/err", func(c *fiber.Ctx) error {
		return errors.New("db timeout: secret trace")
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "internal detail")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/err", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "Something went wrong. Please try again.")
	assert.NotContains(t, page, "db timeout")
	assert.NotContains(t, page, "secret")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	page = body(t, resp)
	assert.Contains(t, page, "An unexpected error occurred.")
	assert.NotContains(t, page, "internal detail")
}

func TestUnknownRouteRendersNotFoundPage(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.client(t).get("/no/such/page")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body(t, resp), "The page you are looking for does not exist.")
}

func TestErrorPagesAreTranslated(t *testing.T) {
	ta := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9")
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body(t, resp), "<html lang=\"es\">")

	bundle, err := i18n.New("en")
	require.NoError(t, err)
	assert.NotEqual(t, "error.404", bundle.T("es", "error.404", nil))
}

func TestHealthz(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.client(t).get("/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, body(t, resp))
}

func TestMetricsEndpoint(t *testing.T) {
	ta := newTestApp(t)
	cl := ta.client(t)
	cl.get("/healthz")
	page := body(t, cl.get("/metrics"))
	assert.Contains(t, page, `ticketlogger_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}
