package i18n

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "A region with that code already exists.", tr.T("en", "region.codeExists", nil))
	assert.Equal(t, "Ya existe una región con ese código.", tr.T("es", "region.codeExists", nil))
	assert.Equal(t, "Must be at most 2 characters.", tr.T("en", "validation.max", map[string]any{"Param": "2"}))
	// unsupported language falls back to the default
	assert.Equal(t, "Deleted successfully.", tr.T("fr", "flash.deleted", nil))
	// unknown ids are echoed back
	assert.Equal(t, "no.such.key", tr.T("en", "no.such.key", nil))
}

func TestMatch(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "es", tr.Match("es-ES,es;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", tr.Match("en-GB"))
	assert.Equal(t, "en", tr.Match(""))
	assert.Equal(t, "en", tr.Match("de-DE"))
}

func TestMiddlewarePrecedence(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	app := fiber.New()
	app.Use(tr.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(Lang(c)) })

	cases := []struct {
		target, accept, cookie, want string
	}{
		{"/", "es", "", "es"},
		{"/?lang=en", "es", "", "en"},
		{"/", "", "lang=es", "es"},
		{"/?lang=xx", "", "", "en"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.target, nil)
		if tc.accept != "" {
			req.Header.Set("Accept-Language", tc.accept)
		}
		if tc.cookie != "" {
			req.Header.Set("Cookie", tc.cookie)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		b, _ := io.ReadAll(resp.Body)
		assert.Equal(t, tc.want, string(b), tc.target)
	}
}
