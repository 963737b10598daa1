package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ticketlogger/internal/config"
	"ticketlogger/internal/http/handlers"
	"ticketlogger/internal/http/server"
	"ticketlogger/internal/i18n"
	"ticketlogger/internal/metrics"
	"ticketlogger/internal/repos"
	"ticketlogger/internal/session"
)

const demoPassword = "Passw0rd!"

type testApp struct {
	app  *fiber.App
	deps *handlers.Deps
	db   *sqlx.DB
	gdb  *gorm.DB
	cfg  config.Config
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DBDSN:             ":memory:",
		UploadPath:        t.TempDir(),
		TemplatesDir:      "../../web/templates",
		StaticDir:         "../../web/static",
		DefaultLang:       "en",
		SessionStore:      "memory",
		StateSecret:       "test-secret",
		OAuthRedirectBase: "http://localhost:8080",
		RateLimit:         1000,
		LoginRateLimit:    100,
	}
}

// newTestApp builds the full application over a fresh in-memory database.
func newTestApp(t *testing.T, tweak ...func(*config.Config)) *testApp {
	t.Helper()
	cfg := testConfig(t)
	for _, f := range tweak {
		f(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	gdb, err := repos.OpenGorm(db)
	require.NoError(t, err)

	store, _, err := session.NewStore(cfg)
	require.NoError(t, err)
	bundle, err := i18n.New(cfg.DefaultLang)
	require.NoError(t, err)
	m := metrics.New()

	deps := handlers.NewDeps(db, gdb, cfg, store, bundle, m)
	return &testApp{app: server.New(cfg, deps, m), deps: deps, db: db, gdb: gdb, cfg: cfg}
}

// client keeps cookies between requests, like a browser would.
type client struct {
	t   *testing.T
	app *fiber.App
	jar map[string]string
}

func (ta *testApp) client(t *testing.T) *client {
	return &client{t: t, app: ta.app, jar: map[string]string{}}
}

func (c *client) do(req *http.Request) *http.Response {
	c.t.Helper()
	for name, val := range c.jar {
		req.AddCookie(&http.Cookie{Name: name, Value: val})
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	for _, ck := range resp.Cookies() {
		if ck.Value == "" || ck.MaxAge < 0 {
			delete(c.jar, ck.Name)
			continue
		}
		c.jar[ck.Name] = ck.Value
	}
	return resp
}

func (c *client) get(path string) *http.Response {
	c.t.Helper()
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// csrf returns the token of the csrf cookie, fetching /login first when needed.
func (c *client) csrf() string {
	c.t.Helper()
	if tok := c.jar["csrf_"]; tok != "" {
		return tok
	}
	c.get("/login")
	tok := c.jar["csrf_"]
	require.NotEmpty(c.t, tok, "csrf cookie missing")
	return tok
}

func (c *client) post(path string, form url.Values) *http.Response {
	c.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf") == "" {
		form.Set("csrf", c.csrf())
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) login(username string) {
	c.t.Helper()
	resp := c.post("/login", url.Values{"username": {username}, "password": {demoPassword}})
	require.Equal(c.t, http.StatusFound, resp.StatusCode, "login as %s", username)
	require.NotEmpty(c.t, c.jar[session.CookieName])
}

// follow returns the page a redirect points to, so flashes can be read.
func (c *client) follow(resp *http.Response) (*http.Response, string) {
	c.t.Helper()
	require.Equal(c.t, http.StatusFound, resp.StatusCode)
	next := c.get(resp.Header.Get("Location"))
	return next, body(c.t, next)
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
