package server

import (
	"errors"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"ticketlogger/internal/config"
	"ticketlogger/internal/domain"
	"ticketlogger/internal/http/handlers"
	"ticketlogger/internal/i18n"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/metrics"
)

// maxBodySize leaves room for a 5 MiB category image plus the form fields.
const maxBodySize = 6 << 20

// New builds the fiber app: views, middleware chain and routes.
func New(cfg config.Config, deps *handlers.Deps, m *metrics.Metrics) *fiber.App {
	web := deps.Web

	// Templates & app
	engine := Views(cfg.TemplatesDir, web.I18n)

	app := fiber.New(fiber.Config{
		Views:        engine,
		ViewsLayout:  "layouts/main",
		BodyLimit:    maxBodySize,
		ErrorHandler: ErrorHandler(web),
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(helmet.New())
	app.Use(m.Middleware())
	app.Use(web.I18n.Middleware())
	app.Use(web.LoadUser(deps.Auth))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/uploads/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return fiber.ErrTooManyRequests
		},
	}))
	if !cfg.DisableCSRF {
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:csrf",
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			CookieSecure:   cfg.CookieSecure,
			ContextKey:     "csrf",
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				applog.Security(c, "csrf.fail", map[string]any{"reason": err.Error()})
				return web.ErrorPage(c, fiber.StatusForbidden, "error.csrf")
			},
		}))
	}

	// ---------- Static assets ----------
	app.Static("/static", cfg.StaticDir)
	app.Get("/uploads/*", deps.UploadsHandler.Serve)

	// ---------- App handlers ----------
	app.Get("/", deps.HomeHandler.Index)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Get("/metrics", m.Handler())

	// Auth routes (login throttled)
	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:          cfg.LoginRateLimit,
		Expiration:   10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() + "|login" },
		LimitReached: deps.AuthHandler.TooManyAttempts,
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)
	app.Get("/oauth2/authorization/:provider", deps.OAuthHandler.Start)
	app.Get("/login/oauth2/code/:provider", deps.OAuthHandler.Callback)

	manager := web.RequireRole(domain.RoleManager)
	crud(app.Group("/regions", manager), deps.RegionHandler)
	crud(app.Group("/provinces", manager), deps.ProvinceHandler)
	crud(app.Group("/supermarkets", manager), deps.SupermarketHandler)
	crud(app.Group("/locations", manager), deps.LocationHandler)
	crud(app.Group("/categories", manager), deps.CategoryHandler)
	products := app.Group("/products", manager)
	products.Get("/search", deps.ProductHandler.Search)
	crud(products, deps.ProductHandler)

	tickets := app.Group("/tickets", web.RequireRole(domain.RoleUser))
	crud(tickets, deps.TicketHandler)
	tickets.Get("/detail", deps.TicketHandler.Detail)
	tickets.Post("/addExistingProduct", deps.TicketHandler.AddExistingProduct)
	tickets.Post("/addProduct", deps.TicketHandler.AddProduct)
	tickets.Post("/addNewProduct", deps.TicketHandler.AddNewProduct)
	tickets.Post("/removeProduct", deps.TicketHandler.RemoveProduct)

	admin := app.Group("/admin", web.RequireRole(domain.RoleAdmin))
	admin.Get("/users", deps.AdminHandler.UsersPage)
	admin.Post("/users/delete", deps.AdminHandler.DeleteUser)

	// 404
	app.Use(deps.HomeHandler.NotFound)
	return app
}

// Views loads the html templates together with the helper funcs they call.
func Views(dir string, bundle *i18n.I18n) *html.Engine {
	engine := html.New(dir, ".html")
	engine.Reload(true)
	engine.AddFuncMap(sprig.FuncMap())
	engine.AddFunc("t", func(lang, msgID string) string { return bundle.T(lang, msgID, nil) })
	engine.AddFunc("has", func(u *domain.User, role string) bool { return u.HasRole(role) })
	engine.AddFunc("deref", func(id *int64) int64 {
		if id == nil {
			return 0
		}
		return *id
	})
	return engine
}

type crudHandler interface {
	List(*fiber.Ctx) error
	New(*fiber.Ctx) error
	Edit(*fiber.Ctx) error
	Insert(*fiber.Ctx) error
	Update(*fiber.Ctx) error
	Delete(*fiber.Ctx) error
}

func crud(r fiber.Router, h crudHandler) {
	r.Get("/", h.List)
	r.Get("/new", h.New)
	r.Get("/edit", h.Edit)
	r.Post("/insert", h.Insert)
	r.Post("/update", h.Update)
	r.Post("/delete", h.Delete)
}

// ErrorHandler renders the friendly error pages; non-fiber errors become 500.
func ErrorHandler(web *handlers.Web) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			applog.Error(c, "server.error", err, nil)
		} else {
			applog.Info(c, "http.error", map[string]any{"code": code})
		}
		// Avoid leaking internals; best-effort render
		if rerr := web.ErrorPage(c, code, ""); rerr != nil {
			return c.Status(code).SendString(web.I18n.T("", "error.generic", nil))
		}
		return nil
	}
}
