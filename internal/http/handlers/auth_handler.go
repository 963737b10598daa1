package handlers

import (
	"errors"

	"ticketlogger/internal/log"
	"ticketlogger/internal/metrics"
	"ticketlogger/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	*Web
	Auth    *services.AuthService
	OAuth   *services.OAuthService
	Metrics *metrics.Metrics
}

// GET /login
func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if currentUser(c) != nil {
		return c.Redirect("/")
	}
	return h.loginPage(c, fiber.StatusOK, "", "")
}

// POST /login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	pass := c.FormValue("password")
	if username == "" || pass == "" {
		log.Security(c, "auth.login.fail", map[string]any{"username": username, "reason": "missing_field"})
		h.Metrics.Login("form", false)
		return h.loginPage(c, fiber.StatusUnauthorized, username, "auth.badCredentials")
	}

	u, err := h.Auth.Login(c.UserContext(), username, pass)
	if err != nil {
		h.Metrics.Login("form", false)
		if errors.Is(err, services.ErrBadCreds) {
			log.Security(c, "auth.login.fail", map[string]any{"username": username})
			return h.loginPage(c, fiber.StatusUnauthorized, username, "auth.badCredentials")
		}
		log.Error(c, "auth.login.error", err, map[string]any{"username": username})
		return h.ErrorPage(c, fiber.StatusInternalServerError, "")
	}
	if err := h.signIn(c, u.ID); err != nil {
		log.Error(c, "auth.session.fail", err, map[string]any{"username": username})
		return h.ErrorPage(c, fiber.StatusInternalServerError, "")
	}
	h.Metrics.Login("form", true)
	log.Audit(c, "auth.login.success", map[string]any{"username": u.Username, "user_id": u.ID})
	return c.Redirect("/")
}

// POST /logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, err := h.Sessions.Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Error(c, "auth.logout.fail", err, nil)
		}
	}
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/login")
}

// TooManyAttempts answers a throttled login.
func (h *AuthHandler) TooManyAttempts(c *fiber.Ctx) error {
	log.Security(c, "rate.login.hit", nil)
	return h.loginPage(c, fiber.StatusTooManyRequests, c.FormValue("username"), "auth.tooManyAttempts")
}

// signIn binds userID to a fresh session id.
func (w *Web) signIn(c *fiber.Ctx, userID int64) error {
	sess, err := w.Sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Delete(sessionNonceKey)
	sess.Set(sessionUserKey, userID)
	return sess.Save()
}

func (h *AuthHandler) loginPage(c *fiber.Ctx, status int, username, errMsgID string) error {
	data := fiber.Map{"Username": username, "Providers": h.OAuth.Providers()}
	if errMsgID != "" {
		data["Err"] = h.t(c, errMsgID)
	}
	return h.render(c.Status(status), "login", data)
}
