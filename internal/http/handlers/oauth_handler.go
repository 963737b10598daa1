package handlers

import (
	"errors"

	applog "ticketlogger/internal/log"
	"ticketlogger/internal/metrics"
	"ticketlogger/internal/services"

	"github.com/gofiber/fiber/v2"
)

type OAuthHandler struct {
	*Web
	OAuth   *services.OAuthService
	Metrics *metrics.Metrics
}

// GET /oauth2/authorization/:provider
func (h *OAuthHandler) Start(c *fiber.Ctx) error {
	provider := c.Params("provider")
	redirect, nonce, err := h.OAuth.AuthCodeURL(provider)
	if errors.Is(err, services.ErrUnknownProvider) {
		applog.Security(c, "oauth2.provider.unknown", map[string]any{"provider": provider})
		return h.ErrorPage(c, fiber.StatusNotFound, "")
	}
	if err != nil {
		applog.Error(c, "oauth2.start.fail", err, map[string]any{"provider": provider})
		return h.ErrorPage(c, fiber.StatusInternalServerError, "")
	}
	sess, err := h.Sessions.Get(c)
	if err != nil {
		applog.Error(c, "session.load.fail", err, nil)
		return h.ErrorPage(c, fiber.StatusInternalServerError, "")
	}
	sess.Set(sessionNonceKey, nonce)
	if err := sess.Save(); err != nil {
		applog.Error(c, "session.save.fail", err, nil)
		return h.ErrorPage(c, fiber.StatusInternalServerError, "")
	}
	applog.Info(c, "oauth2.start", map[string]any{"provider": provider})
	return c.Redirect(redirect)
}

// GET /login/oauth2/code/:provider
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	provider := c.Params("provider")
	if e := c.Query("error"); e != "" {
		return h.fail(c, provider, "", errors.New("provider error: "+e))
	}
	sess, err := h.Sessions.Get(c)
	if err != nil {
		return h.fail(c, provider, "", err)
	}
	nonce, _ := sess.Get(sessionNonceKey).(string)
	// the session is reloaded by signIn/fail; release this copy first
	_ = sess.Save()

	u, username, err := h.OAuth.Complete(c.UserContext(), provider, c.Query("code"), c.Query("state"), nonce)
	if err != nil {
		return h.fail(c, provider, username, err)
	}
	if err := h.signIn(c, u.ID); err != nil {
		return h.fail(c, provider, username, err)
	}
	h.Metrics.Login("oauth2", true)
	applog.Audit(c, "auth.oauth2.success", map[string]any{"provider": provider, "username": u.Username, "user_id": u.ID})
	return c.Redirect("/")
}

// fail drops the session and sends the visitor back to /login with the "not registered" flash.
func (h *OAuthHandler) fail(c *fiber.Ctx, provider, username string, cause error) error {
	h.Metrics.Login("oauth2", false)
	fields := map[string]any{"provider": provider, "reason": cause.Error()}
	if username != "" {
		fields["username"] = username
	}
	if errors.Is(cause, services.ErrNotRegistered) || errors.Is(cause, services.ErrBadState) {
		applog.Security(c, "auth.oauth2.fail", fields)
	} else {
		applog.Error(c, "auth.oauth2.fail", cause, fields)
	}
	sess, err := h.Sessions.Get(c)
	if err == nil {
		if err := sess.Reset(); err != nil {
			applog.Error(c, "session.reset.fail", err, nil)
		}
		sess.Set(flashErrorKey, h.t(c, "auth.notRegistered"))
		if err := sess.Save(); err != nil {
			applog.Error(c, "session.save.fail", err, nil)
		}
	}
	return c.Redirect("/login")
}
