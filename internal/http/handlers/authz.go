package handlers

import (
	"ticketlogger/internal/domain"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/services"

	"github.com/gofiber/fiber/v2"
)

// LoadUser attaches the signed-in user (if any) to Locals("user").
func (w *Web) LoadUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := w.Sessions.Get(c)
		if err != nil {
			return c.Next()
		}
		uid, ok := sess.Get(sessionUserKey).(int64)
		if !ok {
			return c.Next()
		}
		u, err := auth.CurrentUser(c.UserContext(), uid)
		if err != nil || !u.Enabled {
			// account gone or disabled since login
			_ = sess.Destroy()
			return c.Next()
		}
		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		// refresh the idle timeout
		_ = sess.Save()
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireRole redirects anonymous visitors to /login and answers 403 to users
// without role. ROLE_ADMIN passes every check.
func (w *Web) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			return c.Redirect("/login")
		}
		if !u.HasRole(role) {
			applog.Security(c, "access.denied", map[string]any{"user": u.Username, "role": role})
			return w.ErrorPage(c, fiber.StatusForbidden, "")
		}
		return c.Next()
	}
}

// canDelete re-checks the role for destructive actions and flashes "not allowed" otherwise.
func (w *Web) canDelete(c *fiber.Ctx, role string) bool {
	if currentUser(c).HasRole(role) {
		return true
	}
	applog.Security(c, "delete.denied", map[string]any{"role": role})
	w.flashError(c, "flash.notAllowed")
	return false
}
