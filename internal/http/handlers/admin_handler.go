package handlers

import (
	"ticketlogger/internal/domain"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/services"
	"ticketlogger/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	*Web
	Auth *services.AuthService
}

// GET /admin/users
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	users, err := h.Auth.ListUsers(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return h.render(c, "admin-users", fiber.Map{"Users": []domain.User{}, "FlashError": h.t(c, "flash.listError")})
	}
	return h.render(c, "admin-users", fiber.Map{"Users": users})
}

// POST /admin/users/delete
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("id"))
	if !ok {
		return h.missing(c, "/admin/users")
	}
	actor := currentUser(c)
	err := h.Auth.DeleteUser(c.UserContext(), actor.ID, id)
	return h.finish(c, err, outcome{
		action:    "admin.users.delete",
		list:      "/admin/users",
		okMsg:     "flash.deleted",
		failMsg:   "flash.deleteError",
		conflicts: map[error]string{services.ErrSelfDelete: "auth.cannotDeleteSelf"},
	}, map[string]any{"target_user_id": id})
}
