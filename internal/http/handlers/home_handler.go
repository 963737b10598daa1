package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type HomeHandler struct {
	*Web
}

// GET /
func (h *HomeHandler) Index(c *fiber.Ctx) error {
	return h.render(c, "index", nil)
}

// NotFound is the catch-all for unknown routes.
func (h *HomeHandler) NotFound(c *fiber.Ctx) error {
	return h.ErrorPage(c, fiber.StatusNotFound, "")
}
