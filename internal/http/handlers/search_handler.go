package handlers

import (
	"strings"

	"ticketlogger/internal/domain"
	"ticketlogger/internal/log"
	"ticketlogger/internal/validate"

	"github.com/gofiber/fiber/v2"
)

// Search filters the product list by name.
// GET /products/search?q=
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		return c.Redirect("/products")
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		return h.render(c.Status(fiber.StatusBadRequest), "product", fiber.Map{
			"Q": rawQ, "Products": []domain.Product{}, "Errors": map[string]string{"q": h.t(c, "validation.invalid")},
		})
	}
	products, err := h.Catalog.SearchProducts(c.UserContext(), q)
	if err != nil {
		log.Error(c, "product.search.fail", err, nil)
		return h.render(c, "product", fiber.Map{"Q": q, "Products": []domain.Product{}, "FlashError": h.t(c, "flash.listError")})
	}
	return h.render(c, "product", fiber.Map{"Q": q, "Products": products})
}
