package handlers

import (
	"ticketlogger/internal/domain"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/services"
	"ticketlogger/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	*Web
	Catalog *services.CatalogService
}

// GET /products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	rows, err := h.Catalog.ListProducts(c.UserContext())
	if err != nil {
		applog.Error(c, "product.list.fail", err, nil)
		return h.render(c, "product", fiber.Map{"Products": []domain.Product{}, "FlashError": h.t(c, "flash.listError")})
	}
	return h.render(c, "product", fiber.Map{"Products": rows})
}

// GET /products/new
func (h *ProductHandler) New(c *fiber.Ctx) error {
	return h.form(c, fiber.StatusOK, &domain.Product{}, nil)
}

// GET /products/edit?id=N
func (h *ProductHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("id"))
	if !ok {
		return h.missing(c, "/products")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return h.loadFailed(c, err, "product.edit", "/products", id)
	}
	return h.form(c, fiber.StatusOK, p, nil)
}

// POST /products/insert
func (h *ProductHandler) Insert(c *fiber.Ctx) error {
	var p domain.Product
	if errs := h.bindProduct(c, &p); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &p, errs)
	}
	p.ID = 0
	err := h.Catalog.CreateProduct(c.UserContext(), &p)
	return h.finish(c, err, outcome{
		action:  "product.insert",
		list:    "/products",
		okMsg:   "flash.saved",
		failMsg: "flash.insertError",
	}, map[string]any{"product_id": p.ID, "price": p.Price.StringFixed(2)})
}

// POST /products/update
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var p domain.Product
	if errs := h.bindProduct(c, &p); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &p, errs)
	}
	if p.ID <= 0 {
		return h.missing(c, "/products")
	}
	err := h.Catalog.UpdateProduct(c.UserContext(), &p)
	return h.finish(c, err, outcome{
		action:  "product.update",
		list:    "/products",
		okMsg:   "flash.updated",
		failMsg: "flash.updateError",
	}, map[string]any{"product_id": p.ID, "price": p.Price.StringFixed(2)})
}

// POST /products/delete
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if !h.canDelete(c, domain.RoleAdmin) {
		return c.Redirect("/products")
	}
	id, ok := validate.ID(c.FormValue("id"))
	if !ok {
		return h.missing(c, "/products")
	}
	err := h.Catalog.DeleteProduct(c.UserContext(), id)
	return h.finish(c, err, outcome{
		action:  "product.delete",
		list:    "/products",
		okMsg:   "flash.deleted",
		failMsg: "flash.deleteError",
	}, map[string]any{"product_id": id})
}

func (h *ProductHandler) bindProduct(c *fiber.Ctx, p *domain.Product) map[string]string {
	errs := h.bind(c, p)
	add := func(field, msgID string) {
		if errs == nil {
			errs = map[string]string{}
		}
		errs[field] = h.t(c, msgID)
	}
	if price, ok := validate.Price(c.FormValue("price")); ok {
		p.Price = price
	} else {
		add("price", "validation.decimal")
	}
	if cat, ok := validate.OptionalID(c.FormValue("categoryId")); ok {
		p.CategoryID = cat
	} else {
		add("categoryId", "validation.invalid")
	}
	return errs
}

func (h *ProductHandler) form(c *fiber.Ctx, status int, p *domain.Product, errs map[string]string) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		applog.Error(c, "product.form.categories.fail", err, nil)
	}
	return h.render(c.Status(status), "product-form", fiber.Map{"Product": p, "Categories": cats, "Errors": errs})
}
