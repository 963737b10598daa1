package handlers

import (
	"ticketlogger/internal/domain"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/services"
	"ticketlogger/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type SupermarketHandler struct {
	*Web
	Stores *services.StoreService
}

// GET /supermarkets
func (h *SupermarketHandler) List(c *fiber.Ctx) error {
	rows, err := h.Stores.ListSupermarkets(c.UserContext())
	if err != nil {
		applog.Error(c, "supermarket.list.fail", err, nil)
		return h.render(c, "supermarket", fiber.Map{"Supermarkets": []domain.Supermarket{}, "FlashError": h.t(c, "flash.listError")})
	}
	return h.render(c, "supermarket", fiber.Map{"Supermarkets": rows})
}

// GET /supermarkets/new
func (h *SupermarketHandler) New(c *fiber.Ctx) error {
	return h.form(c, fiber.StatusOK, &domain.Supermarket{}, nil)
}

// GET /supermarkets/edit?id=N
func (h *SupermarketHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("id"))
	if !ok {
		return h.missing(c, "/supermarkets")
	}
	m, err := h.Stores.GetSupermarket(c.UserContext(), id)
	if err != nil {
		return h.loadFailed(c, err, "supermarket.edit", "/supermarkets", id)
	}
	return h.form(c, fiber.StatusOK, m, nil)
}

// POST /supermarkets/insert
func (h *SupermarketHandler) Insert(c *fiber.Ctx) error {
	var m domain.Supermarket
	if errs := h.bind(c, &m); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &m, errs)
	}
	m.ID = 0
	err := h.Stores.CreateSupermarket(c.UserContext(), &m)
	return h.finish(c, err, outcome{
		action:    "supermarket.insert",
		list:      "/supermarkets",
		conflict:  "/supermarkets/new",
		okMsg:     "flash.saved",
		failMsg:   "flash.insertError",
		conflicts: map[error]string{services.ErrNameExists: "supermarket.nameExists"},
	}, map[string]any{"supermarket_id": m.ID})
}

// POST /supermarkets/update
func (h *SupermarketHandler) Update(c *fiber.Ctx) error {
	var m domain.Supermarket
	if errs := h.bind(c, &m); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &m, errs)
	}
	if m.ID <= 0 {
		return h.missing(c, "/supermarkets")
	}
	err := h.Stores.UpdateSupermarket(c.UserContext(), &m)
	return h.finish(c, err, outcome{
		action:    "supermarket.update",
		list:      "/supermarkets",
		conflict:  editURL("/supermarkets", m.ID),
		okMsg:     "flash.updated",
		failMsg:   "flash.updateError",
		conflicts: map[error]string{services.ErrNameExists: "supermarket.nameExists"},
	}, map[string]any{"supermarket_id": m.ID})
}

// POST /supermarkets/delete
func (h *SupermarketHandler) Delete(c *fiber.Ctx) error {
	if !h.canDelete(c, domain.RoleAdmin) {
		return c.Redirect("/supermarkets")
	}
	id, ok := validate.ID(c.FormValue("id"))
	if !ok {
		return h.missing(c, "/supermarkets")
	}
	err := h.Stores.DeleteSupermarket(c.UserContext(), id)
	return h.finish(c, err, outcome{
		action:  "supermarket.delete",
		list:    "/supermarkets",
		okMsg:   "flash.deleted",
		failMsg: "flash.deleteError",
	}, map[string]any{"supermarket_id": id})
}

func (h *SupermarketHandler) form(c *fiber.Ctx, status int, m *domain.Supermarket, errs map[string]string) error {
	return h.render(c.Status(status), "supermarket-form", fiber.Map{"Supermarket": m, "Errors": errs})
}

type LocationHandler struct {
	*Web
	Stores *services.StoreService
	Geo    *services.GeoService
}

// GET /locations
func (h *LocationHandler) List(c *fiber.Ctx) error {
	rows, err := h.Stores.ListLocations(c.UserContext())
	if err != nil {
		applog.Error(c, "location.list.fail", err, nil)
		return h.render(c, "location", fiber.Map{"Locations": []domain.Location{}, "FlashError": h.t(c, "flash.listError")})
	}
	return h.render(c, "location", fiber.Map{"Locations": rows})
}

// GET /locations/new
func (h *LocationHandler) New(c *fiber.Ctx) error {
	return h.form(c, fiber.StatusOK, &domain.Location{}, nil)
}

// GET /locations/edit?id=N
func (h *LocationHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("id"))
	if !ok {
		return h.missing(c, "/locations")
	}
	l, err := h.Stores.GetLocation(c.UserContext(), id)
	if err != nil {
		return h.loadFailed(c, err, "location.edit", "/locations", id)
	}
	return h.form(c, fiber.StatusOK, l, nil)
}

// POST /locations/insert
func (h *LocationHandler) Insert(c *fiber.Ctx) error {
	var l domain.Location
	if errs := h.bind(c, &l); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &l, errs)
	}
	l.ID = 0
	err := h.Stores.CreateLocation(c.UserContext(), &l)
	return h.finish(c, err, outcome{
		action:    "location.insert",
		list:      "/locations",
		conflict:  "/locations/new",
		okMsg:     "flash.saved",
		failMsg:   "flash.insertError",
		conflicts: map[error]string{services.ErrAddressExists: "location.addressExists"},
	}, map[string]any{"location_id": l.ID})
}

// POST /locations/update
func (h *LocationHandler) Update(c *fiber.Ctx) error {
	var l domain.Location
	if errs := h.bind(c, &l); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &l, errs)
	}
	if l.ID <= 0 {
		return h.missing(c, "/locations")
	}
	err := h.Stores.UpdateLocation(c.UserContext(), &l)
	return h.finish(c, err, outcome{
		action:    "location.update",
		list:      "/locations",
		conflict:  editURL("/locations", l.ID),
		okMsg:     "flash.updated",
		failMsg:   "flash.updateError",
		conflicts: map[error]string{services.ErrAddressExists: "location.addressExists"},
	}, map[string]any{"location_id": l.ID})
}

// POST /locations/delete
func (h *LocationHandler) Delete(c *fiber.Ctx) error {
	if !h.canDelete(c, domain.RoleAdmin) {
		return c.Redirect("/locations")
	}
	id, ok := validate.ID(c.FormValue("id"))
	if !ok {
		return h.missing(c, "/locations")
	}
	err := h.Stores.DeleteLocation(c.UserContext(), id)
	return h.finish(c, err, outcome{
		action:  "location.delete",
		list:    "/locations",
		okMsg:   "flash.deleted",
		failMsg: "flash.deleteError",
	}, map[string]any{"location_id": id})
}

func (h *LocationHandler) form(c *fiber.Ctx, status int, l *domain.Location, errs map[string]string) error {
	ctx := c.UserContext()
	markets, err := h.Stores.ListSupermarkets(ctx)
	if err != nil {
		applog.Error(c, "location.form.supermarkets.fail", err, nil)
	}
	provinces, err := h.Geo.ListProvinces(ctx)
	if err != nil {
		applog.Error(c, "location.form.provinces.fail", err, nil)
	}
	return h.render(c.Status(status), "location-form", fiber.Map{
		"Location":     l,
		"Supermarkets": markets,
		"Provinces":    provinces,
		"Errors":       errs,
	})
}
