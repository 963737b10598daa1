package handlers

import (
	"strconv"

	"ticketlogger/internal/domain"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/services"
	"ticketlogger/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type RegionHandler struct {
	*Web
	Geo *services.GeoService
}

// GET /regions
func (h *RegionHandler) List(c *fiber.Ctx) error {
	rows, err := h.Geo.ListRegions(c.UserContext())
	if err != nil {
		applog.Error(c, "region.list.fail", err, nil)
		return h.render(c, "region", fiber.Map{"Regions": []domain.Region{}, "FlashError": h.t(c, "flash.listError")})
	}
	return h.render(c, "region", fiber.Map{"Regions": rows})
}

// GET /regions/new
func (h *RegionHandler) New(c *fiber.Ctx) error {
	return h.form(c, fiber.StatusOK, &domain.Region{}, nil)
}

// GET /regions/edit?id=N
func (h *RegionHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("id"))
	if !ok {
		return h.missing(c, "/regions")
	}
	r, err := h.Geo.GetRegion(c.UserContext(), id)
	if err != nil {
		return h.loadFailed(c, err, "region.edit", "/regions", id)
	}
	return h.form(c, fiber.StatusOK, r, nil)
}

// POST /regions/insert
func (h *RegionHandler) Insert(c *fiber.Ctx) error {
	var r domain.Region
	if errs := h.bind(c, &r); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &r, errs)
	}
	r.ID = 0
	err := h.Geo.CreateRegion(c.UserContext(), &r)
	return h.finish(c, err, outcome{
		action:    "region.insert",
		list:      "/regions",
		conflict:  "/regions/new",
		okMsg:     "flash.saved",
		failMsg:   "flash.insertError",
		conflicts: map[error]string{services.ErrCodeExists: "region.codeExists"},
	}, map[string]any{"region_id": r.ID, "code": r.Code})
}

// POST /regions/update
func (h *RegionHandler) Update(c *fiber.Ctx) error {
	var r domain.Region
	if errs := h.bind(c, &r); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &r, errs)
	}
	if r.ID <= 0 {
		return h.missing(c, "/regions")
	}
	err := h.Geo.UpdateRegion(c.UserContext(), &r)
	return h.finish(c, err, outcome{
		action:    "region.update",
		list:      "/regions",
		conflict:  editURL("/regions", r.ID),
		okMsg:     "flash.updated",
		failMsg:   "flash.updateError",
		conflicts: map[error]string{services.ErrCodeExists: "region.codeExists"},
	}, map[string]any{"region_id": r.ID, "code": r.Code})
}

// POST /regions/delete
func (h *RegionHandler) Delete(c *fiber.Ctx) error {
	if !h.canDelete(c, domain.RoleAdmin) {
		return c.Redirect("/regions")
	}
	id, ok := validate.ID(c.FormValue("id"))
	if !ok {
		return h.missing(c, "/regions")
	}
	err := h.Geo.DeleteRegion(c.UserContext(), id)
	return h.finish(c, err, outcome{
		action:  "region.delete",
		list:    "/regions",
		okMsg:   "flash.deleted",
		failMsg: "flash.deleteError",
	}, map[string]any{"region_id": id})
}

func (h *RegionHandler) form(c *fiber.Ctx, status int, r *domain.Region, errs map[string]string) error {
	return h.render(c.Status(status), "region-form", fiber.Map{"Region": r, "Errors": errs})
}

type ProvinceHandler struct {
	*Web
	Geo *services.GeoService
}

// GET /provinces
func (h *ProvinceHandler) List(c *fiber.Ctx) error {
	rows, err := h.Geo.ListProvinces(c.UserContext())
	if err != nil {
		applog.Error(c, "province.list.fail", err, nil)
		return h.render(c, "province", fiber.Map{"Provinces": []domain.Province{}, "FlashError": h.t(c, "flash.listError")})
	}
	return h.render(c, "province", fiber.Map{"Provinces": rows})
}

// GET /provinces/new
func (h *ProvinceHandler) New(c *fiber.Ctx) error {
	return h.form(c, fiber.StatusOK, &domain.Province{}, nil)
}

// GET /provinces/edit?id=N
func (h *ProvinceHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("id"))
	if !ok {
		return h.missing(c, "/provinces")
	}
	p, err := h.Geo.GetProvince(c.UserContext(), id)
	if err != nil {
		return h.loadFailed(c, err, "province.edit", "/provinces", id)
	}
	return h.form(c, fiber.StatusOK, p, nil)
}

// POST /provinces/insert
func (h *ProvinceHandler) Insert(c *fiber.Ctx) error {
	var p domain.Province
	if errs := h.bind(c, &p); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &p, errs)
	}
	p.ID = 0
	err := h.Geo.CreateProvince(c.UserContext(), &p)
	return h.finish(c, err, outcome{
		action:    "province.insert",
		list:      "/provinces",
		conflict:  "/provinces/new",
		okMsg:     "flash.saved",
		failMsg:   "flash.insertError",
		conflicts: map[error]string{services.ErrCodeExists: "province.codeExists"},
	}, map[string]any{"province_id": p.ID, "code": p.Code})
}

// POST /provinces/update
func (h *ProvinceHandler) Update(c *fiber.Ctx) error {
	var p domain.Province
	if errs := h.bind(c, &p); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &p, errs)
	}
	if p.ID <= 0 {
		return h.missing(c, "/provinces")
	}
	err := h.Geo.UpdateProvince(c.UserContext(), &p)
	return h.finish(c, err, outcome{
		action:    "province.update",
		list:      "/provinces",
		conflict:  editURL("/provinces", p.ID),
		okMsg:     "flash.updated",
		failMsg:   "flash.updateError",
		conflicts: map[error]string{services.ErrCodeExists: "province.codeExists"},
	}, map[string]any{"province_id": p.ID, "code": p.Code})
}

// POST /provinces/delete
func (h *ProvinceHandler) Delete(c *fiber.Ctx) error {
	if !h.canDelete(c, domain.RoleAdmin) {
		return c.Redirect("/provinces")
	}
	id, ok := validate.ID(c.FormValue("id"))
	if !ok {
		return h.missing(c, "/provinces")
	}
	err := h.Geo.DeleteProvince(c.UserContext(), id)
	return h.finish(c, err, outcome{
		action:  "province.delete",
		list:    "/provinces",
		okMsg:   "flash.deleted",
		failMsg: "flash.deleteError",
	}, map[string]any{"province_id": id})
}

func (h *ProvinceHandler) form(c *fiber.Ctx, status int, p *domain.Province, errs map[string]string) error {
	regions, err := h.Geo.ListRegions(c.UserContext())
	if err != nil {
		applog.Error(c, "province.form.regions.fail", err, nil)
	}
	return h.render(c.Status(status), "province-form", fiber.Map{"Province": p, "Regions": regions, "Errors": errs})
}

func editURL(base string, id int64) string {
	return base + "/edit?id=" + strconv.FormatInt(id, 10)
}
