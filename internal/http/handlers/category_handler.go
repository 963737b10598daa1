package handlers

import (
	"ticketlogger/internal/domain"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/services"
	"ticketlogger/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	*Web
	Catalog *services.CatalogService
}

// GET /categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	rows, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		applog.Error(c, "category.list.fail", err, nil)
		return h.render(c, "category", fiber.Map{"Categories": []domain.Category{}, "FlashError": h.t(c, "flash.listError")})
	}
	return h.render(c, "category", fiber.Map{"Categories": rows})
}

// GET /categories/new
func (h *CategoryHandler) New(c *fiber.Ctx) error {
	return h.form(c, fiber.StatusOK, &domain.Category{}, nil)
}

// GET /categories/edit?id=N
func (h *CategoryHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("id"))
	if !ok {
		return h.missing(c, "/categories")
	}
	cat, err := h.Catalog.GetCategory(c.UserContext(), id)
	if err != nil {
		return h.loadFailed(c, err, "category.edit", "/categories", id)
	}
	return h.form(c, fiber.StatusOK, cat, nil)
}

// POST /categories/insert (multipart)
func (h *CategoryHandler) Insert(c *fiber.Ctx) error {
	var cat domain.Category
	if errs := h.bindCategory(c, &cat); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &cat, errs)
	}
	cat.ID = 0
	img, closeImg, err := imageUpload(c)
	if err != nil {
		applog.Error(c, "category.upload.fail", err, nil)
		h.flashError(c, "flash.uploadError")
		return c.Redirect("/categories/new")
	}
	defer closeImg()
	err = h.Catalog.CreateCategory(c.UserContext(), &cat, img)
	return h.finish(c, err, outcome{
		action:    "category.insert",
		list:      "/categories",
		conflict:  "/categories/new",
		okMsg:     "flash.saved",
		failMsg:   "flash.insertError",
		conflicts: categoryConflicts,
	}, map[string]any{"category_id": cat.ID, "image": cat.Image})
}

// POST /categories/update (multipart)
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	var cat domain.Category
	if errs := h.bindCategory(c, &cat); errs != nil {
		return h.form(c, fiber.StatusBadRequest, &cat, errs)
	}
	if cat.ID <= 0 {
		return h.missing(c, "/categories")
	}
	img, closeImg, err := imageUpload(c)
	if err != nil {
		applog.Error(c, "category.upload.fail", err, map[string]any{"category_id": cat.ID})
		h.flashError(c, "flash.uploadError")
		return c.Redirect(editURL("/categories", cat.ID))
	}
	defer closeImg()
	err = h.Catalog.UpdateCategory(c.UserContext(), &cat, img)
	return h.finish(c, err, outcome{
		action:    "category.update",
		list:      "/categories",
		conflict:  editURL("/categories", cat.ID),
		okMsg:     "flash.updated",
		failMsg:   "flash.updateError",
		conflicts: categoryConflicts,
	}, map[string]any{"category_id": cat.ID, "image": cat.Image})
}

// POST /categories/delete
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	if !h.canDelete(c, domain.RoleAdmin) {
		return c.Redirect("/categories")
	}
	id, ok := validate.ID(c.FormValue("id"))
	if !ok {
		return h.missing(c, "/categories")
	}
	err := h.Catalog.DeleteCategory(c.UserContext(), id)
	return h.finish(c, err, outcome{
		action:  "category.delete",
		list:    "/categories",
		okMsg:   "flash.deleted",
		failMsg: "flash.deleteError",
	}, map[string]any{"category_id": id})
}

var categoryConflicts = map[error]string{
	services.ErrNameExists:    "category.nameExists",
	services.ErrCategoryCycle: "category.cycle",
	services.ErrBadImage:      "validation.image",
}

func (h *CategoryHandler) bindCategory(c *fiber.Ctx, cat *domain.Category) map[string]string {
	errs := h.bind(c, cat)
	parent, ok := validate.OptionalID(c.FormValue("parentId"))
	if !ok {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["parentId"] = h.t(c, "validation.invalid")
	}
	cat.ParentID = parent
	return errs
}

func (h *CategoryHandler) form(c *fiber.Ctx, status int, cat *domain.Category, errs map[string]string) error {
	all, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		applog.Error(c, "category.form.parents.fail", err, nil)
	}
	// a category cannot be its own parent
	parents := make([]domain.Category, 0, len(all))
	for _, p := range all {
		if p.ID != cat.ID {
			parents = append(parents, p)
		}
	}
	return h.render(c.Status(status), "category-form", fiber.Map{"Category": cat, "Parents": parents, "Errors": errs})
}

// imageUpload returns the optional "imageFile" part. The returned func closes it.
func imageUpload(c *fiber.Ctx) (*services.Upload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("imageFile")
	if err != nil || fh == nil || fh.Filename == "" || fh.Size == 0 {
		// no file chosen
		return nil, noop, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &services.Upload{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}
