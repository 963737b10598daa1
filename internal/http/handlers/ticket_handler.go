package handlers

import (
	"strconv"
	"strings"

	"ticketlogger/internal/domain"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/services"
	"ticketlogger/internal/validate"

	"github.com/gofiber/fiber/v2"
)

const dateInputLayout = "2006-01-02T15:04"

type TicketHandler struct {
	*Web
	Tickets *services.TicketService
	Stores  *services.StoreService
	Catalog *services.CatalogService
}

// ticketForm keeps the raw inputs so a rejected form comes back as typed.
type ticketForm struct {
	Ticket   domain.Ticket
	Date     string
	Discount string
	Selected map[int64]bool
}

// GET /tickets
func (h *TicketHandler) List(c *fiber.Ctx) error {
	rows, err := h.Tickets.List(c.UserContext())
	if err != nil {
		applog.Error(c, "ticket.list.fail", err, nil)
		return h.render(c, "ticket", fiber.Map{"Tickets": []domain.Ticket{}, "FlashError": h.t(c, "flash.listError")})
	}
	return h.render(c, "ticket", fiber.Map{"Tickets": rows})
}

// GET /tickets/new
func (h *TicketHandler) New(c *fiber.Ctx) error {
	return h.form(c, fiber.StatusOK, &ticketForm{Discount: "0"}, nil)
}

// GET /tickets/edit?id=N
func (h *TicketHandler) Edit(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("id"))
	if !ok {
		return h.missing(c, "/tickets")
	}
	t, err := h.Tickets.Get(c.UserContext(), id)
	if err != nil {
		return h.loadFailed(c, err, "ticket.edit", "/tickets", id)
	}
	f := &ticketForm{
		Ticket:   *t,
		Date:     t.Date.Format(dateInputLayout),
		Discount: t.Discount.String(),
		Selected: map[int64]bool{},
	}
	for _, p := range t.Products {
		f.Selected[p.ID] = true
	}
	return h.form(c, fiber.StatusOK, f, nil)
}

// POST /tickets/insert
func (h *TicketHandler) Insert(c *fiber.Ctx) error {
	f, productIDs, errs := h.bindTicket(c)
	if errs != nil {
		return h.form(c, fiber.StatusBadRequest, f, errs)
	}
	t := f.Ticket
	t.ID = 0
	err := h.Tickets.Create(c.UserContext(), &t, productIDs)
	return h.finish(c, err, outcome{
		action:  "ticket.insert",
		list:    "/tickets",
		okMsg:   "flash.saved",
		failMsg: "flash.insertError",
	}, map[string]any{"ticket_id": t.ID, "products": len(productIDs)})
}

// POST /tickets/update
func (h *TicketHandler) Update(c *fiber.Ctx) error {
	f, productIDs, errs := h.bindTicket(c)
	if errs != nil {
		return h.form(c, fiber.StatusBadRequest, f, errs)
	}
	if f.Ticket.ID <= 0 {
		return h.missing(c, "/tickets")
	}
	err := h.Tickets.Update(c.UserContext(), &f.Ticket, productIDs)
	return h.finish(c, err, outcome{
		action:  "ticket.update",
		list:    "/tickets",
		okMsg:   "flash.updated",
		failMsg: "flash.updateError",
	}, map[string]any{"ticket_id": f.Ticket.ID, "products": len(productIDs)})
}

// POST /tickets/delete
func (h *TicketHandler) Delete(c *fiber.Ctx) error {
	if !h.canDelete(c, domain.RoleUser) {
		return c.Redirect("/tickets")
	}
	id, ok := validate.ID(c.FormValue("id"))
	if !ok {
		return h.missing(c, "/tickets")
	}
	err := h.Tickets.Delete(c.UserContext(), id)
	return h.finish(c, err, outcome{
		action:  "ticket.delete",
		list:    "/tickets",
		okMsg:   "flash.deleted",
		failMsg: "flash.deleteError",
	}, map[string]any{"ticket_id": id})
}

// GET /tickets/detail?id=N
func (h *TicketHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("id"))
	if !ok {
		return h.missing(c, "/tickets")
	}
	return h.detail(c, id, "", nil)
}

// POST /tickets/addExistingProduct
func (h *TicketHandler) AddExistingProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("ticketId"))
	if !ok {
		return h.missing(c, "/tickets")
	}
	raw := c.FormValue("productSearch")
	results := []domain.Product{}
	if q, ok := validate.Q(raw); ok {
		found, err := h.Catalog.SearchProducts(c.UserContext(), q)
		if err != nil {
			applog.Error(c, "ticket.product.search.fail", err, map[string]any{"ticket_id": id})
		} else {
			results = found
		}
	}
	applog.Info(c, "ticket.product.search", map[string]any{"ticket_id": id, "results": len(results)})
	return h.detail(c, id, raw, results)
}

// POST /tickets/addProduct
func (h *TicketHandler) AddProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("ticketId"))
	if !ok {
		return h.missing(c, "/tickets")
	}
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return h.missing(c, detailURL(id))
	}
	err := h.Tickets.AttachProduct(c.UserContext(), id, productID)
	return h.finish(c, err, outcome{
		action:  "ticket.product.add",
		list:    detailURL(id),
		okMsg:   "ticket.productAdded",
		failMsg: "flash.updateError",
	}, map[string]any{"ticket_id": id, "product_id": productID})
}

// POST /tickets/addNewProduct
func (h *TicketHandler) AddNewProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("ticketId"))
	if !ok {
		return h.missing(c, "/tickets")
	}
	p := domain.Product{Name: strings.TrimSpace(c.FormValue("productName"))}
	price, priceOK := validate.Price(c.FormValue("productPrice"))
	p.Price = price
	if !priceOK || validate.Struct(p) != nil {
		applog.Info(c, "ticket.product.new.invalid", map[string]any{"ticket_id": id})
		h.flashError(c, "ticket.invalidProduct")
		return c.Redirect(detailURL(id))
	}
	err := h.Tickets.AddNewProduct(c.UserContext(), id, &p)
	return h.finish(c, err, outcome{
		action:    "ticket.product.new",
		list:      detailURL(id),
		okMsg:     "ticket.productAdded",
		failMsg:   "flash.insertError",
		conflicts: map[error]string{services.ErrProductOnTicket: "ticket.productOnTicket"},
	}, map[string]any{"ticket_id": id, "product_id": p.ID})
}

// POST /tickets/removeProduct
func (h *TicketHandler) RemoveProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.FormValue("ticketId"))
	if !ok {
		return h.missing(c, "/tickets")
	}
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return h.missing(c, detailURL(id))
	}
	err := h.Tickets.DetachProduct(c.UserContext(), id, productID)
	return h.finish(c, err, outcome{
		action:  "ticket.product.remove",
		list:    detailURL(id),
		okMsg:   "ticket.productRemoved",
		failMsg: "flash.deleteError",
	}, map[string]any{"ticket_id": id, "product_id": productID})
}

func (h *TicketHandler) detail(c *fiber.Ctx, id int64, search string, results []domain.Product) error {
	t, err := h.Tickets.Get(c.UserContext(), id)
	if err != nil {
		return h.loadFailed(c, err, "ticket.detail", "/tickets", id)
	}
	return h.render(c, "ticket-detail", fiber.Map{
		"Ticket":        t,
		"Total":         t.Total().StringFixed(2),
		"ProductSearch": search,
		"SearchResults": results,
	})
}

func (h *TicketHandler) bindTicket(c *fiber.Ctx) (*ticketForm, []int64, map[string]string) {
	errs := map[string]string{}
	f := &ticketForm{
		Date:     c.FormValue("date"),
		Discount: c.FormValue("discount"),
		Selected: map[int64]bool{},
	}
	if raw := c.FormValue("id"); raw != "" {
		if id, ok := validate.ID(raw); ok {
			f.Ticket.ID = id
		}
	}
	if d, ok := validate.DateTimeLocal(f.Date); ok {
		f.Ticket.Date = d
	} else if f.Date == "" {
		errs["date"] = h.t(c, "validation.required")
	} else {
		errs["date"] = h.t(c, "validation.datetime")
	}
	if d, ok := validate.Discount(f.Discount); ok {
		f.Ticket.Discount = d
	} else {
		errs["discount"] = h.t(c, "validation.decimal")
	}
	if loc, ok := validate.ID(c.FormValue("locationId")); ok {
		f.Ticket.LocationID = loc
	} else {
		errs["locationId"] = h.t(c, "validation.required")
	}
	productIDs, ok := validate.IDs(formValues(c, "productIds"))
	if !ok {
		errs["productIds"] = h.t(c, "validation.invalid")
	}
	for _, pid := range productIDs {
		f.Selected[pid] = true
	}
	if len(errs) == 0 {
		errs = nil
	}
	return f, productIDs, errs
}

func (h *TicketHandler) form(c *fiber.Ctx, status int, f *ticketForm, errs map[string]string) error {
	ctx := c.UserContext()
	locations, err := h.Stores.ListLocations(ctx)
	if err != nil {
		applog.Error(c, "ticket.form.locations.fail", err, nil)
	}
	products, err := h.Catalog.ListProducts(ctx)
	if err != nil {
		applog.Error(c, "ticket.form.products.fail", err, nil)
	}
	return h.render(c.Status(status), "ticket-form", fiber.Map{
		"Form":      f,
		"Locations": locations,
		"Products":  products,
		"Errors":    errs,
	})
}

func detailURL(id int64) string {
	return "/tickets/detail?id=" + strconv.FormatInt(id, 10)
}

// formValues returns every value posted under key, for urlencoded and multipart bodies.
func formValues(c *fiber.Ctx, key string) []string {
	if mf, err := c.MultipartForm(); err == nil && mf != nil {
		return mf.Value[key]
	}
	var out []string
	for _, v := range c.Request().PostArgs().PeekMulti(key) {
		out = append(out, string(v))
	}
	return out
}
