package handlers_test

import (
	"net/http"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reTotal = regexp.MustCompile(`id="ticket-total">([^<]+)<`)

func ticketTotal(t *testing.T, page string) string {
	t.Helper()
	m := reTotal.FindStringSubmatch(page)
	require.Len(t, m, 2, "total not rendered")
	return m[1]
}

func TestTicketDetailProductsAndTotals(t *testing.T) {
	ta := newTestApp(t)
	cl := ta.client(t)
	cl.login("user")

	// seeded ticket: leche 0.95 + pan 1.20
	page := body(t, cl.get("/tickets/detail?id=1"))
	assert.Equal(t, "2.15", ticketTotal(t, page))
	assert.Contains(t, page, "Leche entera")

	resp := cl.post("/tickets/addNewProduct", url.Values{"ticketId": {"1"}, "productName": {"Huevos"}, "productPrice": {"2.10"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/tickets/detail?id=1", resp.Header.Get("Location"))
	_, page = cl.follow(resp)
	assert.Contains(t, page, "Product added to the ticket.")
	assert.Equal(t, "4.25", ticketTotal(t, page))

	// same name in another case is refused
	resp = cl.post("/tickets/addNewProduct", url.Values{"ticketId": {"1"}, "productName": {"leche ENTERA"}, "productPrice": {"1"}})
	_, page = cl.follow(resp)
	assert.Contains(t, page, "A product with that name is already on this ticket.")
	assert.Equal(t, "4.25", ticketTotal(t, page))

	resp = cl.post("/tickets/addNewProduct", url.Values{"ticketId": {"1"}, "productName": {"X"}, "productPrice": {"abc"}})
	_, page = cl.follow(resp)
	assert.Contains(t, page, "Enter a product name (2 to 100 characters) and a price of zero or more.")

	// search then attach an existing product
	resp = cl.post("/tickets/addExistingProduct", url.Values{"ticketId": {"1"}, "productSearch": {"deter"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = body(t, resp)
	assert.Contains(t, page, "Detergente (6.50)")

	resp = cl.post("/tickets/addProduct", url.Values{"ticketId": {"1"}, "productId": {"3"}})
	_, page = cl.follow(resp)
	assert.Equal(t, "10.75", ticketTotal(t, page))

	resp = cl.post("/tickets/removeProduct", url.Values{"ticketId": {"1"}, "productId": {"3"}})
	_, page = cl.follow(resp)
	assert.Contains(t, page, "Product removed from the ticket.")
	assert.Equal(t, "4.25", ticketTotal(t, page))

	// removal unlinks, the product itself stays
	var n int
	require.NoError(t, ta.db.Get(&n, `SELECT COUNT(*) FROM products WHERE id = 3`))
	assert.Equal(t, 1, n)
}

func TestTicketCreateWithDiscount(t *testing.T) {
	ta := newTestApp(t)
	cl := ta.client(t)
	cl.login("user")

	resp := cl.post("/tickets/insert", url.Values{"date": {""}, "discount": {"150"}, "locationId": {"1"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "This field is required.")
	assert.Contains(t, page, "Enter a valid number.")

	resp = cl.post("/tickets/insert", url.Values{
		"date":       {"2024-11-02T18:45"},
		"discount":   {"10"},
		"locationId": {"2"},
		"productIds": {"1", "3"},
	})
	_, page = cl.follow(resp)
	assert.Contains(t, page, "Saved successfully.")
	assert.Contains(t, page, "Calle Larios 3")

	var id int64
	require.NoError(t, ta.db.Get(&id, `SELECT MAX(id) FROM tickets`))
	// (0.95 + 6.50) less 10%
	assert.Equal(t, "6.71", ticketTotal(t, body(t, cl.get("/tickets/detail?id="+itoa(id)))))

	resp = cl.post("/tickets/delete", url.Values{"id": {itoa(id)}})
	_, page = cl.follow(resp)
	assert.Contains(t, page, "Deleted successfully.")
}

func TestTicketDetailMissing(t *testing.T) {
	ta := newTestApp(t)
	cl := ta.client(t)
	cl.login("user")

	resp := cl.get("/tickets/detail?id=404")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	_, page := cl.follow(resp)
	assert.Contains(t, page, "The requested record does not exist.")
}

func TestAddNewProductTrimsNameBeforeValidating(t *testing.T) {
	ta := newTestApp(t)
	cl := ta.client(t)
	cl.login("user")

	resp := cl.post("/tickets/addNewProduct", url.Values{"ticketId": {"1"}, "productName": {"  a  "}, "productPrice": {"1"}})
	_, page := cl.follow(resp)
	assert.Contains(t, page, "Enter a product name (2 to 100 characters) and a price of zero or more.")

	var n int
	require.NoError(t, ta.db.Get(&n, `SELECT COUNT(*) FROM products WHERE TRIM(name) = 'a'`))
	assert.Zero(t, n)

	resp = cl.post("/tickets/addNewProduct", url.Values{"ticketId": {"1"}, "productName": {"  Ñoquis  "}, "productPrice": {"1.99"}})
	_, page = cl.follow(resp)
	assert.Contains(t, page, "Product added to the ticket.")
	require.NoError(t, ta.db.Get(&n, `SELECT COUNT(*) FROM products WHERE name = 'Ñoquis'`))
	assert.Equal(t, 1, n)

	// same name with other capitals is already on the ticket
	resp = cl.post("/tickets/addNewProduct", url.Values{"ticketId": {"1"}, "productName": {"ÑOQUIS"}, "productPrice": {"1"}})
	_, page = cl.follow(resp)
	assert.Contains(t, page, "A product with that name is already on this ticket.")
}
