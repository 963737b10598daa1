package repos

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ticketlogger/internal/domain"
)

func openTest(t *testing.T) (*sqlx.DB, *gorm.DB) {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	gdb, err := OpenGorm(db)
	require.NoError(t, err)
	return db, gdb
}

func TestSeedIsIdempotentAndHashed(t *testing.T) {
	db, _ := openTest(t)
	require.NoError(t, seedIfEmpty(db))
	require.NoError(t, seedUsers(db))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 3, n)
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM user_roles`))
	assert.Equal(t, 3, n)

	var hashes []string
	require.NoError(t, db.Select(&hashes, `SELECT password FROM users`))
	for _, h := range hashes {
		assert.False(t, strings.Contains(h, "Passw0rd!"))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")))
	}
}

func TestRegionCRUD(t *testing.T) {
	db, _ := openTest(t)
	ctx := context.Background()
	r := NewRegionRepo(db)

	reg := &domain.Region{Code: "07", Name: "Islas Baleares"}
	require.NoError(t, r.Insert(ctx, reg))
	assert.NotZero(t, reg.ID)

	exists, err := r.ExistsByCode(ctx, "07", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = r.ExistsByCode(ctx, "07", reg.ID)
	require.NoError(t, err)
	assert.False(t, exists, "own row is excluded")

	reg.Name = "Illes Balears"
	require.NoError(t, r.Update(ctx, reg))
	got, err := r.Get(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "Illes Balears", got.Name)

	require.NoError(t, r.Delete(ctx, reg.ID))
	_, err = r.Get(ctx, reg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, reg.ID), ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, &domain.Region{ID: 999, Code: "99", Name: "x"}), ErrNotFound)
}

func TestCodeChecksIgnoreCase(t *testing.T) {
	db, _ := openTest(t)
	ctx := context.Background()
	sm := NewSupermarketRepo(db)
	exists, err := sm.ExistsByName(ctx, "MERCADONA", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	loc := NewLocationRepo(db)
	exists, err = loc.ExistsByAddress(ctx, "calle larios 3", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRegionDeleteCascadesToProvincesAndLocations(t *testing.T) {
	db, gdb := openTest(t)
	ctx := context.Background()

	// the seeded ticket holds location 1 (RESTRICT), so free it first
	require.NoError(t, NewTicketRepo(gdb).Delete(ctx, 1))
	require.NoError(t, NewRegionRepo(db).Delete(ctx, 1))

	provs, err := NewProvinceRepo(db).List(ctx)
	require.NoError(t, err)
	for _, p := range provs {
		assert.NotEqual(t, int64(1), p.RegionID)
	}
	locs, err := NewLocationRepo(db).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, locs)
}

func TestLocationDeleteRestrictedByTicket(t *testing.T) {
	db, _ := openTest(t)
	err := NewLocationRepo(db).Delete(context.Background(), 1)
	assert.Error(t, err)
}

func TestJoinedNames(t *testing.T) {
	db, _ := openTest(t)
	ctx := context.Background()

	p, err := NewProvinceRepo(db).Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Andalucía", p.RegionName)

	l, err := NewLocationRepo(db).Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mercadona", l.SupermarketName)
	assert.Equal(t, "Sevilla", l.ProvinceName)

	c, err := NewCategoryRepo(db).Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Alimentación", c.ParentName)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, int64(1), *c.ParentID)
}

func TestCategoryAncestorsAndCascade(t *testing.T) {
	db, gdb := openTest(t)
	ctx := context.Background()
	cats := NewCategoryRepo(db)

	parent := int64(2)
	leaf := &domain.Category{Name: "Yogures", ParentID: &parent}
	require.NoError(t, cats.Insert(ctx, leaf))

	anc, err := cats.Ancestors(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, anc)

	// deleting the root removes the whole subtree; products keep existing without a category
	require.NoError(t, cats.Delete(ctx, 1))
	_, err = cats.Get(ctx, leaf.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	p, err := NewProductRepo(gdb).Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, p.CategoryID)
	assert.Equal(t, "", p.CategoryName)
}

func TestProductRepo(t *testing.T) {
	_, gdb := openTest(t)
	ctx := context.Background()
	r := NewProductRepo(gdb)

	cat := int64(4)
	p := &domain.Product{Name: "Lejía 100%", Price: decimal.RequireFromString("1.35"), CategoryID: &cat}
	require.NoError(t, r.Insert(ctx, p))
	require.NotZero(t, p.ID)

	got, err := r.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Limpieza", got.CategoryName)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1.35")))

	found, err := r.SearchByName(ctx, "LECHE")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Leche entera", found[0].Name)

	found, err = r.SearchByName(ctx, "100%")
	require.NoError(t, err)
	assert.Len(t, found, 1)
	found, err = r.SearchByName(ctx, "%")
	require.NoError(t, err)
	assert.Len(t, found, 1, "wildcards are matched literally")

	p.Price = decimal.RequireFromString("1.50")
	p.CategoryID = nil
	require.NoError(t, r.Update(ctx, p))
	got, err = r.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	require.NoError(t, r.Delete(ctx, p.ID))
	assert.ErrorIs(t, r.Delete(ctx, p.ID), ErrNotFound)
}

func TestTicketAssociation(t *testing.T) {
	_, gdb := openTest(t)
	ctx := context.Background()
	r := NewTicketRepo(gdb)

	tk, err := r.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, tk.Products, 2)
	assert.Equal(t, "Avenida de la Constitución 12", tk.LocationAddress)
	assert.Equal(t, "2.15", tk.Total().StringFixed(2))

	require.NoError(t, r.AttachProduct(ctx, 1, 3))
	require.NoError(t, r.AttachProduct(ctx, 1, 3))
	tk, err = r.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, tk.Products, 3)

	require.NoError(t, r.DetachProduct(ctx, 1, 3))
	tk, err = r.Get(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, tk.Products, 2)
	_, err = NewProductRepo(gdb).Get(ctx, 3)
	assert.NoError(t, err, "detach keeps the product")

	assert.ErrorIs(t, r.AttachProduct(ctx, 99, 1), ErrNotFound)
	assert.ErrorIs(t, r.AttachProduct(ctx, 1, 99), ErrNotFound)
}

func TestTicketCreateUpdateDelete(t *testing.T) {
	_, gdb := openTest(t)
	ctx := context.Background()
	r := NewTicketRepo(gdb)

	when := time.Date(2024, 11, 5, 18, 45, 0, 0, time.UTC)
	tk := &domain.Ticket{Date: when, Discount: decimal.NewFromInt(10), LocationID: 2}
	require.NoError(t, r.Create(ctx, tk, []int64{1, 3}))
	require.NotZero(t, tk.ID)

	got, err := r.Get(ctx, tk.ID)
	require.NoError(t, err)
	assert.Len(t, got.Products, 2)
	assert.True(t, got.Date.Equal(when))
	assert.Equal(t, "6.71", got.Total().StringFixed(2))

	got.Discount = decimal.Zero
	require.NoError(t, r.Update(ctx, got, []int64{2}))
	got, err = r.Get(ctx, tk.ID)
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "Pan de barra", got.Products[0].Name)

	assert.ErrorIs(t, r.Update(ctx, &domain.Ticket{ID: 999, Date: when, LocationID: 1}, nil), ErrNotFound)

	require.NoError(t, r.Delete(ctx, tk.ID))
	_, err = r.Get(ctx, tk.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo(t *testing.T) {
	_, gdb := openTest(t)
	ctx := context.Background()
	r := NewUserRepo(gdb)

	admin, err := r.ByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	u := &domain.User{Username: "ana", Password: "x", Enabled: true}
	require.NoError(t, r.Create(ctx, u, domain.RoleUser, domain.RoleManager))
	got, err := r.ByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, got.Roles, 2)
	assert.True(t, got.HasRole(domain.RoleManager))

	err = r.Create(ctx, &domain.User{Username: "bob", Password: "x"}, "ROLE_NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Delete(ctx, u.ID))
	_, err = r.ByUsername(ctx, "ana")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChecksFoldNonASCII(t *testing.T) {
	db, gdb := openTest(t)
	ctx := context.Background()

	require.NoError(t, NewSupermarketRepo(db).Insert(ctx, &domain.Supermarket{Name: "ÁLVAREZ"}))
	require.NoError(t, NewCategoryRepo(db).Insert(ctx, &domain.Category{Name: "ÁLVAREZ"}))
	require.NoError(t, NewLocationRepo(db).Insert(ctx, &domain.Location{
		Address: "Plaza de España 1", City: "Sevilla", SupermarketID: 1, ProvinceID: 1,
	}))
	require.NoError(t, NewRegionRepo(db).Insert(ctx, &domain.Region{Code: "Ñé", Name: "Prueba"}))
	require.NoError(t, NewProvinceRepo(db).Insert(ctx, &domain.Province{Code: "Éa", Name: "Prueba", RegionID: 1}))

	cases := []struct {
		name   string
		exists func() (bool, error)
	}{
		{"supermarket", func() (bool, error) { return NewSupermarketRepo(db).ExistsByName(ctx, "álvarez", 0) }},
		{"category", func() (bool, error) { return NewCategoryRepo(db).ExistsByName(ctx, "álvarez", 0) }},
		{"location", func() (bool, error) { return NewLocationRepo(db).ExistsByAddress(ctx, "PLAZA DE ESPAÑA 1", 0) }},
		{"region code", func() (bool, error) { return NewRegionRepo(db).ExistsByCode(ctx, "ñÉ", 0) }},
		{"province code", func() (bool, error) { return NewProvinceRepo(db).ExistsByCode(ctx, "éA", 0) }},
	}
	for _, tc := range cases {
		exists, err := tc.exists()
		require.NoError(t, err, tc.name)
		assert.True(t, exists, tc.name)
	}

	// the unique indexes fold the same way
	_, err := db.Exec(`INSERT INTO supermarkets(name) VALUES ('álvarez')`)
	assert.Error(t, err)
	_, err = db.Exec(`INSERT INTO regions(code,name) VALUES ('ñé','Otra')`)
	assert.Error(t, err)

	products := NewProductRepo(gdb)
	require.NoError(t, products.Insert(ctx, &domain.Product{Name: "Ñoquis", Price: decimal.RequireFromString("1.99")}))
	for _, q := range []string{"Ñoquis", "ñoquis", "ÑOQ"} {
		found, err := products.SearchByName(ctx, q)
		require.NoError(t, err, q)
		require.Len(t, found, 1, q)
		assert.Equal(t, "Ñoquis", found[0].Name)
	}
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// no idle connections: each statement runs on a fresh one
	db.SetMaxIdleConns(0)
	for i := 0; i < 3; i++ {
		var on int
		require.NoError(t, db.Get(&on, `PRAGMA foreign_keys`))
		assert.Equal(t, 1, on)
	}
	assert.Error(t, NewLocationRepo(db).Delete(context.Background(), 1))
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, ":memory:?_pragma=foreign_keys(1)", withPragmas(":memory:"))
	assert.Equal(t, "file:x.db?mode=rwc&_pragma=foreign_keys(1)", withPragmas("file:x.db?mode=rwc"))
}
