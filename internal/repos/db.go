package repos

import (
	"errors"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "ticketlogger/internal/log"
)

// ErrNotFound is returned when a lookup, update or delete touches no row.
var ErrNotFound = errors.New("record not found")

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}
	// one connection: sqlite has a single writer and ":memory:" is per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed demo data if the database is empty
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Roles and default accounts (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

// OpenGorm returns a gorm handle sharing the sqlx connection pool.
func OpenGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(&sqlite.Dialector{Conn: db.DB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Regions & provinces
CREATE TABLE IF NOT EXISTS regions(
  id   INTEGER PRIMARY KEY AUTOINCREMENT,
  code TEXT NOT NULL,
  name TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_regions_code_nocase ON regions(UPPER(code));

CREATE TABLE IF NOT EXISTS provinces(
  id        INTEGER PRIMARY KEY AUTOINCREMENT,
  code      TEXT NOT NULL,
  name      TEXT NOT NULL,
  region_id INTEGER NOT NULL REFERENCES regions(id) ON DELETE CASCADE
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_provinces_code_nocase ON provinces(UPPER(code));
CREATE INDEX IF NOT EXISTS idx_provinces_region ON provinces(region_id);

-- Supermarkets & locations
CREATE TABLE IF NOT EXISTS supermarkets(
  id   INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_supermarkets_name_nocase ON supermarkets(LOWER(name));

CREATE TABLE IF NOT EXISTS locations(
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  address        TEXT NOT NULL,
  city           TEXT NOT NULL,
  supermarket_id INTEGER NOT NULL REFERENCES supermarkets(id) ON DELETE CASCADE,
  province_id    INTEGER NOT NULL REFERENCES provinces(id) ON DELETE CASCADE
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_address_nocase ON locations(LOWER(address));

-- Categories (self reference) & products
CREATE TABLE IF NOT EXISTS categories(
  id        INTEGER PRIMARY KEY AUTOINCREMENT,
  name      TEXT NOT NULL,
  image     TEXT NOT NULL DEFAULT '',
  parent_id INTEGER NULL REFERENCES categories(id) ON DELETE CASCADE
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name_nocase ON categories(LOWER(name));

CREATE TABLE IF NOT EXISTS products(
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  name        TEXT NOT NULL,
  price       NUMERIC NOT NULL CHECK (price >= 0),
  category_id INTEGER NULL REFERENCES categories(id) ON DELETE SET NULL
);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(LOWER(name));

-- Tickets
CREATE TABLE IF NOT EXISTS tickets(
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  date        DATETIME NOT NULL,
  discount    NUMERIC NOT NULL DEFAULT 0 CHECK (discount >= 0 AND discount <= 100),
  location_id INTEGER NOT NULL REFERENCES locations(id) ON DELETE RESTRICT
);

CREATE TABLE IF NOT EXISTS product_ticket(
  ticket_id  INTEGER NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  PRIMARY KEY (ticket_id, product_id)
);

-- Users & roles
CREATE TABLE IF NOT EXISTS roles(
  id   INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS users(
  id                        INTEGER PRIMARY KEY AUTOINCREMENT,
  username                  TEXT NOT NULL UNIQUE,
  password                  TEXT NOT NULL,
  enabled                   INTEGER NOT NULL DEFAULT 1,
  first_name                TEXT NOT NULL DEFAULT '',
  last_name                 TEXT NOT NULL DEFAULT '',
  image                     TEXT NOT NULL DEFAULT '',
  created_date              DATETIME DEFAULT CURRENT_TIMESTAMP,
  last_modified_date        DATETIME DEFAULT CURRENT_TIMESTAMP,
  last_password_change_date DATETIME NULL
);

CREATE TABLE IF NOT EXISTS user_roles(
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  role_id INTEGER NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
  PRIMARY KEY (user_id, role_id)
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM regions`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.L().Info("seed.demo")

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO regions(id,code,name) VALUES
	  (1,'01','Andalucía'),
	  (2,'13','Comunidad de Madrid')`)

	tx.MustExec(`INSERT INTO provinces(id,code,name,region_id) VALUES
	  (1,'41','Sevilla',1),
	  (2,'11','Cádiz',1),
	  (3,'29','Málaga',1),
	  (4,'28','Madrid',2)`)

	tx.MustExec(`INSERT INTO supermarkets(id,name) VALUES
	  (1,'Mercadona'),
	  (2,'Lidl')`)

	tx.MustExec(`INSERT INTO locations(id,address,city,supermarket_id,province_id) VALUES
	  (1,'Avenida de la Constitución 12','Sevilla',1,1),
	  (2,'Calle Larios 3','Málaga',2,3)`)

	tx.MustExec(`INSERT INTO categories(id,name,image,parent_id) VALUES
	  (1,'Alimentación','',NULL),
	  (2,'Lácteos','',1),
	  (3,'Panadería','',1),
	  (4,'Limpieza','',NULL)`)

	tx.MustExec(`INSERT INTO products(id,name,price,category_id) VALUES
	  (1,'Leche entera',0.95,2),
	  (2,'Pan de barra',1.20,3),
	  (3,'Detergente',6.50,4)`)

	tx.MustExec(`INSERT INTO tickets(id,date,discount,location_id) VALUES
	  (1,'2024-10-01 10:30:00',0,1)`)

	tx.MustExec(`INSERT INTO product_ticket(ticket_id,product_id) VALUES (1,1),(1,2)`)

	return tx.Commit()
}

// seedUsers ensures the three roles and one account per role exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		Username, First, Last, Role, Hash string
	}
	mk := func(username, first, last, role, raw string) (u, error) {
		h, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		if err != nil {
			return u{}, err
		}
		return u{Username: username, First: first, Last: last, Role: role, Hash: string(h)}, nil
	}

	var users []u
	for _, x := range [][4]string{
		{"admin", "Admin", "User", "ROLE_ADMIN"},
		{"manager", "Manager", "User", "ROLE_MANAGER"},
		{"user", "Normal", "User", "ROLE_USER"},
	} {
		var exists int
		if err := db.Get(&exists, `SELECT COUNT(*) FROM users WHERE username=?`, x[0]); err != nil {
			return err
		}
		if exists > 0 {
			continue
		}
		nu, err := mk(x[0], x[1], x[2], x[3], "Passw0rd!")
		if err != nil {
			return err
		}
		users = append(users, nu)
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, r := range []string{"ROLE_ADMIN", "ROLE_MANAGER", "ROLE_USER"} {
		if _, err := tx.Exec(`INSERT INTO roles(name) VALUES(?) ON CONFLICT(name) DO NOTHING`, r); err != nil {
			return err
		}
	}
	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(username,password,enabled,first_name,last_name,last_password_change_date)
			VALUES(?,?,1,?,?,CURRENT_TIMESTAMP)
			ON CONFLICT(username) DO NOTHING
		`, x.Username, x.Hash, x.First, x.Last); err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO user_roles(user_id,role_id)
			SELECT u.id, r.id FROM users u, roles r WHERE u.username=? AND r.name=?
		`, x.Username, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
