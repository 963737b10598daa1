package repos

import (
	"context"
	"database/sql"
	"errors"

	"ticketlogger/internal/domain"

	"github.com/jmoiron/sqlx"
)

type LocationRepo struct{ db *sqlx.DB }

func NewLocationRepo(db *sqlx.DB) *LocationRepo { return &LocationRepo{db: db} }

const locationSelect = `
  SELECT
    l.id, l.address, l.city, l.supermarket_id, l.province_id,
    s.name AS supermarket_name,
    p.name AS province_name
  FROM locations l
  JOIN supermarkets s ON s.id = l.supermarket_id
  JOIN provinces p    ON p.id = l.province_id`

func (r *LocationRepo) List(ctx context.Context) ([]domain.Location, error) {
	var out []domain.Location
	err := r.db.SelectContext(ctx, &out, locationSelect+` ORDER BY l.city, l.address`)
	return out, err
}

func (r *LocationRepo) Get(ctx context.Context, id int64) (*domain.Location, error) {
	var l domain.Location
	err := r.db.GetContext(ctx, &l, locationSelect+` WHERE l.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LocationRepo) ExistsByAddress(ctx context.Context, address string, excludeID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM locations WHERE LOWER(address) = LOWER(?) AND id != ?`, address, excludeID)
	return n > 0, err
}

func (r *LocationRepo) Insert(ctx context.Context, l *domain.Location) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO locations(address, city, supermarket_id, province_id) VALUES(?, ?, ?, ?)`,
		l.Address, l.City, l.SupermarketID, l.ProvinceID)
	if err != nil {
		return err
	}
	l.ID, err = res.LastInsertId()
	return err
}

func (r *LocationRepo) Update(ctx context.Context, l *domain.Location) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE locations SET address = ?, city = ?, supermarket_id = ?, province_id = ? WHERE id = ?`,
		l.Address, l.City, l.SupermarketID, l.ProvinceID, l.ID)
	return affected(res, err)
}

func (r *LocationRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE id = ?`, id)
	return affected(res, err)
}
