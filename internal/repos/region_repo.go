package repos

import (
	"context"
	"database/sql"
	"errors"

	"ticketlogger/internal/domain"

	"github.com/jmoiron/sqlx"
)

type RegionRepo struct{ db *sqlx.DB }

func NewRegionRepo(db *sqlx.DB) *RegionRepo { return &RegionRepo{db: db} }

func (r *RegionRepo) List(ctx context.Context) ([]domain.Region, error) {
	var out []domain.Region
	err := r.db.SelectContext(ctx, &out, `SELECT id, code, name FROM regions ORDER BY code`)
	return out, err
}

func (r *RegionRepo) Get(ctx context.Context, id int64) (*domain.Region, error) {
	var reg domain.Region
	err := r.db.GetContext(ctx, &reg, `SELECT id, code, name FROM regions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// ExistsByCode checks code case-insensitively; excludeID > 0 skips that row.
func (r *RegionRepo) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM regions WHERE UPPER(code) = UPPER(?) AND id != ?`, code, excludeID)
	return n > 0, err
}

func (r *RegionRepo) Insert(ctx context.Context, reg *domain.Region) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO regions(code, name) VALUES(?, ?)`, reg.Code, reg.Name)
	if err != nil {
		return err
	}
	reg.ID, err = res.LastInsertId()
	return err
}

func (r *RegionRepo) Update(ctx context.Context, reg *domain.Region) error {
	res, err := r.db.ExecContext(ctx, `UPDATE regions SET code = ?, name = ? WHERE id = ?`, reg.Code, reg.Name, reg.ID)
	return affected(res, err)
}

func (r *RegionRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM regions WHERE id = ?`, id)
	return affected(res, err)
}

// affected maps a zero-row result to ErrNotFound.
func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
