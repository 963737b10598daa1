package repos

import (
	"context"
	"database/sql"
	"errors"

	"ticketlogger/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProvinceRepo struct{ db *sqlx.DB }

func NewProvinceRepo(db *sqlx.DB) *ProvinceRepo { return &ProvinceRepo{db: db} }

const provinceSelect = `
  SELECT
    p.id, p.code, p.name, p.region_id,
    r.name AS region_name
  FROM provinces p
  JOIN regions r ON r.id = p.region_id`

func (r *ProvinceRepo) List(ctx context.Context) ([]domain.Province, error) {
	var out []domain.Province
	err := r.db.SelectContext(ctx, &out, provinceSelect+` ORDER BY p.code`)
	return out, err
}

func (r *ProvinceRepo) Get(ctx context.Context, id int64) (*domain.Province, error) {
	var p domain.Province
	err := r.db.GetContext(ctx, &p, provinceSelect+` WHERE p.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProvinceRepo) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM provinces WHERE UPPER(code) = UPPER(?) AND id != ?`, code, excludeID)
	return n > 0, err
}

func (r *ProvinceRepo) Insert(ctx context.Context, p *domain.Province) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO provinces(code, name, region_id) VALUES(?, ?, ?)`, p.Code, p.Name, p.RegionID)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (r *ProvinceRepo) Update(ctx context.Context, p *domain.Province) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE provinces SET code = ?, name = ?, region_id = ? WHERE id = ?`, p.Code, p.Name, p.RegionID, p.ID)
	return affected(res, err)
}

func (r *ProvinceRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM provinces WHERE id = ?`, id)
	return affected(res, err)
}
