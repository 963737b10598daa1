package repos

import (
	"context"
	"database/sql"
	"errors"

	"ticketlogger/internal/domain"

	"github.com/jmoiron/sqlx"
)

type SupermarketRepo struct{ db *sqlx.DB }

func NewSupermarketRepo(db *sqlx.DB) *SupermarketRepo { return &SupermarketRepo{db: db} }

func (r *SupermarketRepo) List(ctx context.Context) ([]domain.Supermarket, error) {
	var out []domain.Supermarket
	err := r.db.SelectContext(ctx, &out, `SELECT id, name FROM supermarkets ORDER BY name`)
	return out, err
}

func (r *SupermarketRepo) Get(ctx context.Context, id int64) (*domain.Supermarket, error) {
	var s domain.Supermarket
	err := r.db.GetContext(ctx, &s, `SELECT id, name FROM supermarkets WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SupermarketRepo) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM supermarkets WHERE LOWER(name) = LOWER(?) AND id != ?`, name, excludeID)
	return n > 0, err
}

func (r *SupermarketRepo) Insert(ctx context.Context, s *domain.Supermarket) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO supermarkets(name) VALUES(?)`, s.Name)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

func (r *SupermarketRepo) Update(ctx context.Context, s *domain.Supermarket) error {
	res, err := r.db.ExecContext(ctx, `UPDATE supermarkets SET name = ? WHERE id = ?`, s.Name, s.ID)
	return affected(res, err)
}

func (r *SupermarketRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM supermarkets WHERE id = ?`, id)
	return affected(res, err)
}
