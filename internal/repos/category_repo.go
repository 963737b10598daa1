package repos

import (
	"context"
	"database/sql"
	"errors"

	"ticketlogger/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

const categorySelect = `
  SELECT
    c.id, c.name, c.image, c.parent_id,
    COALESCE(p.name, '') AS parent_name
  FROM categories c
  LEFT JOIN categories p ON p.id = c.parent_id`

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, categorySelect+` ORDER BY c.name`)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id int64) (*domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, categorySelect+` WHERE c.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM categories WHERE LOWER(name) = LOWER(?) AND id != ?`, name, excludeID)
	return n > 0, err
}

// Ancestors walks the parent chain of id (excluding id itself), nearest first.
func (r *CategoryRepo) Ancestors(ctx context.Context, id int64) ([]int64, error) {
	var out []int64
	err := r.db.SelectContext(ctx, &out, `
  WITH RECURSIVE chain(id, parent_id, depth) AS (
    SELECT id, parent_id, 0 FROM categories WHERE id = ?
    UNION ALL
    SELECT c.id, c.parent_id, chain.depth + 1
    FROM categories c JOIN chain ON c.id = chain.parent_id
    WHERE chain.depth < 64
  )
  SELECT id FROM chain WHERE depth > 0 ORDER BY depth`, id)
	return out, err
}

func (r *CategoryRepo) Insert(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories(name, image, parent_id) VALUES(?, ?, ?)`, c.Name, c.Image, c.ParentID)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, image = ?, parent_id = ? WHERE id = ?`, c.Name, c.Image, c.ParentID, c.ID)
	return affected(res, err)
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	return affected(res, err)
}
