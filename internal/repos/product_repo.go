package repos

import (
	"context"
	"errors"
	"strings"

	"ticketlogger/internal/domain"

	"gorm.io/gorm"
)

// ProductRepo is backed by gorm; products take part in the ticket many-to-many.
type ProductRepo struct{ db *gorm.DB }

func NewProductRepo(db *gorm.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Select("products.*, COALESCE(categories.name, '') AS category_name").
		Joins("LEFT JOIN categories ON categories.id = products.category_id")
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := r.joined(ctx).Order("products.name").Find(&out).Error
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.joined(ctx).Where("products.id = ?", id).Take(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// SearchByName matches a case-insensitive substring of the product name.
func (r *ProductRepo) SearchByName(ctx context.Context, q string) ([]domain.Product, error) {
	var out []domain.Product
	pattern := "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
	err := r.joined(ctx).
		Where(`LOWER(products.name) LIKE ? ESCAPE '\'`, pattern).
		Order("products.name").
		Limit(50).
		Find(&out).Error
	return out, err
}

func (r *ProductRepo) Insert(ctx context.Context, p *domain.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":        p.Name,
		"price":       p.Price,
		"category_id": p.CategoryID,
	})
	return rows(res)
}

func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	return rows(r.db.WithContext(ctx).Delete(&domain.Product{}, id))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func rows(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
