package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"ticketlogger/internal/domain"
	applog "ticketlogger/internal/log"
	"ticketlogger/internal/repos"

	"go.uber.org/zap"
)

// Upload is an image received with a category form.
type Upload struct {
	Filename string
	Body     io.Reader
}

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
	Files *FileStorage
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, files *FileStorage) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Files: files}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	return s.Cats.Get(ctx, id)
}

// CreateCategory stores img (optional) and inserts c; the file is removed again if the insert fails.
func (s *CatalogService) CreateCategory(ctx context.Context, c *domain.Category, img *Upload) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := s.categoryNameFree(ctx, c.Name, 0); err != nil {
		return err
	}
	if img != nil {
		name, err := s.Files.Save(img.Filename, img.Body)
		if err != nil {
			return err
		}
		c.Image = name
	}
	if err := s.Cats.Insert(ctx, c); err != nil {
		s.dropImage(c.Image)
		return err
	}
	return nil
}

// UpdateCategory keeps the stored image unless img replaces it.
func (s *CatalogService) UpdateCategory(ctx context.Context, c *domain.Category, img *Upload) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := s.categoryNameFree(ctx, c.Name, c.ID); err != nil {
		return err
	}
	if err := s.checkParent(ctx, c); err != nil {
		return err
	}
	current, err := s.Cats.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Image = current.Image
	if img != nil {
		name, err := s.Files.Save(img.Filename, img.Body)
		if err != nil {
			return err
		}
		c.Image = name
	}
	if err := s.Cats.Update(ctx, c); err != nil {
		if img != nil {
			s.dropImage(c.Image)
		}
		return err
	}
	if img != nil {
		s.dropImage(current.Image)
	}
	return nil
}

// DeleteCategory removes the category (children cascade) and its image.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	current, err := s.Cats.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Cats.Delete(ctx, id); err != nil {
		return err
	}
	s.dropImage(current.Image)
	return nil
}

// checkParent rejects a parent that is the category itself or one of its descendants.
func (s *CatalogService) checkParent(ctx context.Context, c *domain.Category) error {
	if c.ParentID == nil {
		return nil
	}
	if *c.ParentID == c.ID {
		return ErrCategoryCycle
	}
	ancestors, err := s.Cats.Ancestors(ctx, *c.ParentID)
	if err != nil {
		return fmt.Errorf("load category ancestors: %w", err)
	}
	for _, a := range ancestors {
		if a == c.ID {
			return ErrCategoryCycle
		}
	}
	return nil
}

func (s *CatalogService) categoryNameFree(ctx context.Context, name string, excludeID int64) error {
	exists, err := s.Cats.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("check category name: %w", err)
	}
	if exists {
		return ErrNameExists
	}
	return nil
}

func (s *CatalogService) dropImage(name string) {
	if name == "" {
		return
	}
	if err := s.Files.Delete(name); err != nil {
		applog.L().Warn("category.image.delete.fail", zap.String("image", name), zap.Error(err))
	}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.List(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

// SearchProducts returns products whose name contains q, ignoring case.
func (s *CatalogService) SearchProducts(ctx context.Context, q string) ([]domain.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.Product{}, nil
	}
	return s.Prods.SearchByName(ctx, q)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	return s.Prods.Insert(ctx, p)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	return s.Prods.Update(ctx, p)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return s.Prods.Delete(ctx, id)
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, repos.ErrNotFound) }
