package repos

import (
	"context"
	"fmt"

	"ticketlogger/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Preload("Roles").Where("username = ?", username).Take(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).Preload("Roles").Take(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := r.db.WithContext(ctx).Preload("Roles").Order("username").Find(&out).Error
	return out, err
}

func (r *UserRepo) Roles(ctx context.Context) ([]domain.Role, error) {
	var out []domain.Role
	err := r.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// Create inserts u and links the named roles, which must already exist.
func (r *UserRepo) Create(ctx context.Context, u *domain.User, roleNames ...string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var roles []domain.Role
		if len(roleNames) > 0 {
			if err := tx.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
				return err
			}
			if len(roles) != len(roleNames) {
				return fmt.Errorf("unknown role in %v: %w", roleNames, ErrNotFound)
			}
		}
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return err
		}
		if len(roles) == 0 {
			return nil
		}
		u.Roles = roles
		return tx.Model(u).Omit("Roles.*").Association("Roles").Append(roles)
	})
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	return rows(r.db.WithContext(ctx).Delete(&domain.User{}, id))
}
