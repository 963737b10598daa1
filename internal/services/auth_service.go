package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketlogger/internal/domain"
	"ticketlogger/internal/repos"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService { return &AuthService{Users: users} }

// dummyHash keeps the failed-lookup path as slow as a real comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// Login checks username and password; disabled accounts are rejected like bad credentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if !u.Enabled {
		return nil, ErrBadCreds
	}
	return u, nil
}

// Registered returns the enabled account for username, or ErrNotRegistered.
func (s *AuthService) Registered(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, ErrNotRegistered
	}
	u, err := s.Users.ByUsername(ctx, username)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}
	if !u.Enabled {
		return nil, ErrNotRegistered
	}
	return u, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.Users.ByID(ctx, id)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Users.List(ctx)
}

// CreateUser hashes password and stores an enabled account with the given roles.
func (s *AuthService) CreateUser(ctx context.Context, u *domain.User, password string, roles ...string) error {
	if _, err := s.Users.ByUsername(ctx, u.Username); err == nil {
		return ErrNameExists
	} else if !errors.Is(err, repos.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	u.Password = string(hash)
	u.Enabled = true
	u.LastPasswordChangeDate = &now
	return s.Users.Create(ctx, u, roles...)
}

func (s *AuthService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrSelfDelete
	}
	return s.Users.Delete(ctx, id)
}
