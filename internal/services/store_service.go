package services

import (
	"context"
	"fmt"
	"strings"

	"ticketlogger/internal/domain"
	"ticketlogger/internal/repos"
)

// StoreService manages supermarkets and their locations.
type StoreService struct {
	Supermarkets *repos.SupermarketRepo
	Locations    *repos.LocationRepo
}

func NewStoreService(supermarkets *repos.SupermarketRepo, locations *repos.LocationRepo) *StoreService {
	return &StoreService{Supermarkets: supermarkets, Locations: locations}
}

func (s *StoreService) ListSupermarkets(ctx context.Context) ([]domain.Supermarket, error) {
	return s.Supermarkets.List(ctx)
}

func (s *StoreService) GetSupermarket(ctx context.Context, id int64) (*domain.Supermarket, error) {
	return s.Supermarkets.Get(ctx, id)
}

func (s *StoreService) CreateSupermarket(ctx context.Context, m *domain.Supermarket) error {
	m.Name = strings.TrimSpace(m.Name)
	if err := s.nameFree(ctx, m.Name, 0); err != nil {
		return err
	}
	return s.Supermarkets.Insert(ctx, m)
}

func (s *StoreService) UpdateSupermarket(ctx context.Context, m *domain.Supermarket) error {
	m.Name = strings.TrimSpace(m.Name)
	if err := s.nameFree(ctx, m.Name, m.ID); err != nil {
		return err
	}
	return s.Supermarkets.Update(ctx, m)
}

func (s *StoreService) DeleteSupermarket(ctx context.Context, id int64) error {
	return s.Supermarkets.Delete(ctx, id)
}

func (s *StoreService) nameFree(ctx context.Context, name string, excludeID int64) error {
	exists, err := s.Supermarkets.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("check supermarket name: %w", err)
	}
	if exists {
		return ErrNameExists
	}
	return nil
}

func (s *StoreService) ListLocations(ctx context.Context) ([]domain.Location, error) {
	return s.Locations.List(ctx)
}

func (s *StoreService) GetLocation(ctx context.Context, id int64) (*domain.Location, error) {
	return s.Locations.Get(ctx, id)
}

func (s *StoreService) CreateLocation(ctx context.Context, l *domain.Location) error {
	normalizeLocation(l)
	if err := s.addressFree(ctx, l.Address, 0); err != nil {
		return err
	}
	return s.Locations.Insert(ctx, l)
}

func (s *StoreService) UpdateLocation(ctx context.Context, l *domain.Location) error {
	normalizeLocation(l)
	if err := s.addressFree(ctx, l.Address, l.ID); err != nil {
		return err
	}
	return s.Locations.Update(ctx, l)
}

func (s *StoreService) DeleteLocation(ctx context.Context, id int64) error {
	return s.Locations.Delete(ctx, id)
}

func (s *StoreService) addressFree(ctx context.Context, address string, excludeID int64) error {
	exists, err := s.Locations.ExistsByAddress(ctx, address, excludeID)
	if err != nil {
		return fmt.Errorf("check location address: %w", err)
	}
	if exists {
		return ErrAddressExists
	}
	return nil
}

func normalizeLocation(l *domain.Location) {
	l.Address = strings.TrimSpace(l.Address)
	l.City = strings.TrimSpace(l.City)
}
