package services

import (
	"context"
	"fmt"
	"strings"

	"ticketlogger/internal/domain"
	"ticketlogger/internal/repos"
)

// GeoService manages regions and their provinces.
type GeoService struct {
	Regions   *repos.RegionRepo
	Provinces *repos.ProvinceRepo
}

func NewGeoService(regions *repos.RegionRepo, provinces *repos.ProvinceRepo) *GeoService {
	return &GeoService{Regions: regions, Provinces: provinces}
}

func (s *GeoService) ListRegions(ctx context.Context) ([]domain.Region, error) {
	return s.Regions.List(ctx)
}

func (s *GeoService) GetRegion(ctx context.Context, id int64) (*domain.Region, error) {
	return s.Regions.Get(ctx, id)
}

func (s *GeoService) CreateRegion(ctx context.Context, r *domain.Region) error {
	normalizeRegion(r)
	if err := s.regionCodeFree(ctx, r.Code, 0); err != nil {
		return err
	}
	return s.Regions.Insert(ctx, r)
}

func (s *GeoService) UpdateRegion(ctx context.Context, r *domain.Region) error {
	normalizeRegion(r)
	if err := s.regionCodeFree(ctx, r.Code, r.ID); err != nil {
		return err
	}
	return s.Regions.Update(ctx, r)
}

func (s *GeoService) DeleteRegion(ctx context.Context, id int64) error {
	return s.Regions.Delete(ctx, id)
}

func (s *GeoService) regionCodeFree(ctx context.Context, code string, excludeID int64) error {
	exists, err := s.Regions.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return fmt.Errorf("check region code: %w", err)
	}
	if exists {
		return ErrCodeExists
	}
	return nil
}

func (s *GeoService) ListProvinces(ctx context.Context) ([]domain.Province, error) {
	return s.Provinces.List(ctx)
}

func (s *GeoService) GetProvince(ctx context.Context, id int64) (*domain.Province, error) {
	return s.Provinces.Get(ctx, id)
}

func (s *GeoService) CreateProvince(ctx context.Context, p *domain.Province) error {
	normalizeProvince(p)
	if err := s.provinceCodeFree(ctx, p.Code, 0); err != nil {
		return err
	}
	return s.Provinces.Insert(ctx, p)
}

func (s *GeoService) UpdateProvince(ctx context.Context, p *domain.Province) error {
	normalizeProvince(p)
	if err := s.provinceCodeFree(ctx, p.Code, p.ID); err != nil {
		return err
	}
	return s.Provinces.Update(ctx, p)
}

func (s *GeoService) DeleteProvince(ctx context.Context, id int64) error {
	return s.Provinces.Delete(ctx, id)
}

func (s *GeoService) provinceCodeFree(ctx context.Context, code string, excludeID int64) error {
	exists, err := s.Provinces.ExistsByCode(ctx, code, excludeID)
	if err != nil {
		return fmt.Errorf("check province code: %w", err)
	}
	if exists {
		return ErrCodeExists
	}
	return nil
}

func normalizeRegion(r *domain.Region) {
	r.Code = strings.TrimSpace(r.Code)
	r.Name = strings.TrimSpace(r.Name)
}

func normalizeProvince(p *domain.Province) {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
}
