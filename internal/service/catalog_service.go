package service

import (
	"context"
	"errors"
	"fmt"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/repository"
)

// CatalogService exposes the pricing tiers students choose from.
type CatalogService interface {
	ListServices(ctx context.Context) ([]domain.Service, error)
	GetService(ctx context.Context, id string) (*domain.Service, error)
	// SeedDefaults installs domain.DefaultServices when the catalog is empty
	// and returns how many tiers were created.
	SeedDefaults(ctx context.Context) (int, error)
}

type catalogService struct {
	services repository.ServiceRepository
	log      logging.Logger
}

func NewCatalogService(services repository.ServiceRepository, log logging.Logger) CatalogService {
	return &catalogService{services: services, log: log}
}

func (s *catalogService) ListServices(ctx context.Context) ([]domain.Service, error) {
	list, err := s.services.List(ctx)
	if err != nil {
		return nil, storageError("list services", err)
	}
	return list, nil
}

func (s *catalogService) GetService(ctx context.Context, id string) (*domain.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
		}
		return nil, storageError("get service", err)
	}
	return svc, nil
}

func (s *catalogService) SeedDefaults(ctx context.Context) (int, error) {
	existing, err := s.services.List(ctx)
	if err != nil {
		return 0, storageError("list services", err)
	}
	if len(existing) > 0 {
		s.log.Info(ctx, "catalog already seeded", "services", len(existing))
		return 0, nil
	}

	created := 0
	for _, svc := range domain.DefaultServices() {
		svc := svc
		id, err := s.services.Create(ctx, &svc)
		if err != nil {
			return created, storageError("create service "+svc.Name, err)
		}
		s.log.Info(ctx, "service created", "service_id", id, "name", svc.Name, "unit_price", svc.UnitPrice)
		created++
	}
	return created, nil
}
