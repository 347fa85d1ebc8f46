package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/repository"
)

type serviceRecord struct {
	service domain.Service
	seq     uint64
}

type ServiceRepository struct {
	store *Store
}

var _ repository.ServiceRepository = (*ServiceRepository)(nil)

func (r *ServiceRepository) Create(ctx context.Context, service *domain.Service) (string, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if service.ID == "" {
		service.ID = uuid.Must(uuid.NewV7()).String()
	}
	if _, exists := s.services[service.ID]; exists {
		return "", fmt.Errorf("service %s: %w", service.ID, repository.ErrDuplicate)
	}

	id := service.ID
	s.services[id] = serviceRecord{service: *service, seq: s.nextSeq()}
	s.record(ctx, func() { delete(s.services, id) })
	return id, nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	svc := rec.service
	return &svc, nil
}

// List returns the catalog in insertion order.
func (r *ServiceRepository) List(ctx context.Context) ([]domain.Service, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := make([]serviceRecord, 0, len(s.services))
	for _, rec := range s.services {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]domain.Service, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.service)
	}
	return out, nil
}
