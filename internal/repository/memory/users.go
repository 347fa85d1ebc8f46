package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/repository"
)

type userRecord struct {
	user domain.User
	seq  uint64
}

type UserRepository struct {
	store *Store
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if strings.EqualFold(rec.user.Username, user.Username) {
			return "", fmt.Errorf("username %q: %w", user.Username, repository.ErrDuplicate)
		}
	}
	if user.ID == "" {
		user.ID = uuid.Must(uuid.NewV7()).String()
	}
	if user.CreatedAt.IsZero() {
		now := time.Now().UTC()
		user.CreatedAt = now
		user.UpdatedAt = now
	}
	if _, exists := s.users[user.ID]; exists {
		return "", fmt.Errorf("user %s: %w", user.ID, repository.ErrDuplicate)
	}

	id := user.ID
	s.users[id] = userRecord{user: *user, seq: s.nextSeq()}
	s.record(ctx, func() { delete(s.users, id) })
	return id, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u := rec.user
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if strings.EqualFold(rec.user.Username, username) {
			u := rec.user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) IncrementSubmissionCount(ctx context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	prev := rec
	rec.user.SubmissionCount++
	s.users[id] = rec
	s.record(ctx, func() { s.users[id] = prev })
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	prev := rec
	rec.user.Name = name
	rec.user.Email = email
	rec.user.UpdatedAt = time.Now().UTC()
	s.users[id] = rec
	s.record(ctx, func() { s.users[id] = prev })

	u := rec.user
	return &u, nil
}
