package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/repository/memory"
)

// steppingClock returns a strictly increasing time on every call.
type steppingClock struct {
	mu   sync.Mutex
	next time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{next: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.next
	c.next = c.next.Add(time.Minute)
	return t
}

type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string]bool
	deleted  []string
	presign  error
	headErr  error
	deleteFn func(key string) error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]bool{}}
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, contentType string, expires time.Duration) (string, error) {
	if f.presign != nil {
		return "", f.presign
	}
	return fmt.Sprintf("https://bucket.example/%s?put=1&type=%s&exp=%d", key, contentType, int(expires.Seconds())), nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, expires time.Duration) (string, error) {
	if f.presign != nil {
		return "", f.presign
	}
	return fmt.Sprintf("https://bucket.example/%s?get=1&exp=%d", key, int(expires.Seconds())), nil
}

func (f *fakeStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if f.headErr != nil {
		return false, f.headErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[key], nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	if f.deleteFn != nil {
		return f.deleteFn(key)
	}
	return nil
}

func (f *fakeStorage) put(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = true
}

func (f *fakeStorage) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type engineFixture struct {
	store    *memory.Store
	clock    *steppingClock
	files    *fakeStorage
	svc      SubmissionService
	queries  SubmissionQueries
	standard domain.Service
	express  domain.Service
}

func newEngineFixture(t *testing.T, opts ...SubmissionOption) *engineFixture {
	t.Helper()
	ctx := context.Background()

	f := &engineFixture{
		store: memory.NewStore(),
		clock: newSteppingClock(),
		files: newFakeStorage(),
	}

	f.standard = domain.Service{ID: "svc-standard", Name: "Standard Review", UnitPrice: 1500, TurnaroundHours: 72}
	f.express = domain.Service{ID: "svc-express", Name: "Express Review", UnitPrice: 3000, TurnaroundHours: 24, IsExpress: true}
	for _, s := range []*domain.Service{&f.standard, &f.express} {
		_, err := f.store.Services().Create(ctx, s)
		require.NoError(t, err)
	}

	all := append([]SubmissionOption{WithClock(f.clock.Now), WithUploadCleanup(f.files)}, opts...)
	f.svc = NewSubmissionService(f.store, f.store.Users(), f.store.Services(), f.store.Submissions(), logging.Nop(), all...)
	f.queries = NewSubmissionQueries(f.store.Submissions())
	return f
}

func (f *engineFixture) addStudent(t *testing.T, username string) string {
	t.Helper()
	id, err := f.store.Users().Create(context.Background(), &domain.User{Username: username, Role: domain.RoleStudent})
	require.NoError(t, err)
	return id
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func textInput(userID *string, serviceID string, wordCount int) CreateSubmissionInput {
	content := words(wordCount)
	return CreateSubmissionInput{
		UserID:             userID,
		ServiceID:          serviceID,
		Title:              "My essay",
		Content:            &content,
		PromptInstructions: "Please review the argument structure.",
		TermsAccepted:      true,
	}
}

func strPtr(s string) *string { return &s }
