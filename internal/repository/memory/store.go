// Package memory holds an in-process implementation of the repository
// interfaces. It is used by tests and by the server in local development.
package memory

import (
	"context"
	"sync"

	"scholarly/feedback-app/internal/repository"
)

type txKey struct{}

// undo restores one record to its state before a transactional write.
type undo func()

type journal struct {
	steps []undo
}

// Store keeps every collection in maps guarded by one mutex. Transactions are
// serialised by a second mutex and rolled back with an undo journal.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users       map[string]userRecord
	services    map[string]serviceRecord
	submissions map[string]submissionRecord
	seq         uint64 // insertion order, used as a tie breaker
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]userRecord),
		services:    make(map[string]serviceRecord),
		submissions: make(map[string]submissionRecord),
	}
}

var _ repository.Transactor = (*Store)(nil)

// WithinTransaction runs fn while holding the transaction lock. Writes made
// through ctx are undone when fn returns an error or panics.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, nested := ctx.Value(txKey{}).(*journal); nested {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	j := &journal{}
	defer func() {
		if p := recover(); p != nil {
			s.rollback(j)
			panic(p)
		}
		if err != nil {
			s.rollback(j)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, j))
}

func (s *Store) rollback(j *journal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(j.steps) - 1; i >= 0; i-- {
		j.steps[i]()
	}
}

// record registers an undo step when ctx belongs to a transaction.
// Must be called with s.mu held.
func (s *Store) record(ctx context.Context, u undo) {
	if j, ok := ctx.Value(txKey{}).(*journal); ok {
		j.steps = append(j.steps, u)
	}
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

func (s *Store) Services() *ServiceRepository {
	return &ServiceRepository{store: s}
}

func (s *Store) Submissions() *SubmissionRepository {
	return &SubmissionRepository{store: s}
}
