package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"scholarly/feedback-app/internal/dbx"
	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/repository"
)

const userColumns = `id, username, name, email, password_hash, role, submission_count, created_at, updated_at`

type UserRepository struct {
	db dbx.DBTX
}

func NewUserRepository(db dbx.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	if user.ID == "" {
		user.ID = uuid.Must(uuid.NewV7()).String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query :=
		`INSERT INTO users (id, username, name, email, password_hash, role, submission_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := dbx.Conn(ctx, r.db).ExecContext(ctx, query,
		user.ID, user.Username, user.Name, user.Email, user.PasswordHash,
		string(user.Role), user.SubmissionCount, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return "", wrapErr("insert user", err)
	}
	return user.ID, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := dbx.Conn(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash, &role,
		&u.SubmissionCount, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr("select user", err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// IncrementSubmissionCount takes the row lock on the user, which serialises
// concurrent creations for the same user inside a transaction.
func (r *UserRepository) IncrementSubmissionCount(ctx context.Context, id string) error {
	query :=
		`UPDATE users SET submission_count = submission_count + 1, updated_at = now()
		 WHERE id = $1`

	res, err := dbx.Conn(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return wrapErr("increment submission count", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("increment submission count", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error) {
	query :=
		`UPDATE users SET name = $2, email = $3, updated_at = $4
		 WHERE id = $1
		 RETURNING ` + userColumns
	return r.getOne(ctx, query, id, name, email, time.Now().UTC())
}
