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

const serviceColumns = `id, name, description, unit_price, turnaround_hours, is_express, created_at`

type ServiceRepository struct {
	db dbx.DBTX
}

func NewServiceRepository(db dbx.DBTX) *ServiceRepository {
	return &ServiceRepository{db: db}
}

var _ repository.ServiceRepository = (*ServiceRepository)(nil)

func (r *ServiceRepository) Create(ctx context.Context, service *domain.Service) (string, error) {
	if service.ID == "" {
		service.ID = uuid.Must(uuid.NewV7()).String()
	}
	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now().UTC()
	}

	query :=
		`INSERT INTO services (` + serviceColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := dbx.Conn(ctx, r.db).ExecContext(ctx, query,
		service.ID, service.Name, service.Description, service.UnitPrice,
		service.TurnaroundHours, service.IsExpress, service.CreatedAt)
	if err != nil {
		return "", wrapErr("insert service", err)
	}
	return service.ID, nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	var s domain.Service
	err := dbx.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.UnitPrice, &s.TurnaroundHours, &s.IsExpress, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, wrapErr("select service", err)
	}
	return &s, nil
}

func (r *ServiceRepository) List(ctx context.Context) ([]domain.Service, error) {
	rows, err := dbx.Conn(ctx, r.db).QueryContext(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY id`)
	if err != nil {
		return nil, wrapErr("list services", err)
	}
	defer rows.Close()

	services := []domain.Service{}
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.UnitPrice, &s.TurnaroundHours, &s.IsExpress, &s.CreatedAt); err != nil {
			return nil, wrapErr("scan service", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list services", err)
	}
	return services, nil
}
