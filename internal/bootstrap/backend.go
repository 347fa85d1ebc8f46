// Package bootstrap opens the configured storage backend for the binaries.
package bootstrap

import (
	"context"
	"fmt"

	"scholarly/feedback-app/internal/config"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/repository"
	"scholarly/feedback-app/internal/repository/memory"
	"scholarly/feedback-app/internal/repository/mongo"
	"scholarly/feedback-app/internal/repository/postgres"
)

// Backend bundles the repositories of one storage driver.
type Backend struct {
	Tx          repository.Transactor
	Users       repository.UserRepository
	Services    repository.ServiceRepository
	Submissions repository.SubmissionRepository

	close func(ctx context.Context) error
}

// Close releases the underlying connection.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// OpenBackend connects to the database named by cfg.Driver and prepares its
// schema: indexes for Mongo, migrations for Postgres.
func OpenBackend(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		return openMongo(ctx, cfg, log)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverMemory:
		log.Warn(ctx, "using in-memory storage, data is lost on restart")
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func NewMemoryBackend() *Backend {
	store := memory.NewStore()
	return &Backend{
		Tx:          store,
		Users:       store.Users(),
		Services:    store.Services(),
		Submissions: store.Submissions(),
	}
}

func openMongo(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*Backend, error) {
	client, err := mongo.ConnectDB(ctx, cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	db := client.Database(cfg.Name)
	log.Info(ctx, "connected to mongo", "database", cfg.Name)

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		_ = mongo.DisconnectDB(client)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return &Backend{
		Tx:          mongo.NewTransactor(client),
		Users:       mongo.NewMongoUserRepository(db),
		Services:    mongo.NewMongoServiceRepository(db),
		Submissions: mongo.NewMongoSubmissionRepository(db),
		close: func(context.Context) error {
			return mongo.DisconnectDB(client)
		},
	}, nil
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*Backend, error) {
	db, err := postgres.Open(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info(ctx, "connected to postgres, migrations applied")

	return &Backend{
		Tx:          postgres.NewTransactor(db),
		Users:       postgres.NewUserRepository(db),
		Services:    postgres.NewServiceRepository(db),
		Submissions: postgres.NewSubmissionRepository(db),
		close: func(context.Context) error {
			return db.Close()
		},
	}, nil
}
