package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarly/feedback-app/internal/config"
	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/logging"
)

func TestOpenBackend_Memory(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBackend(ctx, config.DatabaseConfig{Driver: config.DriverMemory}, logging.Nop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, b.Close(ctx)) }()

	err = b.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := b.Users.Create(ctx, &domain.User{Username: "x", Role: domain.RoleStudent})
		return err
	})
	require.NoError(t, err)

	u, err := b.Users.GetByUsername(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, u.Role)
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	_, err := OpenBackend(context.Background(), config.DatabaseConfig{Driver: "sqlite"}, logging.Nop())
	assert.ErrorContains(t, err, "unknown database driver")
}
