package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/repository/memory"
)

const testSecret = "test-secret"

func newAuth(t *testing.T) (AuthService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewAuthService(store.Users(), testSecret, time.Hour, logging.Nop()), store
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{Username: "alice", Name: "Alice", Email: "alice@example.com", Password: "correct-horse"}, domain.RoleStudent)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Empty(t, user.PasswordHash)
	assert.Equal(t, domain.RoleStudent, user.Role)

	token, loggedIn, err := auth.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Empty(t, loggedIn.PasswordHash)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, domain.RoleStudent, claims.Role)
	assert.Equal(t, tokenIssuer, claims.Issuer)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	got, err := auth.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
}

func TestAuth_RegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, RegisterInput{Username: "bob", Password: "password1"}, domain.RoleStudent)
	require.NoError(t, err)

	_, err = auth.Register(ctx, RegisterInput{Username: "BOB", Password: "password2"}, domain.RoleStudent)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = auth.Register(ctx, RegisterInput{Username: "x", Password: "password1"}, domain.RoleStudent)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = auth.Register(ctx, RegisterInput{Username: "carol", Password: "short"}, domain.RoleStudent)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = auth.Register(ctx, RegisterInput{Username: "carol", Password: "password1", Email: "not-an-email"}, domain.RoleStudent)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = auth.Register(ctx, RegisterInput{Username: "carol", Password: "password1"}, domain.Role("admin"))
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestAuth_LoginFailures(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, RegisterInput{Username: "dana", Password: "password1"}, domain.RoleStaff)
	require.NoError(t, err)

	_, _, err = auth.Login(ctx, "dana", "wrong-password")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, _, err = auth.Login(ctx, "nobody", "password1")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, _, err = auth.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrValidationFailed)

	token, user, err := auth.Login(ctx, "dana", "password1")
	require.NoError(t, err)
	assert.True(t, user.IsStaff())
	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, claims.Role)
}

func TestAuth_UpdateProfile(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{Username: "grace", Name: "Grace", Email: "grace@example.com", Password: "password1"}, domain.RoleStudent)
	require.NoError(t, err)

	got, err := auth.UpdateProfile(ctx, user.ID, ProfileInput{Name: strPtr("  Grace Hopper ")})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", got.Name)
	assert.Equal(t, "grace@example.com", got.Email, "unset fields keep their value")
	assert.Equal(t, "grace", got.Username)
	assert.Empty(t, got.PasswordHash)

	got, err = auth.UpdateProfile(ctx, user.ID, ProfileInput{Email: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, got.Email)
	assert.Equal(t, "Grace Hopper", got.Name)

	_, err = auth.UpdateProfile(ctx, user.ID, ProfileInput{Email: strPtr("not-an-email")})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = auth.UpdateProfile(ctx, user.ID, ProfileInput{Name: strPtr(strings.Repeat("x", 101))})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = auth.UpdateProfile(ctx, "ghost", ProfileInput{Name: strPtr("Nobody")})
	assert.ErrorIs(t, err, ErrUserNotFound)

	// The password is untouched.
	_, _, err = auth.Login(ctx, "grace", "password1")
	require.NoError(t, err)
}

func TestParseToken_RejectsExpiredAndIncomplete(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: "u1",
		Role:   domain.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseToken(testSecret, signed)
	assert.Error(t, err)

	noRole := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "u1"})
	signed, err = noRole.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseToken(testSecret, signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewAuthService_PanicsWithoutSecret(t *testing.T) {
	assert.Panics(t, func() {
		NewAuthService(memory.NewStore().Users(), "", time.Hour, logging.Nop())
	})
}
