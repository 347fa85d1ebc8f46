package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this username already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid username or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidToken         = errors.New("invalid token")
)

const tokenIssuer = "scholarly-feedback"

// RegisterInput is validated with struct tags before anything is stored.
type RegisterInput struct {
	Username string `validate:"required,min=3,max=50,alphanum"`
	Name     string `validate:"max=100"`
	Email    string `validate:"omitempty,email"`
	Password string `validate:"required,min=8,max=72"` // bcrypt ignores bytes past 72
}

// ProfileInput changes the display fields of an account. Nil fields keep
// their stored value; an empty Email clears it.
type ProfileInput struct {
	Name  *string
	Email *string
}

type profileFields struct {
	Name  string `validate:"max=100"`
	Email string `validate:"omitempty,email"`
}

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// --- Service Interface ---
type AuthService interface {
	Register(ctx context.Context, in RegisterInput, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, username, password string) (token string, user *domain.User, err error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, in ProfileInput) (*domain.User, error)
	GetJWTSecret() string
}

// --- Service Implementation ---

type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	log           logging.Logger
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration, log logging.Logger) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		log:           log,
	}
}

// Register creates an account with the given role.
func (s *authService) Register(ctx context.Context, in RegisterInput, role domain.Role) (*domain.User, error) {
	in.Username = normalizeUsername(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if role != domain.RoleStudent && role != domain.RoleStaff {
		return nil, validationError("unknown role %q", role)
	}

	_, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storageError("lookup user", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Username:     in.Username,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	// The unique index catches a registration racing between the lookup and here.
	if _, err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, storageError("create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", string(role))
	user.PasswordHash = ""
	return user, nil
}

// Login checks the password and issues a signed JWT.
func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, validationError("username and password are required")
	}

	user, err := s.userRepo.GetByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, storageError("lookup user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err := s.generateJWT(user)
	if err != nil {
		s.log.Error(ctx, "signing token failed", "user_id", user.ID, "error", err)
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("get user", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile sets the name and email of an account. Username, role and
// password are not changed here.
func (s *authService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*domain.User, error) {
	current, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := profileFields{Name: current.Name, Email: current.Email}
	if in.Name != nil {
		fields.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		fields.Email = strings.TrimSpace(*in.Email)
	}
	if err := validateStruct(fields); err != nil {
		return nil, err
	}

	user, err := s.userRepo.UpdateProfile(ctx, id, fields.Name, fields.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storageError("update profile", err)
	}

	s.log.Info(ctx, "profile updated", "user_id", id)
	user.PasswordHash = ""
	return user, nil
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}

// Usernames are stored lower-cased so every backend compares them the same way.
func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

// --- JWT Helpers ---

func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken verifies an HS256 token and returns its claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
