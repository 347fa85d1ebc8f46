package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"scholarly/feedback-app/internal/domain"
	"scholarly/feedback-app/internal/logging"
	"scholarly/feedback-app/internal/service"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}
		if !authenticate(c, jwtSecret, authHeader) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware lets guests through. A request that does send a
// token must send a valid one.
func OptionalAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && !authenticate(c, jwtSecret, authHeader) {
			return
		}
		c.Next()
	}
}

// authenticate validates the bearer token and stores the claims in the
// context. It aborts the request and returns false on failure.
func authenticate(c *gin.Context, jwtSecret, authHeader string) bool {
	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
		return false
	}

	claims, err := service.ParseToken(jwtSecret, parts[1])
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			abortWithError(c, http.StatusUnauthorized, "Token has expired")
		} else {
			abortWithError(c, http.StatusUnauthorized, "Invalid token")
		}
		return false
	}

	c.Set(ContextUserIDKey, claims.UserID)
	c.Set(ContextUserRoleKey, claims.Role)
	return true
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, err := getUserRoleFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
	}
}

// RequestLogger logs one line per request, and the errors handlers attached
// with c.Error.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if uid, err := getUserIDFromContext(c); err == nil {
			args = append(args, "user_id", uid)
		}

		switch {
		case len(c.Errors) > 0:
			log.Error(c.Request.Context(), "request failed", append(args, "error", c.Errors.String())...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error(c.Request.Context(), "request failed", args...)
		default:
			log.Info(c.Request.Context(), "request handled", args...)
		}
	}
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

// optionalUserID returns nil for guests.
func optionalUserID(c *gin.Context) *string {
	id, err := getUserIDFromContext(c)
	if err != nil || id == "" {
		return nil
	}
	return &id
}

// Helper function to get User Role from context (used by handlers)
func getUserRoleFromContext(c *gin.Context) (domain.Role, error) {
	roleRaw, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleRaw.(domain.Role)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}
