package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docstack/docstack/internal/blacklist"
	"github.com/docstack/docstack/internal/models"
	"github.com/docstack/docstack/internal/tokens"
	"github.com/docstack/docstack/internal/users"
)

const userContextKey = "user"

// RequireAuth verifies the Bearer token, re-resolves the user from the store
// and attaches it to the request context. Failures carry a machine-readable
// error code alongside the message.
func RequireAuth(secret string, usersSvc *users.Service, revoked *blacklist.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Access token required", "error": "MISSING_TOKEN"})
			return
		}
		if hit, err := revoked.Contains(c.Request.Context(), raw); err == nil && hit {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token", "error": "INVALID_TOKEN"})
			return
		}
		claims, err := tokens.Parse(secret, raw)
		if err != nil {
			if errors.Is(err, tokens.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token expired", "error": "TOKEN_EXPIRED"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token", "error": "INVALID_TOKEN"})
			return
		}
		u, err := usersSvc.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found", "error": "USER_NOT_FOUND"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Authentication error", "error": "AUTH_ERROR"})
			return
		}
		c.Set(userContextKey, u)
		c.Next()
	}
}

// OptionalAuth never fails: a missing or invalid token simply leaves the
// request anonymous.
func OptionalAuth(secret string, usersSvc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.Next()
			return
		}
		claims, err := tokens.Parse(secret, raw)
		if err != nil {
			c.Next()
			return
		}
		if u, err := usersSvc.GetByID(c.Request.Context(), claims.UserID); err == nil {
			c.Set(userContextKey, u)
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated user attached by RequireAuth, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(c *gin.Context) string { return bearerToken(c) }

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
