package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/linklens/worker/internal/identity"
)

// Validates the bearer token against the identity provider and requires a
// signed-in user. On success the user ID is stored in the context for the
// rate limiter and request logger.
func RequireAuth(verifier *identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			c.Abort()
			return
		}

		// Check Bearer prefix
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Use: Bearer <token>",
			})
			c.Abort()
			return
		}

		token := parts[1]

		userID, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			status, message := authError(err)
			c.JSON(status, gin.H{"error": message})
			c.Abort()
			return
		}

		c.Set("user_id", userID)

		c.Next()
	}
}

// Maps verifier errors onto the response taxonomy: missing configuration is
// the operator's fault (500), everything else is the caller's (401).
func authError(err error) (int, string) {
	switch {
	case errors.Is(err, identity.ErrNotConfigured):
		return http.StatusInternalServerError, "Identity provider is not configured"
	case errors.Is(err, identity.ErrSessionInvalid):
		return http.StatusUnauthorized, "Invalid or expired session"
	case errors.Is(err, identity.ErrBadResponse):
		return http.StatusUnauthorized, "Invalid auth response"
	case errors.Is(err, identity.ErrBadPayload):
		return http.StatusUnauthorized, "Invalid user payload"
	default:
		return http.StatusUnauthorized, err.Error()
	}
}
