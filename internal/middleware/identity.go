package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// userIDKey is the key used to store the calling user's ID in the Gin context.
const userIDKey = contextKey("userID")

// userIDHeader carries the authenticated user identity. Authentication and
// authorization happen in the upstream gateway; this service only reads the
// identity it forwards, for audit fields and owner-level checks made there.
const userIDHeader = "X-User-ID"

// RequireIdentity extracts the forwarded user identity and rejects requests
// without one.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(userIDHeader)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing user identity"})
			return
		}
		c.Set(string(userIDKey), userID)
		c.Next()
	}
}

// GetUserIDFromContext retrieves the calling user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		return "", false
	}

	userID, ok := userIDVal.(string)
	if !ok {
		return "", false
	}

	return userID, true
}
