package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// authRequired extracts the Bearer token, authenticates it (including the
// revocation check), and stores the owner's user id in the request context.
// Handlers read the id from there and never trust a client-supplied one.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c.Request.Header.Get("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		userID, err := s.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func extractToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
