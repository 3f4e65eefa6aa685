package handler

import (
	"chatapp/internal/auth"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// UserContextKey is the gin context key holding the authenticated user id.
const UserContextKey = "user_id"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// AuthMiddleware requires a valid bearer token and stores its subject.
func AuthMiddleware(tokens auth.TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "Invalid authorization header format. Use: Bearer <token>")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			abortUnauthorized(c, "Token is required")
			return
		}

		userID, err := tokens.ResolveUserID(token)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(UserContextKey, userID)
		c.Next()
	}
}

// CurrentUserID returns the user id stored by AuthMiddleware.
func CurrentUserID(c *gin.Context) string {
	return c.GetString(UserContextKey)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
