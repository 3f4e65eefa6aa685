package handler

import (
	"chatapp/internal/auth"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubTokens map[string]string

func (s stubTokens) ResolveUserID(token string) (string, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return "", auth.ErrInvalidToken
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{"missing authorization header", "", http.StatusUnauthorized, `"Authorization header is required"`},
		{"no bearer prefix", "Basic abc", http.StatusUnauthorized, "Invalid authorization header format"},
		{"bearer without token", "Bearer   ", http.StatusUnauthorized, `"Token is required"`},
		{"invalid token", "Bearer forged", http.StatusUnauthorized, `"Invalid or expired token"`},
		{"valid token", "Bearer good", http.StatusOK, `"user_id":"alice"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/me", AuthMiddleware(stubTokens{"good": "alice"}), func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"user_id": CurrentUserID(c)})
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
		})
	}
}
