package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTManager_IssueAndResolve(t *testing.T) {
	manager := NewJWTManager(JWTConfig{SecretKey: "test-secret-key", Issuer: "test-issuer"})

	token, err := manager.IssueToken("user-123")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	userID, err := manager.ResolveUserID(token)
	if err != nil {
		t.Fatalf("ResolveUserID() error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("ResolveUserID() = %v, want %v", userID, "user-123")
	}
}

func TestJWTManager_ResolveRejects(t *testing.T) {
	manager := NewJWTManager(JWTConfig{SecretKey: "test-secret-key", Issuer: "test-issuer"})

	otherKey, _ := NewJWTManager(JWTConfig{SecretKey: "other-key", Issuer: "test-issuer"}).IssueToken("user-1")
	otherIssuer, _ := NewJWTManager(JWTConfig{SecretKey: "test-secret-key", Issuer: "someone-else"}).IssueToken("user-1")
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "test-issuer",
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("test-secret-key"))
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "test-issuer",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret-key"))

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrInvalidToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"wrong key", otherKey, ErrInvalidToken},
		{"wrong issuer", otherIssuer, ErrInvalidToken},
		{"no subject", noSubject, ErrInvalidToken},
		{"expired", expired, ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.ResolveUserID(tt.token)
			if err == nil {
				t.Fatal("ResolveUserID() expected error, got nil")
			}
			if err != tt.wantErr {
				t.Errorf("ResolveUserID() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
