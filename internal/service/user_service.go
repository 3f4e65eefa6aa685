package service

import (
	"chatapp/internal/repo"
	"context"

	"go.uber.org/zap"
)

const unknownSender = "Unknown"

// PresenceChecker reports live presence.
type PresenceChecker interface {
	IsOnline(userID string) bool
}

// UserStatus is the public presence view of a user.
type UserStatus struct {
	UserID   string `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

type UserService interface {
	DisplayName(ctx context.Context, userID string) string
	Status(userID string) UserStatus
}

type userService struct {
	repo     repo.UserRepository
	presence PresenceChecker
	logger   *zap.Logger
}

func NewUserService(repo repo.UserRepository, presence PresenceChecker, logger *zap.Logger) UserService {
	return &userService{
		repo:     repo,
		presence: presence,
		logger:   logger,
	}
}

// DisplayName resolves the name shown next to a user's messages.
func (s *userService) DisplayName(ctx context.Context, userID string) string {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.logger.Warn("sender lookup failed", zap.String("user_id", userID), zap.Error(err))
		return unknownSender
	}
	if user == nil {
		return unknownSender
	}
	return user.DisplayName()
}

func (s *userService) Status(userID string) UserStatus {
	return UserStatus{UserID: userID, IsOnline: s.presence.IsOnline(userID)}
}
