package repo

import (
	"chatapp/internal/db"
	"chatapp/internal/model"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type conversationRepository struct {
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

// ConversationRepository is the membership half of the store collaborator.
type ConversationRepository interface {
	GetConversation(ctx context.Context, chatID string) (*model.Conversation, error)
	ListParticipants(ctx context.Context, chatID string) ([]string, error)
	ListUserConversations(ctx context.Context, userID string) ([]string, error)
	RemoveParticipant(ctx context.Context, chatID string, userID string) (bool, error)
}

func NewConversationRepository(repo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// GetConversation fetches a conversation document by ID. A missing or
// malformed id returns (nil, nil).
func (r *conversationRepository) GetConversation(ctx context.Context, chatID string) (*model.Conversation, error) {
	if chatID == "" {
		return nil, ErrInvalidChannelID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().ObjectID("_id", chatID).Build()
	conversation, err := withRetry(ctx, r.logger, "get_conversation", func(ctx context.Context) (*model.Conversation, error) {
		return r.mongoRepo.FindOne(ctx, filter)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("conversation not found", zap.String("chat_id", chatID))
			return nil, nil
		}
		r.logger.Error("failed to fetch conversation",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	r.logger.Debug("conversation retrieved successfully",
		zap.String("chat_id", chatID),
		zap.Int("participants_count", len(conversation.Participants)),
	)

	return conversation, nil
}

func (r *conversationRepository) ListParticipants(ctx context.Context, chatID string) ([]string, error) {
	conversation, err := r.GetConversation(ctx, chatID)
	if err != nil || conversation == nil {
		return nil, err
	}
	return conversation.Participants, nil
}

// ListUserConversations returns the ids of every chat userID participates in.
func (r *conversationRepository) ListUserConversations(ctx context.Context, userID string) ([]string, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("participants", userID).Build()
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	conversations, err := withRetry(ctx, r.logger, "list_user_conversations", func(ctx context.Context) ([]model.Conversation, error) {
		return r.mongoRepo.FindAll(ctx, filter, opts)
	})
	if err != nil {
		r.logger.Error("failed to list user conversations",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	ids := make([]string, 0, len(conversations))
	for _, c := range conversations {
		ids = append(ids, c.ID.Hex())
	}
	return ids, nil
}

// RemoveParticipant pulls userID from the chat. It reports false when the
// chat does not exist or userID was not a participant.
func (r *conversationRepository) RemoveParticipant(ctx context.Context, chatID string, userID string) (bool, error) {
	if chatID == "" {
		return false, ErrInvalidChannelID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().ObjectID("_id", chatID).Eq("participants", userID).Build()
	update := bson.M{"$pull": bson.M{"participants": userID}}

	_, err := withRetry(ctx, r.logger, "remove_participant", func(ctx context.Context) (*model.Conversation, error) {
		return r.mongoRepo.Apply(ctx, filter, update)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("failed to remove participant",
			zap.String("chat_id", chatID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return false, fmt.Errorf("failed to remove participant: %w", err)
	}

	return true, nil
}
