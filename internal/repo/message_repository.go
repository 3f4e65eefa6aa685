package repo

import (
	"chatapp/internal/db"
	"chatapp/internal/model"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

// MessageRepository is the message half of the store collaborator.
// Single-document lookups return (nil, nil) when the message does not exist.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg *model.Message) (string, error)
	GetMessage(ctx context.Context, id string) (*model.Message, error)
	UpdateMessage(ctx context.Context, id string, patch model.MessagePatch) (*model.Message, error)
	AppendReadBy(ctx context.Context, id string, userID string) (*model.Message, error)
	ToggleReaction(ctx context.Context, id string, userID, emoji string) (*model.Message, error)
	UpdateMessageMany(ctx context.Context, filter model.MessageFilter, patch model.MessagePatch) (int64, error)
	FindMessageIDs(ctx context.Context, filter model.MessageFilter) ([]string, error)
	ListMessages(ctx context.Context, chatID string, page int64) (*db.PaginatedResult[model.Message], error)
}

func NewMessageRepository(repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// CreateMessage
// -----------------------------------------------------------------------------

func (m *messageRepository) CreateMessage(ctx context.Context, msg *model.Message) (string, error) {
	if msg == nil {
		return "", ErrInvalidMessage
	}
	if msg.ChatID == "" {
		return "", ErrInvalidChannelID
	}

	// Assign the id client side so retries after a lost ack cannot duplicate.
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}
	// $addToSet rejects a null field
	if msg.ReadBy == nil {
		msg.ReadBy = []string{}
	}
	// reactions.<emoji> paths need an embedded document to land in
	if msg.Reactions == nil {
		msg.Reactions = map[string][]string{}
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := withRetry(ctx, m.logger, "create_message", func(ctx context.Context) (*mongo.InsertOneResult, error) {
		res, err := m.mongoRepo.Create(ctx, *msg)
		if mongo.IsDuplicateKeyError(err) {
			return &mongo.InsertOneResult{InsertedID: msg.ID}, nil
		}
		return res, err
	})
	if err != nil {
		m.logger.Error("failed to insert message",
			zap.Error(err),
			zap.String("chat_id", msg.ChatID),
		)
		return "", fmt.Errorf("insert message failed: %w", err)
	}

	m.logger.Info("message inserted successfully",
		zap.String("message_id", msg.ID.Hex()),
		zap.String("chat_id", msg.ChatID),
	)
	return msg.ID.Hex(), nil
}

// -----------------------------------------------------------------------------
// GetMessage
// -----------------------------------------------------------------------------

func (m *messageRepository) GetMessage(ctx context.Context, id string) (*model.Message, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		m.logger.Debug("invalid message ID format", zap.String("message_id", id))
		return nil, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	msg, err := withRetry(ctx, m.logger, "get_message", func(ctx context.Context) (*model.Message, error) {
		return m.mongoRepo.FindOne(ctx, bson.M{"_id": objectID})
	})
	return m.single(msg, err, id, "get message")
}

// -----------------------------------------------------------------------------
// UpdateMessage - content mutations never touch a deleted message
// -----------------------------------------------------------------------------

func (m *messageRepository) UpdateMessage(ctx context.Context, id string, patch model.MessagePatch) (*model.Message, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	update := patchToUpdate(patch)
	if len(update) == 0 {
		return m.GetMessage(ctx, id)
	}

	filter := db.NewFilter().Eq("_id", objectID).Ne("is_deleted", true).Build()

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	msg, err := withRetry(ctx, m.logger, "update_message", func(ctx context.Context) (*model.Message, error) {
		return m.mongoRepo.Apply(ctx, filter, update)
	})
	return m.single(msg, err, id, "update message")
}

// -----------------------------------------------------------------------------
// AppendReadBy - $addToSet keeps read_by a set under concurrent writers
// -----------------------------------------------------------------------------

func (m *messageRepository) AppendReadBy(ctx context.Context, id string, userID string) (*model.Message, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	update := bson.M{"$addToSet": bson.M{"read_by": userID}}
	msg, err := withRetry(ctx, m.logger, "append_read_by", func(ctx context.Context) (*model.Message, error) {
		return m.mongoRepo.Apply(ctx, bson.M{"_id": objectID}, update)
	})
	return m.single(msg, err, id, "append read_by")
}

// -----------------------------------------------------------------------------
// ToggleReaction - one conditional update per pass: $pull when the user is in
// reactions.<emoji>, $addToSet when not. Other users' toggles never conflict.
// -----------------------------------------------------------------------------

func (m *messageRepository) ToggleReaction(ctx context.Context, id string, userID, emoji string) (*model.Message, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	field := "reactions." + emoji
	live := func() *db.FilterBuilder {
		return db.NewFilter().Eq("_id", objectID).Ne("is_deleted", true)
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		msg, err := withRetry(ctx, m.logger, "pull_reaction", func(ctx context.Context) (*model.Message, error) {
			return m.mongoRepo.Apply(ctx, live().Eq(field, userID).Build(), bson.M{"$pull": bson.M{field: userID}})
		})
		if err == nil {
			if len(msg.Reactions[emoji]) > 0 {
				return msg, nil
			}
			return m.dropEmptyReaction(ctx, objectID, id, emoji)
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return m.single(nil, err, id, "toggle reaction")
		}

		msg, err = withRetry(ctx, m.logger, "add_reaction", func(ctx context.Context) (*model.Message, error) {
			return m.mongoRepo.Apply(ctx, live().Ne(field, userID).Build(), bson.M{"$addToSet": bson.M{field: userID}})
		})
		if err == nil {
			return msg, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return m.single(nil, err, id, "toggle reaction")
		}

		// Neither branch matched: the message is gone or deleted, or the same
		// user toggled again between the two passes.
		current, err := m.GetMessage(ctx, id)
		if err != nil || current == nil || current.IsDeleted {
			return nil, err
		}
	}

	m.logger.Warn("reaction toggle gave up",
		zap.String("message_id", id),
		zap.String("user_id", userID),
	)
	return nil, ErrReactionConflict
}

// dropEmptyReaction unsets reactions.<emoji> only while it is still empty,
// so a concurrent add is kept.
func (m *messageRepository) dropEmptyReaction(ctx context.Context, objectID primitive.ObjectID, id, emoji string) (*model.Message, error) {
	field := "reactions." + emoji
	filter := bson.M{"_id": objectID, field: bson.M{"$size": 0}}

	msg, err := withRetry(ctx, m.logger, "unset_reaction", func(ctx context.Context) (*model.Message, error) {
		return m.mongoRepo.Apply(ctx, filter, bson.M{"$unset": bson.M{field: ""}})
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m.GetMessage(ctx, id)
	}
	return m.single(msg, err, id, "unset reaction")
}

// -----------------------------------------------------------------------------
// UpdateMessageMany / FindMessageIDs
// -----------------------------------------------------------------------------

func (m *messageRepository) UpdateMessageMany(ctx context.Context, filter model.MessageFilter, patch model.MessagePatch) (int64, error) {
	if filter.ChatID == "" {
		return 0, ErrInvalidChannelID
	}

	update := patchToUpdate(patch)
	if len(update) == 0 {
		return 0, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	res, err := withRetry(ctx, m.logger, "update_message_many", func(ctx context.Context) (*mongo.UpdateResult, error) {
		return m.mongoRepo.ApplyMany(ctx, buildMessageFilter(filter), update)
	})
	if err != nil {
		m.logger.Error("bulk message update failed",
			zap.String("chat_id", filter.ChatID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("update messages failed: %w", err)
	}

	return res.ModifiedCount, nil
}

func (m *messageRepository) FindMessageIDs(ctx context.Context, filter model.MessageFilter) ([]string, error) {
	if filter.ChatID == "" {
		return nil, ErrInvalidChannelID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	docs, err := withRetry(ctx, m.logger, "find_message_ids", func(ctx context.Context) ([]model.Message, error) {
		return m.mongoRepo.FindAll(ctx, buildMessageFilter(filter), opts)
	})
	if err != nil {
		return nil, fmt.Errorf("find messages failed: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID.Hex())
	}
	return ids, nil
}

// -----------------------------------------------------------------------------
// ListMessages
// -----------------------------------------------------------------------------

func (m *messageRepository) ListMessages(ctx context.Context, chatID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if chatID == "" {
		return nil, ErrInvalidChannelID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("chat_id", chatID).Build()
	result, err := withRetry(ctx, m.logger, "list_messages", func(ctx context.Context) (*db.PaginatedResult[model.Message], error) {
		return m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
			Page:     page,
			PageSize: messagesPageSize,
			SortBy:   "created_at",
		})
	})
	if err != nil {
		m.logger.Error("read failed", zap.Error(err), zap.String("chat_id", chatID))
		return nil, fmt.Errorf("list messages failed: %w", err)
	}

	m.logger.Debug("messages listed",
		zap.String("chat_id", chatID),
		zap.Int("count", len(result.Data)),
		zap.Int64("total", result.Total),
	)
	return result, nil
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (m *messageRepository) single(msg *model.Message, err error, id, op string) (*model.Message, error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		m.logger.Debug("message not found", zap.String("message_id", id), zap.String("op", op))
		return nil, nil
	}
	if err != nil {
		m.logger.Error("message operation failed",
			zap.String("message_id", id),
			zap.String("op", op),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s failed: %w", op, err)
	}
	return msg, nil
}

func buildMessageFilter(f model.MessageFilter) bson.M {
	b := db.NewFilter().Eq("chat_id", f.ChatID)
	if f.ExcludeSender != "" {
		b.Ne("sender_id", f.ExcludeSender)
	}
	if f.NotReadBy != "" {
		b.Ne("read_by", f.NotReadBy)
	}
	if !f.IncludeDeleted {
		b.Ne("is_deleted", true)
	}
	if len(f.IDs) > 0 {
		ids := make([]primitive.ObjectID, 0, len(f.IDs))
		for _, id := range f.IDs {
			if oid, err := primitive.ObjectIDFromHex(id); err == nil {
				ids = append(ids, oid)
			}
		}
		b.In("_id", ids)
	}
	return b.Build()
}

func patchToUpdate(p model.MessagePatch) bson.M {
	set := bson.M{}
	if p.Content != nil {
		set["content"] = *p.Content
	}
	if p.EditedAt != nil {
		set["edited_at"] = *p.EditedAt
	}
	if p.IsDeleted != nil {
		set["is_deleted"] = *p.IsDeleted
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if p.AddReadBy != "" {
		update["$addToSet"] = bson.M{"read_by": p.AddReadBy}
	}
	return update
}
