package service

import (
	"chatapp/internal/db"
	"chatapp/internal/event"
	"chatapp/internal/hub"
	"chatapp/internal/model"
	"chatapp/internal/repo"
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrChatNotFound       = errors.New("chat not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrMessageDeleted     = errors.New("message is deleted")
	ErrNotSender          = errors.New("only the sender can modify this message")
	ErrNotParticipant     = errors.New("user is not a participant of this chat")
	ErrNotCreator         = errors.New("only the group creator can remove other participants")
	ErrEmptyContent       = errors.New("message content is empty")
	ErrInvalidMessageType = errors.New("unsupported message type")
	ErrInvalidEmoji       = errors.New("emoji is required and cannot contain '.' or start with '$'")
)

// Publisher is the delivery side of the hub used by the service.
type Publisher interface {
	Publish(ctx context.Context, ev event.Event) hub.Delivery
	SendToUser(userID string, ev event.Event) bool
	Reachable(roomID, userID string) bool
}

// SendInput is a message as submitted by its sender.
type SendInput struct {
	ChatID      string
	SenderID    string
	MessageType string
	Content     string
	FileURL     *string
	ReplyTo     *string
}

type MessageService struct {
	messages      repo.MessageRepository
	conversations repo.ConversationRepository
	users         UserService
	publisher     Publisher
	tasks         *TaskRunner
	logger        *zap.Logger
	now           func() time.Time
}

func NewMessageService(
	messages repo.MessageRepository,
	conversations repo.ConversationRepository,
	users UserService,
	publisher Publisher,
	tasks *TaskRunner,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messages:      messages,
		conversations: conversations,
		users:         users,
		publisher:     publisher,
		tasks:         tasks,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// -----------------------------------------------------------------------------
// Send / list
// -----------------------------------------------------------------------------

// SendMessage persists a message, announces it to the chat and schedules the
// delivered notifications for the other participants.
func (s *MessageService) SendMessage(ctx context.Context, in SendInput) (*model.Message, error) {
	if in.MessageType == "" {
		in.MessageType = model.MessageTypeText
	}
	switch in.MessageType {
	case model.MessageTypeText:
		if strings.TrimSpace(in.Content) == "" {
			return nil, ErrEmptyContent
		}
	case model.MessageTypeImage, model.MessageTypeFile:
		if in.FileURL == nil || *in.FileURL == "" {
			return nil, ErrEmptyContent
		}
	default:
		return nil, ErrInvalidMessageType
	}

	conv, err := s.requireParticipant(ctx, in.ChatID, in.SenderID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ChatID:      in.ChatID,
		SenderID:    in.SenderID,
		SenderName:  s.users.DisplayName(ctx, in.SenderID),
		MessageType: in.MessageType,
		Content:     in.Content,
		FileURL:     in.FileURL,
		ReplyTo:     in.ReplyTo,
		ReadBy:      []string{},
		Reactions:   map[string][]string{},
		CreatedAt:   s.now(),
	}
	if _, err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	delivery := s.publisher.Publish(ctx, event.NewMessage{Chat: msg.ChatID, Message: msg.View()})
	s.logger.Debug("message published",
		zap.String("chat_id", msg.ChatID),
		zap.String("message_id", msg.ID.Hex()),
		zap.Int("room", delivery.Room),
		zap.Int("global", delivery.Global),
	)

	recipients := Filter(conv.Participants, func(id string) bool { return id != msg.SenderID })
	s.scheduleDelivered(ctx, msg.ChatID, msg.ID.Hex(), recipients)

	return msg, nil
}

// ListMessages returns one page of a chat's history, oldest first.
func (s *MessageService) ListMessages(ctx context.Context, chatID, userID string, page int64) (*db.PaginatedResult[model.MessageView], error) {
	if _, err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	result, err := s.messages.ListMessages(ctx, chatID, page)
	if err != nil {
		return nil, err
	}

	views := make([]model.MessageView, 0, len(result.Data))
	for i := range result.Data {
		views = append(views, result.Data[i].View())
	}
	return &db.PaginatedResult[model.MessageView]{
		Data:       views,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

// -----------------------------------------------------------------------------
// Edit / delete / react
// -----------------------------------------------------------------------------

func (s *MessageService) EditMessage(ctx context.Context, messageID, userID, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if _, err := s.ownedMessage(ctx, messageID, userID); err != nil {
		return nil, err
	}

	editedAt := s.now()
	updated, err := s.messages.UpdateMessage(ctx, messageID, model.MessagePatch{
		Content:  &content,
		EditedAt: &editedAt,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// deleted between the read and the write
		return nil, ErrMessageDeleted
	}

	s.publisher.Publish(ctx, event.MessageEdited{Chat: updated.ChatID, Message: updated.View()})
	return updated, nil
}

// DeleteMessage soft-deletes a message. Deleted is terminal.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, userID string) (*model.Message, error) {
	if _, err := s.ownedMessage(ctx, messageID, userID); err != nil {
		return nil, err
	}

	content := model.DeletedContent
	deleted := true
	updated, err := s.messages.UpdateMessage(ctx, messageID, model.MessagePatch{
		Content:   &content,
		IsDeleted: &deleted,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMessageDeleted
	}

	s.publisher.Publish(ctx, event.MessageDeleted{Chat: updated.ChatID, MessageID: messageID})
	return updated, nil
}

// ToggleReaction flips userID's emoji on a message and returns the new
// reaction map. The flip itself happens in the store in one update.
func (s *MessageService) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (map[string][]string, error) {
	emoji = strings.TrimSpace(emoji)
	// emoji become document field names
	if emoji == "" || strings.Contains(emoji, ".") || strings.HasPrefix(emoji, "$") {
		return nil, ErrInvalidEmoji
	}

	msg, err := s.liveMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireParticipant(ctx, msg.ChatID, userID); err != nil {
		return nil, err
	}

	updated, err := s.messages.ToggleReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrMessageDeleted
	}

	reactions := updated.Reactions
	if reactions == nil {
		reactions = map[string][]string{}
	}
	s.publisher.Publish(ctx, event.MessageReaction{Chat: updated.ChatID, MessageID: messageID, Reactions: reactions})
	return reactions, nil
}

// -----------------------------------------------------------------------------
// Participants
// -----------------------------------------------------------------------------

// RemoveParticipant drops target from a chat. The removed user is told
// directly since they no longer match the participant fan-out.
func (s *MessageService) RemoveParticipant(ctx context.Context, chatID, actorID, targetID string) error {
	conv, err := s.requireParticipant(ctx, chatID, actorID)
	if err != nil {
		return err
	}
	if actorID != targetID && conv.ChatType == model.ChatTypeGroup && conv.CreatedBy != actorID {
		return ErrNotCreator
	}

	removed, err := s.conversations.RemoveParticipant(ctx, chatID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotParticipant
	}

	ev := event.ParticipantRemoved{Chat: chatID, UserID: targetID, RemovedBy: actorID}
	s.publisher.Publish(ctx, ev)
	s.publisher.SendToUser(targetID, ev)

	s.logger.Info("participant removed",
		zap.String("chat_id", chatID),
		zap.String("user_id", targetID),
		zap.String("removed_by", actorID),
	)
	return nil
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func (s *MessageService) requireParticipant(ctx context.Context, chatID, userID string) (*model.Conversation, error) {
	conv, err := s.conversations.GetConversation(ctx, chatID)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidChannelID) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if conv == nil {
		return nil, ErrChatNotFound
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

func (s *MessageService) liveMessage(ctx context.Context, messageID string) (*model.Message, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.IsDeleted {
		return nil, ErrMessageDeleted
	}
	return msg, nil
}

func (s *MessageService) ownedMessage(ctx context.Context, messageID, userID string) (*model.Message, error) {
	msg, err := s.liveMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, ErrNotSender
	}
	return msg, nil
}
