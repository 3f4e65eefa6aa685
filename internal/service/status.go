package service

import (
	"chatapp/internal/event"
	"chatapp/internal/model"
	"context"

	"go.uber.org/zap"
)

// Message status moves sent -> delivered -> read, with deleted reachable
// from any of them. Delivered is announced but never stored; read is stored
// as the read_by set.

func (s *MessageService) scheduleDelivered(ctx context.Context, chatID, messageID string, recipients []string) {
	if len(recipients) == 0 {
		return
	}
	s.tasks.Go(ctx, "mark_delivered", func(ctx context.Context) {
		for _, userID := range recipients {
			s.MarkDelivered(ctx, chatID, messageID, userID)
		}
	})
}

// MarkDelivered announces delivery when userID currently has a live route
// into the chat. It reports whether an event went out.
func (s *MessageService) MarkDelivered(ctx context.Context, chatID, messageID, userID string) bool {
	if !s.publisher.Reachable(chatID, userID) {
		return false
	}

	s.publisher.Publish(ctx, event.MessageStatus{
		Chat:      chatID,
		MessageID: messageID,
		UserID:    userID,
		Status:    model.StatusDelivered,
	})
	return true
}

// MarkRead records userID as a reader of the message and announces it. The
// event goes out on every call, including repeats, so reopening a chat
// refreshes receipts. A missing message and the sender reading their own
// message are no-ops.
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID string) error {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil || msg.SenderID == userID {
		return nil
	}
	if _, err := s.requireParticipant(ctx, msg.ChatID, userID); err != nil {
		return err
	}

	updated, err := s.messages.AppendReadBy(ctx, messageID, userID)
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}

	s.publisher.Publish(ctx, event.MessageStatus{
		Chat:      updated.ChatID,
		MessageID: messageID,
		UserID:    userID,
		Status:    model.StatusRead,
		ReadBy:    updated.ReadBy,
	})
	return nil
}

// MarkAllRead marks every message in the chat not sent by userID as read by
// them and returns how many documents changed. A second call returns 0.
func (s *MessageService) MarkAllRead(ctx context.Context, chatID, userID string) (int64, error) {
	if _, err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return 0, err
	}

	filter := model.MessageFilter{
		ChatID:         chatID,
		ExcludeSender:  userID,
		NotReadBy:      userID,
		IncludeDeleted: true,
	}
	ids, err := s.messages.FindMessageIDs(ctx, filter)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	// messages arriving after the lookup are left for the next call
	filter.IDs = ids
	updated, err := s.messages.UpdateMessageMany(ctx, filter, model.MessagePatch{AddReadBy: userID})
	if err != nil {
		return 0, err
	}
	if updated == 0 {
		return 0, nil
	}

	for _, id := range ids {
		s.publisher.Publish(ctx, event.MessageStatus{
			Chat:      chatID,
			MessageID: id,
			UserID:    userID,
			Status:    model.StatusRead,
		})
	}

	s.logger.Debug("chat marked read",
		zap.String("chat_id", chatID),
		zap.String("user_id", userID),
		zap.Int64("updated", updated),
	)
	return updated, nil
}
