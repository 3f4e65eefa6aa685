package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeletedContent replaces the body of a deleted message.
const DeletedContent = "This message was deleted"

// Message types accepted from clients
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// Delivery status values carried on message snapshots and message_status events.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusDeleted   = "deleted"
)

// Message represents a chat message in MongoDB
type Message struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ChatID      string              `json:"chat_id" bson:"chat_id"`
	SenderID    string              `json:"sender_id" bson:"sender_id"`
	SenderName  string              `json:"sender_name" bson:"sender_name"`
	MessageType string              `json:"message_type" bson:"message_type"`
	Content     string              `json:"content" bson:"content"`
	FileURL     *string             `json:"file_url" bson:"file_url"`
	ReplyTo     *string             `json:"reply_to" bson:"reply_to"`
	ReadBy      []string            `json:"read_by" bson:"read_by"`
	Reactions   map[string][]string `json:"reactions" bson:"reactions"`
	IsDeleted   bool                `json:"is_deleted" bson:"is_deleted"`
	EditedAt    *time.Time          `json:"edited_at" bson:"edited_at"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}

// Status derives the persisted lifecycle status. Delivered is never persisted.
func (m *Message) Status() string {
	switch {
	case m.IsDeleted:
		return StatusDeleted
	case len(m.ReadBy) > 0:
		return StatusRead
	default:
		return StatusSent
	}
}

// IsReadBy reports whether userID is in the read set.
func (m *Message) IsReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// MessageView is the wire snapshot embedded in new_message and message_edited events.
type MessageView struct {
	ID          string              `json:"id"`
	ChatID      string              `json:"chat_id"`
	SenderID    string              `json:"sender_id"`
	SenderName  string              `json:"sender_name"`
	MessageType string              `json:"message_type"`
	Content     string              `json:"content"`
	FileURL     *string             `json:"file_url"`
	ReplyTo     *string             `json:"reply_to"`
	ReadBy      []string            `json:"read_by"`
	Reactions   map[string][]string `json:"reactions"`
	Status      string              `json:"status"`
	IsDeleted   bool                `json:"is_deleted"`
	EditedAt    *time.Time          `json:"edited_at"`
	CreatedAt   time.Time           `json:"created_at"`
}

// View builds the wire snapshot of m.
func (m *Message) View() MessageView {
	readBy := m.ReadBy
	if readBy == nil {
		readBy = []string{}
	}
	reactions := m.Reactions
	if reactions == nil {
		reactions = map[string][]string{}
	}

	return MessageView{
		ID:          m.ID.Hex(),
		ChatID:      m.ChatID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		MessageType: m.MessageType,
		Content:     m.Content,
		FileURL:     m.FileURL,
		ReplyTo:     m.ReplyTo,
		ReadBy:      readBy,
		Reactions:   reactions,
		Status:      m.Status(),
		IsDeleted:   m.IsDeleted,
		EditedAt:    m.EditedAt,
		CreatedAt:   m.CreatedAt,
	}
}

// MessagePatch describes a single-message mutation. Nil fields are left untouched.
type MessagePatch struct {
	Content   *string
	EditedAt  *time.Time
	IsDeleted *bool
	AddReadBy string
}

// MessageFilter selects messages for bulk updates.
type MessageFilter struct {
	ChatID         string
	ExcludeSender  string
	NotReadBy      string
	IncludeDeleted bool
	// IDs, when set, pins the selection to these message ids.
	IDs []string
}
