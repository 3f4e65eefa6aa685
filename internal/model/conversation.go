package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat types
const (
	ChatTypeSingle = "single"
	ChatTypeGroup  = "group"
)

// Conversation represents a chat conversation/room in MongoDB
type Conversation struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ChatType     string             `json:"chat_type" bson:"chat_type"`
	Participants []string           `json:"participants" bson:"participants"`
	GroupName    *string            `json:"group_name" bson:"group_name"`
	GroupImage   *string            `json:"group_image" bson:"group_image"`
	CreatedBy    string             `json:"created_by" bson:"created_by"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	IsArchived   bool               `json:"is_archived" bson:"is_archived"`
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
