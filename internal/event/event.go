package event

import (
	"chatapp/internal/model"
	"encoding/json"
)

// Kind tags an outbound event on the wire.
type Kind string

const (
	KindNewMessage         Kind = "new_message"
	KindMessageEdited      Kind = "message_edited"
	KindMessageDeleted     Kind = "message_deleted"
	KindMessageReaction    Kind = "message_reaction"
	KindMessageStatus      Kind = "message_status"
	KindTyping             Kind = "typing"
	KindUserStatus         Kind = "user_status"
	KindParticipantRemoved Kind = "participant_removed"
	KindPing               Kind = "ping"
)

// Event is the closed set of server-to-client events. Only types in this
// package implement it.
type Event interface {
	Kind() Kind
	ChatID() string
	isEvent()
}

// NewMessage announces a freshly created message.
type NewMessage struct {
	Chat    string            `json:"chat_id"`
	Message model.MessageView `json:"message"`
}

// MessageEdited carries the updated snapshot.
type MessageEdited struct {
	Chat    string            `json:"chat_id"`
	Message model.MessageView `json:"message"`
}

type MessageDeleted struct {
	Chat      string `json:"chat_id"`
	MessageID string `json:"message_id"`
}

type MessageReaction struct {
	Chat      string              `json:"chat_id"`
	MessageID string              `json:"message_id"`
	Reactions map[string][]string `json:"reactions"`
}

// MessageStatus reports a delivered or read transition for one reader.
type MessageStatus struct {
	Chat      string   `json:"chat_id"`
	MessageID string   `json:"message_id"`
	UserID    string   `json:"user_id"`
	Status    string   `json:"status"`
	ReadBy    []string `json:"read_by,omitempty"`
}

type Typing struct {
	Chat     string `json:"chat_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type UserStatus struct {
	Chat     string `json:"chat_id"`
	UserID   string `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

type ParticipantRemoved struct {
	Chat      string `json:"chat_id"`
	UserID    string `json:"user_id"`
	RemovedBy string `json:"removed_by"`
}

// Ping echoes opaque keepalive data back to a room.
type Ping struct {
	Chat string `json:"chat_id"`
	Data string `json:"data"`
}

func (NewMessage) Kind() Kind         { return KindNewMessage }
func (MessageEdited) Kind() Kind      { return KindMessageEdited }
func (MessageDeleted) Kind() Kind     { return KindMessageDeleted }
func (MessageReaction) Kind() Kind    { return KindMessageReaction }
func (MessageStatus) Kind() Kind      { return KindMessageStatus }
func (Typing) Kind() Kind             { return KindTyping }
func (UserStatus) Kind() Kind         { return KindUserStatus }
func (ParticipantRemoved) Kind() Kind { return KindParticipantRemoved }
func (Ping) Kind() Kind               { return KindPing }

func (e NewMessage) ChatID() string         { return e.Chat }
func (e MessageEdited) ChatID() string      { return e.Chat }
func (e MessageDeleted) ChatID() string     { return e.Chat }
func (e MessageReaction) ChatID() string    { return e.Chat }
func (e MessageStatus) ChatID() string      { return e.Chat }
func (e Typing) ChatID() string             { return e.Chat }
func (e UserStatus) ChatID() string         { return e.Chat }
func (e ParticipantRemoved) ChatID() string { return e.Chat }
func (e Ping) ChatID() string               { return e.Chat }

func (NewMessage) isEvent()         {}
func (MessageEdited) isEvent()      {}
func (MessageDeleted) isEvent()     {}
func (MessageReaction) isEvent()    {}
func (MessageStatus) isEvent()      {}
func (Typing) isEvent()             {}
func (UserStatus) isEvent()         {}
func (ParticipantRemoved) isEvent() {}
func (Ping) isEvent()               {}

// Encode renders ev as a JSON object with its "type" tag first.
func Encode(ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case NewMessage:
		type payload NewMessage
		return tagged(e.Kind(), payload(e))
	case MessageEdited:
		type payload MessageEdited
		return tagged(e.Kind(), payload(e))
	case MessageDeleted:
		type payload MessageDeleted
		return tagged(e.Kind(), payload(e))
	case MessageReaction:
		type payload MessageReaction
		return tagged(e.Kind(), payload(e))
	case MessageStatus:
		type payload MessageStatus
		return tagged(e.Kind(), payload(e))
	case Typing:
		type payload Typing
		return tagged(e.Kind(), payload(e))
	case UserStatus:
		type payload UserStatus
		return tagged(e.Kind(), payload(e))
	case ParticipantRemoved:
		type payload ParticipantRemoved
		return tagged(e.Kind(), payload(e))
	case Ping:
		type payload Ping
		return tagged(e.Kind(), payload(e))
	default:
		return nil, ErrUnknownEvent
	}
}

func tagged[T any](kind Kind, body T) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	tag, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(raw)+len(tag)+9)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(raw) > 2 {
		out = append(out, ',')
		out = append(out, raw[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}
