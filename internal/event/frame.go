package event

import (
	"encoding/json"
	"errors"
)

var (
	ErrUnknownEvent = errors.New("unknown event type")
	ErrMalformed    = errors.New("malformed frame")
)

// Inbound frame types accepted on a room connection.
const (
	FrameTyping = "typing"
	FrameRead   = "read"
)

// Frame is one client-to-server message on a room connection.
type Frame struct {
	Type      string `json:"type"`
	IsTyping  bool   `json:"is_typing"`
	MessageID string `json:"message_id"`
}

// ParseFrame decodes raw into a Frame. Frames that are not JSON objects,
// carry an unknown type, or lack required fields return ErrMalformed and
// are handled as keepalive data by the caller.
func ParseFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, ErrMalformed
	}

	switch f.Type {
	case FrameTyping:
		return f, nil
	case FrameRead:
		if f.MessageID == "" {
			return Frame{}, ErrMalformed
		}
		return f, nil
	default:
		return Frame{}, ErrMalformed
	}
}
