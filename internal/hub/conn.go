package hub

import (
	"chatapp/internal/event"
	"errors"
)

var (
	ErrConnClosed   = errors.New("connection closed")
	ErrSendTimeout  = errors.New("egress full: send timed out")
	ErrUnauthorized = errors.New("unauthorized")
	ErrHubStopped   = errors.New("hub stopped")
)

// Conn is the registry-facing handle of one open client channel.
type Conn interface {
	ID() string
	UserID() string
	Send(ev event.Event) error
	Close() error
}

// Transport is the physical socket a Session owns. ReadFrame blocks until
// the next inbound frame and only the owning session calls it.
type Transport interface {
	ID() string
	ReadFrame() ([]byte, error)
	Send(ev event.Event) error
	CloseWithReason(code int, reason string) error
	Close() error
}
