package hub

import (
	"chatapp/internal/event"
	"context"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionKind selects which endpoint a session serves.
type SessionKind int

const (
	// RoomSession is bound to one conversation view.
	RoomSession SessionKind = iota
	// GlobalSession is the per-user channel for list-level events and presence.
	GlobalSession
)

func (k SessionKind) String() string {
	if k == GlobalSession {
		return "global"
	}
	return "room"
}

// SessionState is the lifecycle position of a session.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosed
)

// ReadMarker records read receipts coming from room connections.
type ReadMarker interface {
	MarkRead(ctx context.Context, messageID, userID string) error
}

// Session owns one transport for its whole life. It is also the Conn that
// the registries hold, so closing it from anywhere runs the same teardown.
type Session struct {
	kind   SessionKind
	roomID string
	token  string
	userID string

	transport Transport
	hub       *Hub
	logger    *zap.Logger

	state     atomic.Int32
	closeOnce sync.Once
}

var _ Conn = (*Session)(nil)

func (s *Session) ID() string          { return s.transport.ID() }
func (s *Session) UserID() string      { return s.userID }
func (s *Session) Kind() SessionKind   { return s.kind }
func (s *Session) RoomID() string      { return s.roomID }
func (s *Session) State() SessionState { return SessionState(s.state.Load()) }

// Send queues ev on the transport. It fails once the session is closed.
func (s *Session) Send(ev event.Event) error {
	if s.State() == StateClosed {
		return ErrConnClosed
	}
	return s.transport.Send(ev)
}

// Run opens the session and serves inbound frames until the transport
// fails, the session is closed or ctx ends. Teardown always runs before Run
// returns.
func (s *Session) Run(ctx context.Context) error {
	if err := s.open(ctx); err != nil {
		return err
	}
	defer s.Close()

	// closing the transport unblocks ReadFrame
	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	for {
		raw, err := s.transport.ReadFrame()
		if err != nil {
			if s.State() != StateClosed {
				s.logger.Debug("transport read ended", zap.Error(err))
			}
			return nil
		}

		s.dispatch(ctx, raw)
	}
}

func (s *Session) open(ctx context.Context) error {
	if ctx.Err() != nil {
		s.state.Store(int32(StateClosed))
		_ = s.transport.CloseWithReason(websocket.CloseGoingAway, "server shutting down")
		return ErrHubStopped
	}

	if s.token != "" {
		userID, err := s.hub.tokens.ResolveUserID(s.token)
		if err != nil {
			s.logger.Debug("token rejected", zap.Error(err))
		} else {
			s.userID = userID
			s.logger = s.logger.With(zap.String("user_id", userID))
		}
	}

	if s.kind == GlobalSession && s.userID == "" {
		s.state.Store(int32(StateClosed))
		s.logger.Info("global channel rejected: missing or invalid token")
		_ = s.transport.CloseWithReason(websocket.ClosePolicyViolation, "authentication required")
		return ErrUnauthorized
	}

	s.state.Store(int32(StateOpen))

	switch s.kind {
	case RoomSession:
		s.hub.rooms.Join(s.roomID, s)
	case GlobalSession:
		if prev := s.hub.presence.RegisterGlobal(s.userID, s); prev != nil {
			s.logger.Debug("global channel replaced", zap.String("previous_conn_id", prev.ID()))
		}
		s.hub.router.PublishPresence(ctx, s.userID, true)
	}

	if !s.hub.track(s) {
		_ = s.Close()
		if s.hub.ctx.Err() != nil {
			// Stop ran while this session was registering
			return ErrHubStopped
		}
		return ErrConnClosed
	}
	s.logger.Info("session opened")
	return nil
}

func (s *Session) dispatch(ctx context.Context, raw []byte) {
	if s.kind == GlobalSession {
		s.echo(raw)
		return
	}

	frame, err := event.ParseFrame(raw)
	if err != nil {
		s.echo(raw)
		return
	}

	switch frame.Type {
	case event.FrameTyping:
		if s.userID == "" {
			return
		}
		if s.hub.typing.Update(s.roomID, s.userID, frame.IsTyping) {
			s.hub.router.Publish(ctx, event.Typing{Chat: s.roomID, UserID: s.userID, IsTyping: frame.IsTyping})
		}
	case event.FrameRead:
		if s.userID == "" || s.hub.reads == nil {
			return
		}
		if err := s.hub.reads.MarkRead(ctx, frame.MessageID, s.userID); err != nil {
			s.logger.Warn("mark read failed",
				zap.String("message_id", frame.MessageID),
				zap.Error(err),
			)
		}
	}
}

// echo answers keepalive data: room sessions echo to the room, global
// sessions to themselves.
func (s *Session) echo(raw []byte) {
	ping := event.Ping{Chat: s.roomID, Data: string(raw)}
	if s.kind == GlobalSession {
		if err := s.transport.Send(ping); err != nil {
			s.logger.Debug("ping echo failed", zap.Error(err))
		}
		return
	}
	s.hub.router.PublishRoom(context.Background(), ping)
}

// Close tears the session down exactly once: it leaves the room, releases
// the global channel (publishing offline only if this session still held
// it), clears typing state and closes the transport.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		wasOpen := s.State() == StateOpen
		s.state.Store(int32(StateClosed))
		if !wasOpen {
			_ = s.transport.Close()
			return
		}

		s.hub.untrack(s)
		ctx := context.Background()

		switch s.kind {
		case RoomSession:
			s.hub.rooms.Leave(s.roomID, s)
			// typing state is per user, so another tab in the room keeps it
			if s.userID != "" && !s.hub.rooms.HasUser(s.roomID, s.userID) && s.hub.typing.Clear(s.roomID, s.userID) {
				s.hub.router.Publish(ctx, event.Typing{Chat: s.roomID, UserID: s.userID, IsTyping: false})
			}
		case GlobalSession:
			if s.hub.presence.DeregisterGlobal(s.userID, s) {
				s.hub.router.PublishPresence(ctx, s.userID, false)
			}
		}

		_ = s.transport.Close()
		s.logger.Info("session closed")
	})
	return nil
}
