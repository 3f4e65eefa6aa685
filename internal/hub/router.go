package hub

import (
	"chatapp/internal/event"
	"context"

	"go.uber.org/zap"
)

// MembershipStore is the part of the conversation store the router reads.
type MembershipStore interface {
	ListParticipants(ctx context.Context, chatID string) ([]string, error)
	ListUserConversations(ctx context.Context, userID string) ([]string, error)
}

// Delivery counts the outcome of one publish.
type Delivery struct {
	Room   int
	Global int
	Failed int
}

// Router fans events out to room subscribers and to the global channels of
// room participants. Delivery is best-effort per connection: a failed send
// is logged, counted and reported on Stale, never returned to the caller.
type Router struct {
	presence *PresenceRegistry
	rooms    *RoomRegistry
	members  MembershipStore
	logger   *zap.Logger
	stale    chan Conn
}

func NewRouter(presence *PresenceRegistry, rooms *RoomRegistry, members MembershipStore, logger *zap.Logger, staleBuffer int) *Router {
	if staleBuffer < 1 {
		staleBuffer = 1
	}
	return &Router{
		presence: presence,
		rooms:    rooms,
		members:  members,
		logger:   logger,
		stale:    make(chan Conn, staleBuffer),
	}
}

// Stale carries connections whose delivery failed. Their owning sessions
// are expected to be closed by whoever drains it.
func (r *Router) Stale() <-chan Conn {
	return r.stale
}

// Publish delivers ev to every subscriber of ev.ChatID() and to the global
// channel of every participant of that room.
func (r *Router) Publish(ctx context.Context, ev event.Event) Delivery {
	d := r.fanOutRoom(ev)

	participants, err := r.members.ListParticipants(ctx, ev.ChatID())
	if err != nil {
		r.logger.Error("participant lookup failed, skipping global fan-out",
			zap.String("chat_id", ev.ChatID()),
			zap.String("event", string(ev.Kind())),
			zap.Error(err),
		)
		return d
	}

	seen := make(map[string]struct{}, len(participants))
	for _, userID := range participants {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		conn, ok := r.presence.LookupGlobal(userID)
		if !ok {
			continue
		}
		if r.deliver(conn, ev) {
			d.Global++
		} else {
			d.Failed++
		}
	}

	return d
}

// PublishRoom delivers ev to room subscribers only.
func (r *Router) PublishRoom(_ context.Context, ev event.Event) Delivery {
	return r.fanOutRoom(ev)
}

// SendToUser delivers ev to the user's global channel.
func (r *Router) SendToUser(userID string, ev event.Event) bool {
	conn, ok := r.presence.LookupGlobal(userID)
	if !ok {
		return false
	}
	return r.deliver(conn, ev)
}

// PublishPresence publishes user_status to every room the user participates in.
func (r *Router) PublishPresence(ctx context.Context, userID string, online bool) {
	rooms, err := r.members.ListUserConversations(ctx, userID)
	if err != nil {
		r.logger.Error("conversation lookup failed, presence not published",
			zap.String("user_id", userID),
			zap.Bool("is_online", online),
			zap.Error(err),
		)
		return
	}

	for _, roomID := range rooms {
		r.Publish(ctx, event.UserStatus{Chat: roomID, UserID: userID, IsOnline: online})
	}
}

// Reachable reports whether userID currently has a live channel that would
// receive events for roomID.
func (r *Router) Reachable(roomID, userID string) bool {
	return r.presence.IsOnline(userID) || r.rooms.HasUser(roomID, userID)
}

func (r *Router) fanOutRoom(ev event.Event) Delivery {
	var d Delivery
	for _, conn := range r.rooms.Subscribers(ev.ChatID()) {
		if r.deliver(conn, ev) {
			d.Room++
		} else {
			d.Failed++
		}
	}
	return d
}

func (r *Router) deliver(conn Conn, ev event.Event) bool {
	if err := conn.Send(ev); err != nil {
		r.logger.Debug("delivery failed",
			zap.String("conn_id", conn.ID()),
			zap.String("user_id", conn.UserID()),
			zap.String("event", string(ev.Kind())),
			zap.Error(err),
		)
		r.markStale(conn)
		return false
	}
	return true
}

func (r *Router) markStale(conn Conn) {
	select {
	case r.stale <- conn:
	default:
		// reaper is behind; the next failed send will report it again
	}
}
