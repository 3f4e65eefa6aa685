package hub

import (
	"chatapp/internal/auth"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config tunes the hub and its connections.
type Config struct {
	SendBuffer     int
	SendTimeout    time.Duration
	TypingThrottle time.Duration
	ReapBuffer     int
	AllowedOrigins []string
}

// Hub owns the process-wide registries and every live session.
type Hub struct {
	presence *PresenceRegistry
	rooms    *RoomRegistry
	router   *Router
	typing   *TypingState
	tokens   auth.TokenResolver
	reads    ReadMarker
	logger   *zap.Logger
	config   Config

	upgrader websocket.Upgrader

	sessionsMu sync.Mutex
	sessions   map[*Session]struct{}

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(config Config, members MembershipStore, tokens auth.TokenResolver, logger *zap.Logger) *Hub {
	if config.SendBuffer < 1 {
		config.SendBuffer = 256
	}
	if config.SendTimeout <= 0 {
		config.SendTimeout = 2 * time.Second
	}
	if config.TypingThrottle <= 0 {
		config.TypingThrottle = 2 * time.Second
	}
	if config.ReapBuffer < 1 {
		config.ReapBuffer = 1024
	}

	ctx, cancel := context.WithCancel(context.Background())
	presence := NewPresenceRegistry()
	rooms := NewRoomRegistry()

	h := &Hub{
		presence: presence,
		rooms:    rooms,
		router:   NewRouter(presence, rooms, members, logger.Named("router"), config.ReapBuffer),
		typing:   NewTypingState(config.TypingThrottle),
		tokens:   tokens,
		logger:   logger,
		config:   config,
		sessions: make(map[*Session]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	h.wg.Add(2)
	go h.reap()
	go h.sweepTyping()

	return h
}

// SetReadMarker wires the read-receipt handler. Must be called before serving.
func (h *Hub) SetReadMarker(reads ReadMarker) {
	h.reads = reads
}

func (h *Hub) Presence() *PresenceRegistry { return h.presence }
func (h *Hub) Rooms() *RoomRegistry        { return h.rooms }
func (h *Hub) Router() *Router             { return h.router }

// reap closes sessions whose deliveries failed; each session deregisters itself.
func (h *Hub) reap() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case conn := <-h.router.Stale():
			h.logger.Debug("reaping stale connection",
				zap.String("conn_id", conn.ID()),
				zap.String("user_id", conn.UserID()),
			)
			_ = conn.Close()
		}
	}
}

func (h *Hub) sweepTyping() {
	defer h.wg.Done()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			if n := h.typing.Purge(5 * time.Minute); n > 0 {
				h.logger.Debug("purged typing state", zap.Int("entries", n))
			}
		}
	}
}

// NewSession builds a session over an accepted transport without starting it.
func (h *Hub) NewSession(kind SessionKind, roomID, token string, t Transport) *Session {
	return &Session{
		kind:      kind,
		roomID:    roomID,
		token:     token,
		transport: t,
		hub:       h,
		logger: h.logger.Named("session").With(
			zap.String("conn_id", t.ID()),
			zap.String("kind", kind.String()),
			zap.String("chat_id", roomID),
		),
	}
}

// Attach starts a session over t on its own goroutine.
func (h *Hub) Attach(kind SessionKind, roomID, token string, t Transport) *Session {
	s := h.NewSession(kind, roomID, token, t)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		_ = s.Run(h.ctx)
	}()
	return s
}

// track records an open session. It refuses once Stop has begun, since the
// session would miss the shutdown sweep.
func (h *Hub) track(s *Session) bool {
	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	if h.ctx.Err() != nil || s.State() == StateClosed {
		return false
	}
	h.sessions[s] = struct{}{}
	return true
}

func (h *Hub) untrack(s *Session) {
	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	delete(h.sessions, s)
}

// SessionCount returns the number of open sessions.
func (h *Hub) SessionCount() int {
	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	return len(h.sessions)
}

// Stop closes every session and waits for their goroutines. Sessions still
// opening when Stop runs close themselves instead of registering.
func (h *Hub) Stop() {
	h.cancel()

	h.sessionsMu.Lock()
	open := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		open = append(open, s)
	}
	h.sessionsMu.Unlock()

	for _, s := range open {
		_ = s.Close()
	}

	h.wg.Wait()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// non-browser clients send no origin
	if origin == "" || len(h.config.AllowedOrigins) == 0 {
		return true
	}

	for _, allowed := range h.config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// ServeRoom upgrades a conversation-view connection for chatID.
func (h *Hub) ServeRoom(w http.ResponseWriter, r *http.Request, chatID string) {
	h.serve(w, r, RoomSession, chatID)
}

// ServeGlobal upgrades the caller's global channel.
func (h *Hub) ServeGlobal(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, GlobalSession, "")
}

func (h *Hub) serve(w http.ResponseWriter, r *http.Request, kind SessionKind, chatID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, h.config.SendBuffer, h.config.SendTimeout, h.logger.Named("client"))
	h.Attach(kind, chatID, r.URL.Query().Get("token"), client)
}
