package hub

import (
	"chatapp/internal/auth"
	"chatapp/internal/event"
	"context"
	"errors"
	"sync"
	"time"
)

var errFakeSend = errors.New("fake send failed")

// fakeConn records events delivered to it.
type fakeConn struct {
	id     string
	userID string

	mu     sync.Mutex
	events []event.Event
	fail   bool
	closed bool
}

func newFakeConn(id, userID string) *fakeConn {
	return &fakeConn{id: id, userID: userID}
}

func (c *fakeConn) ID() string     { return c.id }
func (c *fakeConn) UserID() string { return c.userID }

func (c *fakeConn) Send(ev event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail || c.closed {
		return errFakeSend
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) received() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

// fakeTransport is a scripted Transport: frames pushed with push are read by
// the session, events sent by the hub are recorded.
type fakeTransport struct {
	id      string
	inbound chan []byte
	done    chan struct{}
	once    sync.Once

	mu          sync.Mutex
	sent        []event.Event
	failSend    bool
	closeCode   int
	closeReason string
}

func newFakeTransport(id string) *fakeTransport {
	return &fakeTransport{
		id:      id,
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
	}
}

func (t *fakeTransport) ID() string { return t.id }

func (t *fakeTransport) ReadFrame() ([]byte, error) {
	select {
	case raw := <-t.inbound:
		return raw, nil
	case <-t.done:
		return nil, ErrConnClosed
	}
}

func (t *fakeTransport) Send(ev event.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failSend {
		return errFakeSend
	}
	select {
	case <-t.done:
		return ErrConnClosed
	default:
	}
	t.sent = append(t.sent, ev)
	return nil
}

func (t *fakeTransport) CloseWithReason(code int, reason string) error {
	t.mu.Lock()
	t.closeCode = code
	t.closeReason = reason
	t.mu.Unlock()
	return t.Close()
}

func (t *fakeTransport) Close() error {
	t.once.Do(func() { close(t.done) })
	return nil
}

// hangUp simulates the peer going away.
func (t *fakeTransport) hangUp() { _ = t.Close() }

func (t *fakeTransport) push(raw string) { t.inbound <- []byte(raw) }

func (t *fakeTransport) isClosed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *fakeTransport) setFailSend(fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failSend = fail
}

func (t *fakeTransport) events() []event.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]event.Event(nil), t.sent...)
}

func (t *fakeTransport) ofKind(kind event.Kind) []event.Event {
	var out []event.Event
	for _, ev := range t.events() {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

// fakeMembers is a static membership table: room -> participants.
type fakeMembers struct {
	mu    sync.Mutex
	rooms map[string][]string
	err   error
	// delay stalls conversation lookups, as a slow store would
	delay time.Duration
}

func newFakeMembers(rooms map[string][]string) *fakeMembers {
	return &fakeMembers{rooms: rooms}
}

func (m *fakeMembers) ListParticipants(_ context.Context, chatID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]string(nil), m.rooms[chatID]...), nil
}

func (m *fakeMembers) ListUserConversations(_ context.Context, userID string) ([]string, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []string
	for room, users := range m.rooms {
		for _, u := range users {
			if u == userID {
				out = append(out, room)
				break
			}
		}
	}
	return out, nil
}

// fakeTokens maps tokens straight to user ids.
type fakeTokens map[string]string

func (f fakeTokens) ResolveUserID(token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", auth.ErrInvalidToken
}

type fakeReads struct {
	mu    sync.Mutex
	calls [][2]string
}

func (r *fakeReads) MarkRead(_ context.Context, messageID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, [2]string{messageID, userID})
	return nil
}

func (r *fakeReads) recorded() [][2]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]string(nil), r.calls...)
}
