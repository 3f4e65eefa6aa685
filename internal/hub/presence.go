package hub

import (
	"sort"
	"sync"
)

// PresenceRegistry records the global channel of every online user.
// A user is online iff it has a registered global connection.
type PresenceRegistry struct {
	mu     sync.RWMutex
	global map[string]Conn
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{global: make(map[string]Conn)}
}

// RegisterGlobal makes conn the user's global channel and returns the
// connection it replaced, if any. The replaced connection is left open.
func (p *PresenceRegistry) RegisterGlobal(userID string, conn Conn) Conn {
	if userID == "" || conn == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	previous := p.global[userID]
	p.global[userID] = conn
	if previous == conn {
		return nil
	}
	return previous
}

// DeregisterGlobal removes the user's entry only when it still points at
// conn, so a late close of a replaced connection cannot take a newer one
// offline. It reports whether the entry was removed.
func (p *PresenceRegistry) DeregisterGlobal(userID string, conn Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.global[userID]
	if !ok || current != conn {
		return false
	}
	delete(p.global, userID)
	return true
}

func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.global[userID]
	return ok
}

func (p *PresenceRegistry) LookupGlobal(userID string) (Conn, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	conn, ok := p.global[userID]
	return conn, ok
}

// OnlineUsers returns a sorted snapshot of online user ids.
func (p *PresenceRegistry) OnlineUsers() []string {
	p.mu.RLock()
	users := make([]string, 0, len(p.global))
	for id := range p.global {
		users = append(users, id)
	}
	p.mu.RUnlock()

	sort.Strings(users)
	return users
}
