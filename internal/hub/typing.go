package hub

import (
	"sync"
	"time"
)

type typingKey struct {
	room string
	user string
}

type typingEntry struct {
	typing bool
	at     time.Time
}

// TypingState remembers the last typing signal broadcast per (room, user)
// so repeated identical frames are not fanned out again. Losing an entry
// only costs one extra broadcast.
type TypingState struct {
	mu       sync.Mutex
	entries  map[typingKey]typingEntry
	throttle time.Duration
	now      func() time.Time
}

func NewTypingState(throttle time.Duration) *TypingState {
	return &TypingState{
		entries:  make(map[typingKey]typingEntry),
		throttle: throttle,
		now:      time.Now,
	}
}

// Update records a typing frame and reports whether it should be broadcast:
// on any change of state, on the first frame for the pair, and for a
// repeated "typing" once the throttle window has passed.
func (t *TypingState) Update(roomID, userID string, isTyping bool) bool {
	key := typingKey{room: roomID, user: userID}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.entries[key]
	broadcast := !ok ||
		prev.typing != isTyping ||
		(isTyping && now.Sub(prev.at) >= t.throttle)

	if broadcast {
		t.entries[key] = typingEntry{typing: isTyping, at: now}
	}
	return broadcast
}

// Clear drops the pair and reports whether the user was typing.
func (t *TypingState) Clear(roomID, userID string) bool {
	key := typingKey{room: roomID, user: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.entries[key]
	delete(t.entries, key)
	return ok && prev.typing
}

// Purge drops entries older than maxAge and returns how many were removed.
func (t *TypingState) Purge(maxAge time.Duration) int {
	cutoff := t.now().Add(-maxAge)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, entry := range t.entries {
		if entry.at.Before(cutoff) {
			delete(t.entries, key)
			removed++
		}
	}
	return removed
}
