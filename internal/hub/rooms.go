package hub

import (
	"crypto/sha1"
	"encoding/binary"
	"sort"
	"sync"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

type roomBucket struct {
	sync.RWMutex
	rooms map[string]map[string]Conn
}

// RoomRegistry tracks which connections are subscribed to which room.
// A connection is subscribed to at most one room at a time.
type RoomRegistry struct {
	shards [shardCount]*roomBucket

	// connID -> roomID; always taken before a shard lock
	memberMu sync.Mutex
	member   map[string]string
}

// RoomInfo is a point-in-time view of one room.
type RoomInfo struct {
	RoomID      string
	Subscribers int
}

func NewRoomRegistry() *RoomRegistry {
	r := &RoomRegistry{member: make(map[string]string)}
	for i := 0; i < shardCount; i++ {
		r.shards[i] = &roomBucket{rooms: make(map[string]map[string]Conn)}
	}
	return r
}

func getShard(roomID string) uint32 {
	if roomID == "" {
		return 0
	}

	h := sha1.Sum([]byte(roomID))
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

// Join subscribes conn to roomID. Joining the same room twice is a no-op;
// joining a different room moves the subscription.
func (r *RoomRegistry) Join(roomID string, conn Conn) {
	if roomID == "" || conn == nil {
		return
	}

	r.memberMu.Lock()
	defer r.memberMu.Unlock()

	if prev, ok := r.member[conn.ID()]; ok && prev != roomID {
		r.remove(prev, conn)
	}

	b := r.shards[getShard(roomID)]
	b.Lock()
	room, ok := b.rooms[roomID]
	if !ok {
		room = make(map[string]Conn)
		b.rooms[roomID] = room
	}
	room[conn.ID()] = conn
	b.Unlock()

	r.member[conn.ID()] = roomID
}

// Leave unsubscribes conn from roomID; absent connections are ignored.
func (r *RoomRegistry) Leave(roomID string, conn Conn) {
	if conn == nil {
		return
	}

	r.memberMu.Lock()
	defer r.memberMu.Unlock()

	if r.member[conn.ID()] == roomID {
		delete(r.member, conn.ID())
	}
	r.remove(roomID, conn)
}

func (r *RoomRegistry) remove(roomID string, conn Conn) {
	b := r.shards[getShard(roomID)]
	b.Lock()
	defer b.Unlock()

	room, ok := b.rooms[roomID]
	if !ok {
		return
	}
	if current, exists := room[conn.ID()]; exists && current == conn {
		delete(room, conn.ID())
	}
	if len(room) == 0 {
		delete(b.rooms, roomID)
	}
}

// Subscribers returns a copy of the room's subscriber set, safe to iterate
// while other sessions join or leave.
func (r *RoomRegistry) Subscribers(roomID string) []Conn {
	b := r.shards[getShard(roomID)]
	b.RLock()
	defer b.RUnlock()

	room := b.rooms[roomID]
	conns := make([]Conn, 0, len(room))
	for _, c := range room {
		conns = append(conns, c)
	}
	return conns
}

// HasUser reports whether any subscriber of roomID belongs to userID.
func (r *RoomRegistry) HasUser(roomID, userID string) bool {
	if userID == "" {
		return false
	}
	for _, c := range r.Subscribers(roomID) {
		if c.UserID() == userID {
			return true
		}
	}
	return false
}

// Stats returns per-room subscriber counts sorted by room id.
func (r *RoomRegistry) Stats() []RoomInfo {
	infos := make([]RoomInfo, 0)
	for _, b := range r.shards {
		b.RLock()
		for id, room := range b.rooms {
			infos = append(infos, RoomInfo{RoomID: id, Subscribers: len(room)})
		}
		b.RUnlock()
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].RoomID < infos[j].RoomID })
	return infos
}
