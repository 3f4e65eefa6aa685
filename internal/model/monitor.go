package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"`      // "healthy" or "idle"
	Connections ConnectionStats `json:"connections"` // Session counts
	Rooms       RoomStats       `json:"rooms"`       // Room subscription stats
	OnlineUsers []string        `json:"onlineUsers"` // Users holding a global channel
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalSessions        int `json:"totalSessions"`        // Open sessions of both kinds
	TotalOnline          int `json:"totalOnline"`          // Users with a global channel
	TotalRoomConnections int `json:"totalRoomConnections"` // Connections subscribed to a room
}

// RoomStats holds room/conversation statistics
type RoomStats struct {
	TotalRooms  int        `json:"totalRooms"`  // Rooms with at least one subscriber
	RoomDetails []RoomInfo `json:"roomDetails"` // Details of each room
}

// RoomInfo contains information about a single room
type RoomInfo struct {
	ChatID      string `json:"chatId"`
	Subscribers int    `json:"subscribers"`
}
