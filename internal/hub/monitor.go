package hub

import (
	"chatapp/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	online := ms.hub.presence.OnlineUsers()
	rooms := ms.getRoomStats()

	connectionStats := model.ConnectionStats{
		TotalSessions: ms.hub.SessionCount(),
		TotalOnline:   len(online),
	}
	for _, room := range rooms.RoomDetails {
		connectionStats.TotalRoomConnections += room.Subscribers
	}

	// Determine overall health status
	status := "healthy"
	if connectionStats.TotalSessions == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: connectionStats,
		Rooms:       rooms,
		OnlineUsers: online,
	}
}

// getRoomStats returns room/conversation statistics
func (ms *MonitorService) getRoomStats() model.RoomStats {
	infos := ms.hub.rooms.Stats()

	stats := model.RoomStats{
		TotalRooms:  len(infos),
		RoomDetails: make([]model.RoomInfo, 0, len(infos)),
	}
	for _, info := range infos {
		stats.RoomDetails = append(stats.RoomDetails, model.RoomInfo{
			ChatID:      info.RoomID,
			Subscribers: info.Subscribers,
		})
	}
	return stats
}
