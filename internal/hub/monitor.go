package hub

import (
	"Massenger/internal/model"
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
	registry := ms.hub.Registry()

	online := registry.OnlineUsers()
	totalConns := registry.Connections()

	clients := make([]model.ClientInfo, 0, totalConns)
	fanOut := make(map[string]int, len(online))
	registry.ForEach(func(s Session) {
		clients = append(clients, model.ClientInfo{
			ConnectionID: s.ConnID(),
			UserID:       s.UserID(),
		})
		fanOut[s.UserID()]++
	})

	status := "healthy"
	if totalConns == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status: status,
		Connections: model.ConnectionStats{
			TotalConnections: totalConns,
			DistinctUsers:    len(online),
		},
		OnlineUsers: online,
		Clients:     clients,
		FanOut:      fanOut,
		Typing: model.TypingStats{
			ActiveSessions: ms.hub.Typing().ActiveSessions(),
		},
	}
}
