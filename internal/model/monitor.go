package model

// -----------------------------------------------------------------
// Monitor API Response Models
// -----------------------------------------------------------------

// MonitorResponse is the main response for the monitor API
type MonitorResponse struct {
	Status      string          `json:"status"` // "healthy" or "idle"
	Connections ConnectionStats `json:"connections"`
	OnlineUsers []string        `json:"onlineUsers"`
	Clients     []ClientInfo    `json:"clients"`
	FanOut      map[string]int  `json:"fanOut"` // userId -> live connection count
	Typing      TypingStats     `json:"typing"`
}

// ConnectionStats holds connection-related statistics
type ConnectionStats struct {
	TotalConnections int `json:"totalConnections"` // live websocket connections
	DistinctUsers    int `json:"distinctUsers"`    // users with at least one connection
}

// TypingStats holds active typing session statistics
type TypingStats struct {
	ActiveSessions int `json:"activeSessions"`
}

// ClientInfo contains information about a connected client
type ClientInfo struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
}
