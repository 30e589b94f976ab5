package hub

import (
	"Massenger/internal/event"

	"go.uber.org/zap"
)

// PresenceBroadcaster derives the online set from the registry and pushes the
// full set to every connected client on each registry mutation. The set is
// always rebroadcast, even when a mutation did not change it (a second tab
// opening for an already-online user still triggers a push); clients treat the
// payload as a wholesale replacement so duplicates are harmless.
type PresenceBroadcaster struct {
	registry Registry
	logger   *zap.Logger
}

func NewPresenceBroadcaster(registry Registry, logger *zap.Logger) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		registry: registry,
		logger:   logger,
	}
}

// Broadcast recomputes the online set and pushes it to all live sessions.
func (b *PresenceBroadcaster) Broadcast() {
	online := b.registry.OnlineUsers()
	ev := event.NewWsEvent(event.EventPresenceUpdate, event.PresencePayload{Online: online})

	b.registry.ForEach(func(s Session) {
		if !s.Push(ev) {
			b.logger.Warn("presence push failed",
				zap.String("connection_id", s.ConnID()),
				zap.String("user_id", s.UserID()),
			)
		}
	})

	b.logger.Debug("presence broadcast",
		zap.Int("online_users", len(online)),
		zap.Int("connections", b.registry.Connections()),
	)
}
