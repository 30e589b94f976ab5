package hub

import (
	"sync"
	"time"

	"Massenger/internal/event"

	"go.uber.org/zap"
)

// DefaultTypingTTL is how long a typing signal stays alive without a refresh
// before the server clears it on the receiver's behalf.
const DefaultTypingTTL = 5 * time.Second

type typingKey struct {
	connID     string
	receiverID string
}

// TypingRelay forwards ephemeral typing signals from a sender's connection to
// the receiver's live sessions. Nothing is persisted. Each signal carries a
// server-side TTL: if the sender's tab dies without an explicit stopTyping,
// the relay emits the stopTyping itself once the TTL lapses, so the
// receiver's indicator can never stay stuck.
//
// Typing state is tracked per connection, not per user: a user typing in one
// tab and idle in another produces exactly one session, and reading the
// conversation from the second tab does not disturb it.
type TypingRelay struct {
	registry Registry
	ttl      time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[typingKey]*time.Timer
}

func NewTypingRelay(registry Registry, ttl time.Duration, logger *zap.Logger) *TypingRelay {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingRelay{
		registry: registry,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[typingKey]*time.Timer),
	}
}

// Typing forwards a typing signal from the given sender session to every live
// session of receiverID and arms (or refreshes) the expiry timer. An offline
// receiver is not an error; the signal is silently dropped.
func (t *TypingRelay) Typing(sender Session, receiverID string) {
	t.forward(event.EventTyping, sender.UserID(), receiverID)

	key := typingKey{connID: sender.ConnID(), receiverID: receiverID}
	senderID := sender.UserID()

	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.sessions[key]; ok {
		timer.Reset(t.ttl)
		return
	}
	t.sessions[key] = time.AfterFunc(t.ttl, func() {
		t.expire(key, senderID)
	})
}

// StopTyping clears the typing session and forwards the stop signal.
func (t *TypingRelay) StopTyping(sender Session, receiverID string) {
	key := typingKey{connID: sender.ConnID(), receiverID: receiverID}
	if t.clear(key) {
		t.forward(event.EventStopTyping, sender.UserID(), receiverID)
	}
}

// ClearConnection drops every typing session owned by a closed connection and
// notifies the affected receivers. Called by the hub on unregister.
func (t *TypingRelay) ClearConnection(connID string, userID string) {
	t.mu.Lock()
	var receivers []string
	for key, timer := range t.sessions {
		if key.connID == connID {
			timer.Stop()
			delete(t.sessions, key)
			receivers = append(receivers, key.receiverID)
		}
	}
	t.mu.Unlock()

	for _, receiverID := range receivers {
		t.forward(event.EventStopTyping, userID, receiverID)
	}
}

// ActiveSessions returns the number of live typing sessions.
func (t *TypingRelay) ActiveSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *TypingRelay) expire(key typingKey, senderID string) {
	if t.clear(key) {
		t.logger.Debug("typing session expired",
			zap.String("connection_id", key.connID),
			zap.String("receiver_id", key.receiverID),
		)
		t.forward(event.EventStopTyping, senderID, key.receiverID)
	}
}

func (t *TypingRelay) clear(key typingKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	timer, ok := t.sessions[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(t.sessions, key)
	return true
}

func (t *TypingRelay) forward(name string, senderID string, receiverID string) {
	sessions := t.registry.Lookup(receiverID)
	if len(sessions) == 0 {
		return
	}

	ev := event.NewWsEvent(name, event.TypingPayload{SenderID: senderID})
	for _, s := range sessions {
		if !s.Push(ev) {
			t.logger.Warn("typing push failed",
				zap.String("event", name),
				zap.String("receiver_id", receiverID),
				zap.String("connection_id", s.ConnID()),
			)
		}
	}
}
