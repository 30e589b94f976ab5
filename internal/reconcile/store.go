// Package reconcile holds the client-side store that merges server pushes
// into local state. The transport gives no ordering or at-least-once
// guarantee, so every merge must tolerate duplicate, out-of-order and missed
// events; a REST fetch of the conversation is always the recovery path.
package reconcile

import (
	"sync"
	"time"

	"Massenger/internal/model"
)

// DefaultTypingTTL is how long a typing flag stays set without a refresh
// before the store considers it expired on its own.
const DefaultTypingTTL = 5 * time.Second

type conversation struct {
	order []string
	byID  map[string]*model.Message
	// typingUntil is the deadline past which the peer's typing flag is
	// treated as cleared even if no stopTyping ever arrived.
	typingUntil time.Time
}

// Store is an in-memory view of the user's conversations, keyed by the peer
// user id. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	convs     map[string]*conversation
	online    map[string]struct{}
	typingTTL time.Duration
	now       func() time.Time
}

// NewStore creates an empty store. ttl <= 0 selects DefaultTypingTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &Store{
		convs:     make(map[string]*conversation),
		online:    make(map[string]struct{}),
		typingTTL: ttl,
		now:       time.Now,
	}
}

func (s *Store) conv(peerID string) *conversation {
	c, ok := s.convs[peerID]
	if !ok {
		c = &conversation{byID: make(map[string]*model.Message)}
		s.convs[peerID] = c
	}
	return c
}

// ApplyMessage merges a pushed message into the conversation with the given
// peer. A message whose id is already present is ignored, so replays are
// harmless.
func (s *Store) ApplyMessage(peerID string, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.conv(peerID)
	if _, exists := c.byID[msg.MessageID]; exists {
		return
	}
	stored := msg
	c.byID[msg.MessageID] = &stored
	c.order = append(c.order, msg.MessageID)
}

// ApplyDelivered marks a message delivered. Unknown ids are a no-op (the chat
// may not be loaded yet; the next fetch carries the right status), and a
// stale delivered arriving after read never regresses the display.
func (s *Store) ApplyDelivered(peerID string, messageID string) {
	s.applyStatus(peerID, messageID, model.StatusDelivered)
}

// ApplyRead marks a batch of messages read.
func (s *Store) ApplyRead(peerID string, messageIDs []string) {
	for _, id := range messageIDs {
		s.applyStatus(peerID, id, model.StatusRead)
	}
}

func (s *Store) applyStatus(peerID string, messageID string, target model.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[peerID]
	if !ok {
		return
	}
	msg, ok := c.byID[messageID]
	if !ok {
		return
	}
	next, err := msg.Status.Advance(target)
	if err != nil {
		// regression or junk status: keep what we have
		return
	}
	msg.Status = next
}

// ApplyTyping sets the peer's typing flag and arms the idle deadline.
func (s *Store) ApplyTyping(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv(peerID).typingUntil = s.now().Add(s.typingTTL)
}

// ApplyStopTyping clears the peer's typing flag. Last write wins; an
// out-of-order stopTyping arriving after a later typing clears the flag,
// which matches the documented wire behavior.
func (s *Store) ApplyStopTyping(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv(peerID).typingUntil = time.Time{}
}

// IsTyping reports whether the peer's typing flag is set and not yet expired.
func (s *Store) IsTyping(peerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.convs[peerID]
	if !ok {
		return false
	}
	return c.typingUntil.After(s.now())
}

// ReplaceConversation swaps the local message list for the authoritative REST
// result. This is the recovery path for any pushes that were missed entirely.
func (s *Store) ReplaceConversation(peerID string, msgs []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.conv(peerID)
	c.order = c.order[:0]
	c.byID = make(map[string]*model.Message, len(msgs))
	for _, msg := range msgs {
		stored := msg
		c.byID[msg.MessageID] = &stored
		c.order = append(c.order, msg.MessageID)
	}
}

// Messages returns a copy of the conversation in arrival order.
func (s *Store) Messages(peerID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.convs[peerID]
	if !ok {
		return nil
	}
	out := make([]model.Message, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.byID[id])
	}
	return out
}

// Message returns a single message by id.
func (s *Store) Message(peerID string, messageID string) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.convs[peerID]
	if !ok {
		return model.Message{}, false
	}
	msg, ok := c.byID[messageID]
	if !ok {
		return model.Message{}, false
	}
	return *msg, true
}

// ApplyPresence replaces the online set wholesale.
func (s *Store) ApplyPresence(online []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.online = make(map[string]struct{}, len(online))
	for _, userID := range online {
		s.online[userID] = struct{}{}
	}
}

// IsOnline reports whether a user is in the last pushed online set.
func (s *Store) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.online[userID]
	return ok
}

// OnlineCount returns the size of the last pushed online set.
func (s *Store) OnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.online)
}
