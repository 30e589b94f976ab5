package hub

import (
	"sort"
	"sync"

	"Massenger/internal/event"
)

// Session is one live transport connection owned by an authenticated user.
// The registry and the relays only depend on this interface so they can be
// exercised in tests without a live websocket.
type Session interface {
	ConnID() string
	UserID() string
	// Push enqueues an event on the session's outbound buffer. It reports
	// false when the session is closed or the buffer stayed full past the
	// send timeout; the caller never retries.
	Push(ev event.WsEvent) bool
}

// Registry maps authenticated user ids to their live connections. A user may
// own several concurrent sessions (tabs, devices). State is in-memory only and
// rebuilt from scratch on restart; the transport reconnects on its own.
type Registry interface {
	// Register adds a session. Registering the same (user, conn) pair twice
	// leaves the registry unchanged.
	Register(s Session)
	// Unregister removes the session with the given connection id, whoever
	// owned it. It returns the owning user id and whether that user has no
	// sessions left.
	Unregister(connID string) (userID string, wentOffline bool)
	// Lookup returns all live sessions for a user. An empty result means the
	// user is offline or has closed every tab.
	Lookup(userID string) []Session
	// Online reports whether the user has at least one live session.
	Online(userID string) bool
	// OnlineUsers returns the distinct ids of users with at least one live
	// session, sorted for stable output.
	OnlineUsers() []string
	// Connections returns the number of live sessions across all users.
	Connections() int
	// ForEach calls fn for every live session.
	ForEach(fn func(s Session))
}

type memoryRegistry struct {
	mu     sync.RWMutex
	byConn map[string]Session
	byUser map[string]map[string]Session
}

// NewRegistry creates an empty in-memory registry.
func NewRegistry() Registry {
	return &memoryRegistry{
		byConn: make(map[string]Session),
		byUser: make(map[string]map[string]Session),
	}
}

func (r *memoryRegistry) Register(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConn[s.ConnID()]; exists {
		return
	}

	r.byConn[s.ConnID()] = s

	conns, ok := r.byUser[s.UserID()]
	if !ok {
		conns = make(map[string]Session)
		r.byUser[s.UserID()] = conns
	}
	conns[s.ConnID()] = s
}

func (r *memoryRegistry) Unregister(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	delete(r.byConn, connID)

	userID := s.UserID()
	if conns, ok := r.byUser[userID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.byUser, userID)
			return userID, true
		}
	}
	return userID, false
}

func (r *memoryRegistry) Lookup(userID string) []Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.byUser[userID]
	if !ok {
		return nil
	}
	sessions := make([]Session, 0, len(conns))
	for _, s := range conns {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *memoryRegistry) Online(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

func (r *memoryRegistry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.byUser))
	for userID := range r.byUser {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

func (r *memoryRegistry) Connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

func (r *memoryRegistry) ForEach(fn func(s Session)) {
	r.mu.RLock()
	sessions := make([]Session, 0, len(r.byConn))
	for _, s := range r.byConn {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	// deliver outside the lock
	for _, s := range sessions {
		fn(s)
	}
}
