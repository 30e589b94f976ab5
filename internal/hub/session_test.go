package hub

import (
	"sync"

	"Massenger/internal/event"
)

// fakeSession records pushed events so the registry and the relays can be
// exercised without a live websocket.
type fakeSession struct {
	connID string
	userID string

	mu     sync.Mutex
	events []event.WsEvent
	reject bool
}

func newFakeSession(connID, userID string) *fakeSession {
	return &fakeSession{connID: connID, userID: userID}
}

func (f *fakeSession) ConnID() string { return f.connID }
func (f *fakeSession) UserID() string { return f.userID }

func (f *fakeSession) Push(ev event.WsEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject {
		return false
	}
	f.events = append(f.events, ev)
	return true
}

func (f *fakeSession) received(name string) []event.WsEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []event.WsEvent
	for _, ev := range f.events {
		if ev.Event == name {
			out = append(out, ev)
		}
	}
	return out
}

func (f *fakeSession) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}
