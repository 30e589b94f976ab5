package hub

import (
	"context"
	"sync"
	"testing"

	"Massenger/internal/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// newDetachedClient builds a client without a live websocket so Push and
// Close can be exercised directly. connClosed starts closed since there is
// no write pump to close the conn.
func newDetachedClient() *Client {
	ctx, cancel := context.WithCancel(context.Background())
	connClosed := make(chan struct{})
	close(connClosed)

	return &Client{
		id:         uuid.New().String(),
		userID:     "alice",
		egress:     make(chan event.WsEvent, sendBufSize),
		logger:     zap.NewNop(),
		cancel:     cancel,
		ctx:        ctx,
		connClosed: connClosed,
	}
}

func TestPushAfterCloseIsRejected(t *testing.T) {
	c := newDetachedClient()

	assert.True(t, c.Push(event.NewWsEvent(event.EventPresenceUpdate, event.PresencePayload{})))

	c.Close()

	assert.False(t, c.Push(event.NewWsEvent(event.EventPresenceUpdate, event.PresencePayload{})))
	assert.True(t, c.IsClosed())
}

func TestPushRacingCloseNeverPanics(t *testing.T) {
	c := newDetachedClient()
	ev := event.NewWsEvent(event.EventPresenceUpdate, event.PresencePayload{Online: []string{"alice"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.Push(ev)
			}
		}()
	}

	c.Close()
	c.Close() // double close is a no-op
	wg.Wait()

	assert.False(t, c.Push(ev))
}
