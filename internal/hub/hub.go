package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"Massenger/internal/event"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

// Hub owns the connection registry and fans inbound websocket events out to a
// worker pool. Register/unregister and the resulting presence broadcasts are
// serialized through the run loop; pushes to individual sessions go through
// the relays.
type Hub struct {
	registry   Registry
	presence   *PresenceBroadcaster
	typing     *TypingRelay
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
	logger     *zap.Logger

	allowedOrigins []string
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
	stopOnce       sync.Once
}

// Options tunes hub construction.
type Options struct {
	TypingTTL      time.Duration
	AllowedOrigins []string
}

func NewHub(registry Registry, opts Options, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		registry:   registry,
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096), // buffer for burst handling
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	h.presence = NewPresenceBroadcaster(registry, logger)
	h.typing = NewTypingRelay(registry, opts.TypingTTL, logger)
	h.allowedOrigins = opts.AllowedOrigins

	// run manager loop
	go h.run()

	// start worker loop
	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in := <-h.inbound:
					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

// Registry exposes the registry for the relays and the monitor.
func (h *Hub) Registry() Registry { return h.registry }

// Typing exposes the typing relay for the monitor.
func (h *Hub) Typing() *TypingRelay { return h.typing }

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.registry.Register(c)
			h.presence.Broadcast()
		case c := <-h.unregister:
			userID, wentOffline := h.registry.Unregister(c.ConnID())
			h.typing.ClearConnection(c.ConnID(), userID)
			c.Close()
			h.presence.Broadcast()
			if wentOffline {
				h.logger.Info("user offline", zap.String("user_id", userID))
			}
		}
	}
}

func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventTyping, event.EventStopTyping:
		var payload event.TypingPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			h.logger.Warn("malformed typing payload",
				zap.String("connection_id", c.ConnID()),
				zap.Error(err),
			)
			return
		}
		if payload.ReceiverID == "" {
			return
		}
		// The sender identity comes from the authenticated session; a
		// spoofed senderId on the wire is ignored.
		if payload.SenderID != "" && payload.SenderID != c.UserID() {
			h.logger.Warn("typing senderId mismatch, using session identity",
				zap.String("claimed", payload.SenderID),
				zap.String("session", c.UserID()),
			)
		}
		if ev.Event == event.EventTyping {
			h.typing.Typing(c, payload.ReceiverID)
		} else {
			h.typing.StopTyping(c, payload.ReceiverID)
		}
	default:
		h.logger.Warn("unknown event type",
			zap.String("event", ev.Event),
			zap.String("connection_id", c.ConnID()),
		)
	}
}

// Stop shuts down the hub and closes every live connection. Safe to call
// more than once; the container and the server teardown both invoke it. The
// inbound channel is never closed so a reader still draining its socket
// cannot send on a closed channel; workers exit on the cancelled context.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()

		h.registry.ForEach(func(s Session) {
			if c, ok := s.(*Client); ok {
				c.Close()
			}
		})

		h.wg.Wait()
	})
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ServeWS upgrades an authenticated request to a websocket and registers the
// client. userID must already be validated by the auth layer.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	upgrader := websocketUpgrader
	upgrader.CheckOrigin = h.checkOrigin

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(userID, conn, h)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
