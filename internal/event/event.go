package event

import "encoding/json"

// Client to server events
const (
	EventTyping     = "typing"
	EventStopTyping = "stopTyping"
)

// Server to client events
const (
	// EventPresenceUpdate - full online set, pushed on every registry mutation
	EventPresenceUpdate = "presence_update"

	// EventNewMessage - a freshly persisted message for the receiver
	EventNewMessage = "new_message"

	// EventMessageDelivered - delivery confirmation carrying the message id
	EventMessageDelivered = "message_delivered"

	// EventMessagesRead - read receipt for a batch of messages
	EventMessagesRead = "messages_read"
)

// WsEvent is the wire envelope for every websocket frame in both directions.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// NewWsEvent marshals payload into an envelope. A payload that cannot be
// marshalled is a programming error, so the envelope is returned with a nil
// payload rather than failing the push path.
func NewWsEvent(name string, payload any) WsEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{Event: name}
	}
	return WsEvent{Event: name, Payload: raw}
}

// TypingPayload carries a typing or stopTyping signal. ReceiverID is only set
// on the client to server leg; the server forwards just the sender identity.
type TypingPayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId,omitempty"`
}

// PresencePayload carries the full online set. Order is not significant.
type PresencePayload struct {
	Online []string `json:"online"`
}

// MessageDeliveredPayload confirms delivery of a single message
type MessageDeliveredPayload struct {
	MessageID  string `json:"messageId"`
	ReceiverID string `json:"receiverId"`
}

// MessagesReadPayload notifies the original sender that its messages were
// read. SenderID identifies the user who read them, i.e. the conversation
// peer from the receiving client's point of view.
type MessagesReadPayload struct {
	SenderID   string   `json:"senderId"`
	MessageIDs []string `json:"messageIds"`
}
