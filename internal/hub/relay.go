package hub

import (
	"Massenger/internal/event"
	"Massenger/internal/model"

	"go.uber.org/zap"
)

// StatusRelay pushes message lifecycle notifications to the live sessions of
// the affected users. It is a best-effort side channel: the persisted message
// status is the source of truth and a failed push is only logged, never
// retried and never surfaced to the REST caller whose write already
// committed.
type StatusRelay struct {
	registry Registry
	logger   *zap.Logger
}

func NewStatusRelay(registry Registry, logger *zap.Logger) *StatusRelay {
	return &StatusRelay{
		registry: registry,
		logger:   logger,
	}
}

// NotifyNewMessage pushes the freshly persisted message and its delivery
// confirmation to every live session of the receiver. It reports whether at
// least one session accepted the push, which is what promotes the persisted
// status from sent to delivered. An offline receiver gets nothing; the
// message waits in the store until the next REST fetch.
func (r *StatusRelay) NotifyNewMessage(msg *model.Message) bool {
	sessions := r.registry.Lookup(msg.ReceiverID)
	if len(sessions) == 0 {
		r.logger.Debug("receiver offline, skipping delivery push",
			zap.String("message_id", msg.MessageID),
			zap.String("receiver_id", msg.ReceiverID),
		)
		return false
	}

	msgEvent := event.NewWsEvent(event.EventNewMessage, msg)
	deliveredEvent := event.NewWsEvent(event.EventMessageDelivered, event.MessageDeliveredPayload{
		MessageID:  msg.MessageID,
		ReceiverID: msg.ReceiverID,
	})

	delivered := false
	for _, s := range sessions {
		if !s.Push(msgEvent) {
			r.logger.Warn("new message push failed",
				zap.String("message_id", msg.MessageID),
				zap.String("connection_id", s.ConnID()),
			)
			continue
		}
		delivered = true
		if !s.Push(deliveredEvent) {
			r.logger.Warn("delivered push failed",
				zap.String("message_id", msg.MessageID),
				zap.String("connection_id", s.ConnID()),
			)
		}
	}
	return delivered
}

// NotifyMessagesRead pushes a read receipt to every live session of the
// original sender. readerID is the user who read the messages; the payload
// names them in the senderId field because that is how the receiving client
// identifies the conversation.
func (r *StatusRelay) NotifyMessagesRead(senderID string, readerID string, messageIDs []string) {
	if len(messageIDs) == 0 {
		return
	}

	sessions := r.registry.Lookup(senderID)
	if len(sessions) == 0 {
		r.logger.Debug("sender offline, skipping read push",
			zap.String("sender_id", senderID),
			zap.Int("messages", len(messageIDs)),
		)
		return
	}

	ev := event.NewWsEvent(event.EventMessagesRead, event.MessagesReadPayload{
		SenderID:   readerID,
		MessageIDs: messageIDs,
	})
	for _, s := range sessions {
		if !s.Push(ev) {
			r.logger.Warn("read receipt push failed",
				zap.String("sender_id", senderID),
				zap.String("connection_id", s.ConnID()),
			)
		}
	}
}
