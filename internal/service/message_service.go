package service

import (
	"context"
	"errors"
	"time"

	"Massenger/internal/db"
	"Massenger/internal/model"
	"Massenger/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyMessage    = errors.New("message body cannot be empty")
	ErrSelfMessage     = errors.New("sender and receiver must differ")
	ErrMissingReceiver = errors.New("receiver is required")
	ErrUnknownReceiver = errors.New("receiver does not exist")
)

// StatusNotifier is the push side of the delivery protocol. Implementations
// are best-effort: a false or ignored result never rolls back the persisted
// write that preceded it.
type StatusNotifier interface {
	NotifyNewMessage(msg *model.Message) bool
	NotifyMessagesRead(senderID string, readerID string, messageIDs []string)
}

// SendMessageInput is the REST payload for sending a message. SenderID comes
// from the authenticated session, not the body.
type SendMessageInput struct {
	SenderID   string
	ReceiverID string
	Type       string
	Body       string
	FileURL    *string
}

type MessageService interface {
	// SendMessage persists the message with status sent, then pushes it to
	// the receiver's live sessions. When at least one session accepts the
	// push the persisted status is promoted to delivered. Push failures are
	// logged and swallowed; the write has already committed.
	SendMessage(ctx context.Context, in SendMessageInput) (*model.Message, error)
	// MarkConversationRead persists the read transition for every unread
	// message from peerID, then notifies the peer's live sessions. Returns
	// the affected message ids.
	MarkConversationRead(ctx context.Context, readerID string, peerID string) ([]string, error)
	GetConversation(ctx context.Context, userID string, peerID string, page int64) (*db.PaginatedResult[model.Message], error)
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	// CountUnread returns the number of messages from peerID the caller has
	// not read yet.
	CountUnread(ctx context.Context, readerID string, peerID string) (int64, error)
}

type messageService struct {
	messages      repo.MessageRepository
	conversations repo.ConversationRepository
	users         repo.UserRepository
	notifier      StatusNotifier
	logger        *zap.Logger
	now           func() time.Time
}

func NewMessageService(
	messages repo.MessageRepository,
	conversations repo.ConversationRepository,
	users repo.UserRepository,
	notifier StatusNotifier,
	logger *zap.Logger,
) MessageService {
	return &messageService{
		messages:      messages,
		conversations: conversations,
		users:         users,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *messageService) SendMessage(ctx context.Context, in SendMessageInput) (*model.Message, error) {
	if in.ReceiverID == "" {
		return nil, ErrMissingReceiver
	}
	if in.SenderID == in.ReceiverID {
		return nil, ErrSelfMessage
	}
	if in.Body == "" && in.FileURL == nil {
		return nil, ErrEmptyMessage
	}

	known, err := s.users.Exists(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, ErrUnknownReceiver
	}

	msgType := in.Type
	if msgType == "" {
		msgType = model.MessageTypeText
	}

	msg := &model.Message{
		MessageID:      uuid.New().String(),
		ConversationID: model.PairConversationID(in.SenderID, in.ReceiverID),
		SenderID:       in.SenderID,
		ReceiverID:     in.ReceiverID,
		Type:           msgType,
		Body:           in.Body,
		FileURL:        in.FileURL,
		CreatedAt:      s.now().UTC(),
		Status:         model.StatusSent,
	}

	if _, err := s.messages.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}

	// Secondary write; the message itself is already safe.
	if err := s.conversations.Touch(ctx, msg); err != nil {
		s.logger.Warn("conversation preview update failed",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
	}

	// The push is a hint on top of the committed write. Nothing below this
	// point can fail the request.
	if s.notifier.NotifyNewMessage(msg) {
		if err := s.messages.MarkDelivered(ctx, msg.MessageID); err != nil {
			s.logger.Warn("delivered transition not persisted",
				zap.String("message_id", msg.MessageID),
				zap.Error(err),
			)
		} else {
			msg.Status = model.StatusDelivered
		}
	}

	return msg, nil
}

func (s *messageService) MarkConversationRead(ctx context.Context, readerID string, peerID string) ([]string, error) {
	messageIDs, err := s.messages.MarkConversationRead(ctx, readerID, peerID)
	if err != nil {
		return nil, err
	}

	// Best-effort read receipt to the original sender.
	s.notifier.NotifyMessagesRead(peerID, readerID, messageIDs)

	return messageIDs, nil
}

func (s *messageService) GetConversation(ctx context.Context, userID string, peerID string, page int64) (*db.PaginatedResult[model.Message], error) {
	return s.messages.GetConversationMessages(ctx, userID, peerID, page)
}

func (s *messageService) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	return s.conversations.ListForUser(ctx, userID)
}

func (s *messageService) CountUnread(ctx context.Context, readerID string, peerID string) (int64, error) {
	return s.messages.CountUnread(ctx, readerID, peerID)
}
