package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Massenger/internal/db"
	"Massenger/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")
	ErrInvalidMessage     = errors.New("invalid message: message cannot be nil")
	ErrInvalidUserID      = errors.New("invalid user ID: cannot be empty")
	ErrOperationTimeout   = errors.New("operation timeout exceeded")
)

const (
	// Timeouts
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	// Retry configuration
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second

	conversationPageSize = 15
)

type messageRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

type MessageRepository interface {
	InsertMessage(ctx context.Context, msg *model.Message) (string, error)
	GetConversationMessages(ctx context.Context, userID string, peerID string, page int64) (*db.PaginatedResult[model.Message], error)
	// MarkDelivered promotes a message from sent to delivered. The status
	// filter makes the write monotonic: a message already read is left alone.
	MarkDelivered(ctx context.Context, messageID string) error
	// MarkConversationRead promotes every not-yet-read message sent by peerID
	// to readerID and returns the affected message ids.
	MarkConversationRead(ctx context.Context, readerID string, peerID string) ([]string, error)
	// CountUnread counts the messages from peerID that readerID has not read.
	CountUnread(ctx context.Context, readerID string, peerID string) (int64, error)
}

func NewMessageRepository(mongo *mongo.Database, repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		con:       mongo,
		mongoRepo: repo,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// InsertMessage
// -----------------------------------------------------------------------------

func (m *messageRepository) InsertMessage(ctx context.Context, msg *model.Message) (string, error) {
	if err := m.validateMessage(msg); err != nil {
		return "", err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	retryable := false
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return "", err
			}
		}

		result, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			insertedID := ""
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				insertedID = oid.Hex()
			}

			m.logger.Info("message inserted",
				zap.String("message_id", msg.MessageID),
				zap.String("conversation_id", msg.ConversationID),
				zap.Int("attempt", attempt+1),
			)
			return insertedID, nil
		}

		lastErr = err
		retryable = m.isRetryableError(err)

		if !retryable {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("conversation_id", msg.ConversationID),
	)

	if retryable {
		return "", fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, lastErr)
	}
	return "", fmt.Errorf("insert message failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// GetConversationMessages
// -----------------------------------------------------------------------------

func (m *messageRepository) GetConversationMessages(ctx context.Context, userID string, peerID string, page int64) (*db.PaginatedResult[model.Message], error) {
	if userID == "" || peerID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("conversation_id", model.PairConversationID(userID, peerID)).
		Build()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := m.mongoRepo.FindWithPagination(ctx, filter, db.PaginationParams{
			Page:     page,
			PageSize: conversationPageSize,
			SortBy:   "created_at",
			SortDesc: false,
		})

		if err == nil {
			m.logger.Debug("conversation messages fetched",
				zap.String("user_id", userID),
				zap.String("peer_id", peerID),
				zap.Int("count", len(result.Data)),
				zap.Int64("total", result.Total),
			)
			return result, nil
		}

		lastErr = err

		if !m.isRetryableError(err) {
			break
		}
	}

	return nil, m.handleReadError(lastErr, userID, peerID)
}

// -----------------------------------------------------------------------------
// Status transitions
// -----------------------------------------------------------------------------

func (m *messageRepository) MarkDelivered(ctx context.Context, messageID string) error {
	if messageID == "" {
		return ErrInvalidMessage
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("message_id", messageID).
		Eq("status", model.StatusSent).
		Build()

	result, err := m.mongoRepo.Update(ctx, filter, bson.M{"status": model.StatusDelivered})
	if err != nil {
		m.logger.Error("failed to mark message delivered",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return fmt.Errorf("mark delivered failed: %w", err)
	}

	if result.ModifiedCount == 0 {
		// already delivered or read; monotonic, nothing to do
		m.logger.Debug("delivered transition skipped", zap.String("message_id", messageID))
	}
	return nil
}

func (m *messageRepository) MarkConversationRead(ctx context.Context, readerID string, peerID string) ([]string, error) {
	if readerID == "" || peerID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("sender_id", peerID).
		Eq("receiver_id", readerID).
		Lt("status", model.StatusRead).
		Build()

	pending, err := m.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		m.logger.Error("failed to load unread messages",
			zap.String("reader_id", readerID),
			zap.String("peer_id", peerID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("load unread messages failed: %w", err)
	}

	if len(pending) == 0 {
		return nil, nil
	}

	messageIDs := make([]string, 0, len(pending))
	for _, msg := range pending {
		messageIDs = append(messageIDs, msg.MessageID)
	}

	updateFilter := db.NewFilter().
		In("message_id", messageIDs).
		Lt("status", model.StatusRead).
		Build()

	if _, err := m.mongoRepo.UpdateMany(ctx, updateFilter, bson.M{"status": model.StatusRead}); err != nil {
		m.logger.Error("failed to mark conversation read",
			zap.String("reader_id", readerID),
			zap.String("peer_id", peerID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("mark conversation read failed: %w", err)
	}

	m.logger.Info("conversation marked read",
		zap.String("reader_id", readerID),
		zap.String("peer_id", peerID),
		zap.Int("messages", len(messageIDs)),
	)
	return messageIDs, nil
}

func (m *messageRepository) CountUnread(ctx context.Context, readerID string, peerID string) (int64, error) {
	if readerID == "" || peerID == "" {
		return 0, ErrInvalidUserID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("sender_id", peerID).
		Eq("receiver_id", readerID).
		Lt("status", model.StatusRead).
		Build()

	count, err := m.mongoRepo.Count(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count unread failed: %w", err)
	}
	return count, nil
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (m *messageRepository) validateMessage(msg *model.Message) error {
	if msg == nil {
		return ErrInvalidMessage
	}
	if msg.SenderID == "" || msg.ReceiverID == "" {
		return ErrInvalidUserID
	}
	return nil
}

func (m *messageRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (m *messageRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (m *messageRepository) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}

func (m *messageRepository) handleReadError(err error, userID string, peerID string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout",
			zap.String("user_id", userID),
			zap.String("peer_id", peerID),
		)
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}

	m.logger.Error("read failed",
		zap.Error(err),
		zap.String("user_id", userID),
		zap.String("peer_id", peerID),
	)
	return fmt.Errorf("fetch conversation failed: %w", err)
}
