package repo

import (
	"context"
	"fmt"
	"time"

	"Massenger/internal/db"
	"Massenger/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type conversationRepository struct {
	con       *mongo.Database
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

type ConversationRepository interface {
	// Touch upserts the conversation for a participant pair and refreshes its
	// last-message preview. Called on every successful send.
	Touch(ctx context.Context, msg *model.Message) error
	// ListForUser returns the user's conversations, most recent first.
	ListForUser(ctx context.Context, userID string) ([]model.Conversation, error)
}

func NewConversationRepository(con *mongo.Database, repo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		con:       con,
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *conversationRepository) Touch(ctx context.Context, msg *model.Message) error {
	ctx, cancel := r.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("conversation_id", msg.ConversationID).Build()
	update := bson.M{
		"$set": bson.M{
			"participant_ids": []string{msg.SenderID, msg.ReceiverID},
			"last_message_at": msg.CreatedAt,
			"is_active":       true,
			"last_message": model.LastMessage{
				MessageID: msg.MessageID,
				Body:      msg.Body,
				SenderID:  msg.SenderID,
				SentAt:    msg.CreatedAt,
			},
		},
		"$setOnInsert": bson.M{
			"conversation_id": msg.ConversationID,
			"created_at":      msg.CreatedAt,
		},
	}

	if _, err := r.mongoRepo.Upsert(ctx, filter, update); err != nil {
		r.logger.Error("failed to touch conversation",
			zap.String("conversation_id", msg.ConversationID),
			zap.Error(err),
		)
		return fmt.Errorf("touch conversation failed: %w", err)
	}
	return nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := r.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("participant_ids", userID).
		Eq("is_active", true).
		Build()

	opts := options.Find().SetSort(bson.M{"last_message_at": -1})
	conversations, err := r.mongoRepo.FindAll(ctx, filter, opts)
	if err != nil {
		r.logger.Error("failed to list conversations",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list conversations failed: %w", err)
	}

	r.logger.Debug("conversations retrieved",
		zap.String("user_id", userID),
		zap.Int("count", len(conversations)),
	)
	return conversations, nil
}

func (r *conversationRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
