package model

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation represents a direct chat between two users in MongoDB. The
// conversation id is derived from the participant pair so that both sides
// address the same document.
type Conversation struct {
	ID             primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	ConversationID string             `json:"conversationId" bson:"conversation_id"`
	ParticipantIDs []string           `json:"participantIds" bson:"participant_ids"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	LastMessageAt  time.Time          `json:"lastMessageAt" bson:"last_message_at"`
	LastMessage    *LastMessage       `json:"lastMessage,omitempty" bson:"last_message"`
	IsActive       bool               `json:"isActive" bson:"is_active"`
}

// LastMessage stores the most recent message preview
type LastMessage struct {
	MessageID string    `json:"messageId" bson:"message_id"`
	Body      string    `json:"body" bson:"body"`
	SenderID  string    `json:"senderId" bson:"sender_id"`
	SentAt    time.Time `json:"sentAt" bson:"sent_at"`
}

// PairConversationID returns the canonical conversation id for two users.
// It is order independent: PairConversationID(a, b) == PairConversationID(b, a).
func PairConversationID(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return strings.Join(pair, ":")
}
