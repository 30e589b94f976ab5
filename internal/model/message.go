package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message represents a chat message in MongoDB. Status is authoritative here;
// the websocket layer only mirrors it as a low-latency hint.
type Message struct {
	ID             primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	MessageID      string             `json:"id" bson:"message_id"`
	ConversationID string             `json:"conversationId" bson:"conversation_id"`
	SenderID       string             `json:"senderId" bson:"sender_id"`
	ReceiverID     string             `json:"receiverId" bson:"receiver_id"`
	Type           string             `json:"type" bson:"type"`
	Body           string             `json:"text" bson:"body"`
	FileURL        *string            `json:"fileUrl,omitempty" bson:"file_url"`
	Reactions      []Reaction         `json:"reactions,omitempty" bson:"reactions"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	Status         Status             `json:"status" bson:"status"`
}

// Reaction represents an emoji reaction on a message
type Reaction struct {
	UserID string `json:"userId" bson:"user_id"`
	Emoji  string `json:"emoji" bson:"emoji"`
}

// Message types
const (
	MessageTypeText = "text"
	MessageTypeFile = "file"
)

// ErrorPayload represents an error response sent to a client over REST
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
