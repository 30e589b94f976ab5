package handler

import (
	"errors"
	"net/http"
	"strconv"

	"Massenger/internal/auth"
	"Massenger/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler interface {
	SendMessage(c *gin.Context)
	GetConversation(c *gin.Context)
	MarkConversationRead(c *gin.Context)
	ListConversations(c *gin.Context)
	GetUnreadCount(c *gin.Context)
}

type messageHandler struct {
	service service.MessageService
}

func NewMessageHandler(service service.MessageService) MessageHandler {
	return &messageHandler{
		service: service,
	}
}

type sendMessageRequest struct {
	ReceiverID string  `json:"receiverId" binding:"required"`
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	FileURL    *string `json:"fileUrl"`
}

func (h *messageHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), service.SendMessageInput{
		SenderID:   auth.UserID(c),
		ReceiverID: req.ReceiverID,
		Type:       req.Type,
		Body:       req.Text,
		FileURL:    req.FileURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) ||
			errors.Is(err, service.ErrSelfMessage) ||
			errors.Is(err, service.ErrMissingReceiver) {
			respondError(c, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		if errors.Is(err, service.ErrUnknownReceiver) {
			respondError(c, http.StatusNotFound, "unknown_receiver", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "internal_error", "Failed to send message")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *messageHandler) GetConversation(c *gin.Context) {
	peerID := c.Param("peerId")
	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		respondError(c, http.StatusBadRequest, "bad_page", "Invalid page number")
		return
	}

	msgs, err := h.service.GetConversation(c.Request.Context(), auth.UserID(c), peerID, pageNumber)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Failed to get messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *messageHandler) MarkConversationRead(c *gin.Context) {
	peerID := c.Param("peerId")

	messageIDs, err := h.service.MarkConversationRead(c.Request.Context(), auth.UserID(c), peerID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Failed to mark conversation read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messageIds": messageIDs})
}

func (h *messageHandler) ListConversations(c *gin.Context) {
	conversations, err := h.service.ListConversations(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Failed to list conversations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *messageHandler) GetUnreadCount(c *gin.Context) {
	peerID := c.Param("peerId")

	count, err := h.service.CountUnread(c.Request.Context(), auth.UserID(c), peerID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Failed to count unread messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
