package handler

import (
	"errors"
	"net/http"

	"Massenger/internal/auth"
	"Massenger/internal/repo"
	"Massenger/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	GetAllUsers(c *gin.Context)
	GetMe(c *gin.Context)
	SearchUsers(c *gin.Context)
}

type userHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) UserHandler {
	return &userHandler{
		service: service,
	}
}

// GetAllUsers returns every active user except the caller, for the chat
// sidebar.
func (h *userHandler) GetAllUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *userHandler) GetMe(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "user_not_found", "User not found")
			return
		}
		respondError(c, http.StatusInternalServerError, "internal_error", "Failed to get user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SearchUsers finds users by username or full name.
func (h *userHandler) SearchUsers(c *gin.Context) {
	users, err := h.service.SearchUsers(c.Request.Context(), auth.UserID(c), c.Query("q"))
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			respondError(c, http.StatusBadRequest, "empty_query", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "internal_error", "Failed to search users")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
