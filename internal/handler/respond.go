package handler

import (
	"Massenger/internal/model"

	"github.com/gin-gonic/gin"
)

// respondError writes the REST error shape. Code is a stable machine-readable
// identifier; message is for humans and may vary.
func respondError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, model.ErrorPayload{Code: code, Message: message})
}
