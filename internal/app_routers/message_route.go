package approuters

import (
	"Massenger/internal/auth"
	"Massenger/internal/configuration"

	"github.com/gin-gonic/gin"
)

func MessageRouters(router *gin.Engine, container *configuration.Container) {
	messageRoute := router.Group("/api/messages")
	messageRoute.Use(auth.RequireAuth(container.Config.Auth.JWTSecret, container.Logger))
	{
		messageRoute.POST("", container.MessageHandler.SendMessage)
		messageRoute.GET("/conversations", container.MessageHandler.ListConversations)
		messageRoute.GET("/:peerId", container.MessageHandler.GetConversation)
		messageRoute.GET("/:peerId/unread", container.MessageHandler.GetUnreadCount)
		messageRoute.POST("/:peerId/read", container.MessageHandler.MarkConversationRead)
	}
}
