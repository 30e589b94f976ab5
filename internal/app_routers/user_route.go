package approuters

import (
	"Massenger/internal/auth"
	"Massenger/internal/configuration"

	"github.com/gin-gonic/gin"
)

func UserRouters(router *gin.Engine, container *configuration.Container) {
	userRoute := router.Group("/api/users")
	userRoute.Use(auth.RequireAuth(container.Config.Auth.JWTSecret, container.Logger))
	{
		userRoute.GET("", container.UserHandler.GetAllUsers)
		userRoute.GET("/me", container.UserHandler.GetMe)
		userRoute.GET("/search", container.UserHandler.SearchUsers)
	}
}
