package approuters

import (
	"chatapp/internal/configuration"
	"chatapp/internal/handler"

	"github.com/gin-gonic/gin"
)

func UserRouters(router *gin.Engine, container *configuration.Container) {
	api := router.Group("/api")
	{
		api.GET("/health", container.UserHandler.Health)
	}

	userRoute := router.Group("/api/users", handler.AuthMiddleware(container.Tokens))
	{
		userRoute.GET("/:userId/status", container.UserHandler.GetUserStatus)
	}
}
