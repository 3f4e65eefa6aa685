package approuters

import (
	"chatapp/internal/configuration"
	"chatapp/internal/handler"

	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	h := container.MessageHandler
	authed := handler.AuthMiddleware(container.Tokens)

	chatRoute := router.Group("/api/chats", authed)
	{
		chatRoute.POST("/:chatId/messages", h.SendMessage)
		chatRoute.GET("/:chatId/messages", h.ListMessages)
		chatRoute.POST("/:chatId/read", h.MarkAllRead)
		chatRoute.DELETE("/:chatId/participants/:userId", h.RemoveParticipant)
	}

	messageRoute := router.Group("/api/messages", authed)
	{
		messageRoute.PUT("/:messageId", h.EditMessage)
		messageRoute.DELETE("/:messageId", h.DeleteMessage)
		messageRoute.POST("/:messageId/reactions", h.ToggleReaction)
		messageRoute.POST("/:messageId/read", h.MarkRead)
	}
}
