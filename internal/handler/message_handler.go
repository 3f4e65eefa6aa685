package handler

import (
	"chatapp/internal/service"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageHandler interface {
	SendMessage(c *gin.Context)
	ListMessages(c *gin.Context)
	EditMessage(c *gin.Context)
	DeleteMessage(c *gin.Context)
	ToggleReaction(c *gin.Context)
	MarkRead(c *gin.Context)
	MarkAllRead(c *gin.Context)
	RemoveParticipant(c *gin.Context)
}

type messageHandler struct {
	service *service.MessageService
	logger  *zap.Logger
}

func NewMessageHandler(service *service.MessageService, logger *zap.Logger) MessageHandler {
	return &messageHandler{
		service: service,
		logger:  logger,
	}
}

type sendMessageRequest struct {
	Content     string  `json:"content"`
	MessageType string  `json:"message_type"`
	FileURL     *string `json:"file_url"`
	ReplyTo     *string `json:"reply_to"`
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

func (h *messageHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), service.SendInput{
		ChatID:      c.Param("chatId"),
		SenderID:    CurrentUserID(c),
		MessageType: req.MessageType,
		Content:     req.Content,
		FileURL:     req.FileURL,
		ReplyTo:     req.ReplyTo,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg.View()})
}

func (h *messageHandler) ListMessages(c *gin.Context) {
	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		badRequest(c, "Invalid page number")
		return
	}

	msgs, err := h.service.ListMessages(c.Request.Context(), c.Param("chatId"), CurrentUserID(c), pageNumber)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *messageHandler) EditMessage(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}

	msg, err := h.service.EditMessage(c.Request.Context(), c.Param("messageId"), CurrentUserID(c), req.Content)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg.View()})
}

func (h *messageHandler) DeleteMessage(c *gin.Context) {
	msg, err := h.service.DeleteMessage(c.Request.Context(), c.Param("messageId"), CurrentUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msg.View()})
}

func (h *messageHandler) ToggleReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "emoji is required")
		return
	}

	messageID := c.Param("messageId")
	reactions, err := h.service.ToggleReaction(c.Request.Context(), messageID, CurrentUserID(c), req.Emoji)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message_id": messageID, "reactions": reactions})
}

func (h *messageHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.Param("messageId"), CurrentUserID(c)); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *messageHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.service.MarkAllRead(c.Request.Context(), c.Param("chatId"), CurrentUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *messageHandler) RemoveParticipant(c *gin.Context) {
	err := h.service.RemoveParticipant(c.Request.Context(), c.Param("chatId"), CurrentUserID(c), c.Param("userId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
