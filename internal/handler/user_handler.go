package handler

import (
	"chatapp/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserHandler interface {
	GetUserStatus(c *gin.Context)
	Health(c *gin.Context)
}

type userHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) UserHandler {
	return &userHandler{
		service: service,
	}
}

func (h *userHandler) GetUserStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status(c.Param("userId")))
}

func (h *userHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}
