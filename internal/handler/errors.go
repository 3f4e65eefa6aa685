package handler

import (
	"chatapp/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps service errors onto HTTP statuses. Anything unrecognised
// is logged and reported as a 500 without its detail.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status, code := http.StatusInternalServerError, "internal_error"

	switch {
	case errors.Is(err, service.ErrChatNotFound), errors.Is(err, service.ErrMessageNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrMessageDeleted):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrNotSender), errors.Is(err, service.ErrNotParticipant), errors.Is(err, service.ErrNotCreator):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrEmptyContent), errors.Is(err, service.ErrInvalidMessageType), errors.Is(err, service.ErrInvalidEmoji):
		status, code = http.StatusBadRequest, "bad_request"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		message = "Internal server error"
	}

	c.JSON(status, ErrorResponse{Error: code, Message: message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: message})
}
