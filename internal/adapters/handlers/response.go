package handlers

import (
	"errors"
	"net/http"

	apperrors "github.com/iwtcode/industrialGateway/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse возвращает стандартизированный ответ с ошибкой
func (h *Handler) ErrorResponse(c *gin.Context, err error, statusCode int, message string, showError bool) {
	errorMessage := message
	if showError && err != nil {
		errorMessage = message + ": " + err.Error()
	}

	h.logger.Error(message, "error", err, "statusCode", statusCode)
	c.AbortWithStatusJSON(statusCode, gin.H{
		"status": "error",
		"error": gin.H{
			"code":    statusCode,
			"message": errorMessage,
		},
	})
}

// BadRequest возвращает ошибку 400
func (h *Handler) BadRequest(c *gin.Context, err error, message string) {
	if message == "" {
		message = apperrors.BadRequest
	}
	h.ErrorResponse(c, err, http.StatusBadRequest, message, true)
}

// InternalError возвращает ошибку 500
func (h *Handler) InternalError(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusInternalServerError, apperrors.InternalServerError, false)
}

// NotFound возвращает ошибку 404
func (h *Handler) NotFound(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusNotFound, apperrors.NotFound, true)
}

// RespondError переводит доменные ошибки в HTTP-статусы:
// нет подключения - 404, ошибка разбора - 400, остальное - 500.
func (h *Handler) RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotConnected):
		h.NotFound(c, err)
	case errors.Is(err, apperrors.ErrParse):
		h.BadRequest(c, err, "Invalid identifier")
	default:
		h.ErrorResponse(c, err, http.StatusInternalServerError, apperrors.InternalServerError, true)
	}
}
