package handlers

import (
	"net/http"

	"github.com/iwtcode/industrialGateway/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// GetMetrics возвращает снимок метрик всех подключений.
// @Summary Метрики всех подключений
// @Description Возвращает состояние и счетчики каждого сконфигурированного эндпоинта.
// @Tags Connection
// @Produce json
// @Success 200 {object} models.MetricsResponse "Снимок метрик"
// @Router /connections [get]
func (h *Handler) GetMetrics(c *gin.Context) {
	snapshot := h.usecase.MetricsSnapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": snapshot,
	})
}

// GetActiveCount возвращает число активных подключений.
// @Summary Число активных подключений
// @Description Считает эндпоинты в состоянии connected.
// @Tags Connection
// @Produce json
// @Success 200 {object} models.ActiveCountResponse "Число активных подключений"
// @Router /connections/active [get]
func (h *Handler) GetActiveCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"active_connections": h.usecase.ActiveConnectionCount(),
	})
}

// GetEndpointMetrics возвращает метрики одного эндпоинта.
// @Summary Метрики эндпоинта
// @Description Возвращает состояние и счетчики указанного эндпоинта.
// @Tags Connection
// @Produce json
// @Param endpoint path string true "Имя эндпоинта"
// @Success 200 {object} models.ConnectionMetrics "Метрики эндпоинта"
// @Failure 404 {object} models.ErrorResponse "Эндпоинт не сконфигурирован"
// @Router /connections/{endpoint} [get]
func (h *Handler) GetEndpointMetrics(c *gin.Context) {
	endpoint := c.Param("endpoint")

	m, err := h.usecase.EndpointMetrics(endpoint)
	if err != nil {
		h.NotFound(c, err)
		return
	}

	c.JSON(http.StatusOK, m)
}

// Reconnect внепланово переподключает эндпоинт.
// @Summary Переподключить эндпоинт
// @Description Разрывает текущее подключение и запускает цикл подключения заново.
// @Tags Connection
// @Accept json
// @Produce json
// @Param input body models.ConnectionRequest true "Имя эндпоинта"
// @Success 200 {object} models.MessageResponse "Переподключение запущено"
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 500 {object} models.ErrorResponse "Внутренняя ошибка сервера"
// @Router /connections/reconnect [post]
func (h *Handler) Reconnect(c *gin.Context) {
	var req models.ConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	h.logger.Info("Reconnect requested via API", "endpoint", req.EndpointName)

	if err := h.usecase.Reconnect(req.EndpointName); err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Reconnection of '" + req.EndpointName + "' started",
	})
}
