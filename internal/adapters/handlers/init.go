package handlers

import (
	"net/http"

	"github.com/iwtcode/industrialGateway/internal/config"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
	"github.com/iwtcode/industrialGateway/internal/middleware/metrics"
	"github.com/iwtcode/industrialGateway/internal/middleware/swagger"

	"github.com/gin-gonic/gin"
)

// Handler - структура для обработчиков HTTP-запросов
type Handler struct {
	usecase interfaces.Usecases
	cfg     *config.AppConfig
	logger  *logging.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(usecase interfaces.Usecases, cfg *config.AppConfig, logger *logging.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		cfg:     cfg,
		logger:  logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter настраивает и возвращает HTTP-роутер
func ProvideRouter(h *Handler, cfg *config.AppConfig, swagCfg *swagger.Config, metricsCfg *metrics.Config, collector *metrics.Collector) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.Default()

	// Swagger
	swagger.Setup(router, swagCfg)

	// Prometheus
	metrics.Setup(router, metricsCfg, collector)

	// Logger Middleware
	router.Use(LoggingMiddleware(h.logger))

	// Группа API v1
	v1 := router.Group("/api/v1")
	{
		connections := v1.Group("/connections")
		{
			connections.GET("", h.GetMetrics)
			connections.GET("/active", h.GetActiveCount)
			connections.GET("/:endpoint", h.GetEndpointMetrics)
			connections.POST("/reconnect", h.Reconnect)
		}

		opcua := v1.Group("/opcua")
		{
			opcua.GET("/read/:endpoint", h.ReadValue)
			opcua.GET("/browse/:endpoint", h.Browse)
			opcua.GET("/browse/:endpoint/recursive", h.RecursiveBrowse)
			opcua.GET("/variables/:endpoint", h.Variables)
			opcua.GET("/search/:endpoint", h.Search)
			opcua.GET("/namespaces/:endpoint", h.Namespaces)
			opcua.GET("/parse", h.ParseNodeID)
		}

		enip := v1.Group("/ethernet-ip")
		{
			enip.GET("/read/:device", h.ReadTag)
			enip.GET("/tags/:device", h.CachedTags)
		}

		v1.GET("/config", h.GetConfig)
	}

	return router
}
