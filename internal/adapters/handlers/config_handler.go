package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetConfig возвращает конфигурацию шлюза без учетных данных.
// @Summary Конфигурация шлюза
// @Description Возвращает список сконфигурированных эндпоинтов. Пароли не раскрываются.
// @Tags Config
// @Produce json
// @Success 200 {object} map[string]interface{} "Конфигурация"
// @Router /config [get]
func (h *Handler) GetConfig(c *gin.Context) {
	endpoints := make([]gin.H, 0, len(h.cfg.Gateway.Endpoints))
	for _, ep := range h.cfg.Gateway.Endpoints {
		endpoints = append(endpoints, gin.H{
			"name":            ep.Name,
			"protocol":        ep.Protocol,
			"endpoint":        ep.Endpoint,
			"security_policy": ep.SecurityPolicy,
			"has_credentials": ep.Username != "",
			"connect_timeout": ep.ConnectTimeout.String(),
			"retry":           ep.Retry,
			"tags_configured": len(ep.Tags),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"monitoring_interval": h.cfg.Gateway.MonitoringInterval.String(),
		"endpoints":           endpoints,
	})
}
