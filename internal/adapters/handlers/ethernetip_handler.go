package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadTag читает один тег Ethernet/IP устройства напрямую.
// @Summary Прочитать тег
// @Description Выполняет одиночное чтение тега устройства, минуя кеш опроса.
// @Tags Ethernet/IP
// @Produce json
// @Param device path string true "Имя устройства"
// @Param tag query string true "Путь тега в контроллере"
// @Success 200 {object} models.TagReadResult "Прочитанный тег"
// @Failure 400 {object} models.ErrorResponse "Не указан тег"
// @Failure 404 {object} models.ErrorResponse "Устройство не подключено"
// @Router /ethernet-ip/read/{device} [get]
func (h *Handler) ReadTag(c *gin.Context) {
	device := c.Param("device")
	tagPath := c.Query("tag")
	if tagPath == "" {
		h.BadRequest(c, nil, "Missing tag query parameter")
		return
	}

	tag, err := h.usecase.ReadTag(c.Request.Context(), device, tagPath)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"device": device,
		"tag":    tag,
	})
}

// CachedTags возвращает значения тегов устройства из кеша опроса.
// @Summary Теги из кеша
// @Description Возвращает последние значения тегов без обращения к устройству.
// @Tags Ethernet/IP
// @Produce json
// @Param device path string true "Имя устройства"
// @Success 200 {object} models.CachedTagsResult "Значения тегов"
// @Failure 404 {object} models.ErrorResponse "Устройство не сконфигурировано"
// @Router /ethernet-ip/tags/{device} [get]
func (h *Handler) CachedTags(c *gin.Context) {
	device := c.Param("device")

	tags, err := h.usecase.CachedTagValues(device)
	if err != nil {
		h.NotFound(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"device": device,
		"count":  len(tags),
		"tags":   tags,
	})
}
