package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ReadValue читает значение узла OPC UA сервера.
// @Summary Прочитать значение узла
// @Description Выполняет одиночное чтение значения узла подключенного сервера.
// @Tags OPC UA
// @Produce json
// @Param endpoint path string true "Имя эндпоинта"
// @Param node_id query string true "Идентификатор узла (например, ns=2;s=MyTag)"
// @Success 200 {object} models.ReadResult "Прочитанное значение"
// @Failure 400 {object} models.ErrorResponse "Не указан идентификатор узла"
// @Failure 404 {object} models.ErrorResponse "Эндпоинт не подключен"
// @Router /opcua/read/{endpoint} [get]
func (h *Handler) ReadValue(c *gin.Context) {
	endpoint := c.Param("endpoint")
	nodeID := c.Query("node_id")
	if nodeID == "" {
		h.BadRequest(c, nil, "Missing node_id query parameter")
		return
	}

	value, err := h.usecase.ReadValue(c.Request.Context(), endpoint, nodeID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"server":  endpoint,
		"node_id": nodeID,
		"value":   value,
	})
}

// Browse возвращает непосредственных детей узла.
// @Summary Обзор детей узла
// @Description Возвращает детей узла; по умолчанию - корень адресного пространства (i=84).
// @Tags OPC UA
// @Produce json
// @Param endpoint path string true "Имя эндпоинта"
// @Param node_id query string false "Стартовый узел (по умолчанию i=84)"
// @Success 200 {object} models.BrowseResult "Найденные узлы"
// @Failure 404 {object} models.ErrorResponse "Эндпоинт не подключен"
// @Router /opcua/browse/{endpoint} [get]
func (h *Handler) Browse(c *gin.Context) {
	endpoint := c.Param("endpoint")
	nodeID := c.Query("node_id")

	nodes, err := h.usecase.BrowseChildren(c.Request.Context(), endpoint, nodeID)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"server":        endpoint,
		"starting_node": nodeID,
		"nodes_found":   len(nodes),
		"nodes":         nodes,
	})
}

// RecursiveBrowse рекурсивно обходит поддерево узла.
// @Summary Рекурсивный обзор
// @Description Обходит поддерево узла в глубину; спуск только в Object-узлы.
// @Tags OPC UA
// @Produce json
// @Param endpoint path string true "Имя эндпоинта"
// @Param node_id query string false "Стартовый узел (по умолчанию i=84)"
// @Param depth query int false "Максимальная глубина (по умолчанию 3)"
// @Success 200 {object} models.BrowseResult "Найденные узлы"
// @Failure 404 {object} models.ErrorResponse "Эндпоинт не подключен"
// @Router /opcua/browse/{endpoint}/recursive [get]
func (h *Handler) RecursiveBrowse(c *gin.Context) {
	endpoint := c.Param("endpoint")
	nodeID := c.Query("node_id")
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "0"))

	nodes, err := h.usecase.RecursiveBrowse(c.Request.Context(), endpoint, nodeID, depth)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"server":        endpoint,
		"starting_node": nodeID,
		"nodes_found":   len(nodes),
		"nodes":         nodes,
	})
}

// Variables возвращает значимые для мониторинга переменные сервера.
// @Summary Значимые переменные
// @Description Подбирает переменные пользовательских пространств имен и короткий список системных.
// @Tags OPC UA
// @Produce json
// @Param endpoint path string true "Имя эндпоинта"
// @Param depth query int false "Максимальная глубина обхода (по умолчанию 4)"
// @Success 200 {object} models.VariablesResult "Найденные переменные"
// @Failure 404 {object} models.ErrorResponse "Эндпоинт не подключен"
// @Router /opcua/variables/{endpoint} [get]
func (h *Handler) Variables(c *gin.Context) {
	endpoint := c.Param("endpoint")
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "0"))

	variables, err := h.usecase.RelevantVariables(c.Request.Context(), endpoint, depth)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"server":          endpoint,
		"variables_count": len(variables),
		"variables":       variables,
	})
}

// Search ищет узлы по подстроке имени.
// @Summary Поиск узлов
// @Description Ищет узлы по подстроке browse или display имени без учета регистра.
// @Tags OPC UA
// @Produce json
// @Param endpoint path string true "Имя эндпоинта"
// @Param q query string true "Строка поиска"
// @Success 200 {object} models.SearchResult "Совпавшие узлы"
// @Failure 400 {object} models.ErrorResponse "Пустая строка поиска"
// @Failure 404 {object} models.ErrorResponse "Эндпоинт не подключен"
// @Router /opcua/search/{endpoint} [get]
func (h *Handler) Search(c *gin.Context) {
	endpoint := c.Param("endpoint")
	term := c.Query("q")
	if term == "" {
		h.BadRequest(c, nil, "Missing q query parameter")
		return
	}

	nodes, err := h.usecase.Search(c.Request.Context(), endpoint, term)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"server":        endpoint,
		"search_term":   term,
		"matches_found": len(nodes),
		"nodes":         nodes,
	})
}

// Namespaces возвращает таблицу пространств имен сервера.
// @Summary Пространства имен
// @Description Читает таблицу пространств имен сервера с примерами идентификаторов.
// @Tags OPC UA
// @Produce json
// @Param endpoint path string true "Имя эндпоинта"
// @Success 200 {object} models.NamespacesResult "Таблица пространств имен"
// @Failure 404 {object} models.ErrorResponse "Эндпоинт не подключен"
// @Router /opcua/namespaces/{endpoint} [get]
func (h *Handler) Namespaces(c *gin.Context) {
	endpoint := c.Param("endpoint")

	namespaces, err := h.usecase.Namespaces(c.Request.Context(), endpoint)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"server":     endpoint,
		"namespaces": namespaces,
	})
}

// ParseNodeID разбирает текстовое представление идентификатора узла.
// @Summary Разобрать идентификатор узла
// @Description Нормализует канонический или отладочный вид идентификатора в структурную форму.
// @Tags OPC UA
// @Produce json
// @Param node_id query string true "Идентификатор узла"
// @Success 200 {object} models.ParseNodeIDResult "Результат разбора"
// @Failure 400 {object} models.ErrorResponse "Не указан идентификатор"
// @Router /opcua/parse [get]
func (h *Handler) ParseNodeID(c *gin.Context) {
	raw := c.Query("node_id")
	if raw == "" {
		h.BadRequest(c, nil, "Missing node_id query parameter")
		return
	}

	parsed := h.usecase.ParseNodeID(raw)
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"parsed": parsed,
	})
}
