package models

import "github.com/iwtcode/industrialGateway/pkg/opcuaparse"

// MessageResponse - стандартный ответ с сообщением.
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse - стандартный ответ с ошибкой.
type ErrorResponse struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MetricsResponse - ответ со снимком метрик всех подключений.
type MetricsResponse struct {
	Status      string                       `json:"status"`
	Connections map[string]ConnectionMetrics `json:"connections"`
}

// ActiveCountResponse - ответ с числом активных подключений.
type ActiveCountResponse struct {
	ActiveConnections int `json:"active_connections"`
}

// ReadResult - результат чтения значения узла.
type ReadResult struct {
	Server string `json:"server"`
	NodeID string `json:"node_id"`
	Value  Value  `json:"value"`
	Status string `json:"status"`
}

// BrowseResult - результат обзора адресного пространства.
type BrowseResult struct {
	Server       string       `json:"server"`
	StartingNode string       `json:"starting_node"`
	NodesFound   int          `json:"nodes_found"`
	Nodes        []NodeRecord `json:"nodes"`
}

// VariablesResult - список переменных сервера.
type VariablesResult struct {
	Server         string       `json:"server"`
	VariablesCount int          `json:"variables_count"`
	Variables      []NodeRecord `json:"variables"`
}

// SearchResult - результат поиска узлов по имени.
type SearchResult struct {
	Server       string       `json:"server"`
	SearchTerm   string       `json:"search_term"`
	MatchesFound int          `json:"matches_found"`
	Nodes        []NodeRecord `json:"nodes"`
}

// NamespacesResult - таблица пространств имен сервера.
type NamespacesResult struct {
	Server     string          `json:"server"`
	Namespaces []NamespaceInfo `json:"namespaces"`
}

// ParseNodeIDResult - результат разбора идентификатора узла.
type ParseNodeIDResult struct {
	Status string                  `json:"status"`
	Parsed opcuaparse.ParsedNodeID `json:"parsed"`
}

// TagReadResult - результат чтения тега Ethernet/IP устройства.
type TagReadResult struct {
	Device string   `json:"device"`
	Tag    TagValue `json:"tag"`
	Status string   `json:"status"`
}

// CachedTagsResult - значения тегов из кеша опроса.
type CachedTagsResult struct {
	Device string     `json:"device"`
	Count  int        `json:"count"`
	Tags   []TagValue `json:"tags"`
}
