package models

import (
	"time"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
)

// ConnectionState - состояние подключения эндпоинта.
type ConnectionState string

const (
	// StateDisconnected - подключения нет.
	StateDisconnected ConnectionState = "disconnected"
	// StateConnecting - идет попытка подключения.
	StateConnecting ConnectionState = "connecting"
	// StateConnected - есть живое подключение.
	StateConnected ConnectionState = "connected"
	// StateReady - эндпоинт сконфигурирован, но попыток еще не было.
	StateReady ConnectionState = "ready"
	// StateError - бюджет повторных попыток исчерпан.
	StateError ConnectionState = "error"
)

// ConnectionMetrics - снимок метрик подключения одного эндпоинта.
// Записывает метрики только владеющий эндпоинтом супервайзер (или монитор
// после передачи владения), читатели всегда получают консистентный снимок.
type ConnectionMetrics struct {
	EndpointName        string            `json:"endpoint_name"`
	Protocol            entities.Protocol `json:"protocol"`
	Status              ConnectionState   `json:"status"`
	MessagesReceived    int64             `json:"messages_received"`
	ActiveSubscriptions int               `json:"active_subscriptions"`
	TagsMonitored       int               `json:"tags_monitored"`
	LastError           string            `json:"last_error,omitempty"`
	LatencyMs           float64           `json:"latency_ms,omitempty"`
	LastSuccess         *time.Time        `json:"last_success,omitempty"`
	SessionID           string            `json:"session_id,omitempty"`
}

// ConnectionRequest определяет структуру запроса на переподключение.
type ConnectionRequest struct {
	EndpointName string `json:"endpoint_name" binding:"required"`
}
