package interfaces

import (
	"context"

	"github.com/iwtcode/industrialGateway/internal/domain/models"
)

// GatewayService - это агрегирующий интерфейс ядра шлюза: жизненный цикл
// подключений, метрики и одиночные чтения.
type GatewayService interface {
	// Initialize запускает супервайзеры и монитор в фоне и сразу возвращается,
	// не дожидаясь ни одного подключения.
	Initialize()
	// Shutdown останавливает циклы повторных попыток, фоновые задачи и
	// закрывает живые подключения. Идемпотентен.
	Shutdown(ctx context.Context) error

	MetricsSnapshot() map[string]models.ConnectionMetrics
	EndpointMetrics(name string) (models.ConnectionMetrics, error)
	ActiveConnectionCount() int

	ReadValue(ctx context.Context, endpoint, nodeID string) (models.Value, error)
	Reconnect(endpoint string) error

	ReadTag(ctx context.Context, device, tagPath string) (models.TagValue, error)
	CachedTagValues(device string) ([]models.TagValue, error)
}

// ExplorerService определяет контракт движка обзора адресного пространства.
type ExplorerService interface {
	BrowseChildren(ctx context.Context, endpoint, nodeID string) ([]models.NodeRecord, error)
	RecursiveBrowse(ctx context.Context, endpoint, nodeID string, maxDepth int) ([]models.NodeRecord, error)
	RelevantVariables(ctx context.Context, endpoint string, maxDepth int) ([]models.NodeRecord, error)
	Search(ctx context.Context, endpoint, term string) ([]models.NodeRecord, error)
	Namespaces(ctx context.Context, endpoint string) ([]models.NamespaceInfo, error)
}
