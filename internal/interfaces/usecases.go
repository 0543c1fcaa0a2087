package interfaces

import (
	"context"

	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/pkg/opcuaparse"
)

// Usecases - это агрегирующий интерфейс для всех use cases.
type Usecases interface {
	MetricsSnapshot() map[string]models.ConnectionMetrics
	EndpointMetrics(name string) (models.ConnectionMetrics, error)
	ActiveConnectionCount() int
	ReadValue(ctx context.Context, endpoint, nodeID string) (models.Value, error)
	Reconnect(endpoint string) error

	BrowseChildren(ctx context.Context, endpoint, nodeID string) ([]models.NodeRecord, error)
	RecursiveBrowse(ctx context.Context, endpoint, nodeID string, maxDepth int) ([]models.NodeRecord, error)
	RelevantVariables(ctx context.Context, endpoint string, maxDepth int) ([]models.NodeRecord, error)
	Search(ctx context.Context, endpoint, term string) ([]models.NodeRecord, error)
	Namespaces(ctx context.Context, endpoint string) ([]models.NamespaceInfo, error)
	ParseNodeID(raw string) opcuaparse.ParsedNodeID

	ReadTag(ctx context.Context, device, tagPath string) (models.TagValue, error)
	CachedTagValues(device string) ([]models.TagValue, error)
}
