package usecases

import (
	"context"

	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/pkg/opcuaparse"
)

type Usecase struct {
	gatewaySvc  interfaces.GatewayService
	explorerSvc interfaces.ExplorerService
}

func NewUsecase(gatewaySvc interfaces.GatewayService, explorerSvc interfaces.ExplorerService) interfaces.Usecases {
	return &Usecase{
		gatewaySvc:  gatewaySvc,
		explorerSvc: explorerSvc,
	}
}

func (u *Usecase) MetricsSnapshot() map[string]models.ConnectionMetrics {
	return u.gatewaySvc.MetricsSnapshot()
}

func (u *Usecase) EndpointMetrics(name string) (models.ConnectionMetrics, error) {
	return u.gatewaySvc.EndpointMetrics(name)
}

func (u *Usecase) ActiveConnectionCount() int {
	return u.gatewaySvc.ActiveConnectionCount()
}

func (u *Usecase) ReadValue(ctx context.Context, endpoint, nodeID string) (models.Value, error) {
	return u.gatewaySvc.ReadValue(ctx, endpoint, nodeID)
}

func (u *Usecase) Reconnect(endpoint string) error {
	return u.gatewaySvc.Reconnect(endpoint)
}

func (u *Usecase) BrowseChildren(ctx context.Context, endpoint, nodeID string) ([]models.NodeRecord, error) {
	return u.explorerSvc.BrowseChildren(ctx, endpoint, nodeID)
}

func (u *Usecase) RecursiveBrowse(ctx context.Context, endpoint, nodeID string, maxDepth int) ([]models.NodeRecord, error) {
	return u.explorerSvc.RecursiveBrowse(ctx, endpoint, nodeID, maxDepth)
}

func (u *Usecase) RelevantVariables(ctx context.Context, endpoint string, maxDepth int) ([]models.NodeRecord, error) {
	return u.explorerSvc.RelevantVariables(ctx, endpoint, maxDepth)
}

func (u *Usecase) Search(ctx context.Context, endpoint, term string) ([]models.NodeRecord, error) {
	return u.explorerSvc.Search(ctx, endpoint, term)
}

func (u *Usecase) Namespaces(ctx context.Context, endpoint string) ([]models.NamespaceInfo, error) {
	return u.explorerSvc.Namespaces(ctx, endpoint)
}

func (u *Usecase) ParseNodeID(raw string) opcuaparse.ParsedNodeID {
	return opcuaparse.ParseNodeID(raw)
}

func (u *Usecase) ReadTag(ctx context.Context, device, tagPath string) (models.TagValue, error) {
	return u.gatewaySvc.ReadTag(ctx, device, tagPath)
}

func (u *Usecase) CachedTagValues(device string) ([]models.TagValue, error) {
	return u.gatewaySvc.CachedTagValues(device)
}
