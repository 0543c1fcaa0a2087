package usecases

import "github.com/iwtcode/industrialGateway/internal/interfaces"

// UseCases - агрегатор всех use case интерфейсов
type UseCases struct {
	interfaces.Usecases
}

// NewUsecases - конструктор для UseCases
func NewUsecases(
	gatewaySvc interfaces.GatewayService,
	explorerSvc interfaces.ExplorerService,
) interfaces.Usecases {
	return NewUsecase(gatewaySvc, explorerSvc)
}
