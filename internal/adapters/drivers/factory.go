// Package drivers связывает протокольные реализации с фабричным
// контрактом ядра шлюза.
package drivers

import (
	"fmt"

	"github.com/iwtcode/industrialGateway/internal/adapters/drivers/enipdriver"
	"github.com/iwtcode/industrialGateway/internal/adapters/drivers/opcuadriver"
	"github.com/iwtcode/industrialGateway/internal/domain/entities"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
)

// NewDriverFactory возвращает фабрику протокольных драйверов.
func NewDriverFactory() interfaces.DriverFactory {
	return func(cfg entities.EndpointConfig, logger *logging.Logger) (interfaces.Driver, error) {
		switch cfg.Protocol {
		case entities.ProtocolOPCUA:
			return opcuadriver.New(cfg, logger)
		case entities.ProtocolEthernetIP:
			return enipdriver.New(cfg, logger)
		default:
			return nil, fmt.Errorf("неизвестный протокол '%s' эндпоинта '%s'", cfg.Protocol, cfg.Name)
		}
	}
}
