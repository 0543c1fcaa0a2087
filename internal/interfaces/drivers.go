package interfaces

import (
	"context"
	"time"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
)

// Driver - узкий контракт протокольного клиента. Ядро шлюза не реализует
// протоколы самостоятельно: рукопожатия, шифрование и бинарные кадры
// остаются внутри клиентской библиотеки за этим интерфейсом.
type Driver interface {
	// Connect устанавливает соединение. Таймаут задает вызывающая сторона
	// через контекст.
	Connect(ctx context.Context) error
	// Close закрывает соединение. Безопасен при повторном вызове.
	Close(ctx context.Context) error
	// Probe - дешевая проверка живости (чтение известного корневого атрибута).
	Probe(ctx context.Context) error
	// ReadValue читает значение узла или тега по идентификатору.
	ReadValue(ctx context.Context, nodeID string) (models.Value, error)
}

// Browser - навигация по адресному пространству. Реализуется драйверами
// семейства OPC UA.
type Browser interface {
	// BrowseChildren возвращает непосредственных детей узла.
	BrowseChildren(ctx context.Context, nodeID string) ([]models.RawNode, error)
	// DataType возвращает идентификатор типа данных узла-переменной.
	DataType(ctx context.Context, nodeID string) (string, error)
	// Writable пробует определить, доступен ли узел на запись.
	Writable(ctx context.Context, nodeID string) (bool, error)
	// Namespaces читает таблицу пространств имен сервера.
	Namespaces(ctx context.Context) ([]string, error)
}

// Subscriber - создание подписки мониторинга после подключения (OPC UA).
type Subscriber interface {
	Subscribe(ctx context.Context, interval time.Duration) error
}

// TagReader - пакетное чтение тегов (Ethernet/IP).
type TagReader interface {
	ReadTags(ctx context.Context, tags []entities.TagConfig) ([]models.TagValue, error)
}

// DriverFactory создает протокольный драйвер для эндпоинта.
type DriverFactory func(cfg entities.EndpointConfig, logger *logging.Logger) (Driver, error)
