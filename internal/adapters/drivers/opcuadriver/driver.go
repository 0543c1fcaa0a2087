package opcuadriver

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gopcua/opcua"
	uaid "github.com/gopcua/opcua/id"
	"github.com/gopcua/opcua/ua"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
	apperrors "github.com/iwtcode/industrialGateway/pkg/errors"
	"github.com/iwtcode/industrialGateway/pkg/opcuaparse"
)

// Driver - клиент OPC UA поверх gopcua. Протокольные детали (рукопожатие,
// каналы, кодирование) остаются внутри библиотеки; шлюзу наружу отдаются
// только узкие операции Driver/Browser/Subscriber.
type Driver struct {
	cfg    entities.EndpointConfig
	client *opcua.Client
	logger *logging.Logger

	mu   sync.Mutex
	sub  *opcua.Subscription
	stop context.CancelFunc
}

var (
	_ interfaces.Driver     = (*Driver)(nil)
	_ interfaces.Browser    = (*Driver)(nil)
	_ interfaces.Subscriber = (*Driver)(nil)
)

// New создает драйвер OPC UA без установки соединения.
func New(cfg entities.EndpointConfig, logger *logging.Logger) (*Driver, error) {
	opts := []opcua.Option{
		opcua.SecurityMode(ua.MessageSecurityModeNone),
	}
	if cfg.SecurityPolicy != "" && cfg.SecurityPolicy != "None" {
		opts = append(opts, opcua.SecurityPolicy(cfg.SecurityPolicy))
	}
	if cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(cfg.Username, cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}

	client, err := opcua.NewClient(cfg.Endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("создание клиента OPC UA для '%s' не удалось: %w", cfg.Endpoint, err)
	}

	return &Driver{
		cfg:    cfg,
		client: client,
		logger: logger.WithPrefix("OPCUA"),
	}, nil
}

func (d *Driver) Connect(ctx context.Context) error {
	return d.client.Connect(ctx)
}

func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.stop != nil {
		d.stop()
		d.stop = nil
	}
	sub := d.sub
	d.sub = nil
	d.mu.Unlock()

	if sub != nil {
		if err := sub.Cancel(ctx); err != nil {
			d.logger.Debug("Subscription cancel failed", "endpoint", d.cfg.Name, "error", err)
		}
	}
	return d.client.Close(ctx)
}

// Probe читает BrowseName корневого узла: дешевая операция, за которой
// стоит полный цикл запрос-ответ по защищенному каналу.
func (d *Driver) Probe(ctx context.Context) error {
	root := d.client.Node(ua.NewNumericNodeID(0, uaid.RootFolder))
	if _, err := root.BrowseName(ctx); err != nil {
		return err
	}
	return nil
}

// ReadValue читает атрибут Value узла.
func (d *Driver) ReadValue(ctx context.Context, nodeID string) (models.Value, error) {
	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return models.Value{}, fmt.Errorf("%w: некорректный идентификатор узла '%s': %v", apperrors.ErrParse, nodeID, err)
	}

	req := &ua.ReadRequest{
		MaxAge:             2000,
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		NodesToRead: []*ua.ReadValueID{
			{NodeID: id, AttributeID: ua.AttributeIDValue},
		},
	}

	resp, err := d.client.Read(ctx, req)
	if err != nil {
		return models.Value{}, err
	}
	if len(resp.Results) == 0 {
		return models.Value{}, fmt.Errorf("сервер вернул пустой результат чтения")
	}

	result := resp.Results[0]
	if result.Status != ua.StatusOK {
		return models.Value{}, fmt.Errorf("статус чтения: %s", result.Status)
	}
	if result.Value == nil {
		return models.Value{}, fmt.Errorf("узел не содержит значения")
	}

	return models.ValueFromAny(result.Value.Value()), nil
}

// BrowseChildren возвращает непосредственных детей узла по иерархическим
// ссылкам. Имена и класс каждого ребенка читаются одним пакетным запросом
// атрибутов.
func (d *Driver) BrowseChildren(ctx context.Context, nodeID string) ([]models.RawNode, error) {
	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return nil, fmt.Errorf("%w: некорректный идентификатор узла '%s': %v", apperrors.ErrParse, nodeID, err)
	}

	children, err := d.client.Node(id).Children(ctx, uaid.HierarchicalReferences, ua.NodeClassAll)
	if err != nil {
		return nil, err
	}

	nodes := make([]models.RawNode, 0, len(children))
	for _, child := range children {
		attrs, err := child.Attributes(ctx,
			ua.AttributeIDNodeClass,
			ua.AttributeIDBrowseName,
			ua.AttributeIDDisplayName,
		)
		if err != nil {
			d.logger.Debug("Failed to read child attributes", "node_id", child.ID.String(), "error", err)
			continue
		}

		rn := models.RawNode{
			NodeID:     child.ID.String(),
			Identifier: identifierOf(child.ID),
			Namespace:  child.ID.Namespace(),
			IDType:     idTypeOf(child.ID),
		}
		if len(attrs) > 0 && attrs[0].Status == ua.StatusOK {
			rn.NodeClass = uint32(attrs[0].Value.Int())
		}
		if len(attrs) > 1 && attrs[1].Status == ua.StatusOK {
			if qn, ok := attrs[1].Value.Value().(*ua.QualifiedName); ok {
				rn.BrowseName = qn.Name
			}
		}
		if len(attrs) > 2 && attrs[2].Status == ua.StatusOK {
			if lt, ok := attrs[2].Value.Value().(*ua.LocalizedText); ok {
				rn.DisplayName = lt.Text
			}
		}
		if rn.DisplayName == "" {
			rn.DisplayName = rn.BrowseName
		}

		nodes = append(nodes, rn)
	}
	return nodes, nil
}

// DataType читает атрибут DataType узла-переменной.
func (d *Driver) DataType(ctx context.Context, nodeID string) (string, error) {
	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return "", fmt.Errorf("%w: некорректный идентификатор узла '%s': %v", apperrors.ErrParse, nodeID, err)
	}

	attrs, err := d.client.Node(id).Attributes(ctx, ua.AttributeIDDataType)
	if err != nil {
		return "", err
	}
	if len(attrs) == 0 || attrs[0].Status != ua.StatusOK {
		return "", fmt.Errorf("атрибут DataType недоступен")
	}

	if dt, ok := attrs[0].Value.Value().(*ua.NodeID); ok {
		return dt.String(), nil
	}
	return fmt.Sprint(attrs[0].Value.Value()), nil
}

// Writable определяет доступность узла на запись по биту CurrentWrite
// атрибута AccessLevel.
func (d *Driver) Writable(ctx context.Context, nodeID string) (bool, error) {
	id, err := ua.ParseNodeID(nodeID)
	if err != nil {
		return false, fmt.Errorf("%w: некорректный идентификатор узла '%s': %v", apperrors.ErrParse, nodeID, err)
	}

	level, err := d.client.Node(id).AccessLevel(ctx)
	if err != nil {
		return false, err
	}
	return level&ua.AccessLevelTypeCurrentWrite != 0, nil
}

// Namespaces читает таблицу пространств имен сервера.
func (d *Driver) Namespaces(ctx context.Context) ([]string, error) {
	return d.client.NamespaceArray(ctx)
}

// Subscribe создает подписку мониторинга без отслеживаемых элементов:
// она удерживает publish-цикл сессии и видна в метриках как активная.
func (d *Driver) Subscribe(ctx context.Context, interval time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sub != nil {
		return nil
	}

	notifs := make(chan *opcua.PublishNotificationData, 16)
	sub, err := d.client.Subscribe(ctx, &opcua.SubscriptionParameters{Interval: interval}, notifs)
	if err != nil {
		return err
	}

	drainCtx, cancel := context.WithCancel(context.Background())
	d.sub = sub
	d.stop = cancel
	go func() {
		for {
			select {
			case <-drainCtx.Done():
				return
			case n, ok := <-notifs:
				if !ok {
					return
				}
				if n.Error != nil {
					d.logger.Debug("Subscription notification error", "endpoint", d.cfg.Name, "error", n.Error)
				}
			}
		}
	}()

	d.logger.Info("Monitoring subscription created", "endpoint", d.cfg.Name, "interval", interval)
	return nil
}

func identifierOf(id *ua.NodeID) string {
	switch id.Type() {
	case ua.NodeIDTypeTwoByte, ua.NodeIDTypeFourByte, ua.NodeIDTypeNumeric:
		return strconv.FormatUint(uint64(id.IntID()), 10)
	default:
		return id.StringID()
	}
}

func idTypeOf(id *ua.NodeID) opcuaparse.NodeIDType {
	switch id.Type() {
	case ua.NodeIDTypeTwoByte, ua.NodeIDTypeFourByte, ua.NodeIDTypeNumeric:
		return opcuaparse.NodeIDNumeric
	case ua.NodeIDTypeString:
		return opcuaparse.NodeIDString
	case ua.NodeIDTypeGUID:
		return opcuaparse.NodeIDGuid
	case ua.NodeIDTypeByteString:
		return opcuaparse.NodeIDOpaque
	default:
		return opcuaparse.NodeIDUnknown
	}
}
