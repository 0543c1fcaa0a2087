package enipdriver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/danomagnum/gologix"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
)

// Driver - клиент Ethernet/IP (CIP) поверх gologix. Библиотека работает
// синхронно, поэтому снаружи драйвер всегда оборачивается в пул
// блокирующих операций; здесь каждая операция лишь дополнительно
// привязана к контексту через выделенную горутину.
type Driver struct {
	cfg    entities.EndpointConfig
	client *gologix.Client
	logger *logging.Logger

	// сериализует обращения к клиенту: проба монитора и цикл опроса
	// одного устройства не должны ходить в gologix одновременно
	opMu sync.Mutex

	// типы данных сконфигурированных тегов, для одиночных чтений
	tagTypes map[string]string
}

var (
	_ interfaces.Driver    = (*Driver)(nil)
	_ interfaces.TagReader = (*Driver)(nil)
)

// New создает драйвер Ethernet/IP без установки соединения.
func New(cfg entities.EndpointConfig, logger *logging.Logger) (*Driver, error) {
	client := gologix.NewClient(cfg.Endpoint)

	path, err := gologix.ParsePath(fmt.Sprintf("1,%d", cfg.Slot))
	if err != nil {
		return nil, fmt.Errorf("некорректный слот %d устройства '%s': %w", cfg.Slot, cfg.Name, err)
	}
	client.Path = path

	tagTypes := make(map[string]string, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		tagTypes[tag.TagPath] = tag.DataType
	}

	return &Driver{
		cfg:      cfg,
		client:   client,
		logger:   logger.WithPrefix("ENIP"),
		tagTypes: tagTypes,
	}, nil
}

// blocking выполняет синхронный вызов gologix в отдельной горутине,
// чтобы подключение и чтения уважали отмену контекста. Вызовы одного
// устройства сериализуются: на клиенте в любой момент не больше одной
// операции.
func (d *Driver) blocking(ctx context.Context, op func() error) error {
	done := make(chan error, 1)
	go func() {
		d.opMu.Lock()
		defer d.opMu.Unlock()
		done <- op()
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func (d *Driver) Connect(ctx context.Context) error {
	return d.blocking(ctx, func() error {
		return d.client.Connect()
	})
}

func (d *Driver) Close(ctx context.Context) error {
	return d.blocking(ctx, func() error {
		return d.client.Disconnect()
	})
}

// Probe перечитывает первый сконфигурированный тег. Устройство без тегов
// считается живым, пока открыта сессия.
func (d *Driver) Probe(ctx context.Context) error {
	if len(d.cfg.Tags) == 0 {
		return nil
	}
	first := d.cfg.Tags[0]
	_, err := d.readOne(ctx, first.TagPath, first.DataType)
	return err
}

// ReadValue читает один тег. Тип данных берется из конфигурации тега,
// для незнакомых путей используется DINT.
func (d *Driver) ReadValue(ctx context.Context, tagPath string) (models.Value, error) {
	dataType, ok := d.tagTypes[tagPath]
	if !ok {
		dataType = "DINT"
	}
	return d.readOne(ctx, tagPath, dataType)
}

// ReadTags читает пакет тегов по одному. Ошибка отдельного тега
// помечает его качеством "bad" и не прерывает пакет; ошибкой всего
// пакета считается только недоступность устройства, когда не прочитан
// ни один тег.
func (d *Driver) ReadTags(ctx context.Context, tags []entities.TagConfig) ([]models.TagValue, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	values := make([]models.TagValue, 0, len(tags))
	okCount := 0
	var lastErr error

	for _, tag := range tags {
		tv := models.TagValue{
			DeviceName: d.cfg.Name,
			TagName:    tag.Name,
			TagPath:    tag.TagPath,
			DataType:   tag.DataType,
			Timestamp:  time.Now(),
		}
		value, err := d.readOne(ctx, tag.TagPath, tag.DataType)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			tv.Value = models.ReadErrorValue(err)
			tv.Quality = "bad"
			lastErr = err
		} else {
			tv.Value = value
			tv.Quality = "good"
			okCount++
		}
		values = append(values, tv)
	}

	if okCount == 0 && lastErr != nil {
		return nil, fmt.Errorf("ни один из %d тегов не прочитан: %w", len(tags), lastErr)
	}
	return values, nil
}

// readOne выполняет типизированное чтение тега.
func (d *Driver) readOne(ctx context.Context, tagPath, dataType string) (models.Value, error) {
	var result models.Value
	err := d.blocking(ctx, func() error {
		switch strings.ToUpper(dataType) {
		case "BOOL":
			var v bool
			if err := d.client.Read(tagPath, &v); err != nil {
				return err
			}
			result = models.ValueFromAny(v)
		case "SINT":
			var v int8
			if err := d.client.Read(tagPath, &v); err != nil {
				return err
			}
			result = models.ValueFromAny(v)
		case "INT":
			var v int16
			if err := d.client.Read(tagPath, &v); err != nil {
				return err
			}
			result = models.ValueFromAny(v)
		case "LINT":
			var v int64
			if err := d.client.Read(tagPath, &v); err != nil {
				return err
			}
			result = models.ValueFromAny(v)
		case "REAL":
			var v float32
			if err := d.client.Read(tagPath, &v); err != nil {
				return err
			}
			result = models.ValueFromAny(v)
		case "LREAL":
			var v float64
			if err := d.client.Read(tagPath, &v); err != nil {
				return err
			}
			result = models.ValueFromAny(v)
		case "STRING":
			var v string
			if err := d.client.Read(tagPath, &v); err != nil {
				return err
			}
			result = models.StringValue(v)
		default: // DINT и все нераспознанные типы
			var v int32
			if err := d.client.Read(tagPath, &v); err != nil {
				return err
			}
			result = models.ValueFromAny(v)
		}
		return nil
	})
	if err != nil {
		return models.Value{}, err
	}
	return result, nil
}
