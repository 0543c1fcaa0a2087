package gateway

import (
	"context"
	"fmt"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
)

// pooledDriver пропускает вызовы блокирующего драйвера через общий пул.
// Оборачиваются только драйверы Ethernet/IP семейства: их клиентские
// операции блокирующие по своей природе.
type pooledDriver struct {
	inner interfaces.Driver
	pool  *Pool
}

var _ interfaces.Driver = (*pooledDriver)(nil)
var _ interfaces.TagReader = (*pooledDriver)(nil)

func newPooledDriver(inner interfaces.Driver, pool *Pool) *pooledDriver {
	return &pooledDriver{inner: inner, pool: pool}
}

func (d *pooledDriver) Connect(ctx context.Context) error {
	return d.pool.Do(ctx, func() error { return d.inner.Connect(ctx) })
}

func (d *pooledDriver) Close(ctx context.Context) error {
	// закрытие не проходит через пул: оно нужно и при остановке,
	// когда пул уже осушен
	return d.inner.Close(ctx)
}

func (d *pooledDriver) Probe(ctx context.Context) error {
	return d.pool.Do(ctx, func() error { return d.inner.Probe(ctx) })
}

func (d *pooledDriver) ReadValue(ctx context.Context, nodeID string) (models.Value, error) {
	var value models.Value
	err := d.pool.Do(ctx, func() error {
		var opErr error
		value, opErr = d.inner.ReadValue(ctx, nodeID)
		return opErr
	})
	return value, err
}

func (d *pooledDriver) ReadTags(ctx context.Context, tags []entities.TagConfig) ([]models.TagValue, error) {
	reader, ok := d.inner.(interfaces.TagReader)
	if !ok {
		return nil, fmt.Errorf("драйвер не поддерживает чтение тегов")
	}
	var values []models.TagValue
	err := d.pool.Do(ctx, func() error {
		var opErr error
		values, opErr = reader.ReadTags(ctx, tags)
		return opErr
	})
	return values, err
}
