package gateway

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
)

// fakeDriver - управляемый из теста драйвер протокола.
type fakeDriver struct {
	mu           sync.Mutex
	connectErrs  []error // сценарий результатов Connect, последний повторяется
	connectCalls []time.Time
	probeErr     error
	probeDelay   time.Duration
	readValue    models.Value
	readErr      error
	closed       atomic.Bool
	blockConnect bool // Connect висит до отмены контекста
}

func (d *fakeDriver) Connect(ctx context.Context) error {
	d.mu.Lock()
	d.connectCalls = append(d.connectCalls, time.Now())
	var err error
	if len(d.connectErrs) > 0 {
		err = d.connectErrs[0]
		if len(d.connectErrs) > 1 {
			d.connectErrs = d.connectErrs[1:]
		}
	}
	block := d.blockConnect
	d.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (d *fakeDriver) Close(ctx context.Context) error {
	d.closed.Store(true)
	return nil
}

func (d *fakeDriver) Probe(ctx context.Context) error {
	if d.probeDelay > 0 {
		time.Sleep(d.probeDelay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.probeErr
}

func (d *fakeDriver) ReadValue(ctx context.Context, nodeID string) (models.Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readValue, d.readErr
}

func (d *fakeDriver) attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.connectCalls)
}

func (d *fakeDriver) setProbeErr(err error) {
	d.mu.Lock()
	d.probeErr = err
	d.mu.Unlock()
}

func testLogger() *logging.Logger {
	return logging.NewLogger(&logging.Config{Enabled: false, Level: "DEBUG"}, "TEST")
}

func testEndpoint(name string, retry entities.RetryPolicy) entities.EndpointConfig {
	return entities.EndpointConfig{
		Name:           name,
		Protocol:       entities.ProtocolOPCUA,
		Endpoint:       "opc.tcp://test:4840",
		ConnectTimeout: 200 * time.Millisecond,
		Retry:          retry,
	}
}

func staticFactory(d *fakeDriver) interfaces.DriverFactory {
	return func(cfg entities.EndpointConfig, logger *logging.Logger) (interfaces.Driver, error) {
		return d, nil
	}
}

func TestSupervisorBoundedRetryExhaustion(t *testing.T) {
	driver := &fakeDriver{connectErrs: []error{errors.New("refused")}}
	registry := NewRegistry(nil)
	cfg := testEndpoint("srv1", entities.RetryPolicy{Mode: entities.RetryBounded, MaxAttempts: 3, Delay: time.Millisecond})
	registry.Seed(cfg, models.StateDisconnected)

	sup := newSupervisor(cfg, staticFactory(driver), registry, nil, testLogger(), nil)
	sup.delayFloor = time.Millisecond

	require.True(t, registry.TryStartSupervising("srv1", func() {}))
	sup.run(context.Background())

	assert.Equal(t, 3, driver.attempts(), "должно быть выполнено ровно maxAttempts попыток")

	m, err := registry.EndpointMetrics("srv1")
	require.NoError(t, err)
	assert.Equal(t, models.StateError, m.Status, "после исчерпания попыток эндпоинт в состоянии error")
	assert.Contains(t, m.LastError, "3", "финальная ошибка должна называть число попыток")
	assert.Equal(t, 0, registry.ActiveCount())
}

func TestSupervisorRecoversAfterFailures(t *testing.T) {
	driver := &fakeDriver{connectErrs: []error{errors.New("refused"), errors.New("refused"), nil}}
	registry := NewRegistry(nil)
	cfg := testEndpoint("srv1", entities.RetryPolicy{Mode: entities.RetryBounded, MaxAttempts: 5, Delay: time.Millisecond})
	registry.Seed(cfg, models.StateDisconnected)

	var connected atomic.Bool
	sup := newSupervisor(cfg, staticFactory(driver), registry, nil, testLogger(), func(h *Handle) {
		connected.Store(true)
	})
	sup.delayFloor = time.Millisecond

	require.True(t, registry.TryStartSupervising("srv1", func() {}))
	sup.run(context.Background())

	assert.Equal(t, 3, driver.attempts(), "успех должен наступить на третьей попытке")
	assert.True(t, connected.Load(), "колбек onConnected должен быть вызван")

	m, err := registry.EndpointMetrics("srv1")
	require.NoError(t, err)
	assert.Equal(t, models.StateConnected, m.Status)
	assert.NotEmpty(t, m.SessionID, "после подключения должен быть назначен session id")
	assert.NotNil(t, m.LastSuccess)
	assert.Equal(t, 1, registry.ActiveCount(), "ровно одно активное подключение")

	h, err := registry.Get("srv1")
	require.NoError(t, err)
	assert.Equal(t, m.SessionID, h.SessionID)
}

func TestSupervisorUnboundedStopsOnCancel(t *testing.T) {
	driver := &fakeDriver{connectErrs: []error{errors.New("refused")}}
	registry := NewRegistry(nil)
	cfg := testEndpoint("srv1", entities.RetryPolicy{Mode: entities.RetryUnbounded, Delay: 50 * time.Millisecond})
	registry.Seed(cfg, models.StateDisconnected)

	sup := newSupervisor(cfg, staticFactory(driver), registry, nil, testLogger(), nil)
	sup.delayFloor = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, registry.TryStartSupervising("srv1", cancel))

	done := make(chan struct{})
	go func() {
		sup.run(ctx)
		close(done)
	}()

	// дождаться хотя бы одной попытки, затем остановить
	require.Eventually(t, func() bool { return driver.attempts() >= 1 }, time.Second, time.Millisecond)
	start := time.Now()
	cancel()

	select {
	case <-done:
		assert.Less(t, time.Since(start), 2*cfg.Retry.Delay, "остановка должна завершиться в пределах одной паузы")
	case <-time.After(time.Second):
		t.Fatal("супервайзер не остановился после отмены контекста")
	}
}

func TestSupervisorDelayFloorClamp(t *testing.T) {
	driver := &fakeDriver{connectErrs: []error{errors.New("refused")}}
	registry := NewRegistry(nil)
	// пауза из конфигурации заведомо меньше порога
	cfg := testEndpoint("srv1", entities.RetryPolicy{Mode: entities.RetryBounded, MaxAttempts: 2, Delay: time.Millisecond})
	registry.Seed(cfg, models.StateDisconnected)

	sup := newSupervisor(cfg, staticFactory(driver), registry, nil, testLogger(), nil)
	sup.delayFloor = 60 * time.Millisecond

	require.True(t, registry.TryStartSupervising("srv1", func() {}))
	sup.run(context.Background())

	require.Equal(t, 2, driver.attempts())
	driver.mu.Lock()
	gap := driver.connectCalls[1].Sub(driver.connectCalls[0])
	driver.mu.Unlock()
	assert.GreaterOrEqual(t, gap, 60*time.Millisecond, "пауза между попытками не должна опускаться ниже порога")
}

func TestSupervisorDefaultDelayFloor(t *testing.T) {
	sup := newSupervisor(testEndpoint("srv1", entities.RetryPolicy{}), nil, NewRegistry(nil), nil, testLogger(), nil)
	assert.Equal(t, MinRetryDelay, sup.delayFloor, "порог паузы по умолчанию равен MinRetryDelay")
}

func TestSupervisorConnectTimeout(t *testing.T) {
	driver := &fakeDriver{blockConnect: true}
	registry := NewRegistry(nil)
	cfg := testEndpoint("srv1", entities.RetryPolicy{Mode: entities.RetryBounded, MaxAttempts: 1, Delay: time.Millisecond})
	cfg.ConnectTimeout = 30 * time.Millisecond
	registry.Seed(cfg, models.StateDisconnected)

	sup := newSupervisor(cfg, staticFactory(driver), registry, nil, testLogger(), nil)
	sup.delayFloor = time.Millisecond

	require.True(t, registry.TryStartSupervising("srv1", func() {}))
	start := time.Now()
	sup.run(context.Background())

	assert.Less(t, time.Since(start), time.Second, "зависший Connect должен быть оборван таймаутом")

	m, err := registry.EndpointMetrics("srv1")
	require.NoError(t, err)
	assert.Equal(t, models.StateError, m.Status)
}
