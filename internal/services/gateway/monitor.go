package gateway

import (
	"context"
	"time"

	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
)

const defaultProbeTimeout = 5 * time.Second

// Monitor периодически проверяет живость всех подключенных эндпоинтов.
// При сбое пробы эндпоинт помечается деградировавшим, его handle снимается
// с учета, и для него заново запускается супервайзер. Ошибка пробы одного
// эндпоинта никогда не прерывает мониторинг остальных.
type Monitor struct {
	registry     *Registry
	interval     time.Duration
	probeTimeout time.Duration
	relaunch     func(name string)
	logger       *logging.Logger
}

func newMonitor(registry *Registry, interval time.Duration, relaunch func(name string), logger *logging.Logger) *Monitor {
	return &Monitor{
		registry:     registry,
		interval:     interval,
		probeTimeout: defaultProbeTimeout,
		relaunch:     relaunch,
		logger:       logger.WithPrefix("MONITOR"),
	}
}

// run крутит цикл мониторинга до отмены контекста.
func (m *Monitor) run(ctx context.Context) {
	m.logger.Info("Health monitor started", "interval", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Health monitor stopped")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep обходит все живые handle и пробует каждый из них.
func (m *Monitor) sweep(ctx context.Context) {
	for name, h := range m.registry.ConnectedHandles() {
		if ctx.Err() != nil {
			return
		}
		m.probe(ctx, name, h)
	}
}

func (m *Monitor) probe(ctx context.Context, name string, h *Handle) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Probe panicked", "endpoint", name, "panic", r)
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	start := time.Now()
	err := h.Driver.Probe(probeCtx)
	if err == nil {
		m.registry.RecordLatency(name, time.Since(start))
		m.registry.SetStatus(name, models.StateConnected)
		m.registry.RecordSuccess(name)
		return
	}

	m.logger.Warn("Connection lost", "endpoint", name, "error", err)
	m.registry.SetStatus(name, models.StateError)
	m.registry.RecordError(name, err)

	m.registry.StopTask(name)
	m.registry.SetSubscriptions(name, 0)
	if stale := m.registry.Unregister(name); stale != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), m.probeTimeout)
		_ = stale.Driver.Close(closeCtx)
		closeCancel()
	}

	// Повторный запуск идемпотентен: если супервайзер уже работает,
	// второй не стартует.
	m.relaunch(name)
}
