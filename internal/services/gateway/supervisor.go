package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
	"github.com/iwtcode/industrialGateway/internal/middleware/metrics"
	apperrors "github.com/iwtcode/industrialGateway/pkg/errors"
)

// MinRetryDelay - нижняя граница паузы между попытками подключения.
// Меньшие значения из конфигурации поднимаются до этого порога.
const MinRetryDelay = 2 * time.Second

// Supervisor владеет циклом подключения одного эндпоинта:
// Disconnected -> Connecting -> {Connected | Error}. После успешного
// подключения цикл завершается - дальнейшие сбои обнаруживает монитор.
type Supervisor struct {
	cfg       entities.EndpointConfig
	factory   interfaces.DriverFactory
	registry  *Registry
	collector *metrics.Collector
	logger    *logging.Logger

	// вызывается после регистрации handle: подписка или запуск опроса
	onConnected func(h *Handle)

	// порог паузы, в тестах уменьшается
	delayFloor time.Duration
}

func newSupervisor(
	cfg entities.EndpointConfig,
	factory interfaces.DriverFactory,
	registry *Registry,
	collector *metrics.Collector,
	logger *logging.Logger,
	onConnected func(h *Handle),
) *Supervisor {
	return &Supervisor{
		cfg:         cfg,
		factory:     factory,
		registry:    registry,
		collector:   collector,
		logger:      logger.WithPrefix("SUPERVISOR"),
		onConnected: onConnected,
		delayFloor:  MinRetryDelay,
	}
}

// run выполняет цикл подключения с повторами. Выход: успех, исчерпание
// бюджета попыток или отмена контекста. Каждая пауза между попытками
// наблюдает сигнал остановки.
func (s *Supervisor) run(ctx context.Context) {
	defer s.registry.DoneSupervising(s.cfg.Name)

	name := s.cfg.Name
	infinite := s.cfg.Retry.Mode == entities.RetryUnbounded
	maxAttempts := s.cfg.Retry.MaxAttempts
	delay := s.cfg.Retry.Delay
	if delay < s.delayFloor {
		delay = s.delayFloor
	}

	attempt := 0
	for {
		if ctx.Err() != nil {
			return
		}

		attempt++
		if infinite {
			s.logger.Info("Connection attempt (infinite mode)", "endpoint", name, "attempt", attempt)
		} else {
			s.logger.Info("Connection attempt", "endpoint", name, "attempt", fmt.Sprintf("%d/%d", attempt, maxAttempts))
		}
		s.collector.IncConnectAttempts(name)
		s.registry.SetStatus(name, models.StateConnecting)

		err := s.connectOnce(ctx)
		if err == nil {
			s.logger.Info("Connection established", "endpoint", name)
			return
		}

		s.registry.RecordError(name, err)
		s.logger.Warn("Connection attempt failed", "endpoint", name, "attempt", attempt, "error", err)

		if !infinite && attempt >= maxAttempts {
			s.registry.SetStatus(name, models.StateError)
			s.registry.RecordError(name, fmt.Errorf("все %d попыток подключения провалились", maxAttempts))
			s.logger.Error("Connection failed permanently, retry budget exhausted", "endpoint", name, "attempts", maxAttempts)
			return
		}

		s.logger.Info("Waiting before next connection attempt", "endpoint", name, "delay", delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// connectOnce выполняет одну попытку подключения с таймаутом и, при успехе,
// регистрирует handle и запускает фоновую активность эндпоинта.
func (s *Supervisor) connectOnce(ctx context.Context) error {
	driver, err := s.factory(s.cfg, s.logger)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrConnect, err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()

	if err := driver.Connect(connectCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(connectCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrConnect, err)
	}

	name := s.cfg.Name
	h := &Handle{
		SessionID:   uuid.New().String(),
		Endpoint:    name,
		Driver:      driver,
		ConnectedAt: time.Now(),
	}

	if old := s.registry.Register(name, h); old != nil {
		// осиротевший handle от предыдущего подключения
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = old.Driver.Close(closeCtx)
		closeCancel()
	}

	s.registry.SetSessionID(name, h.SessionID)
	s.registry.SetStatus(name, models.StateConnected)
	s.registry.RecordSuccess(name)

	if s.onConnected != nil {
		s.onConnected(h)
	}
	return nil
}
