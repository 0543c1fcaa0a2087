package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iwtcode/industrialGateway/internal/config"
	"github.com/iwtcode/industrialGateway/internal/domain/entities"
	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
	"github.com/iwtcode/industrialGateway/internal/middleware/metrics"
	apperrors "github.com/iwtcode/industrialGateway/pkg/errors"
)

const shutdownCloseTimeout = 5 * time.Second

// Service - ядро шлюза: реестр подключений, супервайзеры, монитор живости
// и одиночные чтения. Формирует по одному супервайзеру на каждый
// сконфигурированный эндпоинт и больше ничем их не связывает.
type Service struct {
	endpoints map[string]entities.EndpointConfig
	monitorIn time.Duration

	registry  *Registry
	factory   interfaces.DriverFactory
	producer  interfaces.KafkaService
	collector *metrics.Collector
	pool      *Pool
	logger    *logging.Logger

	mu          sync.Mutex
	rootCtx     context.Context
	cancel      context.CancelFunc
	initialized bool
	stopped     bool

	cacheMu  sync.RWMutex
	tagCache map[string]map[string]models.TagValue
}

var _ interfaces.GatewayService = (*Service)(nil)

// NewGatewayService создает сервис шлюза с внедренной конфигурацией.
// Никакого глобального состояния: экземпляр передается по ссылке.
func NewGatewayService(
	cfg *config.AppConfig,
	factory interfaces.DriverFactory,
	producer interfaces.KafkaService,
	collector *metrics.Collector,
	logger *logging.Logger,
) *Service {
	endpoints := make(map[string]entities.EndpointConfig, len(cfg.Gateway.Endpoints))
	for _, ep := range cfg.Gateway.Endpoints {
		endpoints[ep.Name] = ep
	}

	return &Service{
		endpoints: endpoints,
		monitorIn: cfg.Gateway.MonitoringInterval,
		registry:  NewRegistry(collector),
		factory:   factory,
		producer:  producer,
		collector: collector,
		pool:      NewPool(cfg.Gateway.MaxWorkers),
		logger:    logger.WithPrefix("GATEWAY"),
		tagCache:  make(map[string]map[string]models.TagValue),
	}
}

// Initialize запускает супервайзеры всех эндпоинтов и монитор живости
// в фоне и сразу возвращается: старт системы не ждет ни одного
// подключения, API доступен немедленно.
func (s *Service) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return
	}
	s.initialized = true
	s.rootCtx, s.cancel = context.WithCancel(context.Background())

	if len(s.endpoints) == 0 {
		s.logger.Info("No endpoints configured, nothing to connect")
		return
	}

	s.logger.Info("Initializing gateway in background", "endpoints", len(s.endpoints))

	for name, ep := range s.endpoints {
		s.registry.Seed(ep, initialState(ep.Protocol))
		s.superviseAsync(name)
	}

	monitor := newMonitor(s.registry, s.monitorIn, s.superviseAsync, s.logger)
	go monitor.run(s.rootCtx)

	s.logger.Info("Gateway initialized. Connections are being established in background.")
}

// initialState: OPC UA эндпоинты стартуют как Disconnected, Ethernet/IP -
// как Ready ("сконфигурирован, но попыток еще не было").
func initialState(p entities.Protocol) models.ConnectionState {
	if p == entities.ProtocolEthernetIP {
		return models.StateReady
	}
	return models.StateDisconnected
}

// superviseAsync запускает цикл супервайзера для эндпоинта, если он еще
// не идет. Повторный вызов для того же имени - no-op.
func (s *Service) superviseAsync(name string) {
	ep, ok := s.endpoints[name]
	if !ok {
		s.logger.Warn("Supervise requested for unknown endpoint", "endpoint", name)
		return
	}

	ctx, cancel := context.WithCancel(s.rootCtx)
	if !s.registry.TryStartSupervising(name, cancel) {
		cancel()
		s.logger.Debug("Supervisor already running", "endpoint", name)
		return
	}

	sup := newSupervisor(ep, s.wrappedFactory(), s.registry, s.collector, s.logger, func(h *Handle) {
		s.startPostConnect(ep, h)
	})
	go sup.run(ctx)
}

// wrappedFactory оборачивает блокирующие драйверы (Ethernet/IP) в пул.
func (s *Service) wrappedFactory() interfaces.DriverFactory {
	return func(cfg entities.EndpointConfig, logger *logging.Logger) (interfaces.Driver, error) {
		driver, err := s.factory(cfg, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Protocol == entities.ProtocolEthernetIP {
			return newPooledDriver(driver, s.pool), nil
		}
		return driver, nil
	}
}

// startPostConnect запускает фоновую активность эндпоинта после
// подключения: подписку мониторинга для OPC UA или цикл опроса тегов
// для Ethernet/IP.
func (s *Service) startPostConnect(ep entities.EndpointConfig, h *Handle) {
	switch ep.Protocol {
	case entities.ProtocolOPCUA:
		sub, ok := h.Driver.(interfaces.Subscriber)
		if !ok {
			return
		}
		subCtx, cancel := context.WithTimeout(s.rootCtx, shutdownCloseTimeout)
		defer cancel()
		if err := sub.Subscribe(subCtx, ep.SubscriptionInterval); err != nil {
			s.logger.Warn("Failed to create monitoring subscription", "endpoint", ep.Name, "error", err)
			return
		}
		s.registry.SetSubscriptions(ep.Name, 1)

	case entities.ProtocolEthernetIP:
		if len(ep.Tags) == 0 {
			return
		}
		s.registry.SetTagsMonitored(ep.Name, len(ep.Tags))
		taskCtx, cancel := context.WithCancel(s.rootCtx)
		s.registry.SetTask(ep.Name, cancel)
		go s.pollTags(taskCtx, ep, h)
	}
}

// pollTags - цикл опроса тегов Ethernet/IP устройства. Каждый цикл
// обновляет кеш значений и отправляет пакет в Kafka. Ошибка одного цикла
// не останавливает опрос.
func (s *Service) pollTags(ctx context.Context, ep entities.EndpointConfig, h *Handle) {
	interval := minReadInterval(ep.Tags)
	s.logger.Info("Starting tag polling goroutine", "endpoint", ep.Name, "tags", len(ep.Tags), "interval", interval)
	defer s.logger.Info("Tag polling goroutine stopped", "endpoint", ep.Name)

	reader, ok := h.Driver.(interfaces.TagReader)
	if !ok {
		s.logger.Error("Driver does not support tag reading", "endpoint", ep.Name)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			values, err := reader.ReadTags(ctx, ep.Tags)
			if err != nil {
				s.logger.Error("Tag poll cycle failed", "endpoint", ep.Name, "error", err)
				s.registry.RecordError(ep.Name, err)
				continue
			}
			if len(values) == 0 {
				continue
			}

			s.storeTagValues(ep.Name, values)
			s.registry.AddMessages(ep.Name, len(values))
			s.registry.RecordSuccess(ep.Name)

			if s.producer == nil {
				continue
			}
			batch := models.TagBatchKafka{
				Device:    ep.Name,
				SessionID: h.SessionID,
				Timestamp: time.Now(),
				Tags:      values,
			}
			payload, err := json.Marshal(batch)
			if err != nil {
				s.logger.Error("Failed to serialize tag batch for Kafka", "endpoint", ep.Name, "error", err)
				continue
			}
			if err := s.producer.Produce(ctx, []byte(ep.Name), payload); err != nil {
				s.logger.Error("Failed to send tag batch to Kafka", "endpoint", ep.Name, "error", err)
			}
		}
	}
}

func minReadInterval(tags []entities.TagConfig) time.Duration {
	interval := time.Duration(0)
	for _, tag := range tags {
		if tag.ReadInterval > 0 && (interval == 0 || tag.ReadInterval < interval) {
			interval = tag.ReadInterval
		}
	}
	if interval == 0 {
		interval = time.Second
	}
	return interval
}

func (s *Service) storeTagValues(device string, values []models.TagValue) {
	s.cacheMu.Lock()
	cache, ok := s.tagCache[device]
	if !ok {
		cache = make(map[string]models.TagValue, len(values))
		s.tagCache[device] = cache
	}
	for _, v := range values {
		cache[v.TagName] = v
	}
	s.cacheMu.Unlock()
}

// Shutdown останавливает все циклы повторных попыток и фоновые задачи,
// закрывает живые подключения с ограниченным таймаутом и осушает пул
// блокирующих операций. Идемпотентен.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.initialized || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	s.logger.Info("Shutting down gateway...")
	cancel()

	handles := s.registry.StopAll()
	for _, h := range handles {
		closeCtx, closeCancel := context.WithTimeout(ctx, shutdownCloseTimeout)
		if err := h.Driver.Close(closeCtx); err != nil {
			s.logger.Warn("Error closing connection", "endpoint", h.Endpoint, "error", err)
		}
		closeCancel()
		s.registry.SetStatus(h.Endpoint, models.StateDisconnected)
	}

	if err := s.pool.Drain(shutdownCloseTimeout); err != nil {
		s.logger.Warn("Worker pool drain incomplete", "error", err)
	}

	s.logger.Info("Gateway shut down")
	return nil
}

// Borrow возвращает живой handle эндпоинта для одного вызова.
// Используется explorer-ом; handle никогда не удерживается.
func (s *Service) Borrow(name string) (*Handle, error) {
	return s.registry.Get(name)
}

func (s *Service) MetricsSnapshot() map[string]models.ConnectionMetrics {
	return s.registry.MetricsSnapshot()
}

func (s *Service) EndpointMetrics(name string) (models.ConnectionMetrics, error) {
	return s.registry.EndpointMetrics(name)
}

func (s *Service) ActiveConnectionCount() int {
	return s.registry.ActiveCount()
}

// ReadValue читает значение узла или тега подключенного эндпоинта.
func (s *Service) ReadValue(ctx context.Context, endpoint, nodeID string) (models.Value, error) {
	h, err := s.registry.Get(endpoint)
	if err != nil {
		return models.Value{}, err
	}

	value, err := h.Driver.ReadValue(ctx, nodeID)
	if err != nil {
		s.registry.RecordError(endpoint, err)
		// ошибка разбора идентификатора - ошибка запроса, не чтения
		if errors.Is(err, apperrors.ErrParse) {
			return models.Value{}, err
		}
		return models.Value{}, fmt.Errorf("%w: узел '%s' эндпоинта '%s': %v", apperrors.ErrRead, nodeID, endpoint, err)
	}

	s.registry.AddMessages(endpoint, 1)
	s.registry.RecordSuccess(endpoint)
	return value, nil
}

// Reconnect внепланово перезапускает супервайзер эндпоинта.
func (s *Service) Reconnect(endpoint string) error {
	if _, ok := s.endpoints[endpoint]; !ok {
		return fmt.Errorf("эндпоинт '%s' не сконфигурирован", endpoint)
	}

	s.mu.Lock()
	if !s.initialized || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("шлюз не запущен")
	}
	s.mu.Unlock()

	s.logger.Info("Reconnect requested", "endpoint", endpoint)

	s.registry.StopTask(endpoint)
	s.registry.SetSubscriptions(endpoint, 0)
	if stale := s.registry.Unregister(endpoint); stale != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownCloseTimeout)
		_ = stale.Driver.Close(closeCtx)
		cancel()
	}
	s.registry.SetStatus(endpoint, models.StateDisconnected)

	s.superviseAsync(endpoint)
	return nil
}

// ReadTag читает один тег Ethernet/IP устройства напрямую, минуя кеш.
func (s *Service) ReadTag(ctx context.Context, device, tagPath string) (models.TagValue, error) {
	h, err := s.registry.Get(device)
	if err != nil {
		return models.TagValue{}, err
	}

	reader, ok := h.Driver.(interfaces.TagReader)
	if !ok {
		return models.TagValue{}, fmt.Errorf("эндпоинт '%s' не поддерживает чтение тегов", device)
	}

	values, err := reader.ReadTags(ctx, []entities.TagConfig{{Name: tagPath, TagPath: tagPath}})
	if err != nil {
		s.registry.RecordError(device, err)
		return models.TagValue{}, fmt.Errorf("%w: тег '%s' устройства '%s': %v", apperrors.ErrRead, tagPath, device, err)
	}
	if len(values) == 0 {
		return models.TagValue{}, fmt.Errorf("%w: тег '%s' не вернул значения", apperrors.ErrRead, tagPath)
	}

	s.registry.AddMessages(device, 1)
	s.registry.RecordSuccess(device)
	return values[0], nil
}

// CachedTagValues возвращает значения тегов устройства из кеша опроса,
// без обращения к устройству.
func (s *Service) CachedTagValues(device string) ([]models.TagValue, error) {
	if !s.registry.Known(device) {
		return nil, fmt.Errorf("эндпоинт '%s' не сконфигурирован", device)
	}

	s.cacheMu.RLock()
	cache := s.tagCache[device]
	values := make([]models.TagValue, 0, len(cache))
	for _, v := range cache {
		values = append(values, v)
	}
	s.cacheMu.RUnlock()

	sort.Slice(values, func(i, j int) bool { return values[i].TagName < values[j].TagName })
	return values, nil
}
