package gateway

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
	"github.com/iwtcode/industrialGateway/internal/domain/models"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/internal/middleware/metrics"
	apperrors "github.com/iwtcode/industrialGateway/pkg/errors"
)

// Handle - живое подключение эндпоинта. Владеет им супервайзер,
// зарегистрировавший его; explorer и операции чтения заимствуют handle
// на время одного вызова и никогда не удерживают его.
type Handle struct {
	SessionID   string
	Endpoint    string // имя эндпоинта
	Driver      interfaces.Driver
	ConnectedAt time.Time
}

// metricsEntry - метрики одного эндпоинта. У каждой записи в любой момент
// ровно один писатель (владеющий супервайзер либо монитор), поэтому чтение
// снимка обходится без блокировки: все поля атомарны.
type metricsEntry struct {
	protocol      entities.Protocol
	status        atomic.Value // models.ConnectionState
	messages      atomic.Int64
	subscriptions atomic.Int32
	tagsMonitored atomic.Int32
	lastError     atomic.Value // string
	latencyUs     atomic.Int64
	lastSuccess   atomic.Int64 // UnixNano, 0 - успехов не было
	sessionID     atomic.Value // string
}

// Registry - общий реестр подключений: имя эндпоинта -> живой handle и
// метрики. Регистрация - единственная точка мутации наличия handle.
// Реестр также отслеживает работающие супервайзеры и фоновые задачи,
// что делает перезапуск идемпотентным, а остановку - полной.
type Registry struct {
	mu          sync.RWMutex
	handles     map[string]*Handle
	metrics     map[string]*metricsEntry
	supervising map[string]context.CancelFunc
	tasks       map[string]context.CancelFunc

	collector *metrics.Collector
}

func NewRegistry(collector *metrics.Collector) *Registry {
	return &Registry{
		handles:     make(map[string]*Handle),
		metrics:     make(map[string]*metricsEntry),
		supervising: make(map[string]context.CancelFunc),
		tasks:       make(map[string]context.CancelFunc),
		collector:   collector,
	}
}

// Seed создает запись метрик для сконфигурированного эндпоинта.
// Вызывается один раз при инициализации шлюза.
func (r *Registry) Seed(cfg entities.EndpointConfig, initial models.ConnectionState) {
	entry := &metricsEntry{protocol: cfg.Protocol}
	entry.status.Store(initial)
	entry.lastError.Store("")
	entry.sessionID.Store("")

	r.mu.Lock()
	r.metrics[cfg.Name] = entry
	r.mu.Unlock()
}

// Register сохраняет живой handle эндпоинта. На эндпоинт приходится
// не более одного handle: старый (если был) возвращается для закрытия.
func (r *Registry) Register(name string, h *Handle) *Handle {
	r.mu.Lock()
	old := r.handles[name]
	r.handles[name] = h
	r.mu.Unlock()
	return old
}

// Unregister удаляет handle эндпоинта и возвращает его для закрытия.
func (r *Registry) Unregister(name string) *Handle {
	r.mu.Lock()
	h := r.handles[name]
	delete(r.handles, name)
	r.mu.Unlock()
	return h
}

// Get возвращает живой handle эндпоинта. Если эндпоинт отсутствует или
// еще не подключен, возвращается ErrNotConnected - вызов не блокируется.
func (r *Registry) Get(name string) (*Handle, error) {
	r.mu.RLock()
	h, ok := r.handles[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: эндпоинт '%s'", apperrors.ErrNotConnected, name)
	}
	return h, nil
}

// ConnectedHandles возвращает снимок всех живых handle.
func (r *Registry) ConnectedHandles() map[string]*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Handle, len(r.handles))
	for name, h := range r.handles {
		out[name] = h
	}
	return out
}

// ActiveCount возвращает число эндпоинтов в статусе Connected.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, entry := range r.metrics {
		if entry.status.Load() == models.StateConnected {
			count++
		}
	}
	return count
}

// MetricsSnapshot возвращает снимок метрик всех эндпоинтов.
func (r *Registry) MetricsSnapshot() map[string]models.ConnectionMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]models.ConnectionMetrics, len(r.metrics))
	for name, entry := range r.metrics {
		out[name] = entry.snapshot(name)
	}
	return out
}

// EndpointMetrics возвращает снимок метрик одного эндпоинта.
func (r *Registry) EndpointMetrics(name string) (models.ConnectionMetrics, error) {
	r.mu.RLock()
	entry, ok := r.metrics[name]
	r.mu.RUnlock()
	if !ok {
		return models.ConnectionMetrics{}, fmt.Errorf("эндпоинт '%s' не сконфигурирован", name)
	}
	return entry.snapshot(name), nil
}

// Known сообщает, сконфигурирован ли эндпоинт.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	_, ok := r.metrics[name]
	r.mu.RUnlock()
	return ok
}

func (e *metricsEntry) snapshot(name string) models.ConnectionMetrics {
	m := models.ConnectionMetrics{
		EndpointName:        name,
		Protocol:            e.protocol,
		Status:              e.status.Load().(models.ConnectionState),
		MessagesReceived:    e.messages.Load(),
		ActiveSubscriptions: int(e.subscriptions.Load()),
		TagsMonitored:       int(e.tagsMonitored.Load()),
		LastError:           e.lastError.Load().(string),
		SessionID:           e.sessionID.Load().(string),
	}
	if us := e.latencyUs.Load(); us > 0 {
		m.LatencyMs = float64(us) / 1000.0
	}
	if ns := e.lastSuccess.Load(); ns > 0 {
		t := time.Unix(0, ns)
		m.LastSuccess = &t
	}
	return m
}

// --- Мутации метрик. Пишет только супервайзер эндпоинта
// (либо монитор после передачи владения). ---

func (r *Registry) entry(name string) *metricsEntry {
	r.mu.RLock()
	entry := r.metrics[name]
	r.mu.RUnlock()
	return entry
}

func (r *Registry) SetStatus(name string, status models.ConnectionState) {
	if entry := r.entry(name); entry != nil {
		entry.status.Store(status)
		r.collector.SetActiveConnections(r.ActiveCount())
	}
}

func (r *Registry) RecordError(name string, err error) {
	if entry := r.entry(name); entry != nil && err != nil {
		entry.lastError.Store(err.Error())
	}
}

func (r *Registry) RecordLatency(name string, d time.Duration) {
	if entry := r.entry(name); entry != nil {
		entry.latencyUs.Store(d.Microseconds())
		r.collector.ObserveProbeLatency(name, d)
	}
}

func (r *Registry) RecordSuccess(name string) {
	if entry := r.entry(name); entry != nil {
		entry.lastSuccess.Store(time.Now().UnixNano())
	}
}

// AddMessages увеличивает счетчик полученных сообщений/чтений.
// Счетчик монотонно неубывающий между сбросами состояния подключения.
func (r *Registry) AddMessages(name string, n int) {
	if entry := r.entry(name); entry != nil {
		entry.messages.Add(int64(n))
		r.collector.AddReads(name, n)
	}
}

func (r *Registry) SetSubscriptions(name string, n int) {
	if entry := r.entry(name); entry != nil {
		entry.subscriptions.Store(int32(n))
	}
}

func (r *Registry) SetTagsMonitored(name string, n int) {
	if entry := r.entry(name); entry != nil {
		entry.tagsMonitored.Store(int32(n))
	}
}

func (r *Registry) SetSessionID(name, sessionID string) {
	if entry := r.entry(name); entry != nil {
		entry.sessionID.Store(sessionID)
	}
}

// --- Отслеживание супервайзеров и фоновых задач. ---

// TryStartSupervising атомарно отмечает запуск супервайзера эндпоинта.
// Возвращает false, если цикл повторных попыток для этого имени уже идет:
// второй конкурентный цикл не запускается никогда.
func (r *Registry) TryStartSupervising(name string, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, running := r.supervising[name]; running {
		return false
	}
	r.supervising[name] = cancel
	return true
}

// DoneSupervising снимает отметку о работающем супервайзере.
func (r *Registry) DoneSupervising(name string) {
	r.mu.Lock()
	delete(r.supervising, name)
	r.mu.Unlock()
}

// SetTask регистрирует фоновую задачу эндпоинта (подписку или опрос),
// останавливая предыдущую, если она была.
func (r *Registry) SetTask(name string, cancel context.CancelFunc) {
	r.mu.Lock()
	old := r.tasks[name]
	r.tasks[name] = cancel
	r.mu.Unlock()
	if old != nil {
		old()
	}
}

// StopTask останавливает фоновую задачу эндпоинта.
func (r *Registry) StopTask(name string) {
	r.mu.Lock()
	cancel := r.tasks[name]
	delete(r.tasks, name)
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// StopAll отменяет все супервайзеры и задачи и возвращает живые handle
// для закрытия. Используется при остановке шлюза.
func (r *Registry) StopAll() []*Handle {
	r.mu.Lock()
	for _, cancel := range r.supervising {
		cancel()
	}
	r.supervising = make(map[string]context.CancelFunc)
	for _, cancel := range r.tasks {
		cancel()
	}
	r.tasks = make(map[string]context.CancelFunc)

	handles := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.handles = make(map[string]*Handle)
	r.mu.Unlock()
	return handles
}
