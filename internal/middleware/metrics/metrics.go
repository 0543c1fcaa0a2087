package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

// Config содержит настройки экспорта метрик.
type Config struct {
	Enabled bool
	Path    string
}

// Collector - prometheus-метрики шлюза. Все методы безопасны при nil
// получателе, чтобы тестам не требовался реестр prometheus.
type Collector struct {
	registry          *prometheus.Registry
	activeConnections prometheus.Gauge
	readsTotal        *prometheus.CounterVec
	probeLatency      *prometheus.HistogramVec
	connectAttempts   *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_active_connections",
			Help: "Number of endpoints currently connected.",
		}),
		readsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_reads_total",
			Help: "Messages and value reads received per endpoint.",
		}, []string{"endpoint"}),
		probeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_probe_latency_seconds",
			Help:    "Health probe round-trip latency per endpoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		connectAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_connect_attempts_total",
			Help: "Connection attempts per endpoint.",
		}, []string{"endpoint"}),
	}

	c.registry.MustRegister(
		c.activeConnections,
		c.readsTotal,
		c.probeLatency,
		c.connectAttempts,
	)
	return c
}

func (c *Collector) SetActiveConnections(n int) {
	if c == nil {
		return
	}
	c.activeConnections.Set(float64(n))
}

func (c *Collector) AddReads(endpoint string, n int) {
	if c == nil {
		return
	}
	c.readsTotal.WithLabelValues(endpoint).Add(float64(n))
}

func (c *Collector) ObserveProbeLatency(endpoint string, d time.Duration) {
	if c == nil {
		return
	}
	c.probeLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (c *Collector) IncConnectAttempts(endpoint string) {
	if c == nil {
		return
	}
	c.connectAttempts.WithLabelValues(endpoint).Inc()
}

// Setup вешает обработчик /metrics на роутер.
func Setup(r *gin.Engine, cfg *Config, c *Collector) {
	if cfg == nil || !cfg.Enabled || c == nil {
		return
	}
	handler := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	r.GET(cfg.Path, gin.WrapH(handler))
}
