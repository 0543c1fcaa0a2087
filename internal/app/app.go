package app

import (
	"context"
	"net/http"
	"time"

	"github.com/iwtcode/industrialGateway/internal/adapters/drivers"
	"github.com/iwtcode/industrialGateway/internal/adapters/handlers"
	"github.com/iwtcode/industrialGateway/internal/config"
	"github.com/iwtcode/industrialGateway/internal/interfaces"
	"github.com/iwtcode/industrialGateway/internal/middleware/logging"
	"github.com/iwtcode/industrialGateway/internal/middleware/metrics"
	"github.com/iwtcode/industrialGateway/internal/middleware/swagger"
	"github.com/iwtcode/industrialGateway/internal/services/explorer"
	"github.com/iwtcode/industrialGateway/internal/services/gateway"
	"github.com/iwtcode/industrialGateway/internal/services/kafka"
	"github.com/iwtcode/industrialGateway/internal/usecases"

	"go.uber.org/fx"
)

// New создает новый экземпляр fx.App
func New() *fx.App {
	return fx.New(
		ConfigModule,
		LoggingModule,
		MetricsModule,
		ProducerModule,
		DriverModule,
		ServiceModule,
		UsecaseModule,
		HttpServerModule,
		// Invoke-функции для запуска фоновых задач и хуков жизненного цикла
		fx.Invoke(InvokeGateway),
	)
}

// --- Модули FX ---

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadConfiguration),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "IndustrialGateway")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

func NewMetricsConfig() *metrics.Config {
	return &metrics.Config{
		Enabled: true,
		Path:    "/metrics",
	}
}

var MetricsModule = fx.Module("metrics_module",
	fx.Provide(
		NewMetricsConfig,
		metrics.NewCollector,
	),
)

var ProducerModule = fx.Module("producer_module",
	fx.Provide(kafka.NewKafkaProducer),
)

var DriverModule = fx.Module("driver_module",
	fx.Provide(drivers.NewDriverFactory),
)

var ServiceModule = fx.Module("service_module",
	fx.Provide(
		gateway.NewGatewayService,
		func(s *gateway.Service) interfaces.GatewayService { return s },
		func(s *gateway.Service) explorer.HandleSource { return s },
		explorer.NewExplorerService,
		func(s *explorer.Service) interfaces.ExplorerService { return s },
	),
)

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(usecases.NewUsecases),
)

func NewSwaggerConfig() *swagger.Config {
	return &swagger.Config{
		Enabled: true,
		Path:    "/swagger",
	}
}

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		NewSwaggerConfig,
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
	fx.Invoke(InvokeHttpServer),
)

// InvokeGateway привязывает жизненный цикл шлюза к приложению: старт
// неблокирующий, остановка закрывает подключения и продюсер Kafka.
func InvokeGateway(lc fx.Lifecycle, svc *gateway.Service, producer interfaces.KafkaService, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			svc.Initialize()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := svc.Shutdown(ctx); err != nil {
				logger.Error("Gateway shutdown failed", "error", err)
			}
			if err := producer.Close(); err != nil {
				logger.Warn("Kafka producer close failed", "error", err)
			}
			return nil
		},
	})
}

// InvokeHttpServer запускает HTTP-сервер.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
