package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
)

// AppConfig содержит конфигурацию приложения
type AppConfig struct {
	ServerPort  string
	KafkaBroker string
	KafkaTopic  string
	GinMode     string
	Logging     LoggerConfig
	Gateway     GatewayConfig
}

// LoggerConfig содержит настройки логгера
type LoggerConfig struct {
	Enable     bool
	LogsDir    string
	Level      string
	SavingDays int
}

// GatewayConfig содержит параметры шлюза и список эндпоинтов,
// загружаемые из YAML файла.
type GatewayConfig struct {
	MonitoringInterval time.Duration
	MaxWorkers         int
	Endpoints          []entities.EndpointConfig
}

// settingsFile - схема YAML файла с описанием парка эндпоинтов.
type settingsFile struct {
	OPCUA struct {
		DefaultTimeout       float64 `yaml:"default_timeout"`
		RetryAttempts        int     `yaml:"retry_attempts"`
		RetryDelay           float64 `yaml:"retry_delay"`
		MonitoringInterval   float64 `yaml:"monitoring_interval"`
		SubscriptionInterval float64 `yaml:"subscription_interval"`
		Servers              []struct {
			Name           string `yaml:"name"`
			Endpoint       string `yaml:"endpoint"`
			SecurityPolicy string `yaml:"security_policy"`
			Username       string `yaml:"username"`
			Password       string `yaml:"password"`
		} `yaml:"servers"`
	} `yaml:"opcua"`
	EthernetIP struct {
		Timeout       float64 `yaml:"timeout"`
		RetryAttempts int     `yaml:"retry_attempts"`
		RetryDelay    float64 `yaml:"retry_delay"`
		MaxWorkers    int     `yaml:"max_workers"`
		Devices       []struct {
			Name      string `yaml:"name"`
			IPAddress string `yaml:"ip_address"`
			Slot      int    `yaml:"slot"`
			Tags      []struct {
				Name         string  `yaml:"name"`
				TagPath      string  `yaml:"tag_path"`
				DataType     string  `yaml:"data_type"`
				Description  string  `yaml:"description"`
				ReadInterval float64 `yaml:"read_interval"`
			} `yaml:"tags"`
		} `yaml:"devices"`
	} `yaml:"ethernet_ip"`
}

// LoadConfiguration загружает конфигурацию из .env файла или переменных
// окружения, а парк эндпоинтов - из YAML файла (SETTINGS_PATH).
func LoadConfiguration() (*AppConfig, error) {
	_ = godotenv.Load()

	config := &AppConfig{
		ServerPort:  getEnv("APP_PORT", "8082"),
		KafkaBroker: getEnv("KAFKA_BROKER", "localhost:9092"),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "gateway_data"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		Logging: LoggerConfig{
			Enable:     getEnvAsBool("LOGGER_ENABLE", true),
			LogsDir:    getEnv("LOGGER_LOGS_DIR", "./logs"),
			Level:      getEnv("LOGGER_LOG_LEVEL", "DEBUG"),
			SavingDays: getEnvAsInt("LOGGER_SAVING_DAYS", 7),
		},
	}

	settingsPath := getEnv("SETTINGS_PATH", "./config/settings.yml")
	gateway, err := loadGatewayConfig(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию эндпоинтов из '%s': %w", settingsPath, err)
	}
	config.Gateway = *gateway

	return config, nil
}

// loadGatewayConfig читает YAML файл парка эндпоинтов и приводит его
// к доменным структурам.
func loadGatewayConfig(path string) (*GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var settings settingsFile
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, err
	}

	gw := &GatewayConfig{
		MonitoringInterval: secondsOrDefault(settings.OPCUA.MonitoringInterval, 10*time.Second),
		MaxWorkers:         settings.EthernetIP.MaxWorkers,
	}
	if gw.MaxWorkers <= 0 {
		gw.MaxWorkers = 5
	}

	opcuaTimeout := secondsOrDefault(settings.OPCUA.DefaultTimeout, 10*time.Second)
	opcuaRetry := retryPolicy(settings.OPCUA.RetryAttempts, settings.OPCUA.RetryDelay)
	subInterval := secondsOrDefault(settings.OPCUA.SubscriptionInterval, time.Second)

	for _, s := range settings.OPCUA.Servers {
		gw.Endpoints = append(gw.Endpoints, entities.EndpointConfig{
			Name:                 s.Name,
			Protocol:             entities.ProtocolOPCUA,
			Endpoint:             s.Endpoint,
			SecurityPolicy:       s.SecurityPolicy,
			Username:             s.Username,
			Password:             s.Password,
			ConnectTimeout:       opcuaTimeout,
			Retry:                opcuaRetry,
			SubscriptionInterval: subInterval,
		})
	}

	enipTimeout := secondsOrDefault(settings.EthernetIP.Timeout, 5*time.Second)
	enipRetry := retryPolicy(settings.EthernetIP.RetryAttempts, settings.EthernetIP.RetryDelay)

	for _, d := range settings.EthernetIP.Devices {
		ep := entities.EndpointConfig{
			Name:           d.Name,
			Protocol:       entities.ProtocolEthernetIP,
			Endpoint:       d.IPAddress,
			Slot:           d.Slot,
			ConnectTimeout: enipTimeout,
			Retry:          enipRetry,
		}
		for _, tag := range d.Tags {
			ep.Tags = append(ep.Tags, entities.TagConfig{
				Name:         tag.Name,
				TagPath:      tag.TagPath,
				DataType:     tag.DataType,
				Description:  tag.Description,
				ReadInterval: secondsOrDefault(tag.ReadInterval, time.Second),
			})
		}
		gw.Endpoints = append(gw.Endpoints, ep)
	}

	if err := validateEndpoints(gw.Endpoints); err != nil {
		return nil, err
	}

	return gw, nil
}

// retryPolicy переводит настройку retry_attempts в явную двухвариантную
// политику: 0 означает бесконечные попытки.
func retryPolicy(attempts int, delaySeconds float64) entities.RetryPolicy {
	policy := entities.RetryPolicy{
		Mode:        entities.RetryBounded,
		MaxAttempts: attempts,
		Delay:       secondsOrDefault(delaySeconds, 2*time.Second),
	}
	if attempts == 0 {
		policy.Mode = entities.RetryUnbounded
		policy.MaxAttempts = 0
	}
	return policy
}

func validateEndpoints(endpoints []entities.EndpointConfig) error {
	seen := make(map[string]struct{}, len(endpoints))
	for _, ep := range endpoints {
		if ep.Name == "" {
			return fmt.Errorf("эндпоинт без имени (endpoint '%s')", ep.Endpoint)
		}
		if _, ok := seen[ep.Name]; ok {
			return fmt.Errorf("дублирующееся имя эндпоинта '%s'", ep.Name)
		}
		seen[ep.Name] = struct{}{}
	}
	return nil
}

func secondsOrDefault(seconds float64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, _ := strconv.ParseBool(value)
	return val
}
