package entities

import "time"

// Protocol - семейство протокола эндпоинта.
type Protocol string

const (
	ProtocolOPCUA      Protocol = "opcua"
	ProtocolEthernetIP Protocol = "ethernet-ip"
)

// RetryMode - режим повторных попыток подключения.
type RetryMode string

const (
	// RetryBounded - ограниченное число попыток, после исчерпания - статус Error.
	RetryBounded RetryMode = "bounded"
	// RetryUnbounded - попытки продолжаются до успеха или остановки шлюза.
	RetryUnbounded RetryMode = "unbounded"
)

// RetryPolicy описывает политику повторных попыток подключения.
// В конфигурации retry_attempts=0 означает RetryUnbounded.
type RetryPolicy struct {
	Mode        RetryMode
	MaxAttempts int           // учитывается только в режиме RetryBounded
	Delay       time.Duration // пауза между попытками, снизу ограничена MinRetryDelay
}

// TagConfig - конфигурация опрашиваемого тега Ethernet/IP устройства.
type TagConfig struct {
	Name         string
	TagPath      string // например "MyTag" или "Program:MainProgram.MyTag"
	DataType     string // "DINT", "REAL", "BOOL", "STRING"
	Description  string
	ReadInterval time.Duration
}

// EndpointConfig - неизменяемая конфигурация одного эндпоинта.
// Создается из статической конфигурации при старте и больше не мутируется.
type EndpointConfig struct {
	Name           string // уникальный ключ
	Protocol       Protocol
	Endpoint       string // "opc.tcp://host:4840" или "IP" для Ethernet/IP
	SecurityPolicy string
	Username       string
	Password       string
	Slot           int // слот PLC (0 для CompactLogix)

	ConnectTimeout time.Duration
	Retry          RetryPolicy

	// Параметры фоновой активности после подключения.
	SubscriptionInterval time.Duration // OPC UA подписка мониторинга
	Tags                 []TagConfig   // Ethernet/IP опрос тегов
}
