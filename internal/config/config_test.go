package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
)

const sampleSettings = `
opcua:
  default_timeout: 5
  retry_attempts: 0
  retry_delay: 1
  monitoring_interval: 15
  subscription_interval: 0.5
  servers:
    - name: srv1
      endpoint: opc.tcp://10.0.0.1:4840
      security_policy: None
      username: operator
      password: secret
ethernet_ip:
  timeout: 3
  retry_attempts: 4
  retry_delay: 5
  max_workers: 8
  devices:
    - name: plc1
      ip_address: 10.0.0.2
      slot: 1
      tags:
        - name: speed
          tag_path: Program:Main.Speed
          data_type: REAL
          read_interval: 0.5
`

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadGatewayConfig(t *testing.T) {
	gw, err := loadGatewayConfig(writeSettings(t, sampleSettings))
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, gw.MonitoringInterval)
	assert.Equal(t, 8, gw.MaxWorkers)
	require.Len(t, gw.Endpoints, 2)

	srv := gw.Endpoints[0]
	assert.Equal(t, "srv1", srv.Name)
	assert.Equal(t, entities.ProtocolOPCUA, srv.Protocol)
	assert.Equal(t, 5*time.Second, srv.ConnectTimeout)
	assert.Equal(t, entities.RetryUnbounded, srv.Retry.Mode, "retry_attempts=0 означает бесконечные попытки")
	assert.Equal(t, 500*time.Millisecond, srv.SubscriptionInterval)
	assert.Equal(t, "operator", srv.Username)

	plc := gw.Endpoints[1]
	assert.Equal(t, "plc1", plc.Name)
	assert.Equal(t, entities.ProtocolEthernetIP, plc.Protocol)
	assert.Equal(t, 1, plc.Slot)
	assert.Equal(t, entities.RetryBounded, plc.Retry.Mode)
	assert.Equal(t, 4, plc.Retry.MaxAttempts)
	require.Len(t, plc.Tags, 1)
	assert.Equal(t, 500*time.Millisecond, plc.Tags[0].ReadInterval)
}

func TestLoadGatewayConfigDefaults(t *testing.T) {
	gw, err := loadGatewayConfig(writeSettings(t, "opcua:\n  servers: []\n"))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, gw.MonitoringInterval, "интервал мониторинга по умолчанию")
	assert.Equal(t, 5, gw.MaxWorkers, "размер пула по умолчанию")
	assert.Empty(t, gw.Endpoints)
}

func TestLoadGatewayConfigDuplicateNames(t *testing.T) {
	content := `
opcua:
  servers:
    - name: dup
      endpoint: opc.tcp://10.0.0.1:4840
ethernet_ip:
  devices:
    - name: dup
      ip_address: 10.0.0.2
`
	_, err := loadGatewayConfig(writeSettings(t, content))
	require.Error(t, err, "дублирующиеся имена эндпоинтов должны отклоняться")
	assert.Contains(t, err.Error(), "dup")
}

func TestLoadGatewayConfigMissingFile(t *testing.T) {
	_, err := loadGatewayConfig(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestRetryPolicyMapping(t *testing.T) {
	bounded := retryPolicy(3, 7)
	assert.Equal(t, entities.RetryBounded, bounded.Mode)
	assert.Equal(t, 3, bounded.MaxAttempts)
	assert.Equal(t, 7*time.Second, bounded.Delay)

	unbounded := retryPolicy(0, 0)
	assert.Equal(t, entities.RetryUnbounded, unbounded.Mode)
	assert.Equal(t, 0, unbounded.MaxAttempts)
	assert.Equal(t, 2*time.Second, unbounded.Delay, "пауза по умолчанию при нулевой настройке")
}
