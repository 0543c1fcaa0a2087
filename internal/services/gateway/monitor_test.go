package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/industrialGateway/internal/domain/models"
	apperrors "github.com/iwtcode/industrialGateway/pkg/errors"
)

func TestMonitorProbeSuccess(t *testing.T) {
	r := seedRegistry(t, "srv1")
	driver := &fakeDriver{probeDelay: time.Millisecond}
	r.Register("srv1", &Handle{SessionID: "s", Endpoint: "srv1", Driver: driver})
	r.SetStatus("srv1", models.StateConnected)

	m := newMonitor(r, time.Second, func(string) {}, testLogger())
	m.sweep(context.Background())

	metrics, err := r.EndpointMetrics("srv1")
	require.NoError(t, err)
	assert.Equal(t, models.StateConnected, metrics.Status)
	assert.Greater(t, metrics.LatencyMs, 0.0, "успешная проба должна записать латентность")
	require.NotNil(t, metrics.LastSuccess)

	_, err = r.Get("srv1")
	assert.NoError(t, err, "handle остается зарегистрированным")
}

func TestMonitorProbeFailureRelaunches(t *testing.T) {
	r := seedRegistry(t, "srv1")
	driver := &fakeDriver{}
	driver.setProbeErr(errors.New("session closed"))
	r.Register("srv1", &Handle{SessionID: "s", Endpoint: "srv1", Driver: driver})
	r.SetStatus("srv1", models.StateConnected)
	r.SetSubscriptions("srv1", 1)

	taskStopped := false
	r.SetTask("srv1", func() { taskStopped = true })

	var mu sync.Mutex
	var relaunched []string
	m := newMonitor(r, time.Second, func(name string) {
		mu.Lock()
		relaunched = append(relaunched, name)
		mu.Unlock()
	}, testLogger())

	m.sweep(context.Background())

	metrics, err := r.EndpointMetrics("srv1")
	require.NoError(t, err)
	assert.Equal(t, models.StateError, metrics.Status, "после провала пробы эндпоинт деградирует в error")
	assert.Contains(t, metrics.LastError, "session closed")
	assert.Equal(t, 0, metrics.ActiveSubscriptions, "подписки сбрасываются вместе с handle")

	assert.True(t, taskStopped, "фоновая задача эндпоинта должна быть остановлена")
	assert.True(t, driver.closed.Load(), "устаревший handle должен быть закрыт")

	_, err = r.Get("srv1")
	assert.ErrorIs(t, err, apperrors.ErrNotConnected, "handle снимается с учета")

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"srv1"}, relaunched, "супервайзер перезапускается ровно один раз")
}

func TestMonitorFailureDoesNotAffectOthers(t *testing.T) {
	r := seedRegistry(t, "bad", "good")

	badDriver := &fakeDriver{}
	badDriver.setProbeErr(errors.New("down"))
	goodDriver := &fakeDriver{}

	r.Register("bad", &Handle{SessionID: "b", Endpoint: "bad", Driver: badDriver})
	r.Register("good", &Handle{SessionID: "g", Endpoint: "good", Driver: goodDriver})
	r.SetStatus("bad", models.StateConnected)
	r.SetStatus("good", models.StateConnected)

	m := newMonitor(r, time.Second, func(string) {}, testLogger())
	m.sweep(context.Background())

	badMetrics, _ := r.EndpointMetrics("bad")
	goodMetrics, _ := r.EndpointMetrics("good")
	assert.Equal(t, models.StateError, badMetrics.Status)
	assert.Equal(t, models.StateConnected, goodMetrics.Status, "сбой одного эндпоинта не трогает остальные")

	_, err := r.Get("good")
	assert.NoError(t, err)
}

func TestMonitorStopsOnCancel(t *testing.T) {
	r := seedRegistry(t, "srv1")
	m := newMonitor(r, 5*time.Millisecond, func(string) {}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("монитор не остановился после отмены контекста")
	}
}
