package gateway

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iwtcode/industrialGateway/internal/domain/entities"
	"github.com/iwtcode/industrialGateway/internal/domain/models"
	apperrors "github.com/iwtcode/industrialGateway/pkg/errors"
)

func seedRegistry(t *testing.T, names ...string) *Registry {
	t.Helper()
	r := NewRegistry(nil)
	for _, name := range names {
		r.Seed(entities.EndpointConfig{Name: name, Protocol: entities.ProtocolOPCUA}, models.StateDisconnected)
	}
	return r
}

func TestRegistryGetNotConnected(t *testing.T) {
	r := seedRegistry(t, "srv1")

	_, err := r.Get("srv1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotConnected, "отсутствующий handle должен давать ErrNotConnected")

	_, err = r.Get("unknown")
	assert.ErrorIs(t, err, apperrors.ErrNotConnected)
}

func TestRegistryRegisterDisplacesOld(t *testing.T) {
	r := seedRegistry(t, "srv1")

	first := &Handle{SessionID: "a", Endpoint: "srv1", Driver: &fakeDriver{}}
	second := &Handle{SessionID: "b", Endpoint: "srv1", Driver: &fakeDriver{}}

	assert.Nil(t, r.Register("srv1", first), "первая регистрация не вытесняет ничего")
	displaced := r.Register("srv1", second)
	require.NotNil(t, displaced)
	assert.Equal(t, "a", displaced.SessionID, "вытеснен должен быть старый handle")

	h, err := r.Get("srv1")
	require.NoError(t, err)
	assert.Equal(t, "b", h.SessionID)
}

func TestRegistryActiveCountOnlyConnected(t *testing.T) {
	r := seedRegistry(t, "a", "b", "c")

	assert.Equal(t, 0, r.ActiveCount())

	r.SetStatus("a", models.StateConnected)
	r.SetStatus("b", models.StateConnecting)
	r.SetStatus("c", models.StateError)
	assert.Equal(t, 1, r.ActiveCount(), "считаются только эндпоинты в connected")

	r.SetStatus("b", models.StateConnected)
	assert.Equal(t, 2, r.ActiveCount())
}

func TestRegistryMessagesMonotonic(t *testing.T) {
	r := seedRegistry(t, "srv1")

	r.AddMessages("srv1", 3)
	r.AddMessages("srv1", 2)

	m, err := r.EndpointMetrics("srv1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), m.MessagesReceived, "счетчик сообщений накапливается")

	// смена статуса не сбрасывает счетчик
	r.SetStatus("srv1", models.StateError)
	m, _ = r.EndpointMetrics("srv1")
	assert.Equal(t, int64(5), m.MessagesReceived)
}

func TestRegistrySnapshotFields(t *testing.T) {
	r := seedRegistry(t, "srv1")

	r.SetStatus("srv1", models.StateConnected)
	r.SetSessionID("srv1", "sess-1")
	r.SetSubscriptions("srv1", 1)
	r.SetTagsMonitored("srv1", 4)
	r.RecordLatency("srv1", 1500*time.Microsecond)
	r.RecordError("srv1", errors.New("transient"))
	r.RecordSuccess("srv1")

	m, err := r.EndpointMetrics("srv1")
	require.NoError(t, err)
	assert.Equal(t, "srv1", m.EndpointName)
	assert.Equal(t, models.StateConnected, m.Status)
	assert.Equal(t, "sess-1", m.SessionID)
	assert.Equal(t, 1, m.ActiveSubscriptions)
	assert.Equal(t, 4, m.TagsMonitored)
	assert.InDelta(t, 1.5, m.LatencyMs, 0.01, "латентность хранится в миллисекундах")
	assert.Equal(t, "transient", m.LastError)
	require.NotNil(t, m.LastSuccess)

	_, err = r.EndpointMetrics("unknown")
	assert.Error(t, err, "неизвестный эндпоинт должен возвращать ошибку")
}

func TestRegistrySupervisingIdempotent(t *testing.T) {
	r := seedRegistry(t, "srv1")

	cancelled := false
	require.True(t, r.TryStartSupervising("srv1", func() { cancelled = true }))
	assert.False(t, r.TryStartSupervising("srv1", func() {}), "второй конкурентный супервайзер не запускается")

	r.DoneSupervising("srv1")
	assert.True(t, r.TryStartSupervising("srv1", func() {}), "после завершения запуск снова возможен")
	assert.False(t, cancelled)
}

func TestRegistryStopAll(t *testing.T) {
	r := seedRegistry(t, "a", "b")

	supCancelled, taskCancelled := false, false
	require.True(t, r.TryStartSupervising("a", func() { supCancelled = true }))
	r.SetTask("b", func() { taskCancelled = true })
	r.Register("a", &Handle{SessionID: "s", Endpoint: "a", Driver: &fakeDriver{}})

	handles := r.StopAll()

	assert.True(t, supCancelled, "StopAll должен отменить супервайзеры")
	assert.True(t, taskCancelled, "StopAll должен отменить фоновые задачи")
	require.Len(t, handles, 1)
	assert.Equal(t, "a", handles[0].Endpoint)

	_, err := r.Get("a")
	assert.ErrorIs(t, err, apperrors.ErrNotConnected, "после StopAll реестр пуст")
}

func TestRegistrySetTaskReplacesOld(t *testing.T) {
	r := seedRegistry(t, "srv1")

	oldCancelled := false
	r.SetTask("srv1", func() { oldCancelled = true })
	r.SetTask("srv1", func() {})

	assert.True(t, oldCancelled, "новая задача должна останавливать предыдущую")

	r.StopTask("srv1")
	r.StopTask("srv1") // повторная остановка безопасна
}
