package enipdriver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Параллельные вызовы blocking на одном драйвере не должны попадать
// в gologix одновременно: клиент не потокобезопасен, а проба монитора
// может совпасть по времени с циклом опроса тегов.
func TestBlockingSerializesOperations(t *testing.T) {
	d := &Driver{}

	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := d.blocking(context.Background(), func() error {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak),
		"операции одного устройства должны выполняться строго по одной")
}

// Отмена контекста возвращает управление сразу, даже если операция
// еще ждет мьютекс за долгим вызовом.
func TestBlockingHonorsContextCancel(t *testing.T) {
	d := &Driver{}

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = d.blocking(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	begin := time.Now()
	err := d.blocking(ctx, func() error { return nil })
	close(release)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "ожидание мьютекса должно прерываться по контексту")
	assert.Less(t, time.Since(begin), 500*time.Millisecond, "отмена не должна ждать завершения чужой операции")
}
