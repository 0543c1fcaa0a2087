package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolLimitsConcurrency(t *testing.T) {
	pool := NewPool(2)

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Do(context.Background(), func() error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				current.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2), "одновременно выполняется не больше операций, чем размер пула")
}

func TestPoolDoCancellableWhileWaiting(t *testing.T) {
	pool := NewPool(1)

	release := make(chan struct{})
	go func() {
		_ = pool.Do(context.Background(), func() error {
			<-release
			return nil
		})
	}()

	// дождаться, пока единственный слот будет занят
	require.Eventually(t, func() bool { return len(pool.sem) == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded, "ожидание слота должно быть отменяемо контекстом")

	close(release)
}

func TestPoolDrainRejectsNewWork(t *testing.T) {
	pool := NewPool(1)

	require.NoError(t, pool.Drain(time.Second))

	err := pool.Do(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed, "после Drain новые операции отклоняются")
}

func TestPoolDrainWaitsForRunning(t *testing.T) {
	pool := NewPool(1)

	started := make(chan struct{})
	finished := atomic.Bool{}
	go func() {
		_ = pool.Do(context.Background(), func() error {
			close(started)
			time.Sleep(30 * time.Millisecond)
			finished.Store(true)
			return nil
		})
	}()

	<-started
	require.NoError(t, pool.Drain(time.Second))
	assert.True(t, finished.Load(), "Drain должен дождаться выполняющейся операции")
}

func TestPoolDrainTimeout(t *testing.T) {
	pool := NewPool(1)

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = pool.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	err := pool.Drain(10 * time.Millisecond)
	assert.ErrorIs(t, err, ErrDrainTimeout)

	close(release)
}
