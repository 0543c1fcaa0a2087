package gateway

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrPoolClosed - пул остановлен, новые операции не принимаются.
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrDrainTimeout - выполняющиеся операции не завершились вовремя.
	ErrDrainTimeout = errors.New("timeout waiting for workers to finish")
)

// Pool ограничивает число одновременных блокирующих вызовов протокольных
// клиентов: медленное Ethernet/IP устройство занимает один слот и не
// задерживает обслуживание остальных эндпоинтов.
type Pool struct {
	sem chan struct{}

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Do выполняет op, когда освободится слот. Ожидание слота отменяемо
// контекстом, сама операция выполняется в вызывающей горутине.
func (p *Pool) Do(ctx context.Context, op func() error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.sem
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	defer func() {
		<-p.sem
		p.wg.Done()
	}()
	return op()
}

// Drain закрывает пул и дожидается завершения выполняющихся операций.
// Новые операции после вызова отклоняются с ErrPoolClosed.
func (p *Pool) Drain(timeout time.Duration) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrDrainTimeout
	}
}
