package worker

import (
	"context"
	"sync"
)

// pendingWork counts the detached writes and retries.
// While a drain is waiting no new work is accepted, so the count can only go down.
type pendingWork struct {
	mu       sync.Mutex
	count    int
	drainers int
	idle     chan struct{}
}

// begin registers a new task, false when a drain is in progress
func (p *pendingWork) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.drainers > 0 {
		return false
	}
	if p.count == 0 {
		p.idle = make(chan struct{})
	}
	p.count++

	return true
}

func (p *pendingWork) end() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.count--
	if p.count == 0 {
		close(p.idle)
	}
}

func (p *pendingWork) draining() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.drainers > 0
}

// wait blocks until every registered task is done or ctx is done
func (p *pendingWork) wait(ctx context.Context) error {
	p.mu.Lock()
	if p.count == 0 {
		p.mu.Unlock()
		return nil
	}
	p.drainers++
	idle := p.idle
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.drainers--
		p.mu.Unlock()
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
