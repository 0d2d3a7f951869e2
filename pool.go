package giraffe

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Pool runs the executions of one System. Closing it interrupts every running
// execution and waits for their goroutines to exit.
type Pool struct {
	log zerolog.Logger

	mu     sync.RWMutex
	closed bool
	active int

	ctx    context.Context //nolint:containedctx // base context shared by all executions
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates an open pool.
func NewPool(log zerolog.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit creates a Future for cmd and runs it on a new goroutine.
func (p *Pool) Submit(cmd *Command, cctx *CommandContext, start StartFunc) (*Future, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if cctx == nil {
		cctx = DefaultContext()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrSystemClosed
	}

	f := newFuture(cmd, cctx, start, p.log)

	p.active++
	p.wg.Add(1)

	go func() {
		defer func() {
			p.mu.Lock()
			p.active--
			p.mu.Unlock()
			p.wg.Done()
		}()

		f.run(p.ctx)
	}()

	return f, nil
}

// Active returns the number of executions whose goroutine is still running.
func (p *Pool) Active() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.active
}

// IsClosed reports whether Close has been called.
func (p *Pool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.closed
}

// Close refuses new work, interrupts running executions and waits for them.
// It is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}

	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()

	p.log.Debug().Msg("execution pool closed")

	return nil
}
