package giraffe

import (
	"fmt"
	"sync"
)

// ExitLatch closes an execution system once every registered command has
// finished. Use it when several commands share a system that should close
// when the last one exits.
type ExitLatch struct {
	mu      sync.Mutex
	futures []*Future
	started bool
	closed  bool
	err     error
}

// NewExitLatch creates a latch that waits for futures.
func NewExitLatch(futures ...*Future) *ExitLatch {
	return &ExitLatch{futures: futures}
}

// Register adds f to the latch. It fails with ErrLatchStarted after Start.
func (l *ExitLatch) Register(f *Future) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return ErrLatchStarted
	}

	l.futures = append(l.futures, f)

	return nil
}

// Start closes sys once all registered futures are done, immediately if none
// are registered. Start returns without waiting.
func (l *ExitLatch) Start(sys System) {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return
	}

	l.started = true
	futures := l.futures
	l.mu.Unlock()

	go func() {
		for _, f := range futures {
			<-f.Done()
		}

		err := sys.Close()

		l.mu.Lock()
		defer l.mu.Unlock()

		l.closed = true
		if err != nil {
			l.err = fmt.Errorf("error closing execution system: %w", err)
		}
	}()
}

// IsClosed reports whether the latch closed its system, and the error from
// closing it, if any.
func (l *ExitLatch) IsClosed() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closed, l.err
}
