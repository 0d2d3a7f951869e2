package local

import (
	"errors"
	"sync"

	"github.com/palantir/giraffe-sub000"
)

// ErrTrackerShutdown is returned when adding or removing processes after shutdown began.
var ErrTrackerShutdown = errors.New("process tracker is executing or finished")

// Tracker holds the live processes of a system so they can be destroyed when
// the system closes.
type Tracker struct {
	mu       sync.Mutex
	procs    map[giraffe.Process]struct{}
	draining bool
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{procs: make(map[giraffe.Process]struct{})}
}

// Add tracks p.
func (t *Tracker) Add(p giraffe.Process) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.draining {
		return ErrTrackerShutdown
	}

	t.procs[p] = struct{}{}

	return nil
}

// Remove stops tracking p. Removing during shutdown returns ErrTrackerShutdown.
func (t *Tracker) Remove(p giraffe.Process) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.draining {
		return ErrTrackerShutdown
	}

	delete(t.procs, p)

	return nil
}

// Len returns the number of tracked processes.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.procs)
}

// Shutdown destroys every tracked process. Only the first call has an effect.
func (t *Tracker) Shutdown() {
	t.mu.Lock()
	if t.draining {
		t.mu.Unlock()
		return
	}

	t.draining = true
	procs := t.procs
	t.procs = nil
	t.mu.Unlock()

	for p := range procs {
		p.Destroy()
	}
}
