package invoketest

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/palantir/giraffe-sub000"
)

// Status is the outcome of one contract run outside of go test.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "pass"
	case StatusFailed:
		return "fail"
	case StatusSkipped:
		return "skip"
	default:
		return "unknown"
	}
}

// Outcome records the result of running one TestCase.
type Outcome struct {
	Case     TestCase
	Status   Status
	Messages []string
	Duration time.Duration
}

// Opener opens a fresh execution system for Run.
type Opener func(ctx context.Context) (giraffe.System, error)

// Run executes every contract whose ID contains filter against systems
// returned by open. It is the entry point for running the suite against a
// live system from a binary.
func Run(ctx context.Context, open Opener, filter string) []Outcome {
	var outcomes []Outcome

	for _, tc := range AllContracts() {
		if filter != "" && !strings.Contains(tc.ID(), filter) {
			continue
		}

		outcomes = append(outcomes, runCase(ctx, open, tc))
	}

	return outcomes
}

func runCase(ctx context.Context, open Opener, tc TestCase) Outcome {
	r := &recorder{ctx: ctx, name: tc.ID()}
	defer r.cleanup()

	start := time.Now()
	done := make(chan struct{})

	// FailNow and Skipf end the goroutine with runtime.Goexit, like testing.T
	go func() {
		defer close(done)

		sys, err := open(ctx)
		if err != nil {
			r.Errorf("failed to open system: %v", err)
			return
		}

		defer func() { _ = sys.Close() }()

		if tc.Prereq != nil {
			if ok, reason := tc.Prereq(r, sys); !ok {
				r.Skipf("prereq unmet: %s", reason)
			}
		}

		tc.Run(r, sys)
	}()

	<-done

	return Outcome{Case: tc, Status: r.status(), Messages: r.messages(), Duration: time.Since(start)}
}

// recorder implements T for a single contract run.
type recorder struct {
	ctx  context.Context
	name string

	mu      sync.Mutex
	failed  bool
	skipped bool
	msgs    []string
	dirs    []string
}

var _ T = (*recorder)(nil)

func (r *recorder) Errorf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failed = true
	r.msgs = append(r.msgs, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (r *recorder) FailNow() {
	r.mu.Lock()
	r.failed = true
	r.mu.Unlock()

	runtime.Goexit()
}

func (r *recorder) Skipf(format string, args ...any) {
	r.mu.Lock()
	r.skipped = true
	r.msgs = append(r.msgs, fmt.Sprintf(format, args...))
	r.mu.Unlock()

	runtime.Goexit()
}

func (r *recorder) Context() context.Context { return r.ctx }

func (r *recorder) Name() string { return r.name }

func (r *recorder) TempDir() string {
	dir, err := os.MkdirTemp("", "giraffe-check-")
	if err != nil {
		r.Errorf("failed to create temp dir: %v", err)
		r.FailNow()
	}

	r.mu.Lock()
	r.dirs = append(r.dirs, dir)
	r.mu.Unlock()

	return dir
}

func (r *recorder) cleanup() {
	for _, dir := range r.dirs {
		_ = os.RemoveAll(dir)
	}
}

func (r *recorder) status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.failed:
		return StatusFailed
	case r.skipped:
		return StatusSkipped
	default:
		return StatusPassed
	}
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.msgs...)
}
