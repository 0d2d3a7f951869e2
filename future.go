package giraffe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/palantir/giraffe-sub000/internal/streams"
	"github.com/rs/zerolog"
)

// State is the lifecycle state of a Future.
type State int32

const (
	// StateRunning means the command has not resolved yet.
	StateRunning State = iota
	// StateSucceeded means the command exited with an accepted status.
	StateSucceeded
	// StateFailed means the command could not run, failed while running or exited with a rejected status.
	StateFailed
	// StateCancelled means Cancel resolved the command.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Future is the handle to one asynchronous command execution. Its streams can be
// used while the command runs, and it resolves exactly once.
type Future struct {
	id    uuid.UUID
	cmd   *Command
	cctx  *CommandContext
	mux   *streams.Multiplexer
	start StartFunc
	log   zerolog.Logger

	state atomic.Int32
	proc  atomic.Pointer[Process]

	done   chan struct{}
	result *Result
	err    error
}

func newFuture(cmd *Command, cctx *CommandContext, start StartFunc, log zerolog.Logger) *Future {
	id := uuid.New()

	return &Future{
		id:    id,
		cmd:   cmd,
		cctx:  cctx,
		mux:   streams.New(cctx.StdoutWindow(), cctx.StderrWindow()),
		start: start,
		log:   log.With().Str("future", id.String()).Str("command", cmd.String()).Logger(),
		done:  make(chan struct{}),
	}
}

// ID returns the unique identifier used to correlate log lines.
func (f *Future) ID() uuid.UUID {
	return f.id
}

// Command returns the executed command.
func (f *Future) Command() *Command {
	return f.cmd
}

// Context returns the context the command runs with.
func (f *Future) Context() *CommandContext {
	return f.cctx
}

// State returns the current state.
func (f *Future) State() State {
	return State(f.state.Load())
}

// Done returns a channel that is closed when the future resolves.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future has resolved.
func (f *Future) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// IsCancelled reports whether the future was resolved by Cancel.
func (f *Future) IsCancelled() bool {
	return f.State() == StateCancelled
}

// Stdout returns the live output stream. Bytes read here are not part of the Result.
func (f *Future) Stdout() io.ReadCloser {
	return f.mux.Stdout()
}

// Stderr returns the live error stream. Bytes read here are not part of the Result.
func (f *Future) Stderr() io.ReadCloser {
	return f.mux.Stderr()
}

// Stdin returns the command's input. Closing it closes the command's native stdin.
func (f *Future) Stdin() io.WriteCloser {
	return f.mux.Stdin()
}

// Get blocks until the future resolves or ctx ends.
func (f *Future) Get(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
		return f.outcome()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Poll returns the outcome without blocking. done is false while the command runs.
func (f *Future) Poll() (result *Result, done bool, err error) {
	if !f.IsDone() {
		return nil, false, nil
	}

	result, err = f.outcome()

	return result, true, err
}

// Cancel stops the command if it is still running. It returns true only for
// the call that performed the cancellation.
func (f *Future) Cancel() bool {
	if !f.resolve(StateCancelled, nil, ErrCancelled) {
		return false
	}

	f.destroy()

	return true
}

func (f *Future) outcome() (*Result, error) {
	if f.State() == StateSucceeded {
		return f.result, nil
	}

	return nil, f.err
}

func (f *Future) resolve(state State, result *Result, err error) bool {
	if !f.state.CompareAndSwap(int32(StateRunning), int32(state)) {
		return false
	}

	f.result = result
	f.err = err

	f.mux.CloseWriters()
	close(f.done)

	ev := f.log.Debug().Stringer("state", state)
	if err != nil {
		ev = ev.Err(err)
	}

	ev.Msg("command resolved")

	return true
}

// destroy kills the published process at most once.
func (f *Future) destroy() {
	if p := f.proc.Swap(nil); p != nil {
		(*p).Destroy()
	}
}

func (f *Future) fail(err error) {
	f.resolve(StateFailed, nil, err)
}

// onCopyFailure is fatal only while the command is running with a live process.
// Once resolved, the caller-side writers are closed and copy errors are expected.
func (f *Future) onCopyFailure(err error) {
	if f.State() != StateRunning || f.proc.Load() == nil {
		return
	}

	f.log.Warn().Err(err).Msg("unexpected failure while copying streams")

	if f.resolve(StateFailed, nil, &ExecutionError{Command: f.cmd, Err: fmt.Errorf("exception while copying streams: %w", err)}) {
		f.destroy()
	}
}

// run drives the execution to completion. ctx is the pool context; it ending
// means the owning system is shutting down.
func (f *Future) run(ctx context.Context) {
	if f.IsCancelled() {
		return
	}

	f.log.Debug().Msg("starting command")

	proc, err := f.start(ctx)
	if err != nil {
		if ctx.Err() != nil {
			f.log.Debug().Err(err).Msg("start aborted by system shutdown")
			f.fail(ErrInterrupted)

			return
		}

		f.fail(&ExecutionError{Command: f.cmd, Err: err})

		return
	}

	f.proc.Store(&proc)

	if f.IsCancelled() {
		f.destroy()
		_ = proc.CloseStreams()

		return
	}

	f.mux.Start(proc, f.onCopyFailure)

	status, err := f.waitFor(ctx, proc)
	if err != nil {
		f.destroy()
		_ = proc.CloseStreams()

		if !errors.Is(err, ErrInterrupted) {
			err = &ExecutionError{Command: f.cmd, Err: err}
		}

		f.fail(err)

		return
	}

	f.mux.Finish()

	_ = proc.CloseStreams()

	stdout, stderr := f.mux.Result()
	result := &Result{ExitStatus: status, Stdout: stdout, Stderr: stderr}

	if f.cctx.Accepts(status) {
		f.resolve(StateSucceeded, result, nil)
		return
	}

	f.resolve(StateFailed, result, &CommandError{Command: f.cmd, Context: f.cctx, Result: result})
}

type exitResult struct {
	status int
	err    error
}

func (f *Future) waitFor(ctx context.Context, proc Process) (int, error) {
	exited := make(chan exitResult, 1)

	go func() {
		status, err := proc.Wait()
		exited <- exitResult{status: status, err: err}
	}()

	select {
	case res := <-exited:
		return res.status, res.err
	case <-ctx.Done():
		return NoExitStatus, ErrInterrupted
	}
}

// snapshot returns the output buffered right now without blocking.
func (f *Future) snapshot(fallbackExit int) *Result {
	stdout, stderr := f.mux.Snapshot()

	return &Result{ExitStatus: fallbackExit, Stdout: stdout, Stderr: stderr}
}
