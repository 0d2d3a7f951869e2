package giraffe

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ExecuteAsync launches cmd on its own system.
func ExecuteAsync(cmd *Command, cctx *CommandContext) (*Future, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return cmd.System().Execute(cmd, cctx)
}

// Execute runs cmd and blocks until it finishes.
func Execute(cmd *Command, cctx *CommandContext) (*Result, error) {
	f, err := ExecuteAsync(cmd, cctx)
	if err != nil {
		return nil, err
	}

	return WaitFor(f)
}

// ExecuteTimeout runs cmd and blocks for at most timeout. On timeout the
// command is cancelled and a *TimeoutError is returned.
func ExecuteTimeout(cmd *Command, cctx *CommandContext, timeout time.Duration) (*Result, error) {
	if timeout < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %s", timeout)
	}

	f, err := ExecuteAsync(cmd, cctx)
	if err != nil {
		return nil, err
	}

	return WaitForTimeout(f, timeout)
}

// WaitFor blocks until f resolves. A rejected exit status is returned as a
// *CommandError; any other failure is wrapped in an *ExecutionError.
func WaitFor(f *Future) (*Result, error) {
	res, err := f.Get(context.Background())

	return res, unwrapFailure(f, err)
}

// WaitForTimeout blocks until f resolves or timeout elapses. On timeout f is
// cancelled and the returned *TimeoutError carries the output captured so far.
func WaitForTimeout(f *Future, timeout time.Duration) (*Result, error) {
	if timeout < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %s", timeout)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.Done():
		return WaitFor(f)
	case <-timer.C:
	}

	snapshot := f.snapshot(NoExitStatus)

	if !f.Cancel() {
		// resolved between the timer firing and the cancel
		return WaitFor(f)
	}

	return nil, &TimeoutError{
		Command: f.Command(),
		Context: f.Context(),
		Result:  snapshot,
		Timeout: timeout,
	}
}

// ToResult returns the result of f without blocking. When f has not succeeded
// it returns a best-effort result built from fallbackExit and the output
// buffered right now.
func ToResult(f *Future, fallbackExit int) *Result {
	if res, done, err := f.Poll(); done && err == nil {
		return res
	}

	return f.snapshot(fallbackExit)
}

// CloseAfterCompletion closes sys once f resolves.
func CloseAfterCompletion(sys System, f *Future) {
	go func() {
		<-f.Done()

		if err := sys.Close(); err != nil {
			f.log.Warn().Err(err).Str("system", sys.URI().String()).Msg("error closing execution system")
		}
	}()
}

func unwrapFailure(f *Future, err error) error {
	if err == nil {
		return nil
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr
	}

	if errors.Is(err, ErrCancelled) {
		return ErrCancelled
	}

	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr
	}

	return &ExecutionError{Command: f.Command(), Err: err}
}
