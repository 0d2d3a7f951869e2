package giraffe

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		cctx    *CommandContext
		wantErr bool
	}{
		{"success", 0, DefaultContext(), false},
		{"rejected", 1, DefaultContext(), true},
		{"ignored", 1, IgnoreExitStatus(), false},
		{"required", 7, RequireExitStatus(7), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			proc := newFakeProcess()
			sys := systemFor(proc)

			go proc.finish(tt.status, "out", "")

			res, err := Execute(sys.Command("cmd"), tt.cctx)
			if tt.wantErr {
				var cmdErr *CommandError
				require.ErrorAs(t, err, &cmdErr)
				assert.Equal(t, tt.status, cmdErr.ExitStatus())

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.status, res.ExitStatus)
			assert.Equal(t, "out", res.Stdout)
		})
	}
}

func TestExecute_ClosedSystem(t *testing.T) {
	t.Parallel()

	sys := systemFor(newFakeProcess())
	require.NoError(t, sys.Close())

	_, err := Execute(sys.Command("ls"), DefaultContext())
	require.ErrorIs(t, err, ErrSystemClosed)
}

func TestWaitFor_WrapsFailures(t *testing.T) {
	t.Parallel()

	proc := newFakeProcess()
	sys := systemFor(proc)

	f, err := ExecuteAsync(sys.Command("sleep"), DefaultContext())
	require.NoError(t, err)
	require.NoError(t, sys.Close())

	_, err = WaitFor(f)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.ErrorIs(t, err, ErrInterrupted)
	assert.Contains(t, err.Error(), "failed")
}

func TestWaitFor_Cancelled(t *testing.T) {
	t.Parallel()

	sys := systemFor(newFakeProcess())

	f, err := ExecuteAsync(sys.Command("sleep"), DefaultContext())
	require.NoError(t, err)
	require.True(t, f.Cancel())

	_, err = WaitFor(f)
	require.ErrorIs(t, err, ErrCancelled)
	require.NoError(t, sys.Close())
}

func TestWaitForTimeout(t *testing.T) {
	t.Parallel()

	proc := newFakeProcess()
	sys := systemFor(proc)

	f, err := ExecuteAsync(sys.Command("sleep", "100"), DefaultContext())
	require.NoError(t, err)

	_, err = io.WriteString(proc.stdoutW, "partial")
	require.NoError(t, err)

	buffered, ok := f.Stdout().(interface{ Available() int })
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return buffered.Available() == len("partial")
	}, time.Second, 5*time.Millisecond)

	_, err = WaitForTimeout(f, 20*time.Millisecond)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "partial", timeoutErr.Result.Stdout)
	assert.Equal(t, NoExitStatus, timeoutErr.Result.ExitStatus)
	assert.Contains(t, err.Error(), "timed out after 20ms")
	assert.True(t, f.IsCancelled())

	require.NoError(t, sys.Close())
}

func TestWaitForTimeout_FinishesInTime(t *testing.T) {
	t.Parallel()

	proc := newFakeProcess()
	sys := systemFor(proc)

	go proc.finish(0, "done", "")

	res, err := ExecuteTimeout(sys.Command("true"), DefaultContext(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "done", res.Stdout)
}

func TestExecuteTimeout_Negative(t *testing.T) {
	t.Parallel()

	sys := systemFor(newFakeProcess())

	_, err := ExecuteTimeout(sys.Command("true"), DefaultContext(), -time.Second)
	require.Error(t, err)
	assert.Zero(t, sys.pool.Active())
}

func TestToResult(t *testing.T) {
	t.Parallel()

	proc := newFakeProcess()
	sys := systemFor(proc)

	f, err := ExecuteAsync(sys.Command("cmd"), DefaultContext())
	require.NoError(t, err)

	res := ToResult(f, 42)
	assert.Equal(t, 42, res.ExitStatus)

	proc.finish(0, "out", "")
	<-f.Done()

	res = ToResult(f, 42)
	assert.Equal(t, 0, res.ExitStatus)
	assert.Equal(t, "out", res.Stdout)
}

type closeRecorder struct {
	*fakeSystem

	closed chan struct{}
	err    error
}

func (c *closeRecorder) Close() error {
	defer close(c.closed)

	_ = c.fakeSystem.Close()

	return c.err
}

func TestCloseAfterCompletion(t *testing.T) {
	t.Parallel()

	proc := newFakeProcess()
	sys := &closeRecorder{fakeSystem: systemFor(proc), closed: make(chan struct{}), err: errors.New("ignored")}

	f, err := sys.fakeSystem.Execute(sys.fakeSystem.Command("true"), DefaultContext())
	require.NoError(t, err)

	CloseAfterCompletion(sys, f)

	select {
	case <-sys.closed:
		t.Fatal("closed before the command finished")
	case <-time.After(20 * time.Millisecond):
	}

	proc.finish(0, "", "")

	select {
	case <-sys.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("system was not closed")
	}
}
