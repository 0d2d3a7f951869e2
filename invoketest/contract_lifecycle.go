package invoketest

import (
	"errors"
	"time"

	"github.com/palantir/giraffe-sub000"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeoutBudget = time.Second
	settleTimeout = 10 * time.Second
)

func lifecycleContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryLifecycle,
			Name:        "timeout-returns-partial-output",
			Description: "ExecuteTimeout cancels a slow command and reports what it printed so far",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				start := time.Now()

				_, err := giraffe.ExecuteTimeout(giraffe.ShellCommand(sys, "echo started; sleep 30"), giraffe.DefaultContext(), timeoutBudget)

				var timeoutErr *giraffe.TimeoutError
				require.ErrorAs(t, err, &timeoutErr)

				assert.Equal(t, timeoutBudget, timeoutErr.Timeout)
				assert.Contains(t, timeoutErr.Result.Stdout, "started")
				assert.Less(t, time.Since(start), settleTimeout)
			},
		},
		{
			Category:    CategoryLifecycle,
			Name:        "cancel-running",
			Description: "Cancel resolves a running future exactly once",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				f, err := giraffe.ExecuteAsync(sys.Command("sleep", 30), giraffe.DefaultContext())
				require.NoError(t, err)

				require.True(t, f.Cancel())
				assert.False(t, f.Cancel())
				assert.True(t, f.IsCancelled())
				assert.Equal(t, giraffe.StateCancelled, f.State())

				_, err = giraffe.WaitFor(f)
				require.ErrorIs(t, err, giraffe.ErrCancelled)
			},
		},
		{
			Category: CategoryLifecycle,
			Name:     "poll-and-snapshot-while-running",
			Prereq:   posix,
			Run: func(t T, sys giraffe.System) {
				f, err := giraffe.ExecuteAsync(sys.Command("sleep", 30), giraffe.DefaultContext())
				require.NoError(t, err)

				defer f.Cancel()

				res, done, err := f.Poll()
				require.NoError(t, err)
				assert.False(t, done)
				assert.Nil(t, res)

				assert.Equal(t, -1, giraffe.ToResult(f, -1).ExitStatus)
			},
		},
		{
			Category: CategoryLifecycle,
			Name:     "wait-for-timeout-on-finished",
			Run: func(t T, sys giraffe.System) {
				f, err := giraffe.ExecuteAsync(giraffe.ShellCommand(sys, "echo done"), giraffe.DefaultContext())
				require.NoError(t, err)

				res, err := giraffe.WaitForTimeout(f, settleTimeout)
				require.NoError(t, err)
				assert.Equal(t, giraffe.StateSucceeded, f.State())
				assert.Equal(t, 0, res.ExitStatus)

				assert.Equal(t, res, giraffe.ToResult(f, -1))
			},
		},
		{
			Category:    CategoryLifecycle,
			Name:        "close-after-completion",
			Description: "CloseAfterCompletion closes the system once the future resolves",
			Run: func(t T, sys giraffe.System) {
				f, err := giraffe.ExecuteAsync(giraffe.ShellCommand(sys, "echo bye"), giraffe.DefaultContext())
				require.NoError(t, err)

				giraffe.CloseAfterCompletion(sys, f)

				_, err = giraffe.WaitFor(f)
				require.NoError(t, err)

				assert.Eventually(t, func() bool { return !sys.IsOpen() }, settleTimeout, 10*time.Millisecond)
			},
		},
		{
			Category:    CategoryLifecycle,
			Name:        "exit-latch-closes-system",
			Description: "An exit latch closes the system after every registered future resolves",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				first, err := giraffe.ExecuteAsync(sys.Command("true"), giraffe.DefaultContext())
				require.NoError(t, err)

				second, err := giraffe.ExecuteAsync(sys.Command("sleep", 1), giraffe.DefaultContext())
				require.NoError(t, err)

				latch := giraffe.NewExitLatch(first)
				require.NoError(t, latch.Register(second))

				latch.Start(sys)
				require.ErrorIs(t, latch.Register(first), giraffe.ErrLatchStarted)

				assert.Eventually(t, func() bool {
					closed, err := latch.IsClosed()
					return closed && err == nil
				}, settleTimeout, 10*time.Millisecond)

				assert.False(t, sys.IsOpen())
			},
		},
	}
}

func isInterrupted(err error) bool {
	return errors.Is(err, giraffe.ErrInterrupted) || errors.Is(err, giraffe.ErrSystemClosed)
}
