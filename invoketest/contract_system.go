package invoketest

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/palantir/giraffe-sub000"
	"github.com/palantir/giraffe-sub000/providers/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const concurrentCommands = 8

func systemContracts() []TestCase {
	return []TestCase{
		{
			Category: CategorySystem,
			Name:     "uri-scheme-registered",
			Run: func(t T, sys giraffe.System) {
				uri := sys.URI()
				require.NotNil(t, uri)

				p, err := giraffe.Lookup(uri.Scheme)
				require.NoError(t, err)
				assert.Equal(t, uri.Scheme, p.Scheme())
			},
		},
		{
			Category: CategorySystem,
			Name:     "nil-context-uses-default",
			Run: func(t T, sys giraffe.System) {
				res, err := giraffe.Execute(giraffe.ShellCommand(sys, "echo ok"), nil)
				require.NoError(t, err)

				assert.Equal(t, "ok", strings.TrimSpace(res.Stdout))
			},
		},
		{
			Category:    CategorySystem,
			Name:        "concurrent-executions",
			Description: "Many commands may run on one system at the same time",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				futures := make([]*giraffe.Future, 0, concurrentCommands)

				for i := range concurrentCommands {
					f, err := giraffe.ExecuteAsync(sys.Command("echo", i), giraffe.DefaultContext())
					require.NoError(t, err)

					futures = append(futures, f)
				}

				for i, f := range futures {
					res, err := giraffe.WaitFor(f)
					require.NoError(t, err)
					assert.Equal(t, fmt.Sprintf("%d\n", i), res.Stdout)
				}
			},
		},
		{
			Category: CategorySystem,
			Name:     "close-idempotent",
			Run: func(t T, sys giraffe.System) {
				require.True(t, sys.IsOpen())
				require.NoError(t, sys.Close())
				require.NoError(t, sys.Close())
				assert.False(t, sys.IsOpen())
			},
		},
		{
			Category:    CategorySystem,
			Name:        "execute-after-close",
			Description: "A closed system rejects new commands with ErrSystemClosed",
			Run: func(t T, sys giraffe.System) {
				cmd := giraffe.ShellCommand(sys, "echo unreachable")
				require.NoError(t, sys.Close())

				_, err := giraffe.ExecuteAsync(cmd, giraffe.DefaultContext())
				require.ErrorIs(t, err, giraffe.ErrSystemClosed)
			},
		},
		{
			Category:    CategorySystem,
			Name:        "close-interrupts-running",
			Description: "Closing a system interrupts the commands still running on it",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				f, err := giraffe.ExecuteAsync(sys.Command("sleep", 30), giraffe.DefaultContext())
				require.NoError(t, err)

				require.NoError(t, sys.Close())

				select {
				case <-f.Done():
				case <-time.After(settleTimeout):
					require.FailNow(t, "future did not resolve after Close")
				}

				_, err = giraffe.WaitFor(f)
				assert.True(t, isInterrupted(err), "unexpected error: %v", err)
			},
		},
		{
			Category:    CategorySystem,
			Name:        "foreign-command-rejected",
			Description: "A command built for another system fails with ErrSystemMismatch",
			Run: func(t T, sys giraffe.System) {
				other := mock.New()
				other.On("URI").Return(&url.URL{Scheme: "exec+mock", Path: "/"})

				_, err := sys.Execute(other.Command("echo"), giraffe.DefaultContext())
				require.ErrorIs(t, err, giraffe.ErrSystemMismatch)
			},
		},
	}
}
