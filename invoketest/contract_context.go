package invoketest

import (
	"strings"

	"github.com/palantir/giraffe-sub000"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextContracts() []TestCase {
	return []TestCase{
		{
			Category:    CategoryContext,
			Name:        "environment-changes-applied",
			Description: "Variables set on a DEFAULT environment are visible to the command",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				env := giraffe.DefaultEnvironment().Set("GIRAFFE_CONTRACT", "value with spaces")

				res, err := run(sys, `echo "$GIRAFFE_CONTRACT"`, giraffe.WithEnvironment(env))
				require.NoError(t, err)

				assert.Equal(t, "value with spaces\n", res.Stdout)
			},
		},
		{
			Category:    CategoryContext,
			Name:        "environment-empty-base",
			Description: "An EMPTY environment exposes only the variables set on it",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				env := giraffe.EmptyEnvironment().Set("ONLY", "1")

				res, err := giraffe.Execute(sys.Command("env"), giraffe.WithEnvironment(env))
				require.NoError(t, err)

				assert.Equal(t, []string{"ONLY=1"}, nonEmptyLines(res.Stdout))
			},
		},
		{
			Category:    CategoryContext,
			Name:        "working-directory",
			Description: "The command starts in the requested working directory",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				res, err := giraffe.Execute(sys.Command("pwd"), giraffe.WithWorkingDirectory("/"))
				require.NoError(t, err)

				assert.Equal(t, "/\n", res.Stdout)
			},
		},
		{
			Category: CategoryContext,
			Name:     "require-exit-status",
			Prereq:   posix,
			Run: func(t T, sys giraffe.System) {
				res, err := run(sys, "exit 3", giraffe.RequireExitStatus(3))
				require.NoError(t, err)
				assert.Equal(t, 3, res.ExitStatus)

				_, err = run(sys, "exit 0", giraffe.RequireExitStatus(3))

				var cmdErr *giraffe.CommandError
				require.ErrorAs(t, err, &cmdErr)
				assert.Equal(t, 0, cmdErr.ExitStatus())
			},
		},
		{
			Category: CategoryContext,
			Name:     "ignore-exit-status",
			Prereq:   posix,
			Run: func(t T, sys giraffe.System) {
				res, err := run(sys, "echo partial; exit 9", giraffe.IgnoreExitStatus())
				require.NoError(t, err)

				assert.Equal(t, 9, res.ExitStatus)
				assert.Equal(t, "partial\n", res.Stdout)
			},
		},
	}
}

func nonEmptyLines(s string) []string {
	var out []string

	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}

	return out
}
