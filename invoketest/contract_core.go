package invoketest

import (
	"io"
	"strings"

	"github.com/palantir/giraffe-sub000"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coreContracts() []TestCase {
	return []TestCase{
		{
			Category: CategoryCore,
			Name:     "simple-echo",
			Run: func(t T, sys giraffe.System) {
				res, err := run(sys, "echo hello", giraffe.DefaultContext())
				require.NoError(t, err)
				require.NotNil(t, res)

				assert.Equal(t, "hello", strings.TrimSpace(res.Stdout))
				assert.Equal(t, 0, res.ExitStatus)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "stdout-stderr-separated",
			Description: "Output written to each stream is captured separately",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				res, err := run(sys, "echo out; echo err >&2", giraffe.DefaultContext())
				require.NoError(t, err)

				assert.Equal(t, "out\n", res.Stdout)
				assert.Equal(t, "err\n", res.Stderr)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "arguments-not-interpreted",
			Description: "Arguments reach the executable verbatim, without shell expansion",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				args := []any{"$HOME", "a b", "it's", "`id`", "*", ""}

				res, err := giraffe.Execute(sys.Command("printf", append([]any{"[%s]"}, args...)...), giraffe.DefaultContext())
				require.NoError(t, err)

				assert.Equal(t, "[$HOME][a b][it's][`id`][*][]", res.Stdout)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "stdin-roundtrip",
			Description: "Bytes written to the future's stdin reach the process",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				f, err := giraffe.ExecuteAsync(sys.Command("cat"), giraffe.DefaultContext())
				require.NoError(t, err)

				_, err = io.WriteString(f.Stdin(), "line one\nline two\n")
				require.NoError(t, err)
				require.NoError(t, f.Stdin().Close())

				res, err := giraffe.WaitFor(f)
				require.NoError(t, err)

				assert.Equal(t, "line one\nline two\n", res.Stdout)
			},
		},
		{
			Category:    CategoryCore,
			Name:        "live-output",
			Description: "Output is readable while the command runs and consumed bytes are not repeated in the result",
			Prereq:      posix,
			Run: func(t T, sys giraffe.System) {
				f, err := giraffe.ExecuteAsync(giraffe.ShellCommand(sys, "echo ready; read reply; echo got $reply"), giraffe.DefaultContext())
				require.NoError(t, err)

				buf := make([]byte, len("ready\n"))
				_, err = io.ReadFull(f.Stdout(), buf)
				require.NoError(t, err)
				assert.Equal(t, "ready\n", string(buf))

				_, err = io.WriteString(f.Stdin(), "go\n")
				require.NoError(t, err)

				res, err := giraffe.WaitFor(f)
				require.NoError(t, err)

				assert.Equal(t, "got go\n", res.Stdout)
			},
		},
		{
			Category: CategoryCore,
			Name:     "large-output",
			Prereq:   posix,
			Run: func(t T, sys giraffe.System) {
				const lines = 20000

				res, err := run(sys, "i=0; while [ $i -lt 20000 ]; do echo 0123456789; i=$((i+1)); done", giraffe.DefaultContext())
				require.NoError(t, err)

				assert.Len(t, res.Stdout, lines*len("0123456789\n"))
			},
		},
	}
}
