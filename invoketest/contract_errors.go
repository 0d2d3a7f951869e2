package invoketest

import (
	"errors"
	"fmt"

	"github.com/palantir/giraffe-sub000"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	exitStatusCode    = 13
	missingExecutable = "giraffe-contract-missing-binary"
)

func errorContracts() []TestCase {
	return []TestCase{
		nonZeroReturnsCommandErrorContract(),
		commandErrorCarriesOutputContract(),
		missingExecutableContract(),
	}
}

func nonZeroReturnsCommandErrorContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "nonzero-returns-command-error",
		Description: "A rejected exit status must return *giraffe.CommandError",
		Run: func(t T, sys giraffe.System) {
			_, err := run(sys, fmt.Sprintf("exit %d", exitStatusCode), giraffe.DefaultContext())
			require.Error(t, err)

			var cmdErr *giraffe.CommandError
			require.ErrorAs(t, err, &cmdErr)
			require.Equal(t, exitStatusCode, cmdErr.ExitStatus())
			assert.Contains(t, cmdErr.Error(), fmt.Sprintf("exited with unexpected status %d", exitStatusCode))
			assert.Contains(t, cmdErr.Error(), sys.URI().String())
		},
	}
}

func commandErrorCarriesOutputContract() TestCase {
	return TestCase{
		Category: CategoryErrors,
		Name:     "command-error-carries-output",
		Prereq:   posix,
		Run: func(t T, sys giraffe.System) {
			_, err := run(sys, "echo to-stdout; echo to-stderr >&2; exit 1", giraffe.DefaultContext())

			var cmdErr *giraffe.CommandError
			require.ErrorAs(t, err, &cmdErr)

			assert.Equal(t, "to-stdout\n", cmdErr.Result.Stdout)
			assert.Equal(t, "to-stderr\n", cmdErr.Result.Stderr)
			assert.Contains(t, cmdErr.Error(), "to-stderr")
		},
	}
}

// missingExecutableContract accepts either failure shape: local systems fail
// to launch, while remote systems report the shell's 126 or 127.
func missingExecutableContract() TestCase {
	return TestCase{
		Category:    CategoryErrors,
		Name:        "missing-executable",
		Description: "Running a non-existent executable fails",
		Prereq:      posix,
		Run: func(t T, sys giraffe.System) {
			_, err := giraffe.Execute(sys.Command(missingExecutable), giraffe.DefaultContext())
			require.Error(t, err)

			var cmdErr *giraffe.CommandError
			if errors.As(err, &cmdErr) {
				assert.Contains(t, []int{126, 127}, cmdErr.ExitStatus())
				return
			}

			var execErr *giraffe.ExecutionError
			require.ErrorAs(t, err, &execErr)
			assert.Equal(t, missingExecutable, execErr.Command.Executable())
		},
	}
}
