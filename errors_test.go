package giraffe

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandError_Message(t *testing.T) {
	t.Parallel()

	sys := newFakeSystem(nil)

	tests := []struct {
		name string
		err  *CommandError
		want string
	}{
		{
			name: "default context",
			err: &CommandError{
				Command: sys.Command("ls", "a", "b\n"),
				Context: DefaultContext(),
				Result:  &Result{ExitStatus: 2, Stderr: "no such file"},
			},
			want: "exited with unexpected status 2\n" +
				"    executable: ls\n" +
				"    arguments: [\"a\", \"b\\n\"]\n" +
				"    execution system: exec+fake://test/\n" +
				"    stderr: no such file\n" +
				"    stdout: <no output>",
		},
		{
			name: "directory and environment",
			err: &CommandError{
				Command: sys.Command("env"),
				Context: NewContextBuilder().
					WorkingDirectory("/work").
					Environment(DefaultEnvironment().Set("K", "V")).
					Build(),
				Result: &Result{ExitStatus: 1, Stdout: "out"},
			},
			want: "exited with unexpected status 1\n" +
				"    executable: env\n" +
				"    arguments: []\n" +
				"    working dir: /work\n" +
				"    environment: DEFAULT with changes map[K:V]\n" +
				"    execution system: exec+fake://test/\n" +
				"    stderr: <no output>\n" +
				"    stdout: out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	err := &TimeoutError{
		Command: newFakeSystem(nil).Command("sleep", "10"),
		Context: DefaultContext(),
		Result:  &Result{ExitStatus: NoExitStatus, Stdout: "partial"},
		Timeout: 50 * time.Millisecond,
	}

	assert.Contains(t, err.Error(), "timed out after 50ms\n")
	assert.Contains(t, err.Error(), "    stdout: partial")
	assert.Equal(t, 50*time.Millisecond, err.Timeout)
}

func TestExecutionError_Unwrap(t *testing.T) {
	t.Parallel()

	err := &ExecutionError{Command: newFakeSystem(nil).Command("missing"), Err: os.ErrNotExist}

	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "execution of \"missing\" failed")

	var target *ExecutionError
	require.ErrorAs(t, error(err), &target)
	assert.Equal(t, "execution failed: boom", (&ExecutionError{Err: errors.New("boom")}).Error())
}
