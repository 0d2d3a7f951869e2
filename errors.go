package giraffe

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotSupported indicates that the requested feature (e.g., TTY) is not supported
// by the specific provider or OS.
var ErrNotSupported = errors.New("operation not supported")

// ErrSystemClosed indicates that an operation was attempted on a closed execution system.
var ErrSystemClosed = errors.New("execution system is closed")

// ErrSystemMismatch indicates a command was executed on a system other than its own.
var ErrSystemMismatch = errors.New("command belongs to a different execution system")

// ErrProviderNotFound indicates no provider is registered for a URI scheme.
var ErrProviderNotFound = errors.New("provider not found")

// ErrSystemExists indicates an open execution system already exists for a URI.
var ErrSystemExists = errors.New("execution system already exists")

// ErrSystemNotFound indicates no open execution system exists for a URI.
var ErrSystemNotFound = errors.New("execution system not found")

// ErrInterrupted indicates the goroutine waiting on a process was interrupted
// by its system shutting down, rather than by a deliberate cancel.
var ErrInterrupted = errors.New("process goroutine unexpectedly interrupted")

// ErrCancelled is returned when waiting on a cancelled execution.
var ErrCancelled = errors.New("execution cancelled")

// ErrLatchStarted is returned when registering with an ExitLatch that has started.
var ErrLatchStarted = errors.New("cannot register new commands after exit latch has started")

// CommandError reports a command that finished with an exit status its context rejected.
type CommandError struct {
	Command *Command
	Context *CommandContext
	Result  *Result
}

func (e *CommandError) Error() string {
	return exitStatusMessage(e.terminated())
}

// ExitStatus returns the rejected exit status.
func (e *CommandError) ExitStatus() int {
	return e.Result.ExitStatus
}

func (e *CommandError) terminated() TerminatedCommand {
	return TerminatedCommand{Command: e.Command, Context: e.Context, Result: e.Result}
}

// TimeoutError reports a command that did not finish before a deadline. Result
// holds the output captured up to the timeout.
type TimeoutError struct {
	Command *Command
	Context *CommandContext
	Result  *Result
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return timeoutMessage(TerminatedCommand{Command: e.Command, Context: e.Context, Result: e.Result}, e.Timeout)
}

// ExecutionError represents a failure in launching or driving a command
// (e.g. binary not found, connection lost, stream copy failure).
type ExecutionError struct {
	Command *Command
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Command == nil {
		return fmt.Sprintf("execution failed: %v", e.Err)
	}

	return fmt.Sprintf("execution of %q failed: %v", e.Command.String(), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

const indent = "    "

var argEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)

func exitStatusMessage(t TerminatedCommand) string {
	var b strings.Builder

	fmt.Fprintf(&b, "exited with unexpected status %d", t.Result.ExitStatus)
	writeDetails(&b, t)

	return b.String()
}

func timeoutMessage(t TerminatedCommand, timeout time.Duration) string {
	var b strings.Builder

	fmt.Fprintf(&b, "timed out after %s", timeout)
	writeDetails(&b, t)

	return b.String()
}

func writeDetails(b *strings.Builder, t TerminatedCommand) {
	b.WriteString("\n")

	b.WriteString(indent + "executable: " + t.Command.Executable() + "\n")

	args := t.Command.Args()
	quoted := make([]string, len(args))

	for i, arg := range args {
		quoted[i] = `"` + argEscaper.Replace(arg) + `"`
	}

	b.WriteString(indent + "arguments: [" + strings.Join(quoted, ", ") + "]\n")

	if t.Context != nil {
		if dir, ok := t.Context.WorkingDirectory(); ok {
			b.WriteString(indent + "working dir: " + dir + "\n")
		}

		if env := t.Context.Environment(); !env.IsDefault() {
			b.WriteString(indent + "environment: " + env.String() + "\n")
		}
	}

	uri := "<unknown>"
	if sys := t.Command.System(); sys != nil && sys.URI() != nil {
		uri = sys.URI().String()
	}

	b.WriteString(indent + "execution system: " + uri + "\n")

	writeOutput(b, "stderr", t.Result.Stderr)
	b.WriteString("\n")
	writeOutput(b, "stdout", t.Result.Stdout)
}

func writeOutput(b *strings.Builder, name, output string) {
	b.WriteString(indent + name + ": ")

	if output == "" {
		b.WriteString("<no output>")
	} else {
		b.WriteString(output)
	}
}
