package giraffe

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/google/shlex"
)

// NoExitStatus is reported when a command's exit status is unknown, for example
// when a result is synthesized before the process exits.
const NoExitStatus = -559038737 // int32(0xDEADBEEF)

// Command describes an executable and its arguments on one execution system.
// Commands are immutable.
type Command struct {
	system     System
	executable string
	args       []string
}

func newCommand(sys System, executable string, args []string) *Command {
	return &Command{
		system:     sys,
		executable: executable,
		args:       args,
	}
}

// NewCommand creates a command for sys. Each argument is stringified with fmt.Sprint;
// no escaping is applied. Providers use it to implement System.Command.
func NewCommand(sys System, executable string, args ...any) *Command {
	return NewBuilder(sys, executable).Args(args...).Build()
}

// CheckOwnership returns ErrSystemMismatch unless cmd belongs to sys.
func CheckOwnership(sys System, cmd *Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if cmd.System() != sys {
		return fmt.Errorf("%w: %s is not %s", ErrSystemMismatch, cmd.System().URI(), sys.URI())
	}

	return nil
}

// System returns the execution system that runs this command.
func (c *Command) System() System {
	return c.system
}

// Executable returns the executable name or path.
func (c *Command) Executable() string {
	return c.executable
}

// Args returns a copy of the arguments.
func (c *Command) Args() []string {
	return slices.Clone(c.args)
}

// Validate checks that the command is well-formed.
func (c *Command) Validate() error {
	if c == nil {
		return errors.New("command cannot be nil")
	}

	if c.system == nil {
		return errors.New("command has no execution system")
	}

	if strings.TrimSpace(c.executable) == "" {
		return errors.New("command executable cannot be empty")
	}

	return nil
}

// Equal reports whether both commands run the same executable with the same
// arguments on the same system.
func (c *Command) Equal(other *Command) bool {
	if c == nil || other == nil {
		return c == other
	}

	return c.system == other.system &&
		c.executable == other.executable &&
		slices.Equal(c.args, other.args)
}

// Key returns a string that is equal for equal commands on the same system URI.
func (c *Command) Key() string {
	var b strings.Builder

	if c.system != nil && c.system.URI() != nil {
		b.WriteString(c.system.URI().String())
	}

	b.WriteByte(0)
	b.WriteString(c.executable)

	for _, arg := range c.args {
		b.WriteByte(0)
		b.WriteString(arg)
	}

	return b.String()
}

// String returns a simplified, shell-quoted representation of the command.
func (c *Command) String() string {
	if len(c.args) == 0 {
		return c.executable
	}

	var b strings.Builder
	b.WriteString(c.executable)

	for _, arg := range c.args {
		b.WriteString(" ")

		if arg == "" || strings.ContainsAny(arg, " \t\n\"'") {
			fmt.Fprintf(&b, "%q", arg)
		} else {
			b.WriteString(arg)
		}
	}

	return b.String()
}

// ParseCommand splits a shell-style command line with shlex and binds the result to sys.
func ParseCommand(sys System, line string) (*Command, error) {
	parts, err := shlex.Split(line)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	return newCommand(sys, parts[0], parts[1:]), nil
}

// Result is the outcome of a finished command: its exit status and any output
// that was not read live from the handle.
type Result struct {
	ExitStatus int
	Stdout     string
	Stderr     string
}

// Success returns true if the command exited with status 0.
func (r *Result) Success() bool {
	return r.ExitStatus == 0
}

func (r *Result) String() string {
	return fmt.Sprintf("Result[exitStatus = %d]", r.ExitStatus)
}

// TerminatedCommand bundles a command, the context it ran with and its result
// for diagnostics.
type TerminatedCommand struct {
	Command *Command
	Context *CommandContext
	Result  *Result
}

// TargetOS identifies the operating system of an execution system.
type TargetOS int

const (
	// OSUnknown represents an unidentified operating system.
	OSUnknown TargetOS = iota
	// OSLinux represents the Linux kernel.
	OSLinux
	// OSWindows represents Microsoft Windows.
	OSWindows
	// OSDarwin represents macOS (Darwin).
	OSDarwin
)

func (os TargetOS) String() string {
	switch os {
	case OSLinux:
		return "linux"
	case OSWindows:
		return "windows"
	case OSDarwin:
		return "darwin"
	case OSUnknown:
		return "unknown"
	default:
		return "unknown"
	}
}

// ShellCommand returns the executable and arguments that run script in the system shell.
// Returns "sh -c <script>" for UNIX-likes and "powershell ..." for Windows.
func (os TargetOS) ShellCommand(script string) (string, []string) {
	switch os {
	case OSWindows:
		return "powershell", []string{"-NoProfile", "-NonInteractive", "-Command", script}
	case OSLinux, OSDarwin, OSUnknown:
		fallthrough
	default:
		return "sh", []string{"-c", script}
	}
}

// ParseTargetOS converts a typical OS string (e.g., "linux", "darwin") to a TargetOS.
func ParseTargetOS(osStr string) TargetOS {
	switch strings.ToLower(strings.TrimSpace(osStr)) {
	case "linux":
		return OSLinux
	case "windows", "windows_nt":
		return OSWindows
	case "darwin", "macos":
		return OSDarwin
	default:
		return OSUnknown
	}
}

// DetectLocalOS returns the TargetOS of the current running process.
func DetectLocalOS() TargetOS {
	return ParseTargetOS(runtime.GOOS)
}

// ShellCommand builds a command on sys that runs script in the system's shell.
func ShellCommand(sys System, script string) *Command {
	exe, args := sys.TargetOS().ShellCommand(script)

	return newCommand(sys, exe, args)
}
