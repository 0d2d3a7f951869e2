// Package giraffe launches commands, locally or on remote hosts, and lets callers
// interact with them while they run.
//
// # Core Interfaces
//
// - System: an execution system identified by a URI (exec:///, exec+ssh://user@host:22/, ...).
// - Process: the native side of one running command, supplied by a provider backend.
// - Future: the handle returned by Execute; exposes live stdout/stderr/stdin and resolves to a Result.
//
// # Streaming
//
// Output is captured into growable in-memory pipes. Callers may read Future.Stdout and
// Future.Stderr while the command runs; whatever is left unread when the command exits
// becomes the Result's captured output.
//
// # Providers
//
// Backends register a Provider for their URI scheme in init, so importing a provider
// package is enough to make its scheme resolvable:
//
//	import _ "github.com/palantir/giraffe-sub000/providers/local"
//
//	sys, _ := giraffe.Default(ctx)
//	res, err := giraffe.Execute(sys.Command("echo", "hello"), giraffe.DefaultContext())
package giraffe

import (
	"context"
	"io"
	"net/url"
)

// System abstracts the place where commands run (local OS, SSH host, container).
type System interface {
	io.Closer

	// URI identifies the system; providers are selected by its scheme.
	URI() *url.URL

	// IsOpen reports whether the system still accepts commands.
	IsOpen() bool

	// TargetOS returns the operating system commands run on.
	TargetOS() TargetOS

	// Command creates a command bound to this system. Arguments are stringified with fmt.Sprint.
	Command(executable string, args ...any) *Command

	// Execute launches cmd asynchronously and returns its handle.
	// It fails with ErrSystemClosed after Close and ErrSystemMismatch when cmd belongs to another system.
	Execute(cmd *Command, cctx *CommandContext) (*Future, error)
}

// Process is the native side of a started command, supplied by a backend.
type Process interface {
	// Stdout returns the native output stream.
	Stdout() io.Reader

	// Stderr returns the native error stream.
	Stderr() io.Reader

	// Stdin returns the native input stream.
	Stdin() io.WriteCloser

	// Wait blocks until the process exits and returns its exit status.
	// Backends that cannot observe a status return NoExitStatus.
	Wait() (int, error)

	// Destroy terminates the process. It is best-effort and safe to call more than once.
	Destroy()

	// CloseStreams closes the native streams, returning the last error seen.
	CloseStreams() error
}

// Provider creates execution systems for one URI scheme.
type Provider interface {
	// Scheme returns the URI scheme handled by this provider, e.g. "exec".
	Scheme() string

	// NewSystem creates a system for uri configured by attrs.
	NewSystem(ctx context.Context, uri *url.URL, attrs Attributes) (System, error)
}

// StartFunc starts the native process for one execution.
type StartFunc func(ctx context.Context) (Process, error)
