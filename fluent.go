package giraffe

import (
	"fmt"
	"slices"
)

// Builder provides a fluent API for constructing Commands.
type Builder struct {
	system     System
	executable string
	args       []string
}

// NewBuilder creates a Builder for executable on sys.
func NewBuilder(sys System, executable string) *Builder {
	return &Builder{
		system:     sys,
		executable: executable,
	}
}

// Arg adds a single argument, stringified with fmt.Sprint.
func (b *Builder) Arg(arg any) *Builder {
	b.args = append(b.args, fmt.Sprint(arg))
	return b
}

// Args adds multiple arguments.
func (b *Builder) Args(args ...any) *Builder {
	for _, arg := range args {
		b.Arg(arg)
	}

	return b
}

// Build returns the constructed Command. The builder may be reused afterwards.
func (b *Builder) Build() *Command {
	return newCommand(b.system, b.executable, slices.Clone(b.args))
}

// ContextBuilder provides a fluent API for constructing CommandContexts.
type ContextBuilder struct {
	env          *Environment
	exit         ExitPredicate
	dir          string
	hasDir       bool
	stdoutWindow int
	stderrWindow int
}

// NewContextBuilder returns a builder initialised with the default context settings.
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{
		env:  DefaultEnvironment(),
		exit: ExitStatusEquals(0),
	}
}

// Environment sets the environment. The builder keeps a copy.
func (b *ContextBuilder) Environment(env *Environment) *ContextBuilder {
	b.env = env.Copy()
	return b
}

// RequireExitStatus accepts only the given exit status.
func (b *ContextBuilder) RequireExitStatus(status int) *ContextBuilder {
	b.exit = ExitStatusEquals(status)
	return b
}

// RequireExitStatusFunc accepts exit statuses for which pred returns true.
func (b *ContextBuilder) RequireExitStatusFunc(pred ExitPredicate) *ContextBuilder {
	b.exit = pred
	return b
}

// IgnoreExitStatus accepts any exit status.
func (b *ContextBuilder) IgnoreExitStatus() *ContextBuilder {
	b.exit = func(int) bool { return true }
	return b
}

// WorkingDirectory sets the directory the command starts in.
func (b *ContextBuilder) WorkingDirectory(dir string) *ContextBuilder {
	b.dir = dir
	b.hasDir = true

	return b
}

// StdoutWindow bounds the unread stdout bytes retained to the most recent n.
func (b *ContextBuilder) StdoutWindow(n int) *ContextBuilder {
	b.stdoutWindow = n
	return b
}

// StderrWindow bounds the unread stderr bytes retained to the most recent n.
func (b *ContextBuilder) StderrWindow(n int) *ContextBuilder {
	b.stderrWindow = n
	return b
}

// Build returns the constructed CommandContext.
func (b *ContextBuilder) Build() *CommandContext {
	return &CommandContext{
		env:          b.env.Copy(),
		exit:         b.exit,
		dir:          b.dir,
		hasDir:       b.hasDir,
		stdoutWindow: b.stdoutWindow,
		stderrWindow: b.stderrWindow,
	}
}
