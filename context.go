package giraffe

import (
	"fmt"
	"maps"
	"slices"
)

// ExitPredicate decides whether an exit status counts as success.
type ExitPredicate func(status int) bool

// ExitStatusEquals returns a predicate accepting only want.
func ExitStatusEquals(want int) ExitPredicate {
	return func(status int) bool { return status == want }
}

// CommandContext holds the run-time settings of an execution: environment,
// accepted exit statuses and working directory. It is immutable.
type CommandContext struct {
	env          *Environment
	exit         ExitPredicate
	dir          string
	hasDir       bool
	stdoutWindow int
	stderrWindow int
}

var defaultContext = NewContextBuilder().Build()

// DefaultContext requires exit status 0 and uses the default environment and working directory.
func DefaultContext() *CommandContext {
	return defaultContext
}

// IgnoreExitStatus returns a context that accepts any exit status.
func IgnoreExitStatus() *CommandContext {
	return NewContextBuilder().IgnoreExitStatus().Build()
}

// RequireExitStatus returns a context that accepts only status.
func RequireExitStatus(status int) *CommandContext {
	return NewContextBuilder().RequireExitStatus(status).Build()
}

// WithEnvironment returns a context that uses env.
func WithEnvironment(env *Environment) *CommandContext {
	return NewContextBuilder().Environment(env).Build()
}

// WithWorkingDirectory returns a context that starts commands in dir.
func WithWorkingDirectory(dir string) *CommandContext {
	return NewContextBuilder().WorkingDirectory(dir).Build()
}

// Environment returns a copy of the context's environment.
func (c *CommandContext) Environment() *Environment {
	return c.env.Copy()
}

// Accepts reports whether status satisfies the context's exit predicate.
func (c *CommandContext) Accepts(status int) bool {
	return c.exit(status)
}

// WorkingDirectory returns the working directory and whether one is set.
func (c *CommandContext) WorkingDirectory() (string, bool) {
	return c.dir, c.hasDir
}

// StdoutWindow returns the stdout retention window, or 0 for unbounded.
func (c *CommandContext) StdoutWindow() int {
	return c.stdoutWindow
}

// StderrWindow returns the stderr retention window, or 0 for unbounded.
func (c *CommandContext) StderrWindow() int {
	return c.stderrWindow
}

// BaseEnvironment selects what an Environment starts from.
type BaseEnvironment int

const (
	// BaseDefault inherits the ambient environment of the execution system.
	BaseDefault BaseEnvironment = iota
	// BaseEmpty starts from an empty environment.
	BaseEmpty
)

func (b BaseEnvironment) String() string {
	if b == BaseEmpty {
		return "EMPTY"
	}

	return "DEFAULT"
}

// Environment is a base environment plus variable changes applied on top of it.
type Environment struct {
	base    BaseEnvironment
	changes map[string]string
}

// DefaultEnvironment inherits the ambient environment.
func DefaultEnvironment() *Environment {
	return &Environment{base: BaseDefault, changes: map[string]string{}}
}

// EmptyEnvironment contains only explicitly set variables.
func EmptyEnvironment() *Environment {
	return &Environment{base: BaseEmpty, changes: map[string]string{}}
}

// Set sets a variable and returns the environment for chaining.
func (e *Environment) Set(name, value string) *Environment {
	e.changes[name] = value
	return e
}

// SetAll sets every variable in env.
func (e *Environment) SetAll(env map[string]string) *Environment {
	maps.Copy(e.changes, env)
	return e
}

// Base returns the base environment.
func (e *Environment) Base() BaseEnvironment {
	return e.base
}

// Changes returns a copy of the variable changes.
func (e *Environment) Changes() map[string]string {
	return maps.Clone(e.changes)
}

// Names returns the changed variable names in sorted order.
func (e *Environment) Names() []string {
	return slices.Sorted(maps.Keys(e.changes))
}

// IsDefault reports whether the environment is the unchanged default environment.
func (e *Environment) IsDefault() bool {
	return e.base == BaseDefault && len(e.changes) == 0
}

// Copy returns an independent copy.
func (e *Environment) Copy() *Environment {
	if e == nil {
		return DefaultEnvironment()
	}

	return &Environment{base: e.base, changes: maps.Clone(e.changes)}
}

// String renders the base and changes, e.g. "DEFAULT with changes map[A:1]".
func (e *Environment) String() string {
	return fmt.Sprintf("%s with changes %v", e.base, e.changes)
}
