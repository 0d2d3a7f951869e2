// Command giraffe runs commands on local, SSH and Docker execution systems
// and checks systems against the behavioral contract suite.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/palantir/giraffe-sub000"

	_ "github.com/palantir/giraffe-sub000/providers/local"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(reportError(err))
	}
}

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// reportError prints err and returns the exit status for it.
func reportError(err error) int {
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	fmt.Fprintln(os.Stderr, errorStyle.Render("giraffe: "+err.Error()))

	if errors.Is(err, giraffe.ErrCancelled) {
		return exitInterrupted
	}

	return 1
}
