package local

import (
	"github.com/palantir/giraffe-sub000"
)

// RunCommand runs exe on a short-lived local system and waits for it.
func RunCommand(cctx *giraffe.CommandContext, exe string, args ...any) (*giraffe.Result, error) {
	sys, err := New()
	if err != nil {
		return nil, err
	}

	defer func() { _ = sys.Close() }()

	return giraffe.Execute(sys.Command(exe, args...), cctx)
}

// RunShell runs script with the host shell on a short-lived local system.
func RunShell(cctx *giraffe.CommandContext, script string) (*giraffe.Result, error) {
	sys, err := New()
	if err != nil {
		return nil, err
	}

	defer func() { _ = sys.Close() }()

	return giraffe.Execute(giraffe.ShellCommand(sys, script), cctx)
}
