package invoketest

import (
	"context"
	"fmt"
	"testing"

	"github.com/palantir/giraffe-sub000"
)

// Standard categories for grouping tests.
const (
	CategoryCore       = "core"
	CategoryContext    = "context"
	CategoryLifecycle  = "lifecycle"
	CategoryFilesystem = "filesystem"
	CategorySystem     = "system"
	CategoryErrors     = "errors"
)

// T is the minimal interface required for testify/assert and require.
type T interface {
	Errorf(format string, args ...any)
	FailNow()
	Skipf(format string, args ...any)
	Context() context.Context
	TempDir() string
	Name() string
}

// Factory opens a fresh execution system for a single test case. Several
// cases close the system they are given, so systems are never shared.
type Factory func(t T) giraffe.System

// TestCase defines a single behavioral contract requirement.
type TestCase struct {
	Category    string
	Name        string
	Description string
	Prereq      func(t T, sys giraffe.System) (ok bool, reason string)
	Run         func(t T, sys giraffe.System)
}

// ID returns the stable, globally unique contract identifier.
func (tc TestCase) ID() string {
	return fmt.Sprintf("%s/%s", tc.Category, tc.Name)
}

// Verify is the standard Go test entry point for provider authors.
func Verify(t *testing.T, open Factory) {
	t.Helper()

	for _, tc := range AllContracts() {
		t.Run(tc.ID(), func(t *testing.T) {
			sys := open(t)
			t.Cleanup(func() { _ = sys.Close() })

			if tc.Prereq != nil {
				ok, reason := tc.Prereq(t, sys)
				if !ok {
					t.Skipf("prereq unmet: %s", reason)
				}
			}

			tc.Run(t, sys)
		})
	}
}

// posix skips shell-dependent contracts on Windows targets.
func posix(_ T, sys giraffe.System) (bool, string) {
	if sys.TargetOS() == giraffe.OSWindows {
		return false, "requires a POSIX shell"
	}

	return true, ""
}

// transferer skips contracts on systems that cannot move files.
func transferer(_ T, sys giraffe.System) (bool, string) {
	if _, ok := sys.(giraffe.FileTransferer); !ok {
		return false, "system does not implement giraffe.FileTransferer"
	}

	return true, ""
}

func run(sys giraffe.System, script string, cctx *giraffe.CommandContext) (*giraffe.Result, error) {
	return giraffe.Execute(giraffe.ShellCommand(sys, script), cctx)
}
