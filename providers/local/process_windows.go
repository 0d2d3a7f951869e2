//go:build windows

package local

import (
	"os"
	"os/exec"
	"strconv"
)

// killProcessGroup kills the process tree rooted at pid.
//
// TODO(windows): Use Job Objects for proper process grouping if we need
// resource limits or orphan handling.
func killProcessGroup(pid int) error {
	return exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run()
}

// setProcessGroup is a no-op until Job Objects are used.
func setProcessGroup(_ *exec.Cmd) {}

func exitStatus(state *os.ProcessState) int {
	return state.ExitCode()
}
