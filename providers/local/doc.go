// Package local provides the execution system for the local operating system,
// registered for the exec:/// URI.
//
// Commands run as child processes through "os/exec". Each non-TTY command gets
// its own process group so that destroying it also kills its children. TTY
// commands run on a pseudo-terminal allocated with github.com/creack/pty.
//
// Usage:
//
//	sys, _ := local.New()
//	defer sys.Close()
//
//	res, err := giraffe.Execute(sys.Command("echo", "hello"), giraffe.DefaultContext())
package local
