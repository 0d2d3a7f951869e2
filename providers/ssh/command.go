package ssh

import (
	"strings"

	"github.com/palantir/giraffe-sub000"
	"golang.org/x/crypto/ssh"
)

// buildCommandLine renders cmd as a single POSIX shell line:
//
//	cd <dir> && env [-i] K=V... <exe> <args>...
//
// The cd part is present only with a working directory and the env part only
// for a non-default environment.
func buildCommandLine(cmd *giraffe.Command, cctx *giraffe.CommandContext) string {
	var b strings.Builder

	if dir, ok := cctx.WorkingDirectory(); ok {
		b.WriteString("cd ")
		b.WriteString(escape(dir))
		b.WriteString(" && ")
	}

	if env := cctx.Environment(); !env.IsDefault() {
		b.WriteString("env ")

		if env.Base() == giraffe.BaseEmpty {
			b.WriteString("-i ")
		}

		changes := env.Changes()
		for _, name := range env.Names() {
			b.WriteString(escape(name + "=" + changes[name]))
			b.WriteByte(' ')
		}
	}

	b.WriteString(escape(cmd.Executable()))

	for _, arg := range cmd.Args() {
		b.WriteByte(' ')
		b.WriteString(escape(arg))
	}

	return b.String()
}

// escape quotes s for a POSIX shell. Each run of characters between single
// quotes is wrapped in single quotes and each quote becomes \'.
func escape(s string) string {
	if s == "" {
		return "''"
	}

	var b strings.Builder

	for i, part := range strings.Split(s, "'") {
		if i > 0 {
			b.WriteString(`\'`)
		}

		if part != "" {
			b.WriteByte('\'')
			b.WriteString(part)
			b.WriteByte('\'')
		}
	}

	return b.String()
}

// terminalModes enables echo at 14.4kbaud.
func terminalModes() ssh.TerminalModes {
	return ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
}
