package main

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/palantir/giraffe-sub000"
	"github.com/palantir/giraffe-sub000/providers/mock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sshConfig := filepath.Join(dir, "config")
	require.NoError(t, os.WriteFile(sshConfig, []byte(`
Host build
  HostName 10.0.0.7
  User deploy
  Port 2200
  IdentityFile /keys/build
  StrictHostKeyChecking no
`), 0o600))

	tests := []struct {
		name  string
		flags globalFlags
		uri   string
		tty   bool
		want  string
		attrs giraffe.Attributes
	}{
		{
			name: "local",
			uri:  "exec:///",
			tty:  true,
			want: "exec:///",
			attrs: giraffe.Attributes{
				"tty": true,
			},
		},
		{
			name:  "docker host",
			flags: globalFlags{dockerHost: "tcp://docker:2375"},
			uri:   "exec+docker://web/",
			want:  "exec+docker://web/",
			attrs: giraffe.Attributes{"host": "tcp://docker:2375"},
		},
		{
			name:  "ssh credentials",
			flags: globalFlags{password: "pw", key: "/k", insecure: true},
			uri:   "exec+ssh://root@example.com:22/",
			want:  "exec+ssh://root@example.com:22/",
			attrs: giraffe.Attributes{
				"password":             "pw",
				"private-key-path":     "/k",
				"insecure-skip-verify": true,
			},
		},
		{
			name:  "ssh config alias",
			flags: globalFlags{sshConfig: sshConfig},
			uri:   "exec+ssh://build",
			want:  "exec+ssh://deploy@10.0.0.7:2200/",
			attrs: giraffe.Attributes{
				"private-key-path":     "/keys/build",
				"insecure-skip-verify": true,
			},
		},
		{
			name:  "explicit key beats ssh config",
			flags: globalFlags{sshConfig: sshConfig, key: "/override"},
			uri:   "exec+ssh://build",
			want:  "exec+ssh://deploy@10.0.0.7:2200/",
			attrs: giraffe.Attributes{
				"private-key-path":     "/override",
				"insecure-skip-verify": true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := tt.flags
			g.log = zerolog.Nop()

			uri, attrs, err := g.resolve(tt.uri, tt.tty)
			require.NoError(t, err)
			assert.Equal(t, tt.want, uri)

			delete(attrs, "logger")
			delete(attrs, "use-agent")
			assert.Equal(t, tt.attrs, attrs)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	g := &globalFlags{sshConfig: filepath.Join(t.TempDir(), "missing"), log: zerolog.Nop()}

	_, _, err := g.resolve("exec+ssh://nowhere", false)
	require.ErrorContains(t, err, "failed to open ssh config")

	_, _, err = g.resolve("://bad", false)
	require.ErrorContains(t, err, "invalid URI")
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	log, err := newLogger(&buf, "info")
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Str("uri", "exec:///").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "uri=exec:///")

	_, err = newLogger(&buf, "loud")
	require.ErrorContains(t, err, "invalid --log-level")
}

func TestCommandContext(t *testing.T) {
	t.Parallel()

	t.Run("environment and directory", func(t *testing.T) {
		t.Parallel()

		f := &execFlags{env: []string{"A=1", "B=x=y"}, emptyEnv: true, dir: "/srv"}

		cctx, err := f.commandContext(false)
		require.NoError(t, err)

		env := cctx.Environment()
		assert.Equal(t, giraffe.BaseEmpty, env.Base())
		assert.Equal(t, map[string]string{"A": "1", "B": "x=y"}, env.Changes())

		dir, ok := cctx.WorkingDirectory()
		assert.True(t, ok)
		assert.Equal(t, "/srv", dir)
		assert.True(t, cctx.Accepts(0))
		assert.False(t, cctx.Accepts(1))
	})

	t.Run("exit status", func(t *testing.T) {
		t.Parallel()

		cctx, err := (&execFlags{exitStatus: 4}).commandContext(true)
		require.NoError(t, err)
		assert.True(t, cctx.Accepts(4))
		assert.False(t, cctx.Accepts(0))

		cctx, err = (&execFlags{ignoreExit: true}).commandContext(false)
		require.NoError(t, err)
		assert.True(t, cctx.Accepts(99))
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		_, err := (&execFlags{env: []string{"NOEQUALS"}}).commandContext(false)
		require.ErrorContains(t, err, "expected NAME=VALUE")

		_, err = (&execFlags{ignoreExit: true}).commandContext(true)
		require.ErrorContains(t, err, "mutually exclusive")
	})
}

func TestExecCommandLine(t *testing.T) {
	t.Parallel()

	sys := mock.New()
	sys.On("TargetOS").Return(giraffe.OSLinux)
	sys.On("URI").Return(&url.URL{Scheme: "exec+mock", Path: "/"}).Maybe()

	tests := []struct {
		name  string
		flags execFlags
		args  []string
		exe   string
		argv  []string
	}{
		{name: "argv", args: []string{"ls", "-l", "a b"}, exe: "ls", argv: []string{"-l", "a b"}},
		{name: "single line is split", args: []string{`grep -r "two words" .`}, exe: "grep", argv: []string{"-r", "two words", "."}},
		{name: "shell", flags: execFlags{shell: true}, args: []string{"echo", "$HOME"}, exe: "sh", argv: []string{"-c", "echo $HOME"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd, err := tt.flags.command(sys, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.exe, cmd.Executable())
			assert.Equal(t, tt.argv, cmd.Args())
		})
	}
}

func TestReportError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, reportError(&exitError{code: 3}))
	assert.Equal(t, exitInterrupted, reportError(giraffe.ErrCancelled))
	assert.Equal(t, 1, reportError(assert.AnError))
}
