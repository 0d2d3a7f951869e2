package ssh

import (
	"testing"

	"github.com/palantir/giraffe-sub000"
	"github.com/stretchr/testify/assert"
)

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"hello", "'hello'"},
		{"hello; whoami", "'hello; whoami'"},
		{"it's", `'it'\''s'`},
		{"'", `\'`},
		{"''", `\'\'`},
		{"'quoted'", `\''quoted'\'`},
		{"`whoami`", "'`whoami`'"},
		{"$HOME", "'$HOME'"},
		{"a\nb", "'a\nb'"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, escape(tt.in))
		})
	}
}

func TestBuildCommandLine(t *testing.T) {
	t.Parallel()

	sys := NewFromClient(nil, NewConfig("example.com", "root"))

	tests := []struct {
		name string
		cmd  *giraffe.Command
		cctx *giraffe.CommandContext
		want string
	}{
		{
			name: "plain",
			cmd:  sys.Command("echo", "hello"),
			cctx: giraffe.DefaultContext(),
			want: "'echo' 'hello'",
		},
		{
			name: "injection attempts stay literal",
			cmd:  sys.Command("echo", "foo|bar", "x; rm -rf /", "it's"),
			cctx: giraffe.DefaultContext(),
			want: `'echo' 'foo|bar' 'x; rm -rf /' 'it'\''s'`,
		},
		{
			name: "empty argument",
			cmd:  sys.Command("printf", "%s", ""),
			cctx: giraffe.DefaultContext(),
			want: "'printf' '%s' ''",
		},
		{
			name: "working directory",
			cmd:  sys.Command("pwd"),
			cctx: giraffe.WithWorkingDirectory("/tmp/O'Neil"),
			want: `cd '/tmp/O'\''Neil' && 'pwd'`,
		},
		{
			name: "default environment with changes is sorted",
			cmd:  sys.Command("env"),
			cctx: giraffe.WithEnvironment(giraffe.DefaultEnvironment().Set("B", "2").Set("A", "don't")),
			want: `env 'A=don'\''t' 'B=2' 'env'`,
		},
		{
			name: "empty environment",
			cmd:  sys.Command("env"),
			cctx: giraffe.WithEnvironment(giraffe.EmptyEnvironment().Set("PATH", "/bin")),
			want: "env -i 'PATH=/bin' 'env'",
		},
		{
			name: "empty environment without changes",
			cmd:  sys.Command("env"),
			cctx: giraffe.WithEnvironment(giraffe.EmptyEnvironment()),
			want: "env -i 'env'",
		},
		{
			name: "directory and environment",
			cmd:  sys.Command("make", "all"),
			cctx: giraffe.NewContextBuilder().
				WorkingDirectory("/src").
				Environment(giraffe.DefaultEnvironment().Set("CC", "clang")).
				Build(),
			want: "cd '/src' && env 'CC=clang' 'make' 'all'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, buildCommandLine(tt.cmd, tt.cctx))
		})
	}
}
