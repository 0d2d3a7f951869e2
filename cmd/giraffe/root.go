package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/palantir/giraffe-sub000"
	"github.com/palantir/giraffe-sub000/providers/docker"
	"github.com/palantir/giraffe-sub000/providers/ssh"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type globalFlags struct {
	uri        string
	logLevel   string
	password   string
	key        string
	insecure   bool
	sshConfig  string
	dockerHost string

	log zerolog.Logger
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "giraffe",
		Short:         "Run commands on local, SSH and Docker execution systems",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := newLogger(cmd.ErrOrStderr(), g.logLevel)
			if err != nil {
				return err
			}

			g.log = log

			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.uri, "uri", giraffe.LocalURI, "execution system URI (exec:///, exec+ssh://user@host:port/, exec+docker://container/)")
	flags.StringVar(&g.logLevel, "log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&g.password, "password", "", "SSH password")
	flags.StringVar(&g.key, "key", "", "path to an SSH private key")
	flags.BoolVar(&g.insecure, "insecure", false, "skip SSH host key verification")
	flags.StringVar(&g.sshConfig, "ssh-config", "", "resolve SSH hosts through this OpenSSH config file")
	flags.StringVar(&g.dockerHost, "docker-host", "", "Docker daemon address (defaults to DOCKER_HOST)")

	root.AddCommand(newExecCommand(g), newCheckCommand(g))

	return root
}

func newLogger(out io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	noColor := true
	if f, ok := out.(*os.File); ok {
		noColor = !term.IsTerminal(int(f.Fd()))
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: noColor}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

// resolve turns a URI and the global flags into the arguments for
// giraffe.NewSystem. An exec+ssh URI naming only a host is looked up in
// the --ssh-config file.
func (g *globalFlags) resolve(uri string, tty bool) (string, giraffe.Attributes, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", nil, fmt.Errorf("invalid URI %q: %w", uri, err)
	}

	attrs := giraffe.Attributes{"logger": g.log}
	if tty {
		attrs["tty"] = true
	}

	switch u.Scheme {
	case ssh.Scheme:
		if u.User == nil || u.Port() == "" {
			cfg, err := ssh.NewFromSSHConfig(u.Hostname(), g.sshConfig)
			if err != nil {
				return "", nil, err
			}

			uri = cfg.URI().String()

			if cfg.PrivateKeyPath != "" {
				attrs["private-key-path"] = cfg.PrivateKeyPath
			}

			if cfg.InsecureSkipVerify {
				attrs["insecure-skip-verify"] = true
			}
		}

		g.sshAttributes(attrs)
	case docker.Scheme:
		if g.dockerHost != "" {
			attrs["host"] = g.dockerHost
		}
	}

	return uri, attrs, nil
}

func (g *globalFlags) sshAttributes(attrs giraffe.Attributes) {
	if g.password != "" {
		attrs["password"] = g.password
	}

	if g.key != "" {
		attrs["private-key-path"] = g.key
	}

	if g.insecure {
		attrs["insecure-skip-verify"] = true
	}

	if _, hasKey := attrs["private-key-path"]; !hasKey && g.password == "" && os.Getenv("SSH_AUTH_SOCK") != "" {
		attrs["use-agent"] = true
	}
}

// open creates the execution system for uri.
func (g *globalFlags) open(ctx context.Context, uri string, tty bool) (giraffe.System, error) {
	resolved, attrs, err := g.resolve(uri, tty)
	if err != nil {
		return nil, err
	}

	g.log.Debug().Str("uri", resolved).Msg("opening execution system")

	return giraffe.NewSystem(ctx, resolved, attrs)
}
