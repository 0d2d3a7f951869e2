package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/palantir/giraffe-sub000"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

const (
	exitTimedOut    = 124
	exitInterrupted = 130
)

type execFlags struct {
	dir        string
	env        []string
	emptyEnv   bool
	ignoreExit bool
	exitStatus int
	timeout    time.Duration
	tty        bool
	shell      bool
	stdin      bool
}

func newExecCommand(g *globalFlags) *cobra.Command {
	f := &execFlags{}

	cmd := &cobra.Command{
		Use:   "exec [flags] -- executable [args...]",
		Short: "Run one command and stream its output",
		Long: `Runs a command on the system named by --uri, streams its output live and
exits with the command's exit status. A single argument is split like a
shell would split it; --shell runs the arguments as a script instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runExec(ctx, cmd, g, f, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.dir, "dir", "", "working directory for the command")
	flags.StringArrayVar(&f.env, "env", nil, "set an environment variable (K=V, repeatable)")
	flags.BoolVar(&f.emptyEnv, "empty-env", false, "start from an empty environment instead of the system default")
	flags.BoolVar(&f.ignoreExit, "ignore-exit", false, "accept any exit status")
	flags.IntVar(&f.exitStatus, "exit-status", 0, "the exit status that counts as success")
	flags.DurationVar(&f.timeout, "timeout", 0, "cancel the command after this long (0 waits forever)")
	flags.BoolVar(&f.tty, "tty", false, "allocate a terminal for the command")
	flags.BoolVar(&f.shell, "shell", false, "run the arguments as a script in the system shell")
	flags.BoolVar(&f.stdin, "stdin", false, "forward standard input to the command")

	return cmd
}

func runExec(ctx context.Context, cmd *cobra.Command, g *globalFlags, f *execFlags, args []string) error {
	cctx, err := f.commandContext(cmd.Flags().Changed("exit-status"))
	if err != nil {
		return err
	}

	sys, err := g.open(ctx, g.uri, f.tty)
	if err != nil {
		return err
	}

	defer func() { _ = sys.Close() }()

	command, err := f.command(sys, args)
	if err != nil {
		return err
	}

	g.log.Debug().Str("command", command.String()).Msg("executing")

	future, err := giraffe.ExecuteAsync(command, cctx)
	if err != nil {
		return err
	}

	var copiers errgroup.Group

	copiers.Go(func() error { return copyLive(cmd.OutOrStdout(), future.Stdout()) })
	copiers.Go(func() error { return copyLive(cmd.ErrOrStderr(), future.Stderr()) })

	restore, err := f.forwardStdin(cmd.InOrStdin(), future)
	if err != nil {
		future.Cancel()
		return err
	}

	defer restore()

	res, waitErr := wait(ctx, future, f.timeout)

	if err := copiers.Wait(); err != nil {
		g.log.Debug().Err(err).Msg("output stream ended with an error")
	}

	return finish(cmd, g, res, waitErr)
}

// finish writes output drained into the result after the live copiers
// stopped, and maps the outcome to an exit status.
func finish(cmd *cobra.Command, g *globalFlags, res *giraffe.Result, err error) error {
	var cmdErr *giraffe.CommandError

	switch {
	case err == nil:
	case errors.As(err, &cmdErr):
		res = cmdErr.Result
		g.log.Debug().Msg(cmdErr.Error())
	case errors.Is(err, errTimedOut):
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("giraffe: "+err.Error()))
		return &exitError{code: exitTimedOut}
	default:
		return err
	}

	if res != nil {
		_, _ = io.WriteString(cmd.OutOrStdout(), res.Stdout)
		_, _ = io.WriteString(cmd.ErrOrStderr(), res.Stderr)
	}

	switch {
	case cmdErr != nil && cmdErr.ExitStatus() == 0:
		// success was redefined by --exit-status
		return &exitError{code: 1}
	case cmdErr != nil:
		return &exitError{code: cmdErr.ExitStatus()}
	case res != nil && res.ExitStatus != 0:
		return &exitError{code: res.ExitStatus}
	default:
		return nil
	}
}

var errTimedOut = errors.New("command timed out")

// wait blocks until future resolves, cancelling it when ctx ends or timeout
// elapses.
func wait(ctx context.Context, future *giraffe.Future, timeout time.Duration) (*giraffe.Result, error) {
	var expired <-chan time.Time

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		expired = timer.C
	}

	select {
	case <-future.Done():
	case <-ctx.Done():
		future.Cancel()
	case <-expired:
		if future.Cancel() {
			return nil, fmt.Errorf("%w after %s", errTimedOut, timeout)
		}
	}

	return giraffe.WaitFor(future)
}

func (f *execFlags) commandContext(exitStatusSet bool) (*giraffe.CommandContext, error) {
	env := giraffe.DefaultEnvironment()
	if f.emptyEnv {
		env = giraffe.EmptyEnvironment()
	}

	for _, kv := range f.env {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --env %q: expected NAME=VALUE", kv)
		}

		env.Set(name, value)
	}

	b := giraffe.NewContextBuilder().Environment(env)

	switch {
	case f.ignoreExit && exitStatusSet:
		return nil, errors.New("--ignore-exit and --exit-status are mutually exclusive")
	case f.ignoreExit:
		b.IgnoreExitStatus()
	case exitStatusSet:
		b.RequireExitStatus(f.exitStatus)
	}

	if f.dir != "" {
		b.WorkingDirectory(f.dir)
	}

	return b.Build(), nil
}

func (f *execFlags) command(sys giraffe.System, args []string) (*giraffe.Command, error) {
	switch {
	case f.shell:
		return giraffe.ShellCommand(sys, strings.Join(args, " ")), nil
	case len(args) == 1:
		return giraffe.ParseCommand(sys, args[0])
	default:
		rest := make([]any, 0, len(args)-1)
		for _, a := range args[1:] {
			rest = append(rest, a)
		}

		return sys.Command(args[0], rest...), nil
	}
}

// forwardStdin copies in to the command when --stdin is set and closes the
// command's input otherwise. With --tty on a terminal, the terminal is put
// in raw mode until the returned func runs.
func (f *execFlags) forwardStdin(in io.Reader, future *giraffe.Future) (func(), error) {
	if !f.stdin {
		return func() {}, future.Stdin().Close()
	}

	restore := func() {}

	if file, ok := in.(*os.File); ok && f.tty && term.IsTerminal(int(file.Fd())) {
		fd := int(file.Fd())

		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("failed to put terminal in raw mode: %w", err)
		}

		restore = func() { _ = term.Restore(fd, state) }
	}

	go func() {
		_, _ = io.Copy(future.Stdin(), in)
		_ = future.Stdin().Close()
	}()

	return restore, nil
}

func copyLive(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}
