package docker

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
)

const (
	exitPollTimeout = 30 * time.Second
	destroyTimeout  = 10 * time.Second
)

// killScript runs in a second exec and kills the process whose host PID is $1.
// The daemon reports host PIDs, so the script looks for the matching
// /proc/<pid>/sched header to find the PID inside the container's namespace.
const killScript = `for f in /proc/[0-9]*/sched; do
  read -r line < "$f" 2>/dev/null || continue
  case "$line" in *"($1, "*) p=${f#/proc/}; kill -KILL "${p%/sched}"; exit $?;; esac
done
kill -KILL "$1"`

var _ giraffe.Process = (*process)(nil)

// process is one exec instance attached over a hijacked connection.
type process struct {
	cli         client.APIClient
	containerID string
	execID      string
	conn        types.HijackedResponse
	os          giraffe.TargetOS
	log         zerolog.Logger

	stdout *io.PipeReader
	stderr *io.PipeReader
	stdin  io.WriteCloser
	copied chan struct{}

	destroyOnce sync.Once
	closeOnce   sync.Once
}

// buildExecOptions translates a command and its context into an exec request.
// An EMPTY environment is applied through env -i since the daemon always
// merges Env into the container's environment.
func buildExecOptions(cmd *giraffe.Command, cctx *giraffe.CommandContext, tty bool) container.ExecOptions {
	argv := append([]string{cmd.Executable()}, cmd.Args()...)

	env := cctx.Environment()
	changes := env.Changes()

	var vars []string
	for _, name := range env.Names() {
		vars = append(vars, name+"="+changes[name])
	}

	opts := container.ExecOptions{
		AttachStdin:  true,
		AttachStdout: true,
		AttachStderr: true,
		Tty:          tty,
	}

	if env.Base() == giraffe.BaseEmpty {
		opts.Cmd = append(append([]string{"env", "-i"}, vars...), argv...)
	} else {
		opts.Cmd = argv
		opts.Env = vars
	}

	if dir, ok := cctx.WorkingDirectory(); ok {
		opts.WorkingDir = dir
	}

	return opts
}

func startProcess(ctx context.Context, cli client.APIClient, cfg Config, opts container.ExecOptions, log zerolog.Logger) (*process, error) {
	created, err := cli.ContainerExecCreate(ctx, cfg.ContainerID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	conn, err := cli.ContainerExecAttach(ctx, created.ID, container.ExecStartOptions{Tty: opts.Tty})
	if err != nil {
		return nil, fmt.Errorf("failed to attach exec: %w", err)
	}

	outR, outW := io.Pipe()
	errR, errW := io.Pipe()

	p := &process{
		cli:         cli,
		containerID: cfg.ContainerID,
		execID:      created.ID,
		conn:        conn,
		os:          cfg.OS,
		log:         log.With().Str("exec", created.ID).Logger(),
		stdout:      outR,
		stderr:      errR,
		copied:      make(chan struct{}),
	}

	p.stdin = &execStdin{conn: &p.conn}

	go func() {
		defer close(p.copied)

		var err error
		if opts.Tty {
			_, err = io.Copy(outW, conn.Reader)
		} else {
			_, err = stdcopy.StdCopy(outW, errW, conn.Reader)
		}

		_ = outW.CloseWithError(err)
		_ = errW.CloseWithError(err)
	}()

	p.log.Debug().Strs("cmd", opts.Cmd).Msg("exec started")

	return p, nil
}

func (p *process) Stdout() io.Reader     { return p.stdout }
func (p *process) Stderr() io.Reader     { return p.stderr }
func (p *process) Stdin() io.WriteCloser { return p.stdin }

// Wait waits for the output stream to end and then for the daemon to report
// the exec as stopped.
func (p *process) Wait() (int, error) {
	<-p.copied

	inspect, err := pollForExitCode(context.Background(), p.cli, p.execID, exitPollTimeout)
	if err != nil {
		return giraffe.NoExitStatus, fmt.Errorf("failed to inspect exec %s: %w", p.execID, err)
	}

	return inspect.ExitCode, nil
}

// Destroy kills the exec process and drops the connection.
func (p *process) Destroy() {
	p.destroyOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), destroyTimeout)
		defer cancel()

		if err := p.kill(ctx); err != nil {
			p.log.Debug().Err(err).Msg("failed to kill exec process")
		}

		p.conn.Close()
	})
}

func (p *process) kill(ctx context.Context) error {
	if p.os == giraffe.OSWindows {
		return giraffe.ErrNotSupported
	}

	inspect, err := p.cli.ContainerExecInspect(ctx, p.execID)
	if err != nil {
		return err
	}

	if !inspect.Running || inspect.Pid <= 0 {
		return nil
	}

	killer, err := p.cli.ContainerExecCreate(ctx, p.containerID, container.ExecOptions{
		Cmd:    []string{"sh", "-c", killScript, "sh", strconv.Itoa(inspect.Pid)},
		Detach: true,
	})
	if err != nil {
		return err
	}

	return p.cli.ContainerExecStart(ctx, killer.ID, container.ExecStartOptions{Detach: true})
}

// CloseStreams closes the hijacked connection.
func (p *process) CloseStreams() error {
	p.closeOnce.Do(func() {
		p.conn.Close()
	})

	return nil
}

// pollForExitCode polls the daemon until the exec stops or timeout elapses.
func pollForExitCode(ctx context.Context, cli client.APIClient, execID string, timeout time.Duration) (container.ExecInspect, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		inspectResp, err := cli.ContainerExecInspect(pollCtx, execID)
		if err != nil {
			return inspectResp, err
		}

		if !inspectResp.Running {
			return inspectResp, nil
		}

		select {
		case <-pollCtx.Done():
			return inspectResp, pollCtx.Err()
		case <-ticker.C:
		}
	}
}

// execStdin writes to the hijacked connection; Close half-closes it so the
// command sees end of input.
type execStdin struct {
	conn *types.HijackedResponse
}

func (s *execStdin) Write(b []byte) (int, error) {
	return s.conn.Conn.Write(b)
}

func (s *execStdin) Close() error {
	return s.conn.CloseWrite()
}
