package local

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/palantir/giraffe-sub000"
)

var _ giraffe.Process = (*process)(nil)

// process implements giraffe.Process for a local child process. The parent
// keeps its own ends of explicit os.Pipe pairs so that exec.Cmd.Wait never
// closes streams the copy loops are still reading.
type process struct {
	cmd *exec.Cmd
	tty bool

	stdout io.Reader
	stderr io.Reader
	stdin  io.WriteCloser

	// files the parent closes in CloseStreams
	parentFiles []*os.File
	// child ends closed in the parent once the child has started
	childFiles []*os.File

	onExit func()

	waitOnce sync.Once
	status   int
	waitErr  error

	destroyOnce sync.Once
}

func newProcess(cmd *giraffe.Command, cctx *giraffe.CommandContext, cfg Config) (*process, error) {
	c := exec.Command(cmd.Executable(), cmd.Args()...) //nolint:gosec // running arbitrary commands is the point

	if dir, ok := cctx.WorkingDirectory(); ok {
		c.Dir = dir
	}

	c.Env = buildEnv(cctx.Environment(), cfg)

	p := &process{cmd: c, tty: cfg.TTY, status: giraffe.NoExitStatus}

	if cfg.TTY {
		return p, nil
	}

	setProcessGroup(c)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		closeFiles(stdoutR, stdoutW)
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		closeFiles(stdoutR, stdoutW, stderrR, stderrW)
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	c.Stdout = stdoutW
	c.Stderr = stderrW
	c.Stdin = stdinR

	p.stdout = stdoutR
	p.stderr = stderrR
	p.stdin = stdinW
	p.parentFiles = []*os.File{stdoutR, stderrR, stdinW}
	p.childFiles = []*os.File{stdoutW, stderrW, stdinR}

	return p, nil
}

func (p *process) start() error {
	if p.tty {
		return p.startTTY()
	}

	err := p.cmd.Start()

	// the child holds its own copies; ours would keep the pipes from reaching EOF
	closeFiles(p.childFiles...)
	p.childFiles = nil

	if err != nil {
		closeFiles(p.parentFiles...)
		return err
	}

	return nil
}

func (p *process) pid() int {
	if p.cmd.Process == nil {
		return 0
	}

	return p.cmd.Process.Pid
}

func (p *process) Stdout() io.Reader     { return p.stdout }
func (p *process) Stderr() io.Reader     { return p.stderr }
func (p *process) Stdin() io.WriteCloser { return p.stdin }

// Wait blocks until the child exits. A child killed by a signal reports 128+signal.
func (p *process) Wait() (int, error) {
	p.waitOnce.Do(func() {
		defer func() {
			if p.onExit != nil {
				p.onExit()
			}
		}()

		err := p.cmd.Wait()

		var exitErr *exec.ExitError
		if err != nil && !errors.As(err, &exitErr) {
			p.waitErr = err
			return
		}

		p.status = exitStatus(p.cmd.ProcessState)
	})

	return p.status, p.waitErr
}

// Destroy kills the child and everything in its process group.
func (p *process) Destroy() {
	p.destroyOnce.Do(func() {
		pid := p.pid()
		if pid <= 0 {
			return
		}

		if err := killProcessGroup(pid); err != nil {
			_ = p.cmd.Process.Kill()
		}
	})
}

// CloseStreams closes the parent's ends of the streams.
func (p *process) CloseStreams() error {
	var last error

	for _, f := range p.parentFiles {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			last = err
		}
	}

	return last
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}
