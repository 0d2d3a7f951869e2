package giraffe

import (
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var errKilled = errors.New("killed")

// fakeProcess is an in-memory Process driven by the test.
type fakeProcess struct {
	stdoutR, stderrR *io.PipeReader
	stdoutW, stderrW *io.PipeWriter
	stdinR           *io.PipeReader
	stdinW           *io.PipeWriter

	exit      chan int
	killed    chan struct{}
	killOnce  sync.Once
	destroyed atomic.Int32
	closed    atomic.Int32
}

func newFakeProcess() *fakeProcess {
	p := &fakeProcess{
		exit:   make(chan int, 1),
		killed: make(chan struct{}),
	}

	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()
	p.stdinR, p.stdinW = io.Pipe()

	return p
}

func (p *fakeProcess) Stdout() io.Reader     { return p.stdoutR }
func (p *fakeProcess) Stderr() io.Reader     { return p.stderrR }
func (p *fakeProcess) Stdin() io.WriteCloser { return p.stdinW }

func (p *fakeProcess) Wait() (int, error) {
	select {
	case status := <-p.exit:
		return status, nil
	case <-p.killed:
		return 137, nil
	}
}

func (p *fakeProcess) Destroy() {
	p.destroyed.Add(1)
	p.killOnce.Do(func() {
		close(p.killed)
		_ = p.stdoutW.CloseWithError(errKilled)
		_ = p.stderrW.CloseWithError(errKilled)
	})
}

func (p *fakeProcess) CloseStreams() error {
	p.closed.Add(1)
	_ = p.stdoutR.Close()
	_ = p.stderrR.Close()

	return p.stdinW.Close()
}

// finish writes the output, closes the output streams and exits with status.
func (p *fakeProcess) finish(status int, stdout, stderr string) {
	go func() {
		_, _ = io.WriteString(p.stdoutW, stdout)
		_ = p.stdoutW.Close()
	}()

	go func() {
		_, _ = io.WriteString(p.stderrW, stderr)
		_ = p.stderrW.Close()
	}()

	p.exit <- status
}

// fakeSystem runs every command with start.
type fakeSystem struct {
	pool  *Pool
	uri   *url.URL
	start StartFunc
}

func newFakeSystem(start StartFunc) *fakeSystem {
	return &fakeSystem{
		pool:  NewPool(zerolog.Nop()),
		uri:   &url.URL{Scheme: "exec+fake", Host: "test", Path: "/"},
		start: start,
	}
}

// systemFor returns a system whose commands all run proc.
func systemFor(proc *fakeProcess) *fakeSystem {
	return newFakeSystem(func(context.Context) (Process, error) { return proc, nil })
}

// gatedSystemFor returns a system whose start signals started, then blocks
// until gate is closed before handing out proc.
func gatedSystemFor(proc *fakeProcess, started chan<- struct{}, gate <-chan struct{}) *fakeSystem {
	return newFakeSystem(func(context.Context) (Process, error) {
		close(started)
		<-gate

		return proc, nil
	})
}

func (s *fakeSystem) Close() error       { return s.pool.Close() }
func (s *fakeSystem) URI() *url.URL      { return s.uri }
func (s *fakeSystem) IsOpen() bool       { return !s.pool.IsClosed() }
func (s *fakeSystem) TargetOS() TargetOS { return OSLinux }

func (s *fakeSystem) Command(executable string, args ...any) *Command {
	return NewCommand(s, executable, args...)
}

func (s *fakeSystem) Execute(cmd *Command, cctx *CommandContext) (*Future, error) {
	if err := CheckOwnership(s, cmd); err != nil {
		return nil, err
	}

	return s.pool.Submit(cmd, cctx, s.start)
}
