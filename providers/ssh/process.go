package ssh

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

var _ giraffe.Process = (*process)(nil)

// process is one command running in its own SSH session.
type process struct {
	session *ssh.Session
	client  *sharedClient
	log     zerolog.Logger

	stdout io.Reader
	stderr io.Reader
	stdin  io.WriteCloser

	destroyOnce sync.Once
	closeOnce   sync.Once
	closeErr    error
}

// startProcess opens a session on client and starts line in it. The caller
// has acquired a reference on shared, which the process releases in CloseStreams.
func startProcess(client *ssh.Client, shared *sharedClient, line string, tty bool, log zerolog.Logger) (*process, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create ssh session: %w", err)
	}

	p := &process{session: session, client: shared, log: log}

	if err := p.attach(tty); err != nil {
		_ = session.Close()
		return nil, err
	}

	log.Debug().Str("line", line).Msg("starting remote command")

	if err := session.Start(line); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to start remote command: %w", err)
	}

	return p, nil
}

func (p *process) attach(tty bool) error {
	var err error

	if p.stdout, err = p.session.StdoutPipe(); err != nil {
		return err
	}

	if p.stderr, err = p.session.StderrPipe(); err != nil {
		return err
	}

	if p.stdin, err = p.session.StdinPipe(); err != nil {
		return err
	}

	if tty {
		if err := p.session.RequestPty("xterm", 40, 80, terminalModes()); err != nil {
			return fmt.Errorf("request for pty failed: %w", err)
		}
	}

	return nil
}

func (p *process) Stdout() io.Reader     { return p.stdout }
func (p *process) Stderr() io.Reader     { return p.stderr }
func (p *process) Stdin() io.WriteCloser { return p.stdin }

// Wait returns the remote exit status, or NoExitStatus when the server closed
// the session without reporting one. Commands killed by a signal report 128+signal.
func (p *process) Wait() (int, error) {
	err := p.session.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitStatus(), nil
	}

	var missingErr *ssh.ExitMissingError
	if errors.As(err, &missingErr) {
		return giraffe.NoExitStatus, nil
	}

	return giraffe.NoExitStatus, err
}

// Destroy asks the server to terminate the command, then closes the session.
func (p *process) Destroy() {
	p.destroyOnce.Do(func() {
		for _, sig := range []ssh.Signal{ssh.SIGTERM, ssh.SIGKILL} {
			if err := p.session.Signal(sig); err != nil {
				p.log.Debug().Err(err).Str("signal", string(sig)).Msg("failed to signal remote process")
			}
		}

		if err := p.session.Close(); err != nil && !errors.Is(err, io.EOF) {
			p.log.Info().Err(err).Msg("failed to close session, server may not support process termination")
		}
	})
}

// CloseStreams closes stdin and the session and releases the client.
func (p *process) CloseStreams() error {
	p.closeOnce.Do(func() {
		var errs []error

		if err := p.stdin.Close(); err != nil && !errors.Is(err, io.EOF) {
			errs = append(errs, err)
		}

		if err := p.session.Close(); err != nil && !errors.Is(err, io.EOF) {
			errs = append(errs, err)
		}

		if err := p.client.release(); err != nil {
			errs = append(errs, err)
		}

		p.closeErr = errors.Join(errs...)
	})

	return p.closeErr
}
