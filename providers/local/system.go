package local

import (
	"context"
	"fmt"
	"net/url"

	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
)

// Scheme is the URI scheme of the local execution system.
const Scheme = "exec"

var _ giraffe.System = (*System)(nil)

var _ giraffe.FileTransferer = (*System)(nil)

// System implements giraffe.System for the local operating system.
type System struct {
	cfg     Config
	uri     *url.URL
	pool    *giraffe.Pool
	tracker *Tracker
	log     zerolog.Logger
}

// New creates a local execution system.
func New(opts ...Option) (*System, error) {
	cfg := NewConfig(opts...)
	log := cfg.Logger.With().Str("component", "local").Logger()

	return &System{
		cfg:     cfg,
		uri:     &url.URL{Scheme: Scheme, Path: "/"},
		pool:    giraffe.NewPool(log),
		tracker: NewTracker(),
		log:     log,
	}, nil
}

// URI returns exec:///.
func (s *System) URI() *url.URL {
	u := *s.uri
	return &u
}

// IsOpen reports whether the system accepts commands.
func (s *System) IsOpen() bool {
	return !s.pool.IsClosed()
}

// TargetOS returns the operating system of the host machine.
func (s *System) TargetOS() giraffe.TargetOS {
	return s.cfg.TargetOS
}

// Command creates a command bound to this system.
func (s *System) Command(executable string, args ...any) *giraffe.Command {
	return giraffe.NewCommand(s, executable, args...)
}

// Execute launches cmd asynchronously.
func (s *System) Execute(cmd *giraffe.Command, cctx *giraffe.CommandContext) (*giraffe.Future, error) {
	if err := giraffe.CheckOwnership(s, cmd); err != nil {
		return nil, err
	}

	if cctx == nil {
		cctx = giraffe.DefaultContext()
	}

	return s.pool.Submit(cmd, cctx, s.starter(cmd, cctx))
}

// ActiveProcesses returns the number of executions still running.
func (s *System) ActiveProcesses() int {
	return s.pool.Active()
}

// Close interrupts running commands and destroys every process still alive.
func (s *System) Close() error {
	if s.pool.IsClosed() {
		return nil
	}

	err := s.pool.Close()

	s.tracker.Shutdown()
	s.log.Debug().Msg("local execution system closed")

	return err
}

func (s *System) starter(cmd *giraffe.Command, cctx *giraffe.CommandContext) giraffe.StartFunc {
	return func(ctx context.Context) (giraffe.Process, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		proc, err := newProcess(cmd, cctx, s.cfg)
		if err != nil {
			return nil, err
		}

		if err := s.tracker.Add(proc); err != nil {
			_ = proc.CloseStreams()
			return nil, err
		}

		proc.onExit = func() { s.tracker.Remove(proc) }

		if err := proc.start(); err != nil {
			s.tracker.Remove(proc)
			return nil, err
		}

		s.log.Debug().Int("pid", proc.pid()).Str("command", cmd.String()).Msg("process started")

		return proc, nil
	}
}

// Provider creates the local execution system for exec:///.
type Provider struct{}

// Scheme returns "exec".
func (Provider) Scheme() string {
	return Scheme
}

// NewSystem validates uri and creates a local system. Supported attributes are
// "tty" (bool), "logger" (zerolog.Logger) and "env-whitelist" ([]string or a
// comma-separated string).
func (Provider) NewSystem(_ context.Context, uri *url.URL, attrs giraffe.Attributes) (giraffe.System, error) {
	if err := validateURI(uri); err != nil {
		return nil, err
	}

	return New(optionsFromAttributes(attrs)...)
}

func validateURI(uri *url.URL) error {
	switch {
	case uri.Scheme != Scheme:
		return fmt.Errorf("invalid local URI %q: scheme must be %q", uri, Scheme)
	case uri.Opaque != "" || uri.User != nil || uri.Host != "":
		return fmt.Errorf("invalid local URI %q: authority is not allowed", uri)
	case uri.Path != "/":
		return fmt.Errorf("invalid local URI %q: path must be /", uri)
	case uri.RawQuery != "" || uri.Fragment != "":
		return fmt.Errorf("invalid local URI %q: query and fragment are not allowed", uri)
	}

	return nil
}

func init() {
	giraffe.Register(Provider{})
}
