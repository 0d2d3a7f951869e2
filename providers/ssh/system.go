package ssh

import (
	"context"
	"fmt"
	"net/url"

	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// Scheme is the URI scheme of SSH execution systems.
const Scheme = "exec+ssh"

var _ giraffe.System = (*System)(nil)

var _ giraffe.FileTransferer = (*System)(nil)

// System implements giraffe.System on a remote host. Every command runs in
// its own session on one shared connection.
type System struct {
	cfg    Config
	uri    *url.URL
	pool   *giraffe.Pool
	client *sharedClient
	log    zerolog.Logger
}

// New dials the host described by opts and returns a system owning the connection.
func New(ctx context.Context, opts ...Option) (*System, error) {
	cfg := NewConfig("", "")
	for _, opt := range opts {
		opt(&cfg)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return newSystem(newSharedClient(client, false), cfg), nil
}

// NewFromClient creates a system on an existing connection. The caller keeps
// ownership of client; closing the system does not close it.
func NewFromClient(client *ssh.Client, cfg Config) *System {
	return newSystem(newSharedClient(client, true), cfg.WithDefaults())
}

func newSystem(client *sharedClient, cfg Config) *System {
	log := cfg.Logger.With().Str("component", "ssh").Str("host", cfg.Address()).Logger()

	return &System{
		cfg:    cfg,
		uri:    cfg.URI(),
		pool:   giraffe.NewPool(log),
		client: client,
		log:    log,
	}
}

// URI returns exec+ssh://user@host:port/.
func (s *System) URI() *url.URL {
	u := *s.uri
	return &u
}

// IsOpen reports whether the system accepts commands.
func (s *System) IsOpen() bool {
	return !s.pool.IsClosed()
}

// TargetOS returns the configured remote operating system.
func (s *System) TargetOS() giraffe.TargetOS {
	return s.cfg.OS
}

// Command creates a command bound to this system.
func (s *System) Command(executable string, args ...any) *giraffe.Command {
	return giraffe.NewCommand(s, executable, args...)
}

// Execute launches cmd in a new session.
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

// Close interrupts running commands and releases the connection.
func (s *System) Close() error {
	if s.pool.IsClosed() {
		return nil
	}

	poolErr := s.pool.Close()

	if err := s.client.release(); err != nil {
		return fmt.Errorf("failed to close ssh connection: %w", err)
	}

	s.log.Debug().Msg("ssh execution system closed")

	return poolErr
}

func (s *System) starter(cmd *giraffe.Command, cctx *giraffe.CommandContext) giraffe.StartFunc {
	return func(ctx context.Context) (giraffe.Process, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		client, err := s.client.acquire()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", giraffe.ErrSystemClosed, err)
		}

		proc, err := startProcess(client, s.client, buildCommandLine(cmd, cctx), s.cfg.TTY, s.log)
		if err != nil {
			_ = s.client.release()
			return nil, err
		}

		return proc, nil
	}
}

// Provider creates SSH systems for exec+ssh://user@host:port/ URIs.
type Provider struct{}

// Scheme returns "exec+ssh".
func (Provider) Scheme() string {
	return Scheme
}

// NewSystem dials the host named by uri. Supported attributes are "password",
// "private-key", "private-key-path", "use-agent", "insecure-skip-verify",
// "timeout", "os", "tty", "logger" (zerolog.Logger) and "client" (*ssh.Client,
// used instead of dialling and never closed by the system).
func (Provider) NewSystem(ctx context.Context, uri *url.URL, attrs giraffe.Attributes) (giraffe.System, error) {
	opts, err := optionsFromURI(uri, attrs)
	if err != nil {
		return nil, err
	}

	if v, ok := attrs.Value("client"); ok {
		client, ok := v.(*ssh.Client)
		if !ok {
			return nil, fmt.Errorf("attribute client: expected *ssh.Client, got %T", v)
		}

		cfg := NewConfig("", "")
		for _, opt := range opts {
			opt(&cfg)
		}

		return NewFromClient(client, cfg), nil
	}

	return New(ctx, opts...)
}

func init() {
	giraffe.Register(Provider{})
}
