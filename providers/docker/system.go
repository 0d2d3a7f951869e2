package docker

import (
	"context"
	"fmt"
	"net/url"

	"github.com/docker/docker/client"
	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
)

// Scheme is the URI scheme of Docker execution systems.
const Scheme = "exec+docker"

var _ giraffe.System = (*System)(nil)

var _ giraffe.FileTransferer = (*System)(nil)

// System implements giraffe.System inside a running container. Every command
// is a separate exec instance.
type System struct {
	cfg    Config
	uri    *url.URL
	pool   *giraffe.Pool
	client client.APIClient
	log    zerolog.Logger
}

// New connects to the Docker daemon described by opts.
func New(opts ...Option) (*System, error) {
	cfg := NewConfig("")
	for _, opt := range opts {
		opt(&cfg)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cli, err := client.NewClientWithOpts(cfg.ClientOpts()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	return newSystem(cli, cfg), nil
}

func newSystem(cli client.APIClient, cfg Config) *System {
	log := cfg.Logger.With().Str("component", "docker").Str("container", cfg.ContainerID).Logger()

	return &System{
		cfg:    cfg,
		uri:    cfg.URI(),
		pool:   giraffe.NewPool(log),
		client: cli,
		log:    log,
	}
}

// URI returns exec+docker://<container>/.
func (s *System) URI() *url.URL {
	u := *s.uri
	return &u
}

// IsOpen reports whether the system accepts commands.
func (s *System) IsOpen() bool {
	return !s.pool.IsClosed()
}

// TargetOS returns the configured container operating system.
func (s *System) TargetOS() giraffe.TargetOS {
	return s.cfg.OS
}

// Command creates a command bound to this system.
func (s *System) Command(executable string, args ...any) *giraffe.Command {
	return giraffe.NewCommand(s, executable, args...)
}

// Execute launches cmd as a new exec instance.
func (s *System) Execute(cmd *giraffe.Command, cctx *giraffe.CommandContext) (*giraffe.Future, error) {
	if err := giraffe.CheckOwnership(s, cmd); err != nil {
		return nil, err
	}

	if cctx == nil {
		cctx = giraffe.DefaultContext()
	}

	return s.pool.Submit(cmd, cctx, func(ctx context.Context) (giraffe.Process, error) {
		return startProcess(ctx, s.client, s.cfg, buildExecOptions(cmd, cctx, s.cfg.TTY), s.log)
	})
}

// ActiveProcesses returns the number of executions still running.
func (s *System) ActiveProcesses() int {
	return s.pool.Active()
}

// Close interrupts running commands and closes the daemon client.
func (s *System) Close() error {
	if s.pool.IsClosed() {
		return nil
	}

	poolErr := s.pool.Close()

	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close docker client: %w", err)
	}

	s.log.Debug().Msg("docker execution system closed")

	return poolErr
}

// Provider creates Docker systems for exec+docker://<container>/ URIs.
type Provider struct{}

// Scheme returns "exec+docker".
func (Provider) Scheme() string {
	return Scheme
}

// NewSystem connects to the daemon for the container named by uri. Supported
// attributes are "host", "version", "os", "tty" and "logger" (zerolog.Logger).
func (Provider) NewSystem(_ context.Context, uri *url.URL, attrs giraffe.Attributes) (giraffe.System, error) {
	opts, err := optionsFromURI(uri, attrs)
	if err != nil {
		return nil, err
	}

	return New(opts...)
}

func init() {
	giraffe.Register(Provider{})
}
