package docker

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/docker/docker/client"
	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
)

// Config holds the parameters of a Docker execution system.
type Config struct {
	// ContainerID is the name or ID of the running container commands execute in.
	ContainerID string

	// Host is the daemon address, e.g. "unix:///var/run/docker.sock". Empty means DOCKER_HOST.
	Host string
	// Version pins the API version. Empty means negotiation.
	Version    string
	HTTPClient *http.Client

	// OS is the container's operating system (default OSLinux).
	OS giraffe.TargetOS

	// TTY allocates a pseudo-terminal for every exec.
	TTY    bool
	Logger zerolog.Logger
}

// NewConfig creates a configuration for a target container.
func NewConfig(containerID string) Config {
	return Config{
		ContainerID: containerID,
		Logger:      zerolog.Nop(),
	}
}

// WithDefaults fills zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.OS == giraffe.OSUnknown {
		c.OS = giraffe.OSLinux
	}

	return c
}

// Validate checks that the required configuration is present.
func (c Config) Validate() error {
	if c.ContainerID == "" {
		return errors.New("ContainerID is required")
	}

	return nil
}

// ClientOpts converts c into Docker client options. DOCKER_HOST and the
// related variables apply unless overridden.
func (c Config) ClientOpts() []client.Opt {
	opts := []client.Opt{
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	}

	if c.Host != "" {
		opts = append(opts, client.WithHost(c.Host))
	}

	if c.Version != "" {
		opts = append(opts, client.WithVersion(c.Version))
	}

	if c.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(c.HTTPClient))
	}

	return opts
}

// URI returns exec+docker://<container>/.
func (c Config) URI() *url.URL {
	return &url.URL{Scheme: Scheme, Host: c.ContainerID, Path: "/"}
}
