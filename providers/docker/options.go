package docker

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
)

// Option defines a functional option for the Docker provider.
type Option func(*Config)

// WithConfig replaces the whole configuration with c.
func WithConfig(c Config) Option {
	return func(cfg *Config) {
		*cfg = c
	}
}

// WithContainerID sets the target container.
func WithContainerID(id string) Option {
	return func(c *Config) {
		c.ContainerID = id
	}
}

// WithHost sets the Docker daemon host.
func WithHost(host string) Option {
	return func(c *Config) {
		c.Host = host
	}
}

// WithVersion sets the Docker API version.
func WithVersion(version string) Option {
	return func(c *Config) {
		c.Version = version
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTargetOS sets the container operating system.
func WithTargetOS(os giraffe.TargetOS) Option {
	return func(c *Config) {
		c.OS = os
	}
}

// WithTTY allocates a pseudo-terminal for every exec.
func WithTTY() Option {
	return func(c *Config) {
		c.TTY = true
	}
}

// WithLogger sets the logger used by the system.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// optionsFromURI validates an exec+docker://<container>/ URI and maps it and
// attrs to options.
func optionsFromURI(uri *url.URL, attrs giraffe.Attributes) ([]Option, error) {
	switch {
	case uri.Scheme != Scheme:
		return nil, fmt.Errorf("invalid docker URI %q: scheme must be %q", uri, Scheme)
	case uri.User != nil || uri.Port() != "":
		return nil, fmt.Errorf("invalid docker URI %q: user and port are not allowed", uri)
	case uri.Hostname() == "":
		return nil, fmt.Errorf("invalid docker URI %q: container is required", uri)
	case uri.Path != "/":
		return nil, fmt.Errorf("invalid docker URI %q: path must be /", uri)
	case uri.RawQuery != "" || uri.Fragment != "":
		return nil, fmt.Errorf("invalid docker URI %q: query and fragment are not allowed", uri)
	}

	opts := []Option{WithContainerID(uri.Hostname())}

	if v := attrs.String("host"); v != "" {
		opts = append(opts, WithHost(v))
	}

	if v := attrs.String("version"); v != "" {
		opts = append(opts, WithVersion(v))
	}

	if v := attrs.String("os"); v != "" {
		opts = append(opts, WithTargetOS(giraffe.ParseTargetOS(v)))
	}

	if attrs.Bool("tty") {
		opts = append(opts, WithTTY())
	}

	if v, ok := attrs.Value("logger"); ok {
		if log, ok := v.(zerolog.Logger); ok {
			opts = append(opts, WithLogger(log))
		}
	}

	return opts, nil
}
