package ssh

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// Option defines a functional option for the SSH provider.
type Option func(*Config)

// WithConfig replaces the whole configuration with c.
func WithConfig(c Config) Option {
	return func(cfg *Config) {
		*cfg = c
	}
}

// WithHost sets the target hostname.
func WithHost(host string) Option {
	return func(c *Config) {
		c.Host = host
	}
}

// WithUser sets the SSH user.
func WithUser(user string) Option {
	return func(c *Config) {
		c.User = user
	}
}

// WithPort sets the SSH port.
func WithPort(port int) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithPassword sets the SSH password.
func WithPassword(password string) Option {
	return func(c *Config) {
		c.Password = password
	}
}

// WithKeyPath sets the path to the private key file.
func WithKeyPath(path string) Option {
	return func(c *Config) {
		c.PrivateKeyPath = path
	}
}

// WithPrivateKey sets PEM encoded private key content.
func WithPrivateKey(pem string) Option {
	return func(c *Config) {
		c.PrivateKey = pem
	}
}

// WithUseAgent enables authentication through SSH_AUTH_SOCK.
func WithUseAgent(use bool) Option {
	return func(c *Config) {
		c.UseAgent = use
	}
}

// WithInsecureSkipVerify enables/disables strict host key checking.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Config) {
		c.InsecureSkipVerify = skip
	}
}

// WithHostKeyCallback sets the host key verifier.
func WithHostKeyCallback(cb ssh.HostKeyCallback) Option {
	return func(c *Config) {
		c.HostKeyCheck = cb
	}
}

// WithTimeout sets the dial timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithTTY allocates a pseudo-terminal for every command.
func WithTTY() Option {
	return func(c *Config) {
		c.TTY = true
	}
}

// WithTargetOS sets the remote operating system.
func WithTargetOS(os giraffe.TargetOS) Option {
	return func(c *Config) {
		c.OS = os
	}
}

// WithLogger sets the logger used by the system.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// optionsFromURI validates an exec+ssh://user@host:port/ URI and maps it and
// attrs to options.
func optionsFromURI(uri *url.URL, attrs giraffe.Attributes) ([]Option, error) {
	switch {
	case uri.Scheme != Scheme:
		return nil, fmt.Errorf("invalid ssh URI %q: scheme must be %q", uri, Scheme)
	case uri.User == nil || uri.User.Username() == "":
		return nil, fmt.Errorf("invalid ssh URI %q: user is required", uri)
	case uri.Hostname() == "":
		return nil, fmt.Errorf("invalid ssh URI %q: host is required", uri)
	case uri.Port() == "":
		return nil, fmt.Errorf("invalid ssh URI %q: port is required", uri)
	case uri.Path != "/":
		return nil, fmt.Errorf("invalid ssh URI %q: path must be /", uri)
	case uri.RawQuery != "" || uri.Fragment != "":
		return nil, fmt.Errorf("invalid ssh URI %q: query and fragment are not allowed", uri)
	}

	port, err := strconv.Atoi(uri.Port())
	if err != nil {
		return nil, fmt.Errorf("invalid ssh URI %q: %w", uri, err)
	}

	opts := []Option{
		WithHost(uri.Hostname()),
		WithUser(uri.User.Username()),
		WithPort(port),
	}

	if pass, ok := uri.User.Password(); ok {
		opts = append(opts, WithPassword(pass))
	}

	if v := attrs.String("password"); v != "" {
		opts = append(opts, WithPassword(v))
	}

	if v := attrs.String("private-key"); v != "" {
		opts = append(opts, WithPrivateKey(v))
	}

	if v := attrs.String("private-key-path"); v != "" {
		opts = append(opts, WithKeyPath(v))
	}

	if attrs.Bool("use-agent") {
		opts = append(opts, WithUseAgent(true))
	}

	if attrs.Bool("insecure-skip-verify") {
		opts = append(opts, WithInsecureSkipVerify(true))
	}

	if attrs.Bool("tty") {
		opts = append(opts, WithTTY())
	}

	if d := attrs.Duration("timeout", 0); d > 0 {
		opts = append(opts, WithTimeout(d))
	}

	if v := attrs.String("os"); v != "" {
		opts = append(opts, WithTargetOS(giraffe.ParseTargetOS(v)))
	}

	if v, ok := attrs.Value("logger"); ok {
		if log, ok := v.(zerolog.Logger); ok {
			opts = append(opts, WithLogger(log))
		}
	}

	return opts, nil
}
