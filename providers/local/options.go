package local

import (
	"os"
	"strings"

	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
)

// WhitelistEnvVar names the environment variable holding a comma-separated list
// of variables that commands inherit from the ambient environment.
const WhitelistEnvVar = "GIRAFFE_LOCAL_ENV_WHITELIST"

// Config holds configuration for the local execution system.
type Config struct {
	TargetOS giraffe.TargetOS
	Logger   zerolog.Logger

	// TTY runs every command on a pseudo-terminal.
	TTY bool

	// Whitelist restricts the inherited environment when HasWhitelist is set.
	Whitelist    []string
	HasWhitelist bool
}

// Option defines a functional option for the local provider.
type Option func(*Config)

// WithLogger sets the logger used by the system.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithTTY runs commands on a pseudo-terminal.
func WithTTY() Option {
	return func(c *Config) {
		c.TTY = true
	}
}

// WithEnvWhitelist limits the variables commands inherit with a DEFAULT environment.
// It takes precedence over GIRAFFE_LOCAL_ENV_WHITELIST.
func WithEnvWhitelist(names ...string) Option {
	return func(c *Config) {
		c.Whitelist = names
		c.HasWhitelist = true
	}
}

// WithTargetOS overrides the detected operating system.
func WithTargetOS(os giraffe.TargetOS) Option {
	return func(c *Config) {
		c.TargetOS = os
	}
}

// NewConfig applies opts over the defaults. Without WithEnvWhitelist, the
// whitelist is read from GIRAFFE_LOCAL_ENV_WHITELIST; an unset variable means
// no filtering.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		TargetOS: giraffe.DetectLocalOS(),
		Logger:   zerolog.Nop(),
	}

	if raw, ok := os.LookupEnv(WhitelistEnvVar); ok {
		cfg.Whitelist = splitList(raw)
		cfg.HasWhitelist = true
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

func optionsFromAttributes(attrs giraffe.Attributes) []Option {
	var opts []Option

	if attrs.Bool("tty") {
		opts = append(opts, WithTTY())
	}

	if v, ok := attrs.Value("logger"); ok {
		if log, ok := v.(zerolog.Logger); ok {
			opts = append(opts, WithLogger(log))
		}
	}

	switch v := attrs["env-whitelist"].(type) {
	case []string:
		opts = append(opts, WithEnvWhitelist(v...))
	case string:
		opts = append(opts, WithEnvWhitelist(splitList(v)...))
	}

	return opts
}

func splitList(raw string) []string {
	var out []string

	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}

	return out
}
