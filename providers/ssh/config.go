package ssh

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultPort    = 22
	defaultTimeout = 10 * time.Second
)

// Config holds the parameters of an SSH execution system.
type Config struct {
	Host string
	Port int
	User string

	// Authentication methods, tried in order.
	PrivateKey     string // PEM encoded private key
	PrivateKeyPath string
	Password       string
	UseAgent       bool // use the agent listening on SSH_AUTH_SOCK

	Timeout            time.Duration
	HostKeyCheck       ssh.HostKeyCallback
	InsecureSkipVerify bool // accept any host key; testing only
	OS                 giraffe.TargetOS

	// TTY allocates a pseudo-terminal for every command.
	TTY    bool
	Logger zerolog.Logger
}

// NewConfig creates a Config for user@host with the default port and timeout.
// It does not set HostKeyCheck.
func NewConfig(host, username string) Config {
	return Config{
		Host:    host,
		User:    username,
		Port:    defaultPort,
		Timeout: defaultTimeout,
		Logger:  zerolog.Nop(),
	}
}

// NewFromSSHConfig resolves alias from an OpenSSH config file, ~/.ssh/config when path is empty.
func NewFromSSHConfig(alias, path string) (Config, error) {
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".ssh", "config")
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open ssh config: %w", err)
	}

	defer func() { _ = f.Close() }()

	return NewFromSSHConfigReader(alias, f)
}

// NewFromSSHConfigReader resolves HostName, User, Port, IdentityFile and
// StrictHostKeyChecking for alias.
func NewFromSSHConfigReader(alias string, r io.Reader) (Config, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse ssh config: %w", err)
	}

	hostName, err := cfg.Get(alias, "HostName")
	if err != nil || hostName == "" {
		hostName = alias
	}

	username, _ := cfg.Get(alias, "User")
	if username == "" {
		if u, _ := user.Current(); u != nil {
			username = u.Username
		}
	}

	c := NewConfig(hostName, username)

	if portStr, _ := cfg.Get(alias, "Port"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid port %q for host %s: %w", portStr, alias, err)
		}

		c.Port = port
	}

	identityFile, _ := cfg.Get(alias, "IdentityFile")
	if strings.HasPrefix(identityFile, "~/") {
		identityFile = filepath.Join(os.Getenv("HOME"), identityFile[2:])
	}

	c.PrivateKeyPath = identityFile

	if strict, _ := cfg.Get(alias, "StrictHostKeyChecking"); strict == "no" {
		c.InsecureSkipVerify = true
	}

	return c, nil
}

// WithDefaults fills zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.Port == 0 {
		c.Port = defaultPort
	}

	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}

	if c.InsecureSkipVerify && c.HostKeyCheck == nil {
		c.HostKeyCheck = ssh.InsecureIgnoreHostKey()
	}

	if c.OS == giraffe.OSUnknown {
		c.OS = giraffe.OSLinux
	}

	return c
}

// Validate ensures all required fields are present.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("configuration error: host address cannot be empty")
	}

	if c.User == "" {
		return errors.New("configuration error: user cannot be empty")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("configuration error: invalid port %d", c.Port)
	}

	if c.HostKeyCheck == nil {
		return errors.New("configuration error: HostKeyCheck is missing; provide a callback (e.g. from known_hosts) or set InsecureSkipVerify (testing only)")
	}

	return nil
}

// ToClientConfig converts c to an ssh.ClientConfig. Key files and the agent
// are resolved separately when dialling.
func (c Config) ToClientConfig() (*ssh.ClientConfig, error) {
	config := &ssh.ClientConfig{
		User:            c.User,
		Auth:            []ssh.AuthMethod{},
		HostKeyCallback: c.HostKeyCheck,
		Timeout:         c.Timeout,
	}

	if c.Password != "" {
		config.Auth = append(config.Auth, ssh.Password(c.Password))
	}

	if c.PrivateKey != "" {
		signer, err := ssh.ParsePrivateKey([]byte(c.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}

		config.Auth = append(config.Auth, ssh.PublicKeys(signer))
	}

	return config, nil
}

// Address returns host:port.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// URI returns exec+ssh://user@host:port/.
func (c Config) URI() *url.URL {
	return &url.URL{
		Scheme: Scheme,
		User:   url.User(c.User),
		Host:   c.Address(),
		Path:   "/",
	}
}

// DefaultKnownHosts returns a HostKeyCallback backed by ~/.ssh/known_hosts.
func DefaultKnownHosts() (ssh.HostKeyCallback, error) {
	path := filepath.Join(os.Getenv("HOME"), ".ssh", "known_hosts")

	return knownhosts.New(path)
}
