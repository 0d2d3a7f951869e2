package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

var errClientReleased = errors.New("ssh client already released")

// sharedClient counts the users of one ssh.Client. The system holds a
// reference for its lifetime and every running command or file transfer
// holds another; the connection closes when the last one is released.
type sharedClient struct {
	mu       sync.Mutex
	client   *ssh.Client
	refs     int
	borrowed bool
}

func newSharedClient(client *ssh.Client, borrowed bool) *sharedClient {
	return &sharedClient{client: client, refs: 1, borrowed: borrowed}
}

// acquire takes a reference. It fails once every reference has been released.
func (c *sharedClient) acquire() (*ssh.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refs == 0 {
		return nil, errClientReleased
	}

	c.refs++

	return c.client, nil
}

// release drops a reference and closes the connection with the last one,
// unless the client was borrowed from the caller.
func (c *sharedClient) release() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.refs == 0 {
		return errClientReleased
	}

	c.refs--
	if c.refs > 0 || c.borrowed {
		return nil
	}

	return c.client.Close()
}

// dial connects to the host described by c, which must already be validated.
func dial(ctx context.Context, c Config) (*ssh.Client, error) {
	clientConfig, err := c.ToClientConfig()
	if err != nil {
		return nil, err
	}

	if keyAuth, err := loadPrivateKeyAuth(c.PrivateKeyPath); err != nil {
		return nil, err
	} else if keyAuth != nil {
		clientConfig.Auth = append(clientConfig.Auth, keyAuth)
	}

	if agentAuth := loadAgentAuth(ctx, c.UseAgent); agentAuth != nil {
		clientConfig.Auth = append(clientConfig.Auth, agentAuth)
	}

	addr := c.Address()

	conn, err := (&net.Dialer{Timeout: c.Timeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial ssh at %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}

	return ssh.NewClient(sshConn, chans, reqs), nil
}

// loadPrivateKeyAuth reads a key file. It returns nil when keyPath is empty.
func loadPrivateKeyAuth(keyPath string) (ssh.AuthMethod, error) {
	if keyPath == "" {
		return nil, nil //nolint:nilnil // no key configured
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key file: %w", err)
	}

	return ssh.PublicKeys(signer), nil
}

// loadAgentAuth returns the agent's keys, or nil when the agent is disabled or unreachable.
func loadAgentAuth(ctx context.Context, useAgent bool) ssh.AuthMethod {
	if !useAgent {
		return nil
	}

	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := (&net.Dialer{Timeout: 500 * time.Millisecond}).DialContext(ctx, "unix", socket)
	if err != nil {
		return nil
	}

	signers, err := agent.NewClient(conn).Signers()
	if err != nil {
		return nil
	}

	return ssh.PublicKeys(signers...)
}
