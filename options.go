package giraffe

import (
	"context"
	"os"
)

// FileTransferer is implemented by execution systems that can copy files to
// and from their host.
type FileTransferer interface {
	// Upload copies a local file or directory to the system.
	Upload(ctx context.Context, localPath, remotePath string, opts ...FileOption) error

	// Download copies a file or directory from the system to the local host.
	Download(ctx context.Context, remotePath, localPath string, opts ...FileOption) error
}

// FileConfig holds configuration for file transfers.
type FileConfig struct {
	Permissions os.FileMode // destination mode override, 0 preserves the source mode
	Progress    ProgressFunc
}

// FileOption configures a file transfer.
type FileOption func(*FileConfig)

// NewFileConfig applies opts to the default configuration.
func NewFileConfig(opts ...FileOption) FileConfig {
	var cfg FileConfig

	for _, o := range opts {
		o(&cfg)
	}

	return cfg
}

// WithPermissions forces the destination file mode.
func WithPermissions(mode os.FileMode) FileOption {
	return func(c *FileConfig) {
		c.Permissions = mode
	}
}

// ProgressFunc receives the bytes copied so far and the total, or 0 when unknown.
type ProgressFunc func(current, total int64)

// WithProgress calls fn as bytes are copied.
func WithProgress(fn ProgressFunc) FileOption {
	return func(c *FileConfig) {
		c.Progress = fn
	}
}

// FileMode returns the configured mode, or fallback when none is set.
func (c FileConfig) FileMode(fallback os.FileMode) os.FileMode {
	if c.Permissions != 0 {
		return c.Permissions
	}

	return fallback
}
