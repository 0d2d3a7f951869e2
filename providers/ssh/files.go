package ssh

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"

	"github.com/palantir/giraffe-sub000"
	"github.com/palantir/giraffe-sub000/fileutil"
	"github.com/pkg/sftp"
)

// Upload copies a local file or directory tree to remotePath over SFTP,
// creating missing remote parents.
func (s *System) Upload(ctx context.Context, localPath, remotePath string, opts ...giraffe.FileOption) error {
	cfg := giraffe.NewFileConfig(opts...)
	remotePath = toRemotePath(remotePath)

	return s.withSFTP(func(client *sftp.Client) error {
		info, err := os.Stat(localPath)
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return uploadFile(ctx, client, localPath, remotePath, cfg.FileMode(info.Mode().Perm()), cfg.Progress)
		}

		return filepath.WalkDir(localPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(localPath, path)
			if err != nil {
				return err
			}

			target := pathpkg.Join(remotePath, filepath.ToSlash(rel))
			if err := fileutil.CheckRemotePathTraversal(remotePath, target); err != nil {
				return err
			}

			if d.IsDir() {
				return client.MkdirAll(target)
			}

			info, err := d.Info()
			if err != nil {
				return err
			}

			return uploadFile(ctx, client, path, target, cfg.FileMode(info.Mode().Perm()), cfg.Progress)
		})
	})
}

// Download copies a remote file or directory tree to localPath over SFTP.
func (s *System) Download(ctx context.Context, remotePath, localPath string, opts ...giraffe.FileOption) error {
	cfg := giraffe.NewFileConfig(opts...)
	remotePath = toRemotePath(remotePath)

	return s.withSFTP(func(client *sftp.Client) error {
		info, err := client.Stat(remotePath)
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return downloadFile(ctx, client, remotePath, localPath, cfg.FileMode(info.Mode().Perm()), cfg.Progress)
		}

		walker := client.Walk(remotePath)
		for walker.Step() {
			if err := walker.Err(); err != nil {
				return err
			}

			rel, err := remoteRel(remotePath, walker.Path())
			if err != nil {
				return err
			}

			target := filepath.Join(localPath, filepath.FromSlash(rel))

			if err := fileutil.CheckPathTraversal(localPath, target); err != nil {
				return err
			}

			stat := walker.Stat()
			if stat.IsDir() {
				if err := os.MkdirAll(target, 0o755); err != nil {
					return err
				}

				continue
			}

			if err := downloadFile(ctx, client, walker.Path(), target, cfg.FileMode(stat.Mode().Perm()), cfg.Progress); err != nil {
				return err
			}
		}

		return nil
	})
}

// withSFTP runs fn on an SFTP client holding a reference on the shared connection.
func (s *System) withSFTP(fn func(*sftp.Client) error) error {
	if !s.IsOpen() {
		return giraffe.ErrSystemClosed
	}

	conn, err := s.client.acquire()
	if err != nil {
		return fmt.Errorf("%w: %w", giraffe.ErrSystemClosed, err)
	}

	defer func() { _ = s.client.release() }()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return fmt.Errorf("failed to create sftp client: %w", err)
	}

	defer func() { _ = client.Close() }()

	return fn(client)
}

func uploadFile(ctx context.Context, client *sftp.Client, localPath, remotePath string, mode os.FileMode, progress giraffe.ProgressFunc) error {
	src, err := os.Open(localPath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	var size int64
	if info, err := src.Stat(); err == nil {
		size = info.Size()
	}

	if err := client.MkdirAll(pathpkg.Dir(remotePath)); err != nil {
		return fmt.Errorf("failed to create remote directory for %q: %w", remotePath, err)
	}

	dst, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file %q: %w", remotePath, err)
	}

	defer func() { _ = dst.Close() }()

	if err := client.Chmod(remotePath, mode); err != nil {
		return fmt.Errorf("failed to chmod remote file: %w", err)
	}

	if _, err := fileutil.Copy(ctx, dst, src, size, progress); err != nil {
		return fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	return dst.Close()
}

func downloadFile(ctx context.Context, client *sftp.Client, remotePath, localPath string, mode os.FileMode, progress giraffe.ProgressFunc) error {
	src, err := client.Open(remotePath)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	var size int64
	if info, err := src.Stat(); err == nil {
		size = info.Size()
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}

	dst, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	defer func() { _ = dst.Close() }()

	if _, err := fileutil.Copy(ctx, dst, src, size, progress); err != nil {
		return fmt.Errorf("failed to download %s: %w", remotePath, err)
	}

	if err := dst.Chmod(mode); err != nil {
		return err
	}

	return dst.Close()
}

// remoteRel returns p relative to base. Both are forward-slash remote paths.
func remoteRel(base, p string) (string, error) {
	base, p = pathpkg.Clean(base), pathpkg.Clean(p)

	if err := fileutil.CheckRemotePathTraversal(base, p); err != nil {
		return "", err
	}

	if p == base {
		return ".", nil
	}

	return strings.TrimPrefix(strings.TrimPrefix(p, base), "/"), nil
}

// toRemotePath normalizes Windows separators to forward slashes.
func toRemotePath(p string) string {
	return pathpkg.Clean(strings.ReplaceAll(p, `\`, "/"))
}
