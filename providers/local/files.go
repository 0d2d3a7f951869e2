package local

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/palantir/giraffe-sub000"
	"github.com/palantir/giraffe-sub000/fileutil"
)

// Upload copies a file or directory tree. Both paths are on the local host.
func (s *System) Upload(ctx context.Context, localPath, remotePath string, opts ...giraffe.FileOption) error {
	if !s.IsOpen() {
		return fmt.Errorf("cannot upload %s: %w", localPath, giraffe.ErrSystemClosed)
	}

	return copyTree(ctx, localPath, remotePath, giraffe.NewFileConfig(opts...))
}

// Download is Upload with the roles of the paths swapped.
func (s *System) Download(ctx context.Context, remotePath, localPath string, opts ...giraffe.FileOption) error {
	if !s.IsOpen() {
		return fmt.Errorf("cannot download %s: %w", remotePath, giraffe.ErrSystemClosed)
	}

	return copyTree(ctx, remotePath, localPath, giraffe.NewFileConfig(opts...))
}

func copyTree(ctx context.Context, src, dst string, cfg giraffe.FileConfig) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return copyFile(ctx, src, dst, cfg.FileMode(info.Mode().Perm()), cfg.Progress)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dst, rel)
		if err := fileutil.CheckPathTraversal(dst, target); err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		if d.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}

		return copyFile(ctx, path, target, cfg.FileMode(info.Mode().Perm()), cfg.Progress)
	})
}

func copyFile(ctx context.Context, src, dst string, mode os.FileMode, progress giraffe.ProgressFunc) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}

	defer func() { _ = in.Close() }()

	var size int64
	if info, err := in.Stat(); err == nil {
		size = info.Size()
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	defer func() { _ = out.Close() }()

	if _, err := fileutil.Copy(ctx, out, in, size, progress); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}

	// OpenFile applies the umask, and an existing file keeps its old mode
	if err := out.Chmod(mode); err != nil {
		return err
	}

	return out.Close()
}
