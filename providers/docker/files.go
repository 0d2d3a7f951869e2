package docker

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/palantir/giraffe-sub000"
	"github.com/palantir/giraffe-sub000/fileutil"
)

// Upload copies a local file or directory tree into the container. The tar
// stream is rooted at the container root so the daemon creates missing parents.
func (s *System) Upload(ctx context.Context, localPath, remotePath string, opts ...giraffe.FileOption) error {
	if !s.IsOpen() {
		return fmt.Errorf("cannot upload %s: %w", localPath, giraffe.ErrSystemClosed)
	}

	cfg := giraffe.NewFileConfig(opts...)

	if _, err := os.Stat(localPath); err != nil {
		return err
	}

	root, rel := splitContainerPath(remotePath, s.cfg.OS)

	stream := tarArchive(ctx, localPath, rel, cfg.Permissions)
	defer func() { _ = stream.Close() }()

	var r io.Reader = stream
	if cfg.Progress != nil {
		r = &fileutil.ProgressReader{Reader: stream, Fn: cfg.Progress}
	}

	err := s.client.CopyToContainer(ctx, s.cfg.ContainerID, root, r, container.CopyToContainerOptions{
		AllowOverwriteDirWithFile: true,
	})
	if err != nil {
		return fmt.Errorf("failed to copy to container: %w", err)
	}

	return nil
}

// Download copies a file or directory tree from the container to localPath.
func (s *System) Download(ctx context.Context, remotePath, localPath string, opts ...giraffe.FileOption) error {
	if !s.IsOpen() {
		return fmt.Errorf("cannot download %s: %w", remotePath, giraffe.ErrSystemClosed)
	}

	cfg := giraffe.NewFileConfig(opts...)

	reader, _, err := s.client.CopyFromContainer(ctx, s.cfg.ContainerID, remotePath)
	if err != nil {
		return fmt.Errorf("failed to copy from container: %w", err)
	}

	defer func() { _ = reader.Close() }()

	var r io.Reader = &fileutil.ContextReader{Ctx: ctx, Reader: reader}
	if cfg.Progress != nil {
		r = &fileutil.ProgressReader{Reader: r, Fn: cfg.Progress}
	}

	return untar(r, localPath, cfg.Permissions)
}

// splitContainerPath returns the directory to extract into and the path of
// the entry relative to it.
func splitContainerPath(remotePath string, os giraffe.TargetOS) (string, string) {
	remotePath = strings.ReplaceAll(remotePath, `\`, "/")

	if os != giraffe.OSWindows {
		return "/", strings.TrimPrefix(pathpkg.Clean("/"+remotePath), "/")
	}

	if len(remotePath) >= 3 && remotePath[1] == ':' && remotePath[2] == '/' {
		return remotePath[:3], strings.TrimPrefix(pathpkg.Clean("/"+remotePath[3:]), "/")
	}

	return "C:/", strings.TrimPrefix(pathpkg.Clean("/"+remotePath), "/")
}

// tarArchive streams src as a tar whose root entry is named destName.
func tarArchive(ctx context.Context, src, destName string, perm os.FileMode) io.ReadCloser {
	r, w := io.Pipe()

	go func() {
		tw := tar.NewWriter(w)

		err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(src, path)
			if err != nil {
				return err
			}

			return writeTarEntry(ctx, tw, path, pathpkg.Join(destName, filepath.ToSlash(rel)), d, perm)
		})
		if err == nil {
			err = tw.Close()
		}

		_ = w.CloseWithError(err)
	}()

	return r
}

func writeTarEntry(ctx context.Context, tw *tar.Writer, path, name string, d fs.DirEntry, perm os.FileMode) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}

	header.Name = name
	if info.IsDir() {
		header.Name += "/"
	} else if perm != 0 {
		header.Mode = int64(perm)
	}

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer func() { _ = f.Close() }()

	_, err = fileutil.Copy(ctx, tw, f, 0, nil)

	return err
}

// untar extracts a CopyFromContainer archive. The archive's root entry maps
// to dst itself.
func untar(r io.Reader, dst string, perm os.FileMode) error {
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		target := dst
		if _, rest, ok := strings.Cut(strings.TrimSuffix(header.Name, "/"), "/"); ok {
			target = filepath.Join(dst, filepath.FromSlash(rest))
		}

		if err := fileutil.CheckPathTraversal(dst, target); err != nil {
			return fmt.Errorf("illegal file path in tar: %s", header.Name)
		}

		if err := extractEntry(target, header, tr, perm); err != nil {
			return err
		}
	}
}

func extractEntry(target string, header *tar.Header, tr *tar.Reader, perm os.FileMode) error {
	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, 0o755)
	case tar.TypeReg:
		mode := os.FileMode(header.Mode).Perm()
		if perm != 0 {
			mode = perm
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
		if err != nil {
			return err
		}

		if _, err := io.Copy(f, tr); err != nil {
			_ = f.Close()
			return err
		}

		if err := f.Chmod(mode); err != nil {
			_ = f.Close()
			return err
		}

		return f.Close()
	default:
		return nil
	}
}
