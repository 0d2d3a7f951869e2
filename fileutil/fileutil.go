// Package fileutil provides the file-transfer plumbing shared by giraffe providers:
// progress reporting, cancellable copies and path traversal checks.
package fileutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/palantir/giraffe-sub000"
)

// ProgressReader reports the running byte count to Fn after every read.
// Total is the expected size, or 0 when unknown.
type ProgressReader struct {
	io.Reader

	Total   int64
	Current int64
	Fn      giraffe.ProgressFunc
}

// Read reads from the underlying reader and reports progress.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.Current += int64(n)
		if pr.Fn != nil {
			pr.Fn(pr.Current, pr.Total)
		}
	}

	return n, err
}

// ContextReader fails reads once Ctx is done, so io.Copy loops stop on cancellation.
type ContextReader struct {
	Ctx    context.Context //nolint:containedctx
	Reader io.Reader
}

// Read checks for cancellation before delegating to the underlying reader.
func (cr *ContextReader) Read(p []byte) (int, error) {
	if err := cr.Ctx.Err(); err != nil {
		return 0, err
	}

	return cr.Reader.Read(p)
}

// Copy copies src to dst until EOF or until ctx is done, reporting progress
// against total when progress is set.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress giraffe.ProgressFunc) (int64, error) {
	var r io.Reader = &ContextReader{Ctx: ctx, Reader: src}
	if progress != nil {
		r = &ProgressReader{Reader: r, Total: total, Fn: progress}
	}

	return io.Copy(dst, r)
}

// CheckPathTraversal returns an error unless target is root or lies inside it,
// using local path conventions.
func CheckPathTraversal(root, target string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("illegal file path: cannot resolve root %s: %w", root, err)
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("illegal file path: cannot resolve target %s: %w", target, err)
	}

	if !within(absRoot, absTarget, string(os.PathSeparator)) {
		return fmt.Errorf("illegal file path: %s is not within %s", target, root)
	}

	return nil
}

// CheckRemotePathTraversal is CheckPathTraversal for forward-slash remote paths.
func CheckRemotePathTraversal(root, target string) error {
	if !within(path.Clean(root), path.Clean(target), "/") {
		return fmt.Errorf("illegal remote file path: %s is not within %s", target, root)
	}

	return nil
}

func within(root, target, sep string) bool {
	return root == target || strings.HasPrefix(target, strings.TrimSuffix(root, sep)+sep)
}
