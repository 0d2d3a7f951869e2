package invoketest

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/palantir/giraffe-sub000"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPermissions = 0o600

// scratch is a per-case directory on the system under test.
type scratch struct {
	sys  giraffe.System
	fs   giraffe.FileTransferer
	base string
}

func newScratch(t T, sys giraffe.System) *scratch {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "-" + uuid.NewString()[:8]

	base := "/tmp/giraffe-test-" + name
	if sys.TargetOS() == giraffe.OSWindows {
		base = `C:\Windows\Temp\giraffe-test-` + name
	}

	return &scratch{sys: sys, fs: sys.(giraffe.FileTransferer), base: base}
}

// path joins parts onto the scratch directory using the target's separator.
func (s *scratch) path(parts ...string) string {
	if s.sys.TargetOS() == giraffe.OSWindows {
		return s.base + `\` + strings.Join(parts, `\`)
	}

	return path.Join(append([]string{s.base}, parts...)...)
}

// read returns the content of a remote file by running the target's cat.
func (s *scratch) read(t T, remote string) string {
	script := "cat '" + remote + "'"
	if s.sys.TargetOS() == giraffe.OSWindows {
		script = "Get-Content -Raw '" + remote + "'"
	}

	res, err := run(s.sys, script, giraffe.DefaultContext())
	require.NoError(t, err)

	return strings.TrimSpace(res.Stdout)
}

// seed uploads content to a remote file under the scratch directory.
func (s *scratch) seed(t T, content string, parts ...string) string {
	local := filepath.Join(t.TempDir(), "seed")
	require.NoError(t, os.WriteFile(local, []byte(content), 0o644))

	remote := s.path(parts...)
	require.NoError(t, s.fs.Upload(t.Context(), local, remote))

	return remote
}

// cleanup removes the scratch directory, ignoring failures and closed systems.
func (s *scratch) cleanup() {
	if !s.sys.IsOpen() {
		return
	}

	script := "rm -rf '" + s.base + "'"
	if s.sys.TargetOS() == giraffe.OSWindows {
		script = "Remove-Item -Recurse -Force -ErrorAction SilentlyContinue '" + s.base + "'"
	}

	_, _ = run(s.sys, script, giraffe.IgnoreExitStatus())
}

func writeLocal(t T, content string, parts ...string) string {
	p := filepath.Join(append([]string{t.TempDir()}, parts...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))

	return p
}

func notWindows(_ T, sys giraffe.System) (bool, string) {
	if sys.TargetOS() == giraffe.OSWindows {
		return false, "permissions not applicable on Windows"
	}

	return true, ""
}

func fileCase(name, description string, prereq func(T, giraffe.System) (bool, string), fn func(t T, s *scratch)) TestCase {
	return TestCase{
		Category:    CategoryFilesystem,
		Name:        name,
		Description: description,
		Prereq: func(t T, sys giraffe.System) (bool, string) {
			if ok, reason := transferer(t, sys); !ok {
				return ok, reason
			}

			if prereq != nil {
				return prereq(t, sys)
			}

			return true, ""
		},
		Run: func(t T, sys giraffe.System) {
			s := newScratch(t, sys)
			defer s.cleanup()

			fn(t, s)
		},
	}
}

//nolint:funlen // Contract registration function; length comes from many test cases.
func fileContracts() []TestCase {
	return []TestCase{
		fileCase("upload-failure-source-missing", "Uploading a non-existent local file fails", nil,
			func(t T, s *scratch) {
				src := filepath.Join(t.TempDir(), "this-file-really-does-not-exist-12345")

				require.Error(t, s.fs.Upload(t.Context(), src, s.path("should-not-exist")))
			}),
		fileCase("upload-creates-parents", "Uploading into a directory tree that does not exist creates it", nil,
			func(t T, s *scratch) {
				src := writeLocal(t, "hello from giraffe", "test.txt")
				dst := s.path("nested", "dir", "level1", "level2", "test.txt")

				require.NoError(t, s.fs.Upload(t.Context(), src, dst))
				assert.Equal(t, "hello from giraffe", s.read(t, dst))
			}),
		fileCase("upload-overwrite", "Uploading over an existing file replaces its content", nil,
			func(t T, s *scratch) {
				dst := s.seed(t, "a much longer initial content", "test.txt")
				require.Equal(t, "a much longer initial content", s.read(t, dst))

				src := writeLocal(t, "updated", "test.txt")
				require.NoError(t, s.fs.Upload(t.Context(), src, dst))

				assert.Equal(t, "updated", s.read(t, dst))
			}),
		fileCase("upload-directory-tree", "Uploading a directory copies every file and subdirectory", nil,
			func(t T, s *scratch) {
				root := t.TempDir()
				src := filepath.Join(root, "upload-tree")
				require.NoError(t, os.MkdirAll(filepath.Join(src, "subdir"), 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(src, "file1.txt"), []byte("root file"), 0o644))
				require.NoError(t, os.WriteFile(filepath.Join(src, "subdir", "file2.txt"), []byte("sub file"), 0o644))

				require.NoError(t, s.fs.Upload(t.Context(), src, s.path("tree")))

				assert.Equal(t, "root file", s.read(t, s.path("tree", "file1.txt")))
				assert.Equal(t, "sub file", s.read(t, s.path("tree", "subdir", "file2.txt")))
			}),
		fileCase("upload-reports-progress", "WithProgress observes the bytes written", nil,
			func(t T, s *scratch) {
				content := strings.Repeat("giraffe", 1024)
				src := writeLocal(t, content, "progress.txt")

				var current int64

				require.NoError(t, s.fs.Upload(t.Context(), src, s.path("progress.txt"),
					giraffe.WithProgress(func(c, _ int64) { current = c })))

				assert.GreaterOrEqual(t, current, int64(len(content)))
			}),
		fileCase("download-file-content", "Download copies a remote file to a local path", nil,
			func(t T, s *scratch) {
				remote := s.seed(t, "download contract content", "download-source.txt")

				dst := filepath.Join(t.TempDir(), "downloaded.txt")
				require.NoError(t, s.fs.Download(t.Context(), remote, dst))

				got, err := os.ReadFile(dst)
				require.NoError(t, err)
				assert.Equal(t, "download contract content", string(got))
			}),
		fileCase("download-creates-local-parents", "Download creates missing local parent directories", nil,
			func(t T, s *scratch) {
				remote := s.seed(t, "parent content", "parent-source.txt")

				localBase := filepath.Join(t.TempDir(), "nested", "local", "download")
				_, err := os.Stat(localBase)
				require.ErrorIs(t, err, os.ErrNotExist)

				dst := filepath.Join(localBase, "file.txt")
				require.NoError(t, s.fs.Download(t.Context(), remote, dst))

				got, err := os.ReadFile(dst)
				require.NoError(t, err)
				assert.Equal(t, "parent content", string(got))
			}),
		fileCase("download-overwrites-larger-file", "Downloading over a larger local file truncates it", nil,
			func(t T, s *scratch) {
				remote := s.seed(t, "small", "overwrite-src.txt")
				dst := writeLocal(t, "this is a much larger existing local file that should be fully replaced", "dst.txt")

				require.NoError(t, s.fs.Download(t.Context(), remote, dst))

				got, err := os.ReadFile(dst)
				require.NoError(t, err)
				assert.Equal(t, "small", string(got))
			}),
		fileCase("download-directory-tree", "Downloading a directory maps its root onto the local path", nil,
			func(t T, s *scratch) {
				s.seed(t, "top", "tree", "top.txt")
				s.seed(t, "deep", "tree", "a", "b", "deep.txt")

				dst := filepath.Join(t.TempDir(), "copy")
				require.NoError(t, s.fs.Download(t.Context(), s.path("tree"), dst))

				top, err := os.ReadFile(filepath.Join(dst, "top.txt"))
				require.NoError(t, err)
				assert.Equal(t, "top", string(top))

				deep, err := os.ReadFile(filepath.Join(dst, "a", "b", "deep.txt"))
				require.NoError(t, err)
				assert.Equal(t, "deep", string(deep))
			}),
		fileCase("upload-respects-permissions", "Uploaded file has the mode set by WithPermissions", notWindows,
			func(t T, s *scratch) {
				src := writeLocal(t, "permissions test", "perms-upload.txt")
				dst := s.path("perms-upload.txt")
				require.NoError(t, s.fs.Upload(t.Context(), src, dst, giraffe.WithPermissions(testPermissions)))

				verify := filepath.Join(t.TempDir(), "perms-verify.txt")
				require.NoError(t, s.fs.Download(t.Context(), dst, verify))

				info, err := os.Stat(verify)
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(testPermissions), info.Mode().Perm())
			}),
		fileCase("download-respects-permissions", "Downloaded file has the mode set by WithPermissions", notWindows,
			func(t T, s *scratch) {
				remote := s.seed(t, "permissions download test", "perms-src.txt")

				dst := filepath.Join(t.TempDir(), "perms-downloaded.txt")
				require.NoError(t, s.fs.Download(t.Context(), remote, dst, giraffe.WithPermissions(testPermissions)))

				info, err := os.Stat(dst)
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(testPermissions), info.Mode().Perm())
			}),
		fileCase("transfer-after-close", "A closed system rejects transfers with ErrSystemClosed", nil,
			func(t T, s *scratch) {
				src := writeLocal(t, "unreachable", "closed.txt")
				require.NoError(t, s.sys.Close())

				require.ErrorIs(t, s.fs.Upload(t.Context(), src, s.path("closed.txt")), giraffe.ErrSystemClosed)
				require.ErrorIs(t, s.fs.Download(t.Context(), s.path("closed.txt"), src), giraffe.ErrSystemClosed)
			}),
	}
}
