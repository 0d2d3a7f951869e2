//go:build integration

package docker

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/palantir/giraffe-sub000"
	"github.com/palantir/giraffe-sub000/invoketest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testImage     = "alpine:latest"
	testContainer = "giraffe-integration-test-container"
)

func TestIntegration(t *testing.T) {
	ctx := context.Background()

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("Skipping Docker integration test: failed to create client: %v", err)
	}
	defer cli.Close()

	if _, err := cli.Ping(ctx); err != nil {
		t.Skipf("Skipping Docker integration test: daemon not reachable: %v", err)
	}

	setupContainer(t, ctx, cli)
	defer teardownContainer(ctx, cli)

	sys, err := giraffe.NewSystem(ctx, "exec+docker://"+testContainer+"/", nil)
	require.NoError(t, err)

	defer func() { _ = sys.Close() }()

	t.Run("echo", func(t *testing.T) {
		res, err := giraffe.Execute(sys.Command("echo", "hello", "docker"), giraffe.DefaultContext())
		require.NoError(t, err)
		assert.Equal(t, "hello docker\n", res.Stdout)
	})

	t.Run("stderr and exit status", func(t *testing.T) {
		_, err := giraffe.Execute(giraffe.ShellCommand(sys, "echo oops >&2; exit 42"), giraffe.DefaultContext())

		var cmdErr *giraffe.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, 42, cmdErr.ExitStatus())
		assert.Equal(t, "oops\n", cmdErr.Result.Stderr)
	})

	t.Run("environment", func(t *testing.T) {
		env := giraffe.DefaultEnvironment().Set("MY_VAR", "integration")

		res, err := giraffe.Execute(giraffe.ShellCommand(sys, "echo $MY_VAR"), giraffe.WithEnvironment(env))
		require.NoError(t, err)
		assert.Equal(t, "integration\n", res.Stdout)

		res, err = giraffe.Execute(sys.Command("/usr/bin/env"), giraffe.WithEnvironment(giraffe.EmptyEnvironment().Set("ONLY", "1")))
		require.NoError(t, err)
		assert.Equal(t, "ONLY=1\n", res.Stdout)
	})

	t.Run("working directory", func(t *testing.T) {
		res, err := giraffe.Execute(sys.Command("pwd"), giraffe.WithWorkingDirectory("/tmp"))
		require.NoError(t, err)
		assert.Equal(t, "/tmp", strings.TrimSpace(res.Stdout))
	})

	t.Run("stdin", func(t *testing.T) {
		f, err := giraffe.ExecuteAsync(sys.Command("cat"), giraffe.DefaultContext())
		require.NoError(t, err)

		_, err = io.WriteString(f.Stdin(), "piped")
		require.NoError(t, err)
		require.NoError(t, f.Stdin().Close())

		res, err := giraffe.WaitFor(f)
		require.NoError(t, err)
		assert.Equal(t, "piped", res.Stdout)
	})

	t.Run("timeout kills the exec", func(t *testing.T) {
		start := time.Now()

		_, err := giraffe.ExecuteTimeout(sys.Command("sleep", 30), giraffe.DefaultContext(), time.Second)

		var timeoutErr *giraffe.TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Less(t, time.Since(start), 10*time.Second)

		require.Eventually(t, func() bool {
			res, err := giraffe.Execute(giraffe.ShellCommand(sys, "pgrep -x sleep | grep -v '^1$' || true"), giraffe.DefaultContext())
			return err == nil && strings.TrimSpace(res.Stdout) == ""
		}, 5*time.Second, 250*time.Millisecond)
	})

	t.Run("file transfer", func(t *testing.T) {
		transfer, ok := sys.(giraffe.FileTransferer)
		require.True(t, ok)

		tmpDir := t.TempDir()
		src := filepath.Join(tmpDir, "upload.txt")
		require.NoError(t, os.WriteFile(src, []byte("docker-transfer"), 0o600))

		require.NoError(t, transfer.Upload(ctx, src, "/tmp/giraffe/nested/upload.txt", giraffe.WithPermissions(0o644)))

		res, err := giraffe.Execute(sys.Command("cat", "/tmp/giraffe/nested/upload.txt"), giraffe.DefaultContext())
		require.NoError(t, err)
		assert.Equal(t, "docker-transfer", res.Stdout)

		dst := filepath.Join(tmpDir, "download")
		require.NoError(t, transfer.Download(ctx, "/tmp/giraffe", dst))

		content, err := os.ReadFile(filepath.Join(dst, "nested", "upload.txt"))
		require.NoError(t, err)
		assert.Equal(t, "docker-transfer", string(content))
	})

	t.Run("contracts", func(t *testing.T) {
		invoketest.Verify(t, func(t invoketest.T) giraffe.System {
			s, err := New(WithContainerID(testContainer))
			require.NoError(t, err)

			return s
		})
	})
}

func setupContainer(t *testing.T, ctx context.Context, cli *client.Client) {
	_ = cli.ContainerRemove(ctx, testContainer, container.RemoveOptions{Force: true})

	reader, err := cli.ImagePull(ctx, testImage, image.PullOptions{})
	if err != nil {
		t.Fatalf("Failed to pull %s: %v", testImage, err)
	}
	_, _ = io.Copy(io.Discard, reader)
	_ = reader.Close()

	_, err = cli.ContainerCreate(ctx, &container.Config{
		Image: testImage,
		Cmd:   []string{"sleep", "infinity"},
	}, nil, nil, nil, testContainer)
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}

	if err := cli.ContainerStart(ctx, testContainer, container.StartOptions{}); err != nil {
		t.Fatalf("Failed to start container: %v", err)
	}
}

func teardownContainer(ctx context.Context, cli *client.Client) {
	_ = cli.ContainerRemove(ctx, testContainer, container.RemoveOptions{Force: true})
}
