package ssh

import (
	"testing"

	"github.com/palantir/giraffe-sub000"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedClient_RefCounting(t *testing.T) {
	t.Parallel()

	shared := newSharedClient(nil, true)

	_, err := shared.acquire()
	require.NoError(t, err)
	_, err = shared.acquire()
	require.NoError(t, err)

	require.NoError(t, shared.release())
	require.NoError(t, shared.release())
	require.NoError(t, shared.release())

	_, err = shared.acquire()
	require.ErrorIs(t, err, errClientReleased)
	require.ErrorIs(t, shared.release(), errClientReleased)
}

func TestSystem_BorrowedClient(t *testing.T) {
	t.Parallel()

	sys := NewFromClient(nil, Config{Host: "example.com", User: "deploy", Port: 2200})

	assert.Equal(t, "exec+ssh://deploy@example.com:2200/", sys.URI().String())
	assert.Equal(t, giraffe.OSLinux, sys.TargetOS())
	assert.True(t, sys.IsOpen())

	require.NoError(t, sys.Close())
	require.NoError(t, sys.Close())
	assert.False(t, sys.IsOpen())

	_, err := sys.Execute(sys.Command("true"), nil)
	require.ErrorIs(t, err, giraffe.ErrSystemClosed)

	err = sys.Upload(t.Context(), "a", "/tmp/a")
	require.ErrorIs(t, err, giraffe.ErrSystemClosed)
}
