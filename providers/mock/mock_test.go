package mock

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/palantir/giraffe-sub000"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMockSystem(t *testing.T) {
	t.Parallel()

	sys := New()
	ctx := context.Background()

	sys.On("URI").Return(&url.URL{Scheme: "exec+mock", Host: "host", Path: "/"})
	sys.On("Execute", mock.AnythingOfType("*giraffe.Command"), mock.Anything).Return(nil, giraffe.ErrSystemClosed)
	sys.On("Upload", ctx, "src", "dst", mock.Anything).Return(nil)

	cmd := sys.Command("echo", "hi")
	assert.Same(t, sys, cmd.System())

	_, err := giraffe.ExecuteAsync(cmd, nil)
	require.ErrorIs(t, err, giraffe.ErrSystemClosed)

	require.NoError(t, sys.Upload(ctx, "src", "dst"))
	assert.Equal(t, "exec+mock://host/", sys.URI().String())

	sys.AssertExpectations(t)
}

func TestMockProcess_DrivesFuture(t *testing.T) {
	t.Parallel()

	proc := NewProcess().WithOutput("On branch main\n", "")
	proc.On("Wait").Return(0, nil).Once()
	proc.On("CloseStreams").Return(nil).Once()

	pool := giraffe.NewPool(zerolog.Nop())
	t.Cleanup(func() { _ = pool.Close() })

	f, err := pool.Submit(New().Command("git", "status"), nil, StartFunc(proc))
	require.NoError(t, err)

	res, err := giraffe.WaitFor(f)
	require.NoError(t, err)
	assert.Equal(t, "On branch main\n", res.Stdout)

	proc.AssertExpectations(t)
	proc.AssertNotCalled(t, "Destroy")
}

func TestMockProcess_WaitError(t *testing.T) {
	t.Parallel()

	proc := NewProcess()
	proc.On("Wait").Return(giraffe.NoExitStatus, errors.New("connection lost"))
	proc.On("Destroy").Return()
	proc.On("CloseStreams").Return(nil)

	pool := giraffe.NewPool(zerolog.Nop())
	t.Cleanup(func() { _ = pool.Close() })

	f, err := pool.Submit(New().Command("ls"), nil, StartFunc(proc))
	require.NoError(t, err)

	_, err = giraffe.WaitFor(f)

	var execErr *giraffe.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, err.Error(), "connection lost")
	proc.AssertCalled(t, "Destroy")
}

func TestMockProvider(t *testing.T) {
	t.Parallel()

	sys := New()
	p := NewProvider("exec+mock")
	p.On("NewSystem", mock.Anything, mock.Anything, giraffe.Attributes(nil)).Return(sys, nil)

	got, err := p.NewSystem(context.Background(), &url.URL{Scheme: "exec+mock"}, nil)
	require.NoError(t, err)
	assert.Same(t, sys, got)
	assert.Equal(t, "exec+mock", p.Scheme())
}
