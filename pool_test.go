package giraffe

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_Lifecycle(t *testing.T) {
	t.Parallel()

	proc := newFakeProcess()
	sys := systemFor(proc)
	pool := sys.pool

	f, err := pool.Submit(sys.Command("sleep"), nil, sys.start)
	require.NoError(t, err)
	assert.Same(t, DefaultContext(), f.Context())

	require.Eventually(t, func() bool { return pool.Active() == 1 }, time.Second, time.Millisecond)

	proc.finish(0, "", "")
	<-f.Done()

	require.Eventually(t, func() bool { return pool.Active() == 0 }, time.Second, time.Millisecond)

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())
	assert.True(t, pool.IsClosed())

	_, err = pool.Submit(sys.Command("ls"), nil, sys.start)
	require.ErrorIs(t, err, ErrSystemClosed)
}

func TestPool_RejectsInvalidCommand(t *testing.T) {
	t.Parallel()

	pool := NewPool(zerolog.Nop())
	defer func() { _ = pool.Close() }()

	_, err := pool.Submit(NewCommand(nil, ""), nil, func(context.Context) (Process, error) { return nil, nil })
	require.Error(t, err)
}
