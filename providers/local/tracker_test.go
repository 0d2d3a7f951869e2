package local

import (
	"sync/atomic"
	"testing"

	"github.com/palantir/giraffe-sub000/providers/mock"
	"github.com/stretchr/testify/assert"
	testifymock "github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	t.Parallel()

	tracker := NewTracker()

	first := mock.NewProcess()
	second := mock.NewProcess()
	removed := mock.NewProcess()

	var destroyed atomic.Int32

	first.On("Destroy").Run(func(_ testifymock.Arguments) { destroyed.Add(1) }).Once()
	second.On("Destroy").Run(func(_ testifymock.Arguments) { destroyed.Add(1) }).Once()

	require.NoError(t, tracker.Add(first))
	require.NoError(t, tracker.Add(second))
	require.NoError(t, tracker.Add(removed))
	require.NoError(t, tracker.Remove(removed))
	assert.Equal(t, 2, tracker.Len())

	tracker.Shutdown()
	tracker.Shutdown()

	assert.Equal(t, int32(2), destroyed.Load())
	require.ErrorIs(t, tracker.Add(mock.NewProcess()), ErrTrackerShutdown)
	require.ErrorIs(t, tracker.Remove(first), ErrTrackerShutdown)

	first.AssertExpectations(t)
	second.AssertExpectations(t)
	removed.AssertNotCalled(t, "Destroy")
}
