package presence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"feedsync/internal/mocks"
)

func TestSet_SeedOncePerSession(t *testing.T) {
	backend := new(mocks.BackendMock)
	backend.On("GetOnlineUsers", mock.Anything).
		Return([]string{"u1", "u2"}, nil)

	s := NewSet(backend)
	ctx := context.Background()

	require.NoError(t, s.Seed(ctx))
	require.NoError(t, s.Seed(ctx))

	backend.AssertNumberOfCalls(t, "GetOnlineUsers", 1)
	assert.True(t, s.IsOnline("u1"))
	assert.True(t, s.IsOnline("u2"))
	assert.False(t, s.IsOnline("u3"))
}

func TestSet_EventsBeforeSeedArePreserved(t *testing.T) {
	backend := new(mocks.BackendMock)
	backend.On("GetOnlineUsers", mock.Anything).
		Return([]string{"u1"}, nil)

	s := NewSet(backend)

	// Push events can race ahead of the snapshot read.
	s.Apply("u3", true)

	require.NoError(t, s.Seed(context.Background()))
	assert.Equal(t, []string{"u1", "u3"}, s.List())
}

func TestSet_ApplyOfflineRemoves(t *testing.T) {
	s := NewSet(new(mocks.BackendMock))

	s.Apply("u1", true)
	s.Apply("u2", true)
	s.Apply("u1", false)

	assert.False(t, s.IsOnline("u1"))
	assert.Equal(t, []string{"u2"}, s.List())
}

func TestSet_SeedFailureCanBeRetried(t *testing.T) {
	backend := new(mocks.BackendMock)
	backend.On("GetOnlineUsers", mock.Anything).
		Return(nil, errors.New("boom")).Once()
	backend.On("GetOnlineUsers", mock.Anything).
		Return([]string{"u1"}, nil).Once()

	s := NewSet(backend)
	ctx := context.Background()

	assert.Error(t, s.Seed(ctx))
	assert.False(t, s.IsOnline("u1"))

	require.NoError(t, s.Seed(ctx))
	assert.True(t, s.IsOnline("u1"))
}
