package counters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"feedsync/internal/mocks"
	"feedsync/internal/signals"
)

func TestChatUnread_ApplyAndOpenThread(t *testing.T) {
	c := NewChatUnread(new(mocks.BackendMock))

	c.ApplyMessage("u1")
	c.ApplyMessage("u1")
	c.ApplyMessage("u2")
	assert.Equal(t, 2, c.CountFor("u1"))
	assert.Equal(t, map[string]int{"u1": 2, "u2": 1}, c.Counts())

	c.OpenThread("u1")
	counts := c.Counts()
	_, present := counts["u1"]
	assert.False(t, present, "opened thread's key is removed, not zeroed")
	assert.Equal(t, 1, counts["u2"])
}

func TestChatUnread_RefreshReplacesMap(t *testing.T) {
	backend := new(mocks.BackendMock)
	backend.On("GetChatUnreadBySenders", mock.Anything).
		Return(map[string]int{"u3": 4}, nil)

	c := NewChatUnread(backend)
	c.ApplyMessage("u1")

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, map[string]int{"u3": 4}, c.Counts())
}

func TestChatUnread_ChatClosedSignalTriggersRefresh(t *testing.T) {
	backend := new(mocks.BackendMock)
	backend.On("GetChatUnreadBySenders", mock.Anything).
		Return(map[string]int{"u9": 1}, nil)

	sig := signals.New()
	c := NewChatUnread(backend)
	c.Bind(sig)
	defer c.Unbind()

	c.ApplyMessage("u1")
	sig.Emit(signals.TopicChatClosed)

	assert.Eventually(t, func() bool {
		counts := c.Counts()
		return len(counts) == 1 && counts["u9"] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestChatUnread_UnbindDetaches(t *testing.T) {
	backend := new(mocks.BackendMock)

	sig := signals.New()
	c := NewChatUnread(backend)
	c.Bind(sig)
	c.Unbind()

	sig.Emit(signals.TopicChatClosed)
	time.Sleep(20 * time.Millisecond)
	backend.AssertNumberOfCalls(t, "GetChatUnreadBySenders", 0)
}
