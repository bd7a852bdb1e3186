package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcaster_EmitReachesAllTopicListeners(t *testing.T) {
	b := New()

	calls1, calls2, other := 0, 0, 0
	b.On(TopicFriendshipChanged, func(any) { calls1++ })
	b.On(TopicFriendshipChanged, func(any) { calls2++ })
	b.On(TopicChatClosed, func(any) { other++ })

	b.Emit(TopicFriendshipChanged)

	assert.Equal(t, 1, calls1)
	assert.Equal(t, 1, calls2)
	assert.Equal(t, 0, other)
}

func TestBroadcaster_OffRemovesListener(t *testing.T) {
	b := New()

	calls := 0
	tok := b.On(TopicChatClosed, func(any) { calls++ })

	b.Emit(TopicChatClosed)
	b.Off(tok)
	b.Emit(TopicChatClosed)

	assert.Equal(t, 1, calls)
}

func TestBroadcaster_EmitPayload(t *testing.T) {
	b := New()

	var got any
	b.On(TopicFriendshipStatusChanged, func(payload any) { got = payload })

	b.EmitPayload(TopicFriendshipStatusChanged, "peer-1")
	assert.Equal(t, "peer-1", got)
}

func TestBroadcaster_PanickingListenerIsIsolated(t *testing.T) {
	b := New()

	b.On(TopicAppFocus, func(any) { panic("boom") })
	calls := 0
	b.On(TopicAppFocus, func(any) { calls++ })

	assert.NotPanics(t, func() { b.Emit(TopicAppFocus) })
	assert.Equal(t, 1, calls)
}

func TestBroadcaster_EmitWithoutListenersIsNoop(t *testing.T) {
	b := New()
	assert.NotPanics(t, func() { b.Emit(TopicFriendshipChanged) })
}
