package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"feedsync/internal/mocks"
	"feedsync/internal/models"
	"feedsync/internal/signals"
)

func publish(s *Session, eventType string, payload string) {
	s.Bus.Publish(models.PushEvent{
		Type:    eventType,
		Payload: json.RawMessage(payload),
	})
}

func TestSession_RoutesNotificationToFeed(t *testing.T) {
	s := New("me", new(mocks.BackendMock), Options{})
	defer func() { _ = s.Shutdown(context.Background()) }()

	publish(s, models.EventNotification, `{"id":"n1","type":"post_liked"}`)

	assert.Equal(t, 1, s.Unread.Count())
}

func TestSession_BareTypedFrameRoutesAsNotification(t *testing.T) {
	s := New("me", new(mocks.BackendMock), Options{})
	defer func() { _ = s.Shutdown(context.Background()) }()

	// A bare frame decodes with the notification type on the envelope and the
	// type field missing from the payload; routing backfills it.
	ev, err := models.DecodePushEvent([]byte(`{"type":"friend_request","id":"n1","sender":{"id":"peer-1"}}`))
	require.NoError(t, err)

	signalled := 0
	s.Signals.On(signals.TopicFriendshipChanged, func(any) { signalled++ })

	s.Bus.Publish(ev)

	assert.Equal(t, 1, s.Unread.Count())
	assert.Equal(t, 1, signalled)
}

func TestSession_DropsMalformedNotificationPayload(t *testing.T) {
	s := New("me", new(mocks.BackendMock), Options{})
	defer func() { _ = s.Shutdown(context.Background()) }()

	publish(s, models.EventNotification, `{"type":"post_liked"}`) // no id
	publish(s, models.EventNotification, `not json`)

	assert.Equal(t, 0, s.Unread.Count())
}

func TestSession_ChatMessageOnlyCountsForReceiver(t *testing.T) {
	s := New("me", new(mocks.BackendMock), Options{})
	defer func() { _ = s.Shutdown(context.Background()) }()

	publish(s, models.EventChatMessage, `{"id":"m1","sender_id":"u2","receiver_id":"me"}`)
	publish(s, models.EventChatMessage, `{"id":"m2","sender_id":"u2","receiver_id":"someone-else"}`)

	assert.Equal(t, 1, s.ChatUnread.CountFor("u2"))
}

func TestSession_PresenceEventsUpdateSet(t *testing.T) {
	s := New("me", new(mocks.BackendMock), Options{})
	defer func() { _ = s.Shutdown(context.Background()) }()

	publish(s, models.EventPresenceChanged, `{"user_id":"u1","online":true}`)
	assert.True(t, s.Presence.IsOnline("u1"))

	publish(s, models.EventPresenceChanged, `{"user_id":"u1","online":false}`)
	assert.False(t, s.Presence.IsOnline("u1"))
}

func TestSession_StartSeedsPresenceBestEffort(t *testing.T) {
	backend := new(mocks.BackendMock)
	backend.On("GetOnlineUsers", mock.Anything).
		Return([]string{"u1"}, nil)

	s := New("me", backend, Options{})
	defer func() { _ = s.Shutdown(context.Background()) }()

	s.Start(context.Background())
	assert.True(t, s.Presence.IsOnline("u1"))
}

func TestSession_FocusReconcilesUnread(t *testing.T) {
	backend := new(mocks.BackendMock)
	backend.On("GetUnreadCount", mock.Anything).Return(4, nil)

	s := New("me", backend, Options{})
	defer func() { _ = s.Shutdown(context.Background()) }()

	s.OnAppFocus()

	assert.Equal(t, 4, s.Unread.Count())
}

func TestSession_ShutdownDetachesEverything(t *testing.T) {
	backend := new(mocks.BackendMock)

	s := New("me", backend, Options{})
	require.NoError(t, s.Shutdown(context.Background()))

	// Events after shutdown reach nothing.
	publish(s, models.EventNotification, `{"id":"n1","type":"post_liked"}`)
	assert.Equal(t, 0, s.Unread.Count())

	// The focus hook is gone; no reconcile request goes out.
	s.OnAppFocus()
	time.Sleep(20 * time.Millisecond)
	backend.AssertNotCalled(t, "GetUnreadCount", mock.Anything)
}
