// Package session wires the sync core together for one login session: one
// bus, one local signal channel, and one instance of each store, torn down
// together at logout.
package session

import (
	"context"
	"encoding/json"
	"time"

	"feedsync/internal/api"
	"feedsync/internal/bus"
	"feedsync/internal/counters"
	"feedsync/internal/feed"
	"feedsync/internal/friends"
	"feedsync/internal/models"
	"feedsync/internal/observability"
	"feedsync/internal/presence"
	"feedsync/internal/signals"
)

const focusReconcileTimeout = 5 * time.Second

// Options tune the session.
type Options struct {
	FeedPageSize  int
	ReverifyDelay time.Duration
}

// Session owns the process-wide sync state for the current user.
type Session struct {
	userID  string
	backend api.Backend

	Bus        *bus.Bus
	Signals    *signals.Broadcaster
	Feed       *feed.Store
	Statuses   *friends.Cache
	Unread     *counters.Unread
	ChatUnread *counters.ChatUnread
	Presence   *presence.Set

	busSub   bus.Subscription
	focusTok signals.Token
}

// New constructs and wires a session for the given user.
func New(userID string, backend api.Backend, opts Options) *Session {
	b := bus.New()
	sig := signals.New()

	statuses := friends.NewCache(backend, sig)
	unread := counters.NewUnread(backend)
	chatUnread := counters.NewChatUnread(backend)
	chatUnread.Bind(sig)

	s := &Session{
		userID:  userID,
		backend: backend,
		Bus:     b,
		Signals: sig,
		Feed: feed.NewStore(backend, statuses, unread, sig, feed.Config{
			PageSize:      opts.FeedPageSize,
			ReverifyDelay: opts.ReverifyDelay,
		}),
		Statuses:   statuses,
		Unread:     unread,
		ChatUnread: chatUnread,
		Presence:   presence.NewSet(backend),
	}

	s.busSub = b.Subscribe(s.route)
	s.focusTok = sig.On(signals.TopicAppFocus, func(any) {
		ctx, cancel := context.WithTimeout(context.Background(), focusReconcileTimeout)
		defer cancel()
		observability.LogBackgroundError(ctx, "focus_unread_reconcile", s.Unread.Reconcile(ctx))
	})

	return s
}

// Start seeds the presence set. Seeding is best-effort; a failure is logged
// and the set stays empty until presence pushes arrive.
func (s *Session) Start(ctx context.Context) {
	observability.LogBackgroundError(ctx, "presence_seed", s.Presence.Seed(ctx))
}

// route applies one push event to the store it belongs to. An event a store
// cannot interpret is dropped by that store alone.
func (s *Session) route(ev models.PushEvent) {
	ctx := context.Background()
	switch {
	case ev.Type == models.EventNotification || models.NotificationType(ev.Type).IsKnown():
		var n models.Notification
		if err := json.Unmarshal(ev.Payload, &n); err != nil || n.ID == "" {
			observability.LogDroppedPayload(ctx, ev.Type, models.NewMalformedPayloadError(err))
			return
		}
		if n.Type == "" {
			n.Type = models.NotificationType(ev.Type)
		}
		s.Feed.ApplyPushed(n)

	case ev.Type == models.EventChatMessage:
		var m models.ChatMessage
		if err := json.Unmarshal(ev.Payload, &m); err != nil || m.SenderID == "" {
			observability.LogDroppedPayload(ctx, ev.Type, models.NewMalformedPayloadError(err))
			return
		}
		if m.ReceiverID == s.userID {
			s.ChatUnread.ApplyMessage(m.SenderID)
		}

	case ev.Type == models.EventPresenceChanged:
		var p models.PresenceEvent
		if err := json.Unmarshal(ev.Payload, &p); err != nil || p.UserID == "" {
			observability.LogDroppedPayload(ctx, ev.Type, models.NewMalformedPayloadError(err))
			return
		}
		s.Presence.Apply(p.UserID, p.Online)
	}
}

// OnAppFocus tells the session the application regained focus; the unread
// tally reconciles against the authoritative count.
func (s *Session) OnAppFocus() {
	s.Signals.Emit(signals.TopicAppFocus)
}

// Shutdown tears the session down: subscriptions detach and pending
// reverification timers stop.
func (s *Session) Shutdown(_ context.Context) error {
	s.Bus.Unsubscribe(s.busSub)
	s.Signals.Off(s.focusTok)
	s.ChatUnread.Unbind()
	s.Statuses.Close()
	return nil
}
