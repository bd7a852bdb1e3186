// Package feed holds the ordered, de-duplicated notification feed and its
// read/unread state, and drives friend-request actions taken from it.
package feed

import (
	"context"
	"sort"
	"sync"
	"time"

	"feedsync/internal/api"
	"feedsync/internal/counters"
	"feedsync/internal/friends"
	"feedsync/internal/models"
	"feedsync/internal/observability"
	"feedsync/internal/signals"
)

// Decision is the user's verdict on a friend request notification.
type Decision string

const (
	// DecisionAccept accepts the underlying friend request.
	DecisionAccept Decision = "accept"
	// DecisionReject rejects the underlying friend request.
	DecisionReject Decision = "reject"
)

// Config tunes the store.
type Config struct {
	// PageSize is the bulk read page size.
	PageSize int
	// ReverifyDelay is the window before the post-accept authoritative
	// status re-read. Environment dependent; correctness never relies on it.
	ReverifyDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = 50
	}
	if c.ReverifyDelay <= 0 {
		c.ReverifyDelay = 300 * time.Millisecond
	}
}

// Store is the notification feed store.
type Store struct {
	backend  api.Backend
	statuses *friends.Cache
	unread   *counters.Unread
	sig      *signals.Broadcaster
	log      *observability.StoreLogger
	cfg      Config

	mu     sync.Mutex
	items  []models.Notification // newest first
	loaded bool
	// seen holds ids already counted toward the unread tally, so a re-pushed
	// id never double-counts even while the feed view is closed.
	seen map[string]struct{}
	// inFlight holds friendship ids currently being accepted or rejected.
	// It suppresses duplicate submissions per key, nothing more.
	inFlight map[string]struct{}
}

// NewStore creates a feed store backed by the given collaborators.
func NewStore(backend api.Backend, statuses *friends.Cache, unread *counters.Unread,
	sig *signals.Broadcaster, cfg Config) *Store {
	cfg.applyDefaults()
	return &Store{
		backend:  backend,
		statuses: statuses,
		unread:   unread,
		sig:      sig,
		log:      observability.NewStoreLogger("notification_feed"),
		cfg:      cfg,
		seen:     make(map[string]struct{}),
		inFlight: make(map[string]struct{}),
	}
}

// LoadFeed performs the authoritative bulk read, newest first. Friend request
// notifications whose friendship already reached accepted are suppressed so
// the feed never shows actionable UI for an already-resolved request. Loading
// the feed view is defined to consume it: all loaded items are flipped to
// read locally, the global unread counter is zeroed, and a best-effort
// mark-all-read request is issued.
func (s *Store) LoadFeed(ctx context.Context) ([]models.Notification, error) {
	list, err := s.backend.ListNotifications(ctx, s.cfg.PageSize, 0)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	var peers []string
	for i := range list {
		if list[i].Type == models.NotificationFriendRequest {
			if peer := list[i].SenderID(); peer != "" {
				peers = append(peers, peer)
			}
		}
	}
	statuses := s.statuses.GetMany(ctx, peers)

	filtered := make([]models.Notification, 0, len(list))
	for i := range list {
		if list[i].Type == models.NotificationFriendRequest {
			if statuses[list[i].SenderID()] == models.FriendshipStatusAccepted {
				continue
			}
		}
		n := list[i]
		n.IsRead = true
		filtered = append(filtered, n)
	}

	s.mu.Lock()
	s.items = filtered
	s.loaded = true
	for i := range filtered {
		s.seen[filtered[i].ID] = struct{}{}
	}
	s.mu.Unlock()

	s.unread.Reset()
	observability.LogBackgroundError(ctx, "mark_all_read", s.backend.MarkAllNotificationsRead(ctx))

	return s.Items(), nil
}

// ApplyPushed applies one pushed notification. The item is prepended only
// while the feed view is loaded, de-duplicated by id; the unread counter is
// incremented regardless of visibility, once per distinct unread id. A
// friendship lifecycle push additionally tells every friend surface to
// re-derive.
func (s *Store) ApplyPushed(n models.Notification) {
	if n.ID == "" {
		return
	}

	s.mu.Lock()
	if idx := s.indexOf(n.ID); idx >= 0 {
		// Duplicate insert rejected; is_read stays monotonic, a later
		// "unread" push for the same id never reverts it.
		if n.IsRead && !s.items[idx].IsRead {
			s.items[idx].IsRead = true
		}
		s.mu.Unlock()
		return
	}
	if _, dup := s.seen[n.ID]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[n.ID] = struct{}{}
	if s.loaded {
		s.items = append([]models.Notification{n}, s.items...)
	}
	s.mu.Unlock()

	if !n.IsRead {
		s.unread.Increment()
	}
	if n.Type.IsFriendshipLifecycle() {
		s.sig.Emit(signals.TopicFriendshipChanged)
	}
}

// MarkRead flips the item to read and lowers the global counter by at most
// one. Idempotent. The server call is best-effort: read-state is not critical
// enough to roll back on failure.
func (s *Store) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	dec := false
	if idx := s.indexOf(id); idx >= 0 && !s.items[idx].IsRead {
		s.items[idx].IsRead = true
		dec = true
	}
	s.mu.Unlock()

	if dec {
		s.unread.Decrement()
	}
	observability.LogBackgroundError(ctx, "mark_read", s.backend.MarkNotificationRead(ctx, id))
	return nil
}

// Delete removes the item locally, fixes the counter optimistically, then
// re-fetches the authoritative count to correct for drift. A failing server
// delete resyncs the feed via a fresh load rather than guessing.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	wasUnread := !s.items[idx].IsRead
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()

	if wasUnread {
		s.unread.Decrement()
	}

	if err := s.backend.DeleteNotification(ctx, id); err != nil {
		s.resync(ctx)
		return err
	}

	observability.LogBackgroundError(ctx, "unread_reconcile", s.unread.Reconcile(ctx))
	return nil
}

// ActOnFriendRequest resolves the friendship id the notification refers to
// and accepts or rejects it. Without a resolvable id it fails with a
// MissingReference error and performs no network call. A second activation
// for the same friendship id while one is in flight is ignored. On network
// failure the notification stays visible and the feed reloads to resync.
func (s *Store) ActOnFriendRequest(ctx context.Context, n *models.Notification, decision Decision) error {
	ref := n.FriendshipRef()
	if ref == "" {
		return models.NewMissingReferenceError("friendship")
	}
	if !s.tryAcquire(ref) {
		return nil
	}
	defer s.release(ref)

	peer := n.SenderID()

	switch decision {
	case DecisionAccept:
		if err := s.backend.AcceptFriendRequest(ctx, ref); err != nil {
			s.log.LogError(ctx, err, "accept_friend_request")
			s.resync(ctx)
			return err
		}
		s.sig.Emit(signals.TopicFriendshipChanged)
		if peer != "" {
			s.statuses.Set(peer, models.FriendshipStatusAccepted)
		}
		// Reload re-applies suppression and drops this notification.
		s.resync(ctx)
		if peer != "" {
			// Compensates for server-side read-after-write lag; the
			// authoritative value overwrites the optimistic one if it differs.
			s.statuses.ReverifyAfter(peer, s.cfg.ReverifyDelay)
		}
		return nil

	case DecisionReject:
		if err := s.backend.RejectFriendRequest(ctx, ref); err != nil {
			s.log.LogError(ctx, err, "reject_friend_request")
			s.resync(ctx)
			return err
		}
		if peer != "" {
			// A rejected request does not block re-sending.
			s.statuses.Set(peer, models.FriendshipStatusNone)
		}
		s.resync(ctx)
		s.sig.Emit(signals.TopicFriendshipStatusChanged)
		return nil

	default:
		return models.NewValidationError("decision must be accept or reject")
	}
}

// Items returns a copy of the current in-memory feed, newest first.
func (s *Store) Items() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Loaded reports whether the feed view is currently loaded/visible.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Unload marks the feed view closed. Pushed notifications keep counting
// toward the unread tally but are no longer prepended.
func (s *Store) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.items = nil
}

// InFlight reports whether an action for the friendship id is in flight.
// Callers use it to disable the corresponding controls.
func (s *Store) InFlight(friendshipID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[friendshipID]
	return ok
}

func (s *Store) resync(ctx context.Context) {
	if _, err := s.LoadFeed(ctx); err != nil {
		s.log.LogError(ctx, err, "feed_resync")
	}
}

// indexOf returns the position of the id in items. Caller holds the lock.
func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) tryAcquire(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[ref]; busy {
		return false
	}
	s.inFlight[ref] = struct{}{}
	return true
}

func (s *Store) release(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, ref)
}
