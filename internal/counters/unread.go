// Package counters holds the unread tallies: the global notification unread
// count and the per-sender chat unread map. Local increments are a display
// optimization; the authoritative fetch always wins.
package counters

import (
	"context"
	"sync"

	"feedsync/internal/api"
	"feedsync/internal/observability"
)

// Unread is the global notification unread counter.
type Unread struct {
	mu      sync.Mutex
	backend api.Backend
	log     *observability.StoreLogger
	count   int
}

// NewUnread creates a zeroed counter.
func NewUnread(backend api.Backend) *Unread {
	return &Unread{
		backend: backend,
		log:     observability.NewStoreLogger("unread"),
	}
}

// Count returns the current local tally.
func (u *Unread) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.count
}

// Increment bumps the tally by one.
func (u *Unread) Increment() {
	u.mu.Lock()
	u.count++
	u.publish()
	u.mu.Unlock()
}

// Decrement lowers the tally by one, never below zero.
func (u *Unread) Decrement() {
	u.mu.Lock()
	if u.count > 0 {
		u.count--
	}
	u.publish()
	u.mu.Unlock()
}

// Reset zeroes the tally. Loading the feed view consumes it.
func (u *Unread) Reset() {
	u.mu.Lock()
	u.count = 0
	u.publish()
	u.mu.Unlock()
}

// Reconcile overwrites the running tally with the authoritative count. Called
// on feed-panel open and on app focus; the authoritative value always wins
// over the local tally, whether higher or lower.
func (u *Unread) Reconcile(ctx context.Context) error {
	n, err := u.backend.GetUnreadCount(ctx)
	if err != nil {
		return err
	}
	u.mu.Lock()
	changed := u.count != n
	u.count = n
	u.publish()
	u.mu.Unlock()
	if changed {
		u.log.LogReconcile(ctx, map[string]interface{}{"count": n})
	}
	return nil
}

// publish mirrors the tally to the gauge. Caller holds the lock.
func (u *Unread) publish() {
	observability.UnreadCount.Set(float64(u.count))
}
