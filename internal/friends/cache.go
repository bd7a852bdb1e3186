// Package friends caches the per-peer friendship verdict and keeps it
// reconciled after mutating actions.
package friends

import (
	"context"
	"sync"
	"time"

	"feedsync/internal/api"
	"feedsync/internal/models"
	"feedsync/internal/observability"
	"feedsync/internal/signals"
)

const reverifyReadTimeout = 5 * time.Second

// Cache holds one cached relationship verdict per peer user. Values are
// refreshed opportunistically and overwritten by delayed authoritative
// re-reads after mutating actions.
type Cache struct {
	mu      sync.Mutex
	backend api.Backend
	sig     *signals.Broadcaster
	log     *observability.StoreLogger
	entries map[string]models.FriendshipStatus
	timers  map[string]*time.Timer
	gens    map[string]uint64
	closed  bool
}

// NewCache creates an empty cache. sig may be nil; status-change signals are
// then skipped.
func NewCache(backend api.Backend, sig *signals.Broadcaster) *Cache {
	return &Cache{
		backend: backend,
		sig:     sig,
		log:     observability.NewStoreLogger("friendship_status"),
		entries: make(map[string]models.FriendshipStatus),
		timers:  make(map[string]*time.Timer),
		gens:    make(map[string]uint64),
	}
}

// Get returns the cached verdict for the peer, fetching and storing it on a
// miss. A rejected authoritative value is always presented as none. On fetch
// failure the zero verdict none is returned alongside the error; nothing is
// cached.
func (c *Cache) Get(ctx context.Context, peerID string) (models.FriendshipStatus, error) {
	c.mu.Lock()
	if st, ok := c.entries[peerID]; ok {
		c.mu.Unlock()
		return st, nil
	}
	c.mu.Unlock()

	st, err := c.backend.GetFriendshipStatus(ctx, peerID)
	if err != nil {
		return models.FriendshipStatusNone, err
	}
	norm := st.Normalize()
	c.mu.Lock()
	c.entries[peerID] = norm
	c.mu.Unlock()
	return norm, nil
}

// GetMany resolves verdicts for all peers with parallel independent fetches.
// A peer whose fetch fails resolves to none rather than failing the batch,
// and is not cached.
func (c *Cache) GetMany(ctx context.Context, peerIDs []string) map[string]models.FriendshipStatus {
	out := make(map[string]models.FriendshipStatus, len(peerIDs))

	seen := make(map[string]struct{}, len(peerIDs))
	var missing []string
	c.mu.Lock()
	for _, p := range peerIDs {
		if _, dup := seen[p]; dup || p == "" {
			continue
		}
		seen[p] = struct{}{}
		if st, ok := c.entries[p]; ok {
			out[p] = st
		} else {
			missing = append(missing, p)
		}
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	var outMu sync.Mutex
	for _, p := range missing {
		wg.Add(1)
		go func(peer string) {
			defer wg.Done()
			st, err := c.backend.GetFriendshipStatus(ctx, peer)
			norm := models.FriendshipStatusNone
			if err != nil {
				c.log.LogError(ctx, err, "get_many")
			} else {
				norm = st.Normalize()
				c.mu.Lock()
				c.entries[peer] = norm
				c.mu.Unlock()
			}
			outMu.Lock()
			out[peer] = norm
			outMu.Unlock()
		}(p)
	}
	wg.Wait()
	return out
}

// Set writes an optimistic verdict for the peer.
func (c *Cache) Set(peerID string, st models.FriendshipStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[peerID] = st.Normalize()
}

// Invalidate drops the cached entry for the peer.
func (c *Cache) Invalidate(peerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, peerID)
}

// ReverifyAfter schedules exactly one authoritative re-read for the peer
// after the delay. Scheduling again before the timer fires supersedes the
// earlier schedule: at most one pending timer per peer, last-scheduled-wins.
// The delay masks backend read-after-write lag; it is a UX smoothing measure,
// not a correctness mechanism.
func (c *Cache) ReverifyAfter(peerID string, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.gens[peerID]++
	gen := c.gens[peerID]
	if t, ok := c.timers[peerID]; ok {
		t.Stop()
	}
	c.timers[peerID] = time.AfterFunc(delay, func() {
		c.reverify(peerID, gen)
	})
}

func (c *Cache) reverify(peerID string, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), reverifyReadTimeout)
	defer cancel()

	st, err := c.backend.GetFriendshipStatus(ctx, peerID)

	c.mu.Lock()
	if c.closed || c.gens[peerID] != gen {
		// A newer schedule superseded this read; its result must not
		// overwrite state out of order.
		c.mu.Unlock()
		return
	}
	delete(c.timers, peerID)
	if err != nil {
		c.mu.Unlock()
		observability.LogBackgroundError(ctx, "friendship_reverify", err)
		return
	}
	norm := st.Normalize()
	old, had := c.entries[peerID]
	c.entries[peerID] = norm
	changed := !had || old != norm
	c.mu.Unlock()

	if changed && c.sig != nil {
		c.sig.Emit(signals.TopicFriendshipStatusChanged)
	}
}

// Close stops all pending reverification timers.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for peer, t := range c.timers {
		t.Stop()
		delete(c.timers, peer)
	}
}
