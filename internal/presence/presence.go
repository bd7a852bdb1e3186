// Package presence tracks which peers are currently online. The set is
// seeded once per session by a snapshot read and then kept current by push
// events only; staleness is acceptable and no re-reconciliation is performed.
package presence

import (
	"context"
	"sort"
	"sync"

	"feedsync/internal/api"
	"feedsync/internal/observability"
)

// Set is the session-lifetime set of online peer ids.
type Set struct {
	mu      sync.RWMutex
	backend api.Backend
	online  map[string]struct{}
	seeded  bool
}

// NewSet creates an empty set.
func NewSet(backend api.Backend) *Set {
	return &Set{
		backend: backend,
		online:  make(map[string]struct{}),
	}
}

// Seed loads the online snapshot. Only the first successful call per session
// takes effect; presence events applied before the seed are preserved.
func (s *Set) Seed(ctx context.Context) error {
	s.mu.RLock()
	seeded := s.seeded
	s.mu.RUnlock()
	if seeded {
		return nil
	}

	ids, err := s.backend.GetOnlineUsers(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.seeded {
		for _, id := range ids {
			s.online[id] = struct{}{}
		}
		s.seeded = true
		observability.PresenceSetSize.Set(float64(len(s.online)))
	}
	s.mu.Unlock()
	return nil
}

// Apply records a presence push event: online adds the peer, offline removes it.
func (s *Set) Apply(userID string, online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if online {
		s.online[userID] = struct{}{}
	} else {
		delete(s.online, userID)
	}
	observability.PresenceSetSize.Set(float64(len(s.online)))
}

// IsOnline reports whether the peer is currently considered online.
func (s *Set) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.online[userID]
	return ok
}

// List returns the online peer ids, sorted for stable output.
func (s *Set) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.online))
	for id := range s.online {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
