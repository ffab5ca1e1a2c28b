// Package cache holds the in-process snapshot store for the background-
// refreshed leaderboard. The store is written only by the refresh worker and
// read by request handlers, so the pair of slots is swapped under one lock
// and never updated piecemeal.
package cache

import (
	"context"
	"sync"

	"github.com/tygolabs/leaderboard-api/internal/domain/leaderboard"
)

// Snapshots keeps the most recent successful current-month and previous-month
// leaderboards. Both slots start as empty (non-nil) slices and live for the
// process lifetime; a failed refresh leaves the prior pair in place.
type Snapshots struct {
	mu       sync.RWMutex
	current  []leaderboard.Entry
	previous []leaderboard.Entry
}

func NewSnapshots() *Snapshots {
	return &Snapshots{
		current:  []leaderboard.Entry{},
		previous: []leaderboard.Entry{},
	}
}

// Current returns a copy of the current-month slot.
func (s *Snapshots) Current(_ context.Context) []leaderboard.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntries(s.current)
}

// Previous returns a copy of the previous-month slot.
func (s *Snapshots) Previous(_ context.Context) []leaderboard.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntries(s.previous)
}

// ReplaceBoth swaps both slots as a pair. Readers never observe one slot
// updated while the other is stale.
func (s *Snapshots) ReplaceBoth(_ context.Context, current, previous []leaderboard.Entry) {
	current = copyEntries(current)
	previous = copyEntries(previous)

	s.mu.Lock()
	s.current = current
	s.previous = previous
	s.mu.Unlock()
}

func copyEntries(entries []leaderboard.Entry) []leaderboard.Entry {
	out := make([]leaderboard.Entry, len(entries))
	copy(out, entries)
	return out
}
