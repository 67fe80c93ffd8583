// Package history keeps completed jobs in memory, newest first.
package history

import (
	"slices"
	"sync"

	"go.aimuz.me/interviewcoder/internal/types"
)

// Store is safe for concurrent use. Entries are copied on the way in and
// out so callers cannot mutate stored history.
type Store struct {
	mu      sync.RWMutex
	entries []types.HistoryEntry
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Add records a completed job as the newest entry.
func (s *Store) Add(e types.HistoryEntry) {
	e = clone(e)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]types.HistoryEntry{e}, s.entries...)
}

// List returns all entries, newest first.
func (s *Store) List() []types.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.HistoryEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = clone(e)
	}
	return out
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func clone(e types.HistoryEntry) types.HistoryEntry {
	if e.Solution != nil {
		sol := *e.Solution
		e.Solution = &sol
	}
	e.Screenshots = slices.Clone(e.Screenshots)
	return e
}
