package inventory

import (
	"sync/atomic"
)

// Store holds the current snapshot. Readers never block; a reload swaps the
// whole snapshot so in-flight queries keep the one they started with.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store serving s. A nil snapshot is replaced by an empty one.
func NewStore(s *Snapshot) *Store {
	st := &Store{}
	if s == nil {
		s = Empty()
	}
	st.current.Store(s)
	return st
}

// Snapshot returns the current snapshot
func (st *Store) Snapshot() *Snapshot {
	return st.current.Load()
}

// Replace installs next and returns the previous snapshot.
func (st *Store) Replace(next *Snapshot) *Snapshot {
	if next == nil {
		next = Empty()
	}
	return st.current.Swap(next)
}
