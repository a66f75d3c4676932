package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Dzamal6/AMS-API/core"
)

// InMemoryStore is a volatile TrackerStore implementation keeping snapshots
// in a process local map. It is safe for concurrent access and best suited
// for tests or single-instance deployments. Snapshots are restored through
// the tracker's copy semantics so callers cannot mutate stored state.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]core.TrackerSnapshot
}

var _ TrackerStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in-memory tracker store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[uuid.UUID]core.TrackerSnapshot)}
}

// Get returns the stored snapshot or ErrNotFound.
func (s *InMemoryStore) Get(sessionID uuid.UUID) (core.TrackerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[sessionID]
	if !ok {
		return core.TrackerSnapshot{}, ErrNotFound
	}
	return core.RestoreTracker(snap).Snapshot(), nil
}

// Set stores a defensive copy of the snapshot.
func (s *InMemoryStore) Set(snap core.TrackerSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.SessionID] = core.RestoreTracker(snap).Snapshot()
	return nil
}

// Clear removes a session's snapshot.
func (s *InMemoryStore) Clear(sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, sessionID)
	return nil
}
