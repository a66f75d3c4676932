package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Dzamal6/AMS-API/core"
)

// ErrNotFound is returned when no tracker snapshot exists for a session.
var ErrNotFound = fmt.Errorf("session tracker not found")

// TrackerStore persists tracker snapshots keyed by session id.
type TrackerStore interface {
	// Get returns the stored snapshot or ErrNotFound.
	Get(sessionID uuid.UUID) (core.TrackerSnapshot, error)
	// Set stores (or overwrites) the snapshot for its session id.
	Set(snap core.TrackerSnapshot) error
	// Clear removes a session's snapshot. Clearing an absent id is a no-op.
	Clear(sessionID uuid.UUID) error
}
