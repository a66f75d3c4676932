package storage

import (
	"context"
	"fmt"
)

var (
	// ErrNotFound is returned when no object exists under the given key.
	ErrNotFound = fmt.Errorf("object not found")
)

// ObjectStore persists raw document bytes under opaque storage keys. The
// document metadata (hash, associations, size) lives in the relational
// store; this layer only holds content.
type ObjectStore interface {
	// Put stores (or overwrites) the object bytes under key.
	Put(ctx context.Context, key string, data []byte) error
	// Get returns the object bytes or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the object. Deleting an absent key returns nil.
	Delete(ctx context.Context, key string) error
}
