package session

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/Dzamal6/AMS-API/core"
)

func TestInMemoryStore_SetGetClear(t *testing.T) {
	store := NewInMemoryStore()
	sessionID := uuid.New()

	if _, err := store.Get(sessionID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	tr := core.NewTracker(sessionID, "thread_1")
	tr.RecordAgentUse("asst_a")
	if err := store.Set(tr.Snapshot()); err != nil {
		t.Fatalf("set: %v", err)
	}

	snap, err := store.Get(sessionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.ThreadID != "thread_1" || len(snap.AgentIDs) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// Mutating the returned snapshot must not affect stored state.
	snap.AgentIDs[0] = "mutated"
	again, _ := store.Get(sessionID)
	if again.AgentIDs[0] != "asst_a" {
		t.Fatalf("expected isolation, got %q", again.AgentIDs[0])
	}

	if err := store.Clear(sessionID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Get(sessionID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
	// Clearing again stays clean.
	if err := store.Clear(sessionID); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}

func TestInMemoryStore_Concurrency(t *testing.T) {
	store := NewInMemoryStore()
	sessionID := uuid.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr := core.NewTracker(sessionID, "thread_1")
			_ = store.Set(tr.Snapshot())
			_, _ = store.Get(sessionID)
		}()
	}
	wg.Wait()
	if _, err := store.Get(sessionID); err != nil {
		t.Fatalf("get after concurrent writes: %v", err)
	}
}
