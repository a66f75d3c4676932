package core

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Tracker owns the ephemeral half of a conversation: the ordered list of
// remote agent ids used so far, the accumulated remote file ids, the shared
// retrieval index and the currently live RemoteAgentHandle. It is the single
// authority over these resources — no other component may hold them — so
// teardown can delete each exactly once.
//
// All mutating operations are safe for concurrent use; a conversation is
// normally single-writer but concurrent turns must not lose updates.
//
// Contract:
//   - RecordAgentUse appends only when the id differs from the current last
//     entry; non-adjacent repeats are legitimate (switching back).
//   - RecordFiles unions; ids are never dropped except via explicit Reset
//     after teardown.
//   - Snapshot returns a serializable copy for the client-carried token;
//     RestoreTracker is its inverse.
type Tracker struct {
	mu            sync.RWMutex
	sessionID     uuid.UUID
	threadID      string
	agentIDs      []string
	fileIDs       []string
	vectorStoreID string
	current       *RemoteAgentHandle
}

// TrackerSnapshot is the serializable view of a Tracker, shaped for the
// client-carried session token. Encoding/signing of the token itself is the
// session package's concern.
type TrackerSnapshot struct {
	SessionID     uuid.UUID          `json:"session_id"`
	ThreadID      string             `json:"thread_id"`
	AgentIDs      []string           `json:"agent_ids"`
	FileIDs       []string           `json:"file_ids"`
	VectorStoreID string             `json:"vector_store_id,omitempty"`
	Current       *RemoteAgentHandle `json:"current,omitempty"`
}

// NewTracker creates a tracker for the given durable session and remote thread.
func NewTracker(sessionID uuid.UUID, threadID string) *Tracker {
	return &Tracker{sessionID: sessionID, threadID: threadID}
}

// RestoreTracker rebuilds a tracker from a previously taken snapshot.
func RestoreTracker(snap TrackerSnapshot) *Tracker {
	t := &Tracker{
		sessionID:     snap.SessionID,
		threadID:      snap.ThreadID,
		agentIDs:      append([]string(nil), snap.AgentIDs...),
		fileIDs:       append([]string(nil), snap.FileIDs...),
		vectorStoreID: snap.VectorStoreID,
	}
	if snap.Current != nil {
		cp := *snap.Current
		cp.FileIDs = append([]string(nil), snap.Current.FileIDs...)
		t.current = &cp
	}
	return t
}

// SessionID returns the durable ConversationSession id this tracker belongs to.
func (t *Tracker) SessionID() uuid.UUID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}

// ThreadID returns the provider-side thread id.
func (t *Tracker) ThreadID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.threadID
}

// RecordAgentUse appends a remote agent id to the invocation-ordered list
// unless it is already the last entry.
func (t *Tracker) RecordAgentUse(remoteID string) {
	if remoteID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.agentIDs); n > 0 && t.agentIDs[n-1] == remoteID {
		return
	}
	t.agentIDs = append(t.agentIDs, remoteID)
}

// RecordFiles unions the given provider file ids into the accumulated set.
func (t *Tracker) RecordFiles(fileIDs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range fileIDs {
		if id == "" || containsString(t.fileIDs, id) {
			continue
		}
		t.fileIDs = append(t.fileIDs, id)
	}
}

// SetVectorStore records the conversation's shared retrieval index id. The
// first non-empty id wins; later provisioning reuses it.
func (t *Tracker) SetVectorStore(id string) {
	if id == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.vectorStoreID == "" {
		t.vectorStoreID = id
	}
}

// VectorStoreID returns the shared retrieval index id, or "".
func (t *Tracker) VectorStoreID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.vectorStoreID
}

// SetCurrent installs the live handle for the active agent and records its
// remote id and file ids.
func (t *Tracker) SetCurrent(h RemoteAgentHandle) {
	t.mu.Lock()
	cp := h
	cp.FileIDs = append([]string(nil), h.FileIDs...)
	t.current = &cp
	t.mu.Unlock()

	t.RecordAgentUse(h.RemoteID)
	t.RecordFiles(h.FileIDs)
	t.SetVectorStore(h.VectorStoreID)
}

// Current returns a copy of the live handle, or nil before the first
// provisioning of the conversation.
func (t *Tracker) Current() *RemoteAgentHandle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return nil
	}
	cp := *t.current
	cp.FileIDs = append([]string(nil), t.current.FileIDs...)
	return &cp
}

// AgentIDs returns a copy of the invocation-ordered remote agent id list.
func (t *Tracker) AgentIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.agentIDs...)
}

// FileIDs returns a copy of the accumulated remote file id set.
func (t *Tracker) FileIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.fileIDs...)
}

// Snapshot returns a serializable copy of the tracker state.
func (t *Tracker) Snapshot() TrackerSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := TrackerSnapshot{
		SessionID:     t.sessionID,
		ThreadID:      t.threadID,
		AgentIDs:      append([]string(nil), t.agentIDs...),
		FileIDs:       append([]string(nil), t.fileIDs...),
		VectorStoreID: t.vectorStoreID,
	}
	if t.current != nil {
		cp := *t.current
		cp.FileIDs = append([]string(nil), t.current.FileIDs...)
		snap.Current = &cp
	}
	return snap
}

// Reset drops all tracked resource ids, the thread included. Call only
// after teardown has reported them deleted; resetting earlier leaks remote
// resources, and a retained thread id would be deleted a second time on the
// next teardown.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.threadID = ""
	t.agentIDs = nil
	t.fileIDs = nil
	t.vectorStoreID = ""
	t.current = nil
}

// MarshalJSON serializes the tracker via its snapshot.
func (t *Tracker) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Snapshot())
}

// UnmarshalJSON restores the tracker from snapshot JSON.
func (t *Tracker) UnmarshalJSON(data []byte) error {
	var snap TrackerSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	*t = *RestoreTracker(snap)
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
