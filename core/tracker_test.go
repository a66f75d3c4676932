package core

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordAgentUse(t *testing.T) {
	tr := NewTracker(uuid.New(), "thread_1")

	tr.RecordAgentUse("asst_a")
	tr.RecordAgentUse("asst_a") // adjacent repeat collapses
	tr.RecordAgentUse("asst_b")
	tr.RecordAgentUse("asst_a") // switching back is a new entry

	assert.Equal(t, []string{"asst_a", "asst_b", "asst_a"}, tr.AgentIDs())
}

func TestTrackerRecordFilesUnion(t *testing.T) {
	tr := NewTracker(uuid.New(), "thread_1")

	tr.RecordFiles([]string{"file_1", "file_2"})
	tr.RecordFiles([]string{"file_2", "file_3", ""})

	assert.Equal(t, []string{"file_1", "file_2", "file_3"}, tr.FileIDs())
}

func TestTrackerSetCurrent(t *testing.T) {
	tr := NewTracker(uuid.New(), "thread_1")
	agentID := uuid.New()

	tr.SetCurrent(RemoteAgentHandle{
		AgentID:       agentID,
		RemoteID:      "asst_a",
		FileIDs:       []string{"file_1"},
		VectorStoreID: "vs_1",
	})

	cur := tr.Current()
	require.NotNil(t, cur)
	assert.Equal(t, agentID, cur.AgentID)
	assert.Equal(t, []string{"asst_a"}, tr.AgentIDs())
	assert.Equal(t, []string{"file_1"}, tr.FileIDs())
	assert.Equal(t, "vs_1", tr.VectorStoreID())

	// First vector store id wins.
	tr.SetCurrent(RemoteAgentHandle{AgentID: uuid.New(), RemoteID: "asst_b", VectorStoreID: "vs_2"})
	assert.Equal(t, "vs_1", tr.VectorStoreID())
}

func TestTrackerCurrentReturnsCopy(t *testing.T) {
	tr := NewTracker(uuid.New(), "thread_1")
	tr.SetCurrent(RemoteAgentHandle{RemoteID: "asst_a", FileIDs: []string{"file_1"}})

	cur := tr.Current()
	cur.FileIDs[0] = "mutated"
	cur.RemoteID = "mutated"

	again := tr.Current()
	assert.Equal(t, "asst_a", again.RemoteID)
	assert.Equal(t, []string{"file_1"}, again.FileIDs)
}

func TestTrackerSnapshotRoundTrip(t *testing.T) {
	sessionID := uuid.New()
	tr := NewTracker(sessionID, "thread_1")
	tr.SetCurrent(RemoteAgentHandle{AgentID: uuid.New(), RemoteID: "asst_a", FileIDs: []string{"file_1"}, VectorStoreID: "vs_1"})
	tr.RecordAgentUse("asst_b")

	data, err := json.Marshal(tr)
	require.NoError(t, err)

	var restored Tracker
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, sessionID, restored.SessionID())
	assert.Equal(t, "thread_1", restored.ThreadID())
	assert.Equal(t, tr.AgentIDs(), restored.AgentIDs())
	assert.Equal(t, tr.FileIDs(), restored.FileIDs())
	assert.Equal(t, "vs_1", restored.VectorStoreID())
	require.NotNil(t, restored.Current())
	assert.Equal(t, "asst_a", restored.Current().RemoteID)
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker(uuid.New(), "thread_1")
	tr.SetCurrent(RemoteAgentHandle{RemoteID: "asst_a", FileIDs: []string{"file_1"}, VectorStoreID: "vs_1"})

	tr.Reset()

	assert.Empty(t, tr.ThreadID())
	assert.Empty(t, tr.AgentIDs())
	assert.Empty(t, tr.FileIDs())
	assert.Empty(t, tr.VectorStoreID())
	assert.Nil(t, tr.Current())
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker(uuid.New(), "thread_1")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tr.RecordAgentUse("asst_a")
			tr.RecordFiles([]string{"file_1"})
			_ = tr.Snapshot()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []string{"asst_a"}, tr.AgentIDs())
	assert.Equal(t, []string{"file_1"}, tr.FileIDs())
}
