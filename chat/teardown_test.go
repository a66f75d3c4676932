package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dzamal6/AMS-API/core"
)

func TestEndSessionReleasesEverything(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tracker := env.startConversation(t)

	agent := env.addAgent(t, &core.AgentDefinition{Name: "Researcher"})
	handle, err := env.svc.Provision(ctx, agent.ID, tracker)
	require.NoError(t, err)
	require.NotEmpty(t, handle.RemoteID)

	result := env.svc.EndSession(ctx, tracker)
	assert.True(t, result.OK())
	assert.NoError(t, result.Err())
	assert.Equal(t, 1, result.AgentsDeleted)
	assert.True(t, result.ThreadDeleted)

	assert.Equal(t, 0, env.provider.AgentCount())
	assert.Equal(t, 0, env.provider.ThreadCount())
	// Tracker reset after a clean teardown.
	assert.Empty(t, tracker.AgentIDs())
	assert.Empty(t, tracker.ThreadID())
}

func TestEndSessionIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tracker := env.startConversation(t)
	_, err := env.svc.Provision(ctx, env.director(t).ID, tracker)
	require.NoError(t, err)

	first := env.svc.EndSession(ctx, tracker)
	require.True(t, first.OK())

	second := env.svc.EndSession(ctx, tracker)
	assert.True(t, second.OK())
	assert.Empty(t, second.Failures)
}

func TestEndSessionPartialFailureRetainsIDs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tracker := env.startConversation(t)

	handles := make([]core.RemoteAgentHandle, 0, 5)
	for i := 0; i < 5; i++ {
		agent := env.addAgent(t, &core.AgentDefinition{Name: fmt.Sprintf("Stage %d", i)})
		h, err := env.svc.Provision(ctx, agent.ID, tracker)
		require.NoError(t, err)
		handles = append(handles, h)
	}

	boom := errors.New("backend unavailable")
	env.provider.FailOn("DeleteAgent", handles[1].RemoteID, boom)
	env.provider.FailOn("DeleteAgent", handles[3].RemoteID, boom)
	env.provider.FailOn("DeleteAgent", handles[4].RemoteID, boom)

	result := env.svc.EndSession(ctx, tracker)
	assert.False(t, result.OK())
	assert.Error(t, result.Err())
	assert.Equal(t, 2, result.AgentsDeleted)
	require.Len(t, result.Failures, 3)
	failed := make(map[string]bool)
	for _, f := range result.Failures {
		assert.Equal(t, core.ResourceAgent, f.Kind)
		assert.ErrorIs(t, f.Err, boom)
		failed[f.ID] = true
	}
	assert.True(t, failed[handles[1].RemoteID])
	assert.True(t, failed[handles[3].RemoteID])
	assert.True(t, failed[handles[4].RemoteID])

	// Tracker keeps its state so the caller can retry the failed ids.
	assert.Len(t, tracker.AgentIDs(), 5)

	// Clear the injected faults; the retry succeeds and resets the tracker.
	env.provider.FailOn("DeleteAgent", handles[1].RemoteID, nil)
	env.provider.FailOn("DeleteAgent", handles[3].RemoteID, nil)
	env.provider.FailOn("DeleteAgent", handles[4].RemoteID, nil)

	retry := env.svc.EndSession(ctx, tracker)
	assert.True(t, retry.OK())
	assert.Equal(t, 0, env.provider.AgentCount())
	assert.Empty(t, tracker.AgentIDs())
}

func TestEndSessionDeletesFilesAndVectorStore(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tracker := env.startConversation(t)

	agent := env.addAgent(t, &core.AgentDefinition{Name: "Reader"})
	doc, err := env.repo.AddDocument(ctx, &core.Document{
		Name:        "handbook.txt",
		ContentHash: "hash-handbook",
		StorageKey:  "docs/handbook.txt",
		ModuleIDs:   []uuid.UUID{env.module.ID},
		AgentIDs:    []uuid.UUID{agent.ID},
	})
	require.NoError(t, err)
	require.NoError(t, env.objects.Put(ctx, doc.Document.StorageKey, []byte("employee handbook")))

	_, err = env.svc.Provision(ctx, agent.ID, tracker)
	require.NoError(t, err)
	require.Equal(t, 1, env.provider.FileCount())
	require.Equal(t, 1, env.provider.VectorStoreCount())

	result := env.svc.EndSession(ctx, tracker)
	assert.True(t, result.OK())
	assert.Equal(t, 1, result.FilesDeleted)
	assert.True(t, result.VectorStoreDeleted)
	assert.Equal(t, 0, env.provider.FileCount())
	assert.Equal(t, 0, env.provider.VectorStoreCount())
}
