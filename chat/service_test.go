package chat

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dzamal6/AMS-API/core"
	"github.com/Dzamal6/AMS-API/provider"
	"github.com/Dzamal6/AMS-API/storage"
	"github.com/Dzamal6/AMS-API/store"
)

type testEnv struct {
	svc      *Service
	repo     *store.SQLiteStore
	provider *provider.MockProvider
	objects  *storage.InMemoryStore
	module   *core.ModuleDefinition
}

func newTestEnv(t *testing.T, optFns ...func(o *Options)) *testEnv {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "ams.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	mock := provider.NewMockProvider()
	objects := storage.NewInMemoryStore()

	module := &core.ModuleDefinition{Name: "test-module", FlowControl: core.FlowControlAI, Summaries: true, Analytics: true}
	require.NoError(t, repo.CreateModule(context.Background(), module))

	return &testEnv{
		svc:      NewService(repo, mock, objects, optFns...),
		repo:     repo,
		provider: mock,
		objects:  objects,
		module:   module,
	}
}

// director returns the module's seeded Director agent.
func (e *testEnv) director(t *testing.T) *core.AgentDefinition {
	t.Helper()
	agents, err := e.repo.ListAgents(context.Background(), e.module.ID)
	require.NoError(t, err)
	for i := range agents {
		if agents[i].Director {
			return &agents[i]
		}
	}
	t.Fatal("module has no director")
	return nil
}

// addAgent creates an extra agent in the test module.
func (e *testEnv) addAgent(t *testing.T, agent *core.AgentDefinition) *core.AgentDefinition {
	t.Helper()
	agent.ModuleID = e.module.ID
	if agent.Model == "" {
		agent.Model = "gpt-4o"
	}
	if agent.Instructions == "" {
		agent.Instructions = "You are a helpful AI assistant."
	}
	require.NoError(t, e.repo.CreateAgent(context.Background(), agent))
	return agent
}

// startConversation opens a thread-backed tracker for the test module.
func (e *testEnv) startConversation(t *testing.T) *core.Tracker {
	t.Helper()
	tracker, err := e.svc.StartConversation(context.Background(), e.module.ID, "user-1")
	require.NoError(t, err)
	return tracker
}

// collect drains a chunk stream into a slice.
func collect(ch <-chan core.Chunk) []core.Chunk {
	var chunks []core.Chunk
	for c := range ch {
		chunks = append(chunks, c)
	}
	return chunks
}

// lastDone returns the terminal DoneChunk of a stream, failing on ErrorChunk.
func lastDone(t *testing.T, chunks []core.Chunk) core.DoneChunk {
	t.Helper()
	require.NotEmpty(t, chunks)
	switch last := chunks[len(chunks)-1].(type) {
	case core.DoneChunk:
		return last
	case core.ErrorChunk:
		t.Fatalf("turn failed: %v", last.Err)
	default:
		t.Fatalf("stream ended with %T, want DoneChunk", last)
	}
	return core.DoneChunk{}
}

// findHandoff returns the stream's HandoffChunk, if any.
func findHandoff(chunks []core.Chunk) (core.HandoffChunk, bool) {
	for _, c := range chunks {
		if h, ok := c.(core.HandoffChunk); ok {
			return h, true
		}
	}
	return core.HandoffChunk{}, false
}
