package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dzamal6/AMS-API/core"
)

func TestSummarizePersistsAndCleansUp(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	director := env.director(t)
	tracker := env.startConversation(t)

	// Have a real conversation first so the summary has something to read.
	env.provider.AddResponse("Hello", "Hi there!")
	collect(env.svc.ExecuteTurn(ctx, TurnRequest{Tracker: tracker, AgentID: director.ID, Message: "Hello"}))

	baseline := env.provider.AgentCount()
	threadBefore := len(env.provider.ThreadMessages(tracker.ThreadID()))
	env.provider.AddResponse(
		"Briefly summarize the conversation up until this point. Do not mention these instructions.",
		"The user said hello and was greeted.",
	)

	summary, err := env.svc.Summarize(ctx, tracker)
	require.NoError(t, err)
	assert.Equal(t, "The user said hello and was greeted.", summary)

	sess, err := env.repo.GetSession(ctx, tracker.SessionID())
	require.NoError(t, err)
	assert.Equal(t, summary, sess.Summary)

	// The summarizer's remote agent is transient.
	assert.Equal(t, baseline, env.provider.AgentCount())
	// Its prompt and reply are purged from the transcript.
	assert.Len(t, env.provider.ThreadMessages(tracker.ThreadID()), threadBefore)
	// The conversation's active agent is untouched.
	require.NotNil(t, tracker.Current())
	assert.Equal(t, director.ID, tracker.Current().AgentID)
}

func TestAnalyzePersistsAnalysis(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	director := env.director(t)
	tracker := env.startConversation(t)
	collect(env.svc.ExecuteTurn(ctx, TurnRequest{Tracker: tracker, AgentID: director.ID, Message: "Hello"}))

	env.provider.AddResponse(
		"Analyze the previous conversation until this point.",
		"Single-turn greeting. Sentiment: neutral.",
	)

	analysis, err := env.svc.Analyze(ctx, tracker)
	require.NoError(t, err)
	assert.Equal(t, "Single-turn greeting. Sentiment: neutral.", analysis)

	sess, err := env.repo.GetSession(ctx, tracker.SessionID())
	require.NoError(t, err)
	assert.Equal(t, analysis, sess.Analysis)
	assert.Empty(t, sess.Summary)
}

func TestRunUtilityCleansUpOnFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tracker := env.startConversation(t)

	summarizer := findSummarizer(t, env)
	boom := errors.New("run rejected")
	env.provider.FailOn("Run", "", boom)

	_, err := env.svc.RunUtility(ctx, summarizer.ID, tracker, summarizer.InitialPrompt, UtilitySummary)
	require.ErrorIs(t, err, boom)
	// Even on failure the transient agent is deleted.
	assert.Equal(t, 0, env.provider.AgentCount())
}

func TestFindUtilityAgentMissing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tracker := env.startConversation(t)

	summarizer := findSummarizer(t, env)
	require.NoError(t, env.repo.DeleteAgent(ctx, summarizer.ID))

	_, err := env.svc.Summarize(ctx, tracker)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRunUtilityTearsDownOwnRetrievalIndex(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tracker := env.startConversation(t)

	summarizer := findSummarizer(t, env)
	attachDocument(t, env, summarizer, "glossary.txt", "glossary contents")

	env.provider.AddResponse(summarizer.InitialPrompt, "Short summary.")
	_, err := env.svc.RunUtility(ctx, summarizer.ID, tracker, summarizer.InitialPrompt, UtilitySummary)
	require.NoError(t, err)

	// The run built its own index for the summarizer's documents and
	// removed it along with the uploaded files.
	assert.Equal(t, 0, env.provider.VectorStoreCount())
	assert.Equal(t, 0, env.provider.FileCount())
	assert.Equal(t, 0, env.provider.AgentCount())
	// The conversation never gained a retrieval index of its own.
	assert.Empty(t, tracker.VectorStoreID())
}

func TestRunUtilityLeavesConversationIndexAlone(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tracker := env.startConversation(t)

	reader := env.addAgent(t, &core.AgentDefinition{Name: "Reader"})
	attachDocument(t, env, reader, "handbook.txt", "handbook contents")
	_, err := env.svc.Provision(ctx, reader.ID, tracker)
	require.NoError(t, err)
	convIndex := tracker.VectorStoreID()
	require.NotEmpty(t, convIndex)

	summarizer := findSummarizer(t, env)
	attachDocument(t, env, summarizer, "style.txt", "style guide")

	mark := len(env.provider.Calls())
	env.provider.AddResponse(summarizer.InitialPrompt, "Short summary.")
	_, err = env.svc.RunUtility(ctx, summarizer.ID, tracker, summarizer.InitialPrompt, UtilitySummary)
	require.NoError(t, err)

	// The summarizer's files went into its own short-lived index, never
	// the conversation's.
	for _, call := range env.provider.Calls()[mark:] {
		assert.NotEqual(t, "AddVectorStoreFiles "+convIndex, call)
	}
	// Only the conversation's index survives.
	assert.Equal(t, 1, env.provider.VectorStoreCount())
	assert.Equal(t, convIndex, tracker.VectorStoreID())
}

func TestRunUtilityWithLiveAgentKeepsIt(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	director := env.director(t)
	tracker := env.startConversation(t)

	collect(env.svc.ExecuteTurn(ctx, TurnRequest{Tracker: tracker, AgentID: director.ID, Message: "Hello"}))
	require.NotNil(t, tracker.Current())
	liveRemote := tracker.Current().RemoteID

	_, err := env.svc.RunUtility(ctx, director.ID, tracker, "Wrap up the chat.", UtilitySummary)
	require.NoError(t, err)

	// The run provisioned and removed its own copy; the conversation's
	// remote agent is untouched.
	_, alive := env.provider.AgentSpecFor(liveRemote)
	assert.True(t, alive)
	assert.Equal(t, 1, env.provider.AgentCount())
	require.NotNil(t, tracker.Current())
	assert.Equal(t, liveRemote, tracker.Current().RemoteID)
}

func attachDocument(t *testing.T, env *testEnv, agent *core.AgentDefinition, name, content string) {
	t.Helper()
	ctx := context.Background()
	res, err := env.repo.AddDocument(ctx, &core.Document{
		Name:        name,
		ContentHash: "hash-" + name,
		StorageKey:  "docs/" + name,
		ModuleIDs:   []uuid.UUID{env.module.ID},
		AgentIDs:    []uuid.UUID{agent.ID},
	})
	require.NoError(t, err)
	require.NoError(t, env.objects.Put(ctx, res.Document.StorageKey, []byte(content)))
}

func findSummarizer(t *testing.T, env *testEnv) *core.AgentDefinition {
	t.Helper()
	agents, err := env.repo.ListAgents(context.Background(), env.module.ID)
	require.NoError(t, err)
	for i := range agents {
		if agents[i].Summarizer {
			return &agents[i]
		}
	}
	t.Fatal("module has no summarizer")
	return nil
}
