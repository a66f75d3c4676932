package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dzamal6/AMS-API/core"
	"github.com/Dzamal6/AMS-API/provider"
)

func TestTriggerForSelectsStrategy(t *testing.T) {
	assert.IsType(t, TextFlagTrigger{}, TriggerFor(&core.AgentDefinition{SwitchFlag: "NEXT"}))
	assert.IsType(t, ToolCallTrigger{}, TriggerFor(&core.AgentDefinition{}))
}

func TestToolCallTriggerDetect(t *testing.T) {
	agent := &core.AgentDefinition{}

	d := ToolCallTrigger{}.Detect(TurnOutput{
		Text:          "passing you along",
		FunctionCalls: []provider.FunctionCallEvent{{CallID: "call_1", Name: provider.HandoffToolName}},
	}, agent)
	assert.True(t, d.Triggered)
	assert.True(t, d.PurgeExchange)
	assert.Equal(t, "passing you along", d.CleanText)

	d = ToolCallTrigger{}.Detect(TurnOutput{
		Text:          "plain reply",
		FunctionCalls: []provider.FunctionCallEvent{{CallID: "call_2", Name: "unrelated_tool"}},
	}, agent)
	assert.False(t, d.Triggered)
}

func TestTextFlagTriggerDetect(t *testing.T) {
	agent := &core.AgentDefinition{SwitchFlag: "HANDOFF"}

	d := TextFlagTrigger{}.Detect(TurnOutput{Text: "I am done. handoff"}, agent)
	assert.True(t, d.Triggered)
	assert.False(t, d.PurgeExchange)
	assert.Equal(t, "I am done. ", d.CleanText)

	d = TextFlagTrigger{}.Detect(TurnOutput{Text: "still going"}, agent)
	assert.False(t, d.Triggered)
}

func TestResolveHandoffWithoutSuccessor(t *testing.T) {
	env := newTestEnv(t)
	director := env.director(t)
	tracker := env.startConversation(t)

	before := tracker.AgentIDs()
	_, err := env.svc.ResolveHandoff(context.Background(), director, tracker)
	assert.ErrorIs(t, err, core.ErrNoSuccessor)
	assert.Equal(t, before, tracker.AgentIDs())
}

func TestResolveHandoffProvisionsSuccessor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	tracker := env.startConversation(t)

	follow := env.addAgent(t, &core.AgentDefinition{Name: "Follow-up", InitialPrompt: "Ask a follow-up question."})
	director := env.director(t)
	director.Successor = &follow.ID
	require.NoError(t, env.repo.UpdateAgent(ctx, director))

	directorHandle, err := env.svc.Provision(ctx, director.ID, tracker)
	require.NoError(t, err)

	result, err := env.svc.ResolveHandoff(ctx, director, tracker)
	require.NoError(t, err)
	assert.Equal(t, follow.ID, result.NextAgentID)
	assert.Equal(t, "Ask a follow-up question.", result.InitialPrompt)

	// Tracker shows both remote agents in invocation order.
	assert.Equal(t, []string{directorHandle.RemoteID, result.Handle.RemoteID}, tracker.AgentIDs())
	current := tracker.Current()
	require.NotNil(t, current)
	assert.Equal(t, follow.ID, current.AgentID)
}
