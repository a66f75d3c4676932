package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMockProvider()

	agentID, err := m.CreateAgent(ctx, AgentSpec{Name: "director", Model: "gpt-4o"})
	require.NoError(t, err)
	fileID, err := m.UploadFile(ctx, "notes.txt", []byte("hello"))
	require.NoError(t, err)
	vsID, err := m.CreateVectorStore(ctx, "docs", []string{fileID})
	require.NoError(t, err)
	threadID, err := m.CreateThread(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, m.AgentCount())
	assert.Equal(t, 1, m.FileCount())
	assert.Equal(t, 1, m.VectorStoreCount())
	assert.Equal(t, 1, m.ThreadCount())

	require.NoError(t, m.DeleteAgent(ctx, agentID))
	require.NoError(t, m.DeleteFile(ctx, fileID))
	require.NoError(t, m.DeleteVectorStore(ctx, vsID))
	require.NoError(t, m.DeleteThread(ctx, threadID))

	// Deleting absent resources is clean.
	require.NoError(t, m.DeleteAgent(ctx, agentID))
	require.NoError(t, m.DeleteFile(ctx, fileID))
}

func TestMockProviderRun(t *testing.T) {
	ctx := context.Background()
	m := NewMockProvider()
	m.AddResponse("hello", "hi there")

	agentID, err := m.CreateAgent(ctx, AgentSpec{Name: "a"})
	require.NoError(t, err)
	threadID, err := m.CreateThread(ctx)
	require.NoError(t, err)
	_, err = m.AddMessage(ctx, threadID, RoleUser, "hello")
	require.NoError(t, err)

	events, err := m.Run(ctx, threadID, agentID)
	require.NoError(t, err)

	var completed *CompletedEvent
	for ev := range events {
		if c, ok := ev.(CompletedEvent); ok {
			completed = &c
		}
	}
	require.NotNil(t, completed)
	assert.Equal(t, "hi there", completed.Text)

	msgs, err := m.ListMessages(ctx, threadID, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, "hi there", msgs[0].Text)
}

func TestMockProviderScriptedFunctionCall(t *testing.T) {
	ctx := context.Background()
	m := NewMockProvider()

	agentID, _ := m.CreateAgent(ctx, AgentSpec{Name: "a", DeclareHandoff: true})
	threadID, _ := m.CreateThread(ctx)
	m.QueueFunctionCall(agentID, HandoffToolName, "{}")

	events, err := m.Run(ctx, threadID, agentID)
	require.NoError(t, err)

	var sawCall bool
	for ev := range events {
		if fc, ok := ev.(FunctionCallEvent); ok {
			sawCall = true
			assert.Equal(t, HandoffToolName, fc.Name)
		}
	}
	assert.True(t, sawCall)

	// Scripted calls fire once.
	events, err = m.Run(ctx, threadID, agentID)
	require.NoError(t, err)
	for ev := range events {
		_, isCall := ev.(FunctionCallEvent)
		assert.False(t, isCall)
	}
}

func TestMockProviderFailureInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMockProvider()

	fileID, _ := m.UploadFile(ctx, "doc.txt", []byte("x"))
	boom := errors.New("rate limited")
	m.FailOn("DeleteFile", fileID, boom)

	err := m.DeleteFile(ctx, fileID)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.FileCount())
}
