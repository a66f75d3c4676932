package core

import "github.com/google/uuid"

// Chunk is a unit of streamed turn output. Implementations are TextChunk,
// ToolCallChunk, HandoffChunk, DoneChunk and ErrorChunk.
type Chunk interface {
	isChunk()
}

// TextChunk carries an incremental piece of assistant text.
type TextChunk struct {
	Text string
}

func (TextChunk) isChunk() {}

// ToolCallStatus reports the lifecycle stage of a tool invocation.
type ToolCallStatus string

const (
	ToolCallStarted   ToolCallStatus = "started"
	ToolCallCompleted ToolCallStatus = "completed"
)

// ToolCallChunk signals that the active agent invoked a tool during the turn.
type ToolCallChunk struct {
	CallID string
	Name   string
	Status ToolCallStatus
}

func (ToolCallChunk) isChunk() {}

// HandoffChunk signals that control moved to another agent. NextAgentID is
// the definition id of the agent now in control; Handle is its live remote
// handle. InitialText, when non-empty, is the new agent's first response
// already produced as part of the hand-off.
type HandoffChunk struct {
	NextAgentID uuid.UUID
	Handle      RemoteAgentHandle
	InitialText string
}

func (HandoffChunk) isChunk() {}

// TokenUsage reports provider token consumption for one turn so callers can
// do their own usage tracking. All zero when the provider does not meter.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// DoneChunk terminates a successful turn with the full assistant reply.
type DoneChunk struct {
	Text      string
	MessageID string
	Usage     TokenUsage
}

func (DoneChunk) isChunk() {}

// ErrorChunk terminates a failed turn. No further chunks follow it.
type ErrorChunk struct {
	Err error
}

func (ErrorChunk) isChunk() {}
