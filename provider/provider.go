// Package provider abstracts the remote model platform behind a small
// interface covering agents, files, vector stores, threads and runs. The
// openai and anthropic subpackages implement it; MockProvider backs tests.
package provider

import "context"

// AgentSpec describes a remote agent to create.
type AgentSpec struct {
	Name         string
	Instructions string
	Model        string

	// DeclareHandoff registers the point_to_agent function tool on the
	// remote agent so the model can trigger a hand-off by calling it.
	DeclareHandoff bool

	// VectorStoreID, when non-empty, attaches an existing retrieval index
	// to the agent's file search tool.
	VectorStoreID string
}

// Message is a single thread message as returned by ListMessages.
type Message struct {
	ID   string
	Role string
	Text string
}

// Roles used on thread messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// HandoffToolName is the function tool remote agents call to pass control.
const HandoffToolName = "point_to_agent"

// RunEvent is a unit of streamed run output. Implementations are
// TextDeltaEvent, FunctionCallEvent, CompletedEvent and FailedEvent.
type RunEvent interface {
	isRunEvent()
}

// TextDeltaEvent carries an incremental piece of assistant text.
type TextDeltaEvent struct {
	Text string
}

func (TextDeltaEvent) isRunEvent() {}

// FunctionCallEvent reports a function tool invocation made by the model
// during the run. The provider resolves the remote side of the call itself;
// callers act on the event (e.g. a hand-off) after the run settles.
type FunctionCallEvent struct {
	CallID    string
	Name      string
	Arguments string
}

func (FunctionCallEvent) isRunEvent() {}

// Usage reports token consumption for a single run as accounted by the
// provider. Providers that do not meter a run leave it zero.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

// CompletedEvent terminates a successful run with the full assistant reply.
type CompletedEvent struct {
	Text      string
	MessageID string
	Usage     Usage
}

func (CompletedEvent) isRunEvent() {}

// FailedEvent terminates a failed run. It is always the last event.
type FailedEvent struct {
	Err error
}

func (FailedEvent) isRunEvent() {}

// Provider is the remote platform surface the orchestration layer depends
// on. Implementations must make every Delete* call idempotent: deleting an
// already-absent resource returns nil.
type Provider interface {
	// CreateAgent provisions a remote agent and returns its id.
	CreateAgent(ctx context.Context, spec AgentSpec) (string, error)
	// DeleteAgent removes a remote agent.
	DeleteAgent(ctx context.Context, agentID string) error

	// UploadFile pushes file content and returns the remote file id.
	UploadFile(ctx context.Context, name string, content []byte) (string, error)
	// DeleteFile removes a remote file.
	DeleteFile(ctx context.Context, fileID string) error

	// CreateVectorStore builds a retrieval index over the given files.
	CreateVectorStore(ctx context.Context, name string, fileIDs []string) (string, error)
	// AddVectorStoreFiles attaches more files to an existing index.
	AddVectorStoreFiles(ctx context.Context, vectorStoreID string, fileIDs []string) error
	// DeleteVectorStore removes a retrieval index.
	DeleteVectorStore(ctx context.Context, vectorStoreID string) error

	// CreateThread opens a conversation thread and returns its id.
	CreateThread(ctx context.Context) (string, error)
	// DeleteThread removes a thread.
	DeleteThread(ctx context.Context, threadID string) error

	// AddMessage appends a message to a thread and returns the message id.
	AddMessage(ctx context.Context, threadID, role, text string) (string, error)
	// ListMessages returns up to limit thread messages, most recent first.
	ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error)
	// DeleteMessage removes a single message from a thread.
	DeleteMessage(ctx context.Context, threadID, messageID string) error

	// Run executes the agent against the thread and streams events on the
	// returned channel. The channel closes after a CompletedEvent or
	// FailedEvent. Cancelling ctx aborts the run with a FailedEvent.
	Run(ctx context.Context, threadID, agentID string) (<-chan RunEvent, error)
}
