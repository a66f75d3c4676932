package core

import (
	"time"

	"github.com/google/uuid"
)

// RemoteAgentHandle maps one AgentDefinition to a currently-live remote
// agent instance within a single conversation. Handles are created lazily on
// first use, never persisted beyond session end, and must be destroyed
// exactly once via teardown.
type RemoteAgentHandle struct {
	// AgentID is the local AgentDefinition id this handle was provisioned for.
	AgentID uuid.UUID `json:"agent_id"`
	// RemoteID is the provider-side agent id.
	RemoteID string `json:"remote_id"`
	// FileIDs are the provider-side file ids uploaded for this agent's
	// retrieval documents.
	FileIDs []string `json:"file_ids,omitempty"`
	// VectorStoreID is the provider-side retrieval index the files were
	// attached to, if any.
	VectorStoreID string `json:"vector_store_id,omitempty"`
}

// ConversationSession is the durable half of a conversation: it survives
// teardown of the ephemeral tracker and is retained for a fixed window
// before a background sweep purges it.
type ConversationSession struct {
	ID       uuid.UUID `json:"id"`
	ModuleID uuid.UUID `json:"module_id"`

	// UserID is an opaque caller-supplied identity; its encoding belongs
	// to the excluded auth surface.
	UserID string `json:"user_id"`

	// ThreadID is the provider-side conversation thread.
	ThreadID string `json:"thread_id"`
	// LastAgentID is the definition id of the last active agent, nil
	// until the first completed turn.
	LastAgentID *uuid.UUID `json:"last_agent_id,omitempty"`

	// Derived artifacts written by utility agents at session end.
	Summary  string `json:"summary,omitempty"`
	Analysis string `json:"analysis,omitempty"`

	MessageCount int `json:"message_count"`

	Created      time.Time `json:"created"`
	LastModified time.Time `json:"last_modified"`
}

// SessionRetention is how long durable session records are kept before the
// background sweep removes them.
const SessionRetention = 60 * 24 * time.Hour
