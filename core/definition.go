package core

import (
	"time"

	"github.com/google/uuid"
)

// FlowControl selects who drives a module's conversation flow.
type FlowControl string

const (
	// FlowControlAI lets agents steer the conversation, including
	// autonomous hand-offs to their successor agents.
	FlowControlAI FlowControl = "AI"
	// FlowControlUser leaves flow decisions to the user.
	FlowControlUser FlowControl = "User"
)

// AgentDefinition is the durable, admin-managed description of one agent in
// a module's conversation flow. Remote (provider-side) agents are created
// lazily from this definition per conversation and torn down with it.
//
// Invariants:
//   - Successor, when set, must reference an existing AgentDefinition.
//   - A module has at most one Director, one Summarizer and one Analytic.
type AgentDefinition struct {
	ID           uuid.UUID `json:"id"`
	ModuleID     uuid.UUID `json:"module_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Instructions string    `json:"instructions"`
	Model        string    `json:"model"`

	// WrapperPrompt, when non-empty, is folded around every user turn sent
	// to this agent. See chat.Wrap.
	WrapperPrompt string `json:"wrapper_prompt,omitempty"`
	// InitialPrompt is used only on the first turn after a hand-off to this
	// agent. See chat.IncludeInitial.
	InitialPrompt string `json:"initial_prompt,omitempty"`

	// Successor points at the agent this one may hand off to. Nil means
	// hand-offs from this agent degrade to "stay on current agent".
	Successor *uuid.UUID `json:"successor,omitempty"`
	// SwitchFlag, when non-empty, selects the legacy textual hand-off
	// trigger: the flag substring is pattern-matched (case-insensitive) in
	// completed responses instead of declaring the hand-off tool. Empty
	// selects the tool-call trigger. The two strategies are mutually
	// exclusive per agent.
	SwitchFlag string `json:"switch_flag,omitempty"`

	Director   bool `json:"director"`
	Summarizer bool `json:"summarizer"`
	Analytic   bool `json:"analytic"`

	// DocumentIDs are the retrieval documents attached to this agent.
	DocumentIDs []uuid.UUID `json:"document_ids,omitempty"`

	Created      time.Time `json:"created"`
	LastModified time.Time `json:"last_modified"`
}

// HasSuccessor reports whether this agent can hand off to another agent.
func (a *AgentDefinition) HasSuccessor() bool { return a.Successor != nil }

// ModuleDefinition groups agents and documents into one selectable
// conversation flow.
type ModuleDefinition struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"` // unique
	Description string      `json:"description,omitempty"`
	FlowControl FlowControl `json:"flow_control"`

	// Feature flags.
	Voice     bool `json:"voice"`
	Summaries bool `json:"summaries"`
	Analytics bool `json:"analytics"`

	AgentIDs    []uuid.UUID `json:"agent_ids,omitempty"`
	DocumentIDs []uuid.UUID `json:"document_ids,omitempty"`

	Created      time.Time `json:"created"`
	LastModified time.Time `json:"last_modified"`
}

// Document is an uploaded retrieval source shared between modules and
// agents. Content lives in object storage under StorageKey; the row carries
// only metadata. ContentHash (SHA-256 of the bytes) is unique so that
// re-uploading identical bytes attaches an association instead of
// duplicating storage.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContentHash string    `json:"content_hash"`
	StorageKey  string    `json:"storage_key"`
	Size        int64     `json:"size"`

	ModuleIDs []uuid.UUID `json:"module_ids,omitempty"`
	AgentIDs  []uuid.UUID `json:"agent_ids,omitempty"`

	Created time.Time `json:"created"`
}
