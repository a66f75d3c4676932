// Package store persists module, agent, document and chat session records.
// The canonical Repository interface lives here; sqlite.go provides the
// SQLite-backed implementation used in production and tests.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Dzamal6/AMS-API/core"
)

// UploadResult reports the outcome of registering a document. When content
// with the same hash already exists, Duplicate is true and Document refers
// to the existing record with the new associations merged in.
type UploadResult struct {
	Document  *core.Document
	Duplicate bool
}

// AgentStore manages agent definitions.
type AgentStore interface {
	CreateAgent(ctx context.Context, agent *core.AgentDefinition) error
	GetAgent(ctx context.Context, id uuid.UUID) (*core.AgentDefinition, error)
	ListAgents(ctx context.Context, moduleID uuid.UUID) ([]core.AgentDefinition, error)
	UpdateAgent(ctx context.Context, agent *core.AgentDefinition) error
	DeleteAgent(ctx context.Context, id uuid.UUID) error
}

// ModuleStore manages module definitions. CreateModule seeds the module's
// built-in utility agents; DeleteModule cascades to agents, sessions and
// document associations and returns the storage keys of documents that lost
// their last reference so the caller can remove the blobs.
type ModuleStore interface {
	CreateModule(ctx context.Context, module *core.ModuleDefinition) error
	GetModule(ctx context.Context, id uuid.UUID) (*core.ModuleDefinition, error)
	GetModuleByName(ctx context.Context, name string) (*core.ModuleDefinition, error)
	ListModules(ctx context.Context) ([]core.ModuleDefinition, error)
	UpdateModule(ctx context.Context, module *core.ModuleDefinition) error
	DeleteModule(ctx context.Context, id uuid.UUID) (orphanedKeys []string, err error)
}

// DocumentStore manages document metadata with content-hash deduplication.
type DocumentStore interface {
	AddDocument(ctx context.Context, doc *core.Document) (*UploadResult, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*core.Document, error)
	ListModuleDocuments(ctx context.Context, moduleID uuid.UUID) ([]core.Document, error)
	ListAgentDocuments(ctx context.Context, agentID uuid.UUID) ([]core.Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

// ChatSessionStore manages durable conversation sessions.
type ChatSessionStore interface {
	// EnsureSession returns the existing session or creates a new one.
	EnsureSession(ctx context.Context, id uuid.UUID, moduleID uuid.UUID, userID, threadID string) (*core.ConversationSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*core.ConversationSession, error)
	// RecordMessage bumps the session's message count and freshness.
	RecordMessage(ctx context.Context, id uuid.UUID, lastAgentID *uuid.UUID) error
	// SaveSummary and SaveAnalysis persist utility agent output.
	SaveSummary(ctx context.Context, id uuid.UUID, summary string) error
	SaveAnalysis(ctx context.Context, id uuid.UUID, analysis string) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	// PurgeExpired removes sessions untouched since the cutoff and
	// returns how many were deleted.
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// Repository aggregates all persistence concerns behind one handle.
type Repository interface {
	AgentStore
	ModuleStore
	DocumentStore
	ChatSessionStore

	Ping(ctx context.Context) error
	Close() error
}
