package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Dzamal6/AMS-API/core"
	"github.com/Dzamal6/AMS-API/logging"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

var _ Repository = (*SQLiteStore)(nil)

// SQLiteOptions configures the SQLite repository.
type SQLiteOptions struct {
	Logger logging.Logger
}

// NewSQLite creates a new SQLite-backed repository at dbPath.
func NewSQLite(dbPath string, optFns ...func(o *SQLiteOptions)) (*SQLiteStore, error) {
	opts := SQLiteOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for better concurrency; foreign keys on for cascades.
	// Pragmas go in the DSN so every pooled connection picks them up.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, logger: opts.Logger}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS modules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		flow_control TEXT NOT NULL,
		voice INTEGER NOT NULL DEFAULT 0,
		summaries INTEGER NOT NULL DEFAULT 0,
		analytics INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS agents (
		id TEXT PRIMARY KEY,
		module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		instructions TEXT NOT NULL,
		model TEXT NOT NULL,
		wrapper_prompt TEXT NOT NULL DEFAULT '',
		initial_prompt TEXT NOT NULL DEFAULT '',
		successor_id TEXT,
		switch_flag TEXT NOT NULL DEFAULT '',
		director INTEGER NOT NULL DEFAULT 0,
		summarizer INTEGER NOT NULL DEFAULT 0,
		analytic INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_agents_module ON agents(module_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_one_director ON agents(module_id) WHERE director = 1;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_one_summarizer ON agents(module_id) WHERE summarizer = 1;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_agents_one_analytic ON agents(module_id) WHERE analytic = 1;

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		content_hash TEXT NOT NULL UNIQUE,
		storage_key TEXT NOT NULL,
		size INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS module_documents (
		module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		PRIMARY KEY (module_id, document_id)
	);

	CREATE TABLE IF NOT EXISTS agent_documents (
		agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
		document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		PRIMARY KEY (agent_id, document_id)
	);

	CREATE TABLE IF NOT EXISTS chat_sessions (
		id TEXT PRIMARY KEY,
		module_id TEXT NOT NULL REFERENCES modules(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL DEFAULT '',
		thread_id TEXT NOT NULL DEFAULT '',
		last_agent_id TEXT,
		summary TEXT NOT NULL DEFAULT '',
		analysis TEXT NOT NULL DEFAULT '',
		message_count INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_sessions_updated ON chat_sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

//
// ModuleStore
//

// CreateModule inserts the module and seeds its built-in agents. The seeded
// agent ids are reflected back onto module.AgentIDs.
func (s *SQLiteStore) CreateModule(ctx context.Context, module *core.ModuleDefinition) error {
	now := time.Now()
	if module.ID == uuid.Nil {
		module.ID = uuid.New()
	}
	module.Created = now
	module.LastModified = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO modules (id, name, description, flow_control, voice, summaries, analytics, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		module.ID.String(), module.Name, module.Description, string(module.FlowControl),
		boolToInt(module.Voice), boolToInt(module.Summaries), boolToInt(module.Analytics),
		now.Unix(), now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateModule
		}
		return fmt.Errorf("insert module: %w", err)
	}

	seeds := []core.AgentDefinition{defaultDirector(module.ID, now)}
	if module.Summaries {
		seeds = append(seeds, defaultSummarizer(module.ID, now))
	}
	if module.Analytics {
		seeds = append(seeds, defaultAnalytic(module.ID, now))
	}
	module.AgentIDs = module.AgentIDs[:0]
	for i := range seeds {
		if err := insertAgent(ctx, tx, &seeds[i]); err != nil {
			return fmt.Errorf("seed agent %s: %w", seeds[i].Name, err)
		}
		module.AgentIDs = append(module.AgentIDs, seeds[i].ID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("created module", "module_id", module.ID, "name", module.Name, "seeded_agents", len(seeds))
	return nil
}

// GetModule retrieves a module with its agent and document associations.
func (s *SQLiteStore) GetModule(ctx context.Context, id uuid.UUID) (*core.ModuleDefinition, error) {
	return s.getModuleWhere(ctx, "id = ?", id.String())
}

// GetModuleByName retrieves a module by its unique name.
func (s *SQLiteStore) GetModuleByName(ctx context.Context, name string) (*core.ModuleDefinition, error) {
	return s.getModuleWhere(ctx, "name = ?", name)
}

func (s *SQLiteStore) getModuleWhere(ctx context.Context, where string, arg any) (*core.ModuleDefinition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, flow_control, voice, summaries, analytics, created_at, updated_at
		FROM modules WHERE `+where, arg)

	module, err := scanModule(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadModuleAssociations(ctx, module); err != nil {
		return nil, err
	}
	return module, nil
}

// ListModules returns all modules, newest first, without associations.
func (s *SQLiteStore) ListModules(ctx context.Context) ([]core.ModuleDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, flow_control, voice, summaries, analytics, created_at, updated_at
		FROM modules ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	var modules []core.ModuleDefinition
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, *m)
	}
	return modules, rows.Err()
}

// UpdateModule persists mutable module fields.
func (s *SQLiteStore) UpdateModule(ctx context.Context, module *core.ModuleDefinition) error {
	module.LastModified = time.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE modules SET name = ?, description = ?, flow_control = ?, voice = ?, summaries = ?, analytics = ?, updated_at = ?
		WHERE id = ?`,
		module.Name, module.Description, string(module.FlowControl),
		boolToInt(module.Voice), boolToInt(module.Summaries), boolToInt(module.Analytics),
		module.LastModified.Unix(), module.ID.String())
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateModule
		}
		return fmt.Errorf("update module: %w", err)
	}
	return requireRow(res)
}

// DeleteModule removes the module and everything hanging off it. Agents,
// sessions and document associations go via foreign key cascade; documents
// that lost their last association are deleted and their storage keys
// returned so the caller can remove the blobs.
func (s *SQLiteStore) DeleteModule(ctx context.Context, id uuid.UUID) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM modules WHERE id = ?`, id.String())
	if err != nil {
		return nil, fmt.Errorf("delete module: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, storage_key FROM documents d
		WHERE NOT EXISTS (SELECT 1 FROM module_documents md WHERE md.document_id = d.id)
		  AND NOT EXISTS (SELECT 1 FROM agent_documents ad WHERE ad.document_id = d.id)`)
	if err != nil {
		return nil, fmt.Errorf("query orphaned documents: %w", err)
	}
	var orphanIDs, orphanKeys []string
	for rows.Next() {
		var docID, key string
		if err := rows.Scan(&docID, &key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan orphaned document: %w", err)
		}
		orphanIDs = append(orphanIDs, docID)
		orphanKeys = append(orphanKeys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, docID := range orphanIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, docID); err != nil {
			return nil, fmt.Errorf("delete orphaned document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	s.logger.Info("deleted module", "module_id", id, "orphaned_documents", len(orphanKeys))
	return orphanKeys, nil
}

func (s *SQLiteStore) loadModuleAssociations(ctx context.Context, module *core.ModuleDefinition) error {
	agentIDs, err := s.collectIDs(ctx, `SELECT id FROM agents WHERE module_id = ? ORDER BY created_at`, module.ID.String())
	if err != nil {
		return err
	}
	module.AgentIDs = agentIDs

	docIDs, err := s.collectIDs(ctx, `SELECT document_id FROM module_documents WHERE module_id = ?`, module.ID.String())
	if err != nil {
		return err
	}
	module.DocumentIDs = docIDs
	return nil
}

//
// AgentStore
//

// CreateAgent inserts a new agent definition and links its documents.
func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *core.AgentDefinition) error {
	now := time.Now()
	if agent.ID == uuid.Nil {
		agent.ID = uuid.New()
	}
	agent.Created = now
	agent.LastModified = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertAgent(ctx, tx, agent); err != nil {
		return err
	}
	for _, docID := range agent.DocumentIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO agent_documents (agent_id, document_id) VALUES (?, ?)`,
			agent.ID.String(), docID.String()); err != nil {
			return fmt.Errorf("link agent document: %w", err)
		}
	}
	return tx.Commit()
}

func insertAgent(ctx context.Context, tx *sql.Tx, agent *core.AgentDefinition) error {
	var successor any
	if agent.Successor != nil {
		successor = agent.Successor.String()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO agents (id, module_id, name, description, instructions, model, wrapper_prompt,
			initial_prompt, successor_id, switch_flag, director, summarizer, analytic, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.ID.String(), agent.ModuleID.String(), agent.Name, agent.Description,
		agent.Instructions, agent.Model, agent.WrapperPrompt, agent.InitialPrompt,
		successor, agent.SwitchFlag,
		boolToInt(agent.Director), boolToInt(agent.Summarizer), boolToInt(agent.Analytic),
		agent.Created.Unix(), agent.LastModified.Unix())
	if err != nil {
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// GetAgent retrieves an agent definition with its document associations.
func (s *SQLiteStore) GetAgent(ctx context.Context, id uuid.UUID) (*core.AgentDefinition, error) {
	row := s.db.QueryRowContext(ctx, selectAgentQuery+` WHERE id = ?`, id.String())
	agent, err := scanAgent(row)
	if err != nil {
		return nil, err
	}
	docIDs, err := s.collectIDs(ctx, `SELECT document_id FROM agent_documents WHERE agent_id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	agent.DocumentIDs = docIDs
	return agent, nil
}

// ListAgents returns a module's agents in creation order.
func (s *SQLiteStore) ListAgents(ctx context.Context, moduleID uuid.UUID) ([]core.AgentDefinition, error) {
	rows, err := s.db.QueryContext(ctx, selectAgentQuery+` WHERE module_id = ? ORDER BY created_at`, moduleID.String())
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	var agents []core.AgentDefinition
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *agent)
	}
	return agents, rows.Err()
}

// UpdateAgent persists mutable agent fields and relinks documents.
func (s *SQLiteStore) UpdateAgent(ctx context.Context, agent *core.AgentDefinition) error {
	agent.LastModified = time.Now()
	var successor any
	if agent.Successor != nil {
		successor = agent.Successor.String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE agents SET name = ?, description = ?, instructions = ?, model = ?, wrapper_prompt = ?,
			initial_prompt = ?, successor_id = ?, switch_flag = ?, updated_at = ?
		WHERE id = ?`,
		agent.Name, agent.Description, agent.Instructions, agent.Model, agent.WrapperPrompt,
		agent.InitialPrompt, successor, agent.SwitchFlag,
		agent.LastModified.Unix(), agent.ID.String())
	if err != nil {
		return fmt.Errorf("update agent: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM agent_documents WHERE agent_id = ?`, agent.ID.String()); err != nil {
		return fmt.Errorf("unlink agent documents: %w", err)
	}
	for _, docID := range agent.DocumentIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO agent_documents (agent_id, document_id) VALUES (?, ?)`,
			agent.ID.String(), docID.String()); err != nil {
			return fmt.Errorf("link agent document: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteAgent removes an agent definition.
func (s *SQLiteStore) DeleteAgent(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	return requireRow(res)
}

//
// DocumentStore
//

// AddDocument registers document metadata. When the content hash already
// exists the new associations are merged onto the existing record instead.
func (s *SQLiteStore) AddDocument(ctx context.Context, doc *core.Document) (*UploadResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var existingID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM documents WHERE content_hash = ?`, doc.ContentHash).Scan(&existingID)
	duplicate := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query document hash: %w", err)
	}

	if !duplicate {
		if doc.ID == uuid.Nil {
			doc.ID = uuid.New()
		}
		doc.Created = time.Now()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, name, content_hash, storage_key, size, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			doc.ID.String(), doc.Name, doc.ContentHash, doc.StorageKey, doc.Size, doc.Created.Unix()); err != nil {
			return nil, fmt.Errorf("insert document: %w", err)
		}
		existingID = doc.ID.String()
	}

	for _, moduleID := range doc.ModuleIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO module_documents (module_id, document_id) VALUES (?, ?)`,
			moduleID.String(), existingID); err != nil {
			return nil, fmt.Errorf("link module document: %w", err)
		}
	}
	for _, agentID := range doc.AgentIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO agent_documents (agent_id, document_id) VALUES (?, ?)`,
			agentID.String(), existingID); err != nil {
			return nil, fmt.Errorf("link agent document: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	id, err := uuid.Parse(existingID)
	if err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	stored, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UploadResult{Document: stored, Duplicate: duplicate}, nil
}

// GetDocument retrieves document metadata with its associations.
func (s *SQLiteStore) GetDocument(ctx context.Context, id uuid.UUID) (*core.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, content_hash, storage_key, size, created_at
		FROM documents WHERE id = ?`, id.String())

	var doc core.Document
	var rawID string
	var createdAt int64
	if err := row.Scan(&rawID, &doc.Name, &doc.ContentHash, &doc.StorageKey, &doc.Size, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse document id: %w", err)
	}
	doc.ID = parsed
	doc.Created = time.Unix(createdAt, 0)

	doc.ModuleIDs, err = s.collectIDs(ctx, `SELECT module_id FROM module_documents WHERE document_id = ?`, rawID)
	if err != nil {
		return nil, err
	}
	doc.AgentIDs, err = s.collectIDs(ctx, `SELECT agent_id FROM agent_documents WHERE document_id = ?`, rawID)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListModuleDocuments returns documents linked to the module.
func (s *SQLiteStore) ListModuleDocuments(ctx context.Context, moduleID uuid.UUID) ([]core.Document, error) {
	return s.listDocumentsWhere(ctx, `
		SELECT d.id FROM documents d
		JOIN module_documents md ON md.document_id = d.id
		WHERE md.module_id = ? ORDER BY d.created_at`, moduleID.String())
}

// ListAgentDocuments returns documents linked to the agent.
func (s *SQLiteStore) ListAgentDocuments(ctx context.Context, agentID uuid.UUID) ([]core.Document, error) {
	return s.listDocumentsWhere(ctx, `
		SELECT d.id FROM documents d
		JOIN agent_documents ad ON ad.document_id = d.id
		WHERE ad.agent_id = ? ORDER BY d.created_at`, agentID.String())
}

func (s *SQLiteStore) listDocumentsWhere(ctx context.Context, query, arg string) ([]core.Document, error) {
	ids, err := s.collectIDs(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	docs := make([]core.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := s.GetDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// DeleteDocument removes document metadata and its associations.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRow(res)
}

//
// ChatSessionStore
//

// EnsureSession returns the session with the given id, creating it if absent.
func (s *SQLiteStore) EnsureSession(ctx context.Context, id uuid.UUID, moduleID uuid.UUID, userID, threadID string) (*core.ConversationSession, error) {
	now := time.Now()
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, module_id, user_id, thread_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		id.String(), moduleID.String(), userID, threadID, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("ensure session: %w", err)
	}
	return s.GetSession(ctx, id)
}

// GetSession retrieves a durable conversation session.
func (s *SQLiteStore) GetSession(ctx context.Context, id uuid.UUID) (*core.ConversationSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, module_id, user_id, thread_id, last_agent_id, summary, analysis, message_count, created_at, updated_at
		FROM chat_sessions WHERE id = ?`, id.String())

	var sess core.ConversationSession
	var rawID, rawModuleID string
	var lastAgent sql.NullString
	var createdAt, updatedAt int64
	err := row.Scan(&rawID, &rawModuleID, &sess.UserID, &sess.ThreadID, &lastAgent,
		&sess.Summary, &sess.Analysis, &sess.MessageCount, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if sess.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse session id: %w", err)
	}
	if sess.ModuleID, err = uuid.Parse(rawModuleID); err != nil {
		return nil, fmt.Errorf("parse module id: %w", err)
	}
	if lastAgent.Valid {
		agentID, err := uuid.Parse(lastAgent.String)
		if err != nil {
			return nil, fmt.Errorf("parse last agent id: %w", err)
		}
		sess.LastAgentID = &agentID
	}
	sess.Created = time.Unix(createdAt, 0)
	sess.LastModified = time.Unix(updatedAt, 0)
	return &sess, nil
}

// RecordMessage bumps the message count and freshness of a session.
func (s *SQLiteStore) RecordMessage(ctx context.Context, id uuid.UUID, lastAgentID *uuid.UUID) error {
	var agent any
	if lastAgentID != nil {
		agent = lastAgentID.String()
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE chat_sessions
		SET message_count = message_count + 1,
		    last_agent_id = COALESCE(?, last_agent_id),
		    updated_at = ?
		WHERE id = ?`,
		agent, time.Now().Unix(), id.String())
	if err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return requireRow(res)
}

// SaveSummary persists a conversation summary.
func (s *SQLiteStore) SaveSummary(ctx context.Context, id uuid.UUID, summary string) error {
	return s.saveArtifact(ctx, id, "summary", summary)
}

// SaveAnalysis persists a conversation analysis.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, id uuid.UUID, analysis string) error {
	return s.saveArtifact(ctx, id, "analysis", analysis)
}

func (s *SQLiteStore) saveArtifact(ctx context.Context, id uuid.UUID, column, value string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET `+column+` = ?, updated_at = ? WHERE id = ?`,
		value, time.Now().Unix(), id.String())
	if err != nil {
		return fmt.Errorf("save %s: %w", column, err)
	}
	return requireRow(res)
}

// DeleteSession removes a durable session row.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return requireRow(res)
}

// PurgeExpired removes sessions untouched since the cutoff.
func (s *SQLiteStore) PurgeExpired(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE updated_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		s.logger.Info("purged expired sessions", "count", n, "cutoff", cutoff)
	}
	return int(n), nil
}

//
// helpers
//

const selectAgentQuery = `
	SELECT id, module_id, name, description, instructions, model, wrapper_prompt,
		initial_prompt, successor_id, switch_flag, director, summarizer, analytic, created_at, updated_at
	FROM agents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*core.AgentDefinition, error) {
	var agent core.AgentDefinition
	var rawID, rawModuleID string
	var successor sql.NullString
	var director, summarizer, analytic int
	var createdAt, updatedAt int64

	err := row.Scan(&rawID, &rawModuleID, &agent.Name, &agent.Description, &agent.Instructions,
		&agent.Model, &agent.WrapperPrompt, &agent.InitialPrompt, &successor, &agent.SwitchFlag,
		&director, &summarizer, &analytic, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent: %w", err)
	}

	if agent.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse agent id: %w", err)
	}
	if agent.ModuleID, err = uuid.Parse(rawModuleID); err != nil {
		return nil, fmt.Errorf("parse module id: %w", err)
	}
	if successor.Valid {
		succID, err := uuid.Parse(successor.String)
		if err != nil {
			return nil, fmt.Errorf("parse successor id: %w", err)
		}
		agent.Successor = &succID
	}
	agent.Director = director == 1
	agent.Summarizer = summarizer == 1
	agent.Analytic = analytic == 1
	agent.Created = time.Unix(createdAt, 0)
	agent.LastModified = time.Unix(updatedAt, 0)
	return &agent, nil
}

func scanModule(row rowScanner) (*core.ModuleDefinition, error) {
	var module core.ModuleDefinition
	var rawID, flowControl string
	var voice, summaries, analytics int
	var createdAt, updatedAt int64

	err := row.Scan(&rawID, &module.Name, &module.Description, &flowControl,
		&voice, &summaries, &analytics, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan module: %w", err)
	}

	if module.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("parse module id: %w", err)
	}
	module.FlowControl = core.FlowControl(flowControl)
	module.Voice = voice == 1
	module.Summaries = summaries == 1
	module.Analytics = analytics == 1
	module.Created = time.Unix(createdAt, 0)
	module.LastModified = time.Unix(updatedAt, 0)
	return &module, nil
}

func (s *SQLiteStore) collectIDs(ctx context.Context, query string, arg string) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
