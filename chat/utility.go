package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dzamal6/AMS-API/core"
	"github.com/Dzamal6/AMS-API/provider"
)

// UtilityKind names the derived artifact a utility run produces.
type UtilityKind string

const (
	// UtilitySummary produces the conversation summary.
	UtilitySummary UtilityKind = "summary"
	// UtilityAnalysis produces the conversation analysis.
	UtilityAnalysis UtilityKind = "analysis"
)

// RunUtility spins up a short-lived agent on the conversation's thread to
// produce a derived artifact, persists the artifact on the durable session
// and returns its text. The transient remote agent (and any files uploaded
// for it) is deleted before RunUtility returns, success or not; utility
// agents are never reused across sessions. The triggering exchange is
// purged from the transcript so utility prompts never pollute history.
func (s *Service) RunUtility(ctx context.Context, agentID uuid.UUID, tracker *core.Tracker, prompt string, kind UtilityKind) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.turnTimeout)
	defer cancel()
	start := time.Now()

	// Provision on an isolated tracker that shares only the session and
	// thread. An empty tracker means the run can never reuse the
	// conversation's live handle or attach files to its retrieval index;
	// every remote resource the handle carries was created here and is
	// cleaned up here, the vector store included.
	scratch := core.NewTracker(tracker.SessionID(), tracker.ThreadID())
	handle, err := s.Provision(ctx, agentID, scratch)
	if err != nil {
		return "", err
	}
	defer func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		if err := s.provider.DeleteAgent(cleanupCtx, handle.RemoteID); err != nil {
			s.logger.Warn("utility agent cleanup failed", "remote_id", handle.RemoteID, "error", err)
		}
		for _, fileID := range handle.FileIDs {
			if err := s.provider.DeleteFile(cleanupCtx, fileID); err != nil {
				s.logger.Warn("utility file cleanup failed", "file_id", fileID, "error", err)
			}
		}
		if handle.VectorStoreID != "" {
			if err := s.provider.DeleteVectorStore(cleanupCtx, handle.VectorStoreID); err != nil {
				s.logger.Warn("utility vector store cleanup failed", "vector_store_id", handle.VectorStoreID, "error", err)
			}
		}
	}()

	threadID := tracker.ThreadID()
	if _, err := s.provider.AddMessage(ctx, threadID, provider.RoleUser, prompt); err != nil {
		return "", err
	}
	text, err := s.awaitCompletion(ctx, threadID, handle.RemoteID)
	if err != nil {
		return "", err
	}

	if err := s.purgeLastExchange(ctx, threadID); err != nil {
		s.logger.Warn("utility transcript purge failed", "thread_id", threadID, "error", err)
	}

	sessionID := tracker.SessionID()
	switch kind {
	case UtilityAnalysis:
		err = s.repo.SaveAnalysis(ctx, sessionID, text)
	default:
		err = s.repo.SaveSummary(ctx, sessionID, text)
	}
	if err != nil {
		return "", fmt.Errorf("persist %s: %w", kind, err)
	}
	if err := s.repo.RecordMessage(ctx, sessionID, nil); err != nil {
		s.logger.Warn("record message failed", "session_id", sessionID, "error", err)
	}

	s.logger.Info("utility run completed", "kind", kind, "session_id", sessionID, "elapsed", time.Since(start))
	return text, nil
}

// Summarize runs the module's Summarizer agent against the conversation and
// stores the result on the session.
func (s *Service) Summarize(ctx context.Context, tracker *core.Tracker) (string, error) {
	agent, err := s.findUtilityAgent(ctx, tracker, func(a *core.AgentDefinition) bool { return a.Summarizer })
	if err != nil {
		return "", err
	}
	return s.RunUtility(ctx, agent.ID, tracker, agent.InitialPrompt, UtilitySummary)
}

// Analyze runs the module's Analytic agent against the conversation and
// stores the result on the session.
func (s *Service) Analyze(ctx context.Context, tracker *core.Tracker) (string, error) {
	agent, err := s.findUtilityAgent(ctx, tracker, func(a *core.AgentDefinition) bool { return a.Analytic })
	if err != nil {
		return "", err
	}
	return s.RunUtility(ctx, agent.ID, tracker, agent.InitialPrompt, UtilityAnalysis)
}

func (s *Service) findUtilityAgent(ctx context.Context, tracker *core.Tracker, match func(*core.AgentDefinition) bool) (*core.AgentDefinition, error) {
	sess, err := s.repo.GetSession(ctx, tracker.SessionID())
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	agents, err := s.repo.ListAgents(ctx, sess.ModuleID)
	if err != nil {
		return nil, fmt.Errorf("list module agents: %w", err)
	}
	for i := range agents {
		if match(&agents[i]) {
			return &agents[i], nil
		}
	}
	return nil, core.ErrNotFound
}

// awaitCompletion runs the agent and returns only the final text, draining
// intermediate events.
func (s *Service) awaitCompletion(ctx context.Context, threadID, remoteAgentID string) (string, error) {
	events, err := s.provider.Run(ctx, threadID, remoteAgentID)
	if err != nil {
		return "", err
	}
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return "", core.NewProviderError("run", remoteAgentID, fmt.Errorf("event stream ended without completion"))
			}
			switch e := ev.(type) {
			case provider.CompletedEvent:
				return Unwrap(e.Text), nil
			case provider.FailedEvent:
				return "", e.Err
			}
		}
	}
}
