package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dzamal6/AMS-API/core"
	"github.com/Dzamal6/AMS-API/provider"
)

// TurnRequest describes one conversational turn.
type TurnRequest struct {
	// Tracker is the conversation's live state. Required.
	Tracker *core.Tracker
	// AgentID names the agent definition that should handle this turn.
	AgentID uuid.UUID
	// Message is the raw user message.
	Message string
	// Initial marks the first turn immediately after a hand-off; it selects
	// the initial-prompt envelope instead of the wrapper envelope.
	Initial bool
}

// StartConversation opens a remote thread, creates the durable session row
// and returns a fresh tracker bound to both.
func (s *Service) StartConversation(ctx context.Context, moduleID uuid.UUID, userID string) (*core.Tracker, error) {
	threadID, err := s.provider.CreateThread(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.repo.EnsureSession(ctx, uuid.New(), moduleID, userID, threadID)
	if err != nil {
		// The thread is unreachable without a session row; drop it.
		if derr := s.provider.DeleteThread(ctx, threadID); derr != nil {
			s.logger.Warn("orphaned thread cleanup failed", "thread_id", threadID, "error", derr)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("started conversation", "session_id", sess.ID, "module_id", moduleID, "thread_id", threadID)
	return core.NewTracker(sess.ID, threadID), nil
}

// ExecuteTurn drives one conversational turn: provision the agent, wrap the
// message, run the model and resolve a possible hand-off. Output arrives as
// a finite chunk stream terminated by exactly one DoneChunk or ErrorChunk;
// a HandoffChunk, when present, precedes the terminal chunk and must be
// merged into the caller's session state before the next turn.
//
// The whole turn runs under the service's turn timeout. On expiry the turn
// fails with core.ErrTurnTimeout and nothing is persisted for it; the
// conversation stays resumable.
func (s *Service) ExecuteTurn(ctx context.Context, req TurnRequest) <-chan core.Chunk {
	chunks := make(chan core.Chunk, 32)
	go func() {
		defer close(chunks)
		ctx, cancel := context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()

		start := time.Now()
		err := s.runTurn(ctx, req, chunks)
		s.logger.LogTurn(req.AgentID.String(), time.Since(start), err == nil, err)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = core.ErrTurnTimeout
			}
			chunks <- core.ErrorChunk{Err: err}
		}
	}()
	return chunks
}

func (s *Service) runTurn(ctx context.Context, req TurnRequest, chunks chan<- core.Chunk) error {
	tracker := req.Tracker

	handle, err := s.Provision(ctx, req.AgentID, tracker)
	if err != nil {
		return err
	}
	agent, err := s.repo.GetAgent(ctx, req.AgentID)
	if err != nil {
		return fmt.Errorf("load agent definition %s: %w", req.AgentID, err)
	}

	outgoing := s.prepareMessage(req, agent)

	if _, err := s.provider.AddMessage(ctx, tracker.ThreadID(), provider.RoleUser, outgoing); err != nil {
		return err
	}
	output, err := s.awaitRun(ctx, tracker.ThreadID(), handle.RemoteID, chunks)
	if err != nil {
		return err
	}

	detection := TriggerFor(agent).Detect(output.TurnOutput, agent)
	visible := Unwrap(detection.CleanText)

	tracker.RecordAgentUse(handle.RemoteID)
	if err := s.repo.RecordMessage(ctx, tracker.SessionID(), &agent.ID); err != nil {
		s.logger.Warn("record message failed", "session_id", tracker.SessionID(), "error", err)
	}

	if detection.Triggered {
		visible = s.handleHandoff(ctx, agent, tracker, detection, visible, chunks)
	}

	chunks <- core.DoneChunk{Text: visible, MessageID: output.messageID, Usage: output.usage}
	return nil
}

// prepareMessage builds the outgoing text for a turn. The first turn after
// a hand-off uses the successor's initial-prompt envelope; all other turns
// use the wrapper envelope. The hand-off's triggering exchange was already
// purged when the hand-off resolved, so by the time this message is sent
// the transcript is clean.
func (s *Service) prepareMessage(req TurnRequest, agent *core.AgentDefinition) string {
	if !req.Initial {
		return Wrap(req.Message, agent, PositionStart)
	}
	_, text := IncludeInitial(req.Message, agent, s.initialMode)
	return text
}

// turnResult is the collected outcome of one provider run.
type turnResult struct {
	TurnOutput
	messageID string
	usage     core.TokenUsage
}

func (s *Service) awaitRun(ctx context.Context, threadID, remoteAgentID string, chunks chan<- core.Chunk) (*turnResult, error) {
	events, err := s.provider.Run(ctx, threadID, remoteAgentID)
	if err != nil {
		return nil, err
	}

	var result turnResult
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil, core.NewProviderError("run", remoteAgentID, errors.New("event stream ended without completion"))
			}
			switch e := ev.(type) {
			case provider.TextDeltaEvent:
				chunks <- core.TextChunk{Text: e.Text}
			case provider.FunctionCallEvent:
				result.FunctionCalls = append(result.FunctionCalls, e)
				chunks <- core.ToolCallChunk{CallID: e.CallID, Name: e.Name, Status: core.ToolCallStarted}
				chunks <- core.ToolCallChunk{CallID: e.CallID, Name: e.Name, Status: core.ToolCallCompleted}
			case provider.CompletedEvent:
				result.Text = e.Text
				result.messageID = e.MessageID
				result.usage = core.TokenUsage{
					PromptTokens:     e.Usage.PromptTokens,
					CompletionTokens: e.Usage.CompletionTokens,
					TotalTokens:      e.Usage.TotalTokens,
				}
				return &result, nil
			case provider.FailedEvent:
				return nil, e.Err
			}
		}
	}
}

// handleHandoff resolves a triggered hand-off and returns the adjusted
// visible text. A missing successor degrades to staying on the current
// agent with an explanatory notice appended.
func (s *Service) handleHandoff(ctx context.Context, agent *core.AgentDefinition, tracker *core.Tracker, detection Detection, visible string, chunks chan<- core.Chunk) string {
	result, err := s.ResolveHandoff(ctx, agent, tracker)
	if err != nil {
		if errors.Is(err, core.ErrNoSuccessor) {
			return joinVisible(visible, NoSuccessorNotice)
		}
		s.logger.Error("hand-off failed", "agent_id", agent.ID, "error", err)
		return joinVisible(visible, "Failed to switch agents!")
	}

	if detection.PurgeExchange {
		if err := s.purgeLastExchange(ctx, tracker.ThreadID()); err != nil {
			s.logger.Warn("transcript purge failed", "thread_id", tracker.ThreadID(), "error", err)
		}
	}

	chunks <- core.HandoffChunk{
		NextAgentID: result.NextAgentID,
		Handle:      result.Handle,
		InitialText: result.InitialPrompt,
	}
	return visible
}

// purgeLastExchange removes the two most recent messages from the remote
// transcript, hiding the hand-off mechanics from subsequent context.
func (s *Service) purgeLastExchange(ctx context.Context, threadID string) error {
	msgs, err := s.provider.ListMessages(ctx, threadID, 2)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := s.provider.DeleteMessage(ctx, threadID, msg.ID); err != nil {
			return err
		}
	}
	return nil
}

func joinVisible(visible, notice string) string {
	if strings.TrimSpace(visible) == "" {
		return notice
	}
	return visible + "\n\n" + notice
}
