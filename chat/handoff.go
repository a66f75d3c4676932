package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dzamal6/AMS-API/core"
	"github.com/Dzamal6/AMS-API/provider"
)

// NoSuccessorNotice is shown to the user when an agent triggers a hand-off
// without a configured successor. The conversation stays on the current
// agent.
const NoSuccessorNotice = "Failed to switch agents! There is no other agent connected."

// TurnOutput is the completed output of one turn, as seen by hand-off
// detection: the final text plus any function calls the model made.
type TurnOutput struct {
	Text          string
	FunctionCalls []provider.FunctionCallEvent
}

// Detection is the outcome of trigger detection on a turn's output.
type Detection struct {
	// Triggered reports that the output requests a hand-off.
	Triggered bool
	// CleanText is the visible text with any trigger markers removed.
	CleanText string
	// PurgeExchange reports that the triggering exchange must be removed
	// from the remote transcript so hand-off mechanics never appear in
	// user-visible history.
	PurgeExchange bool
}

// HandoffTrigger detects a hand-off request in a turn's output. The two
// strategies are interchangeable: they differ only in detection mechanism,
// not in the state transition that follows.
type HandoffTrigger interface {
	Detect(output TurnOutput, agent *core.AgentDefinition) Detection
}

// ToolCallTrigger detects the hand-off through the declared function tool.
// The triggering exchange is purged from the transcript afterwards.
type ToolCallTrigger struct{}

// Detect implements HandoffTrigger.
func (ToolCallTrigger) Detect(output TurnOutput, _ *core.AgentDefinition) Detection {
	for _, call := range output.FunctionCalls {
		if call.Name == provider.HandoffToolName {
			return Detection{Triggered: true, CleanText: output.Text, PurgeExchange: true}
		}
	}
	return Detection{CleanText: output.Text}
}

// TextFlagTrigger detects the legacy textual hand-off flag in the completed
// response and strips it from the visible text. No transcript purge is
// needed; marker stripping does the hiding.
type TextFlagTrigger struct{}

// Detect implements HandoffTrigger.
func (TextFlagTrigger) Detect(output TurnOutput, agent *core.AgentDefinition) Detection {
	found, clean := DetectSwitchFlag(output.Text, agent.SwitchFlag)
	return Detection{Triggered: found, CleanText: clean}
}

// TriggerFor picks the detection strategy for an agent: a non-empty switch
// flag selects the textual path, otherwise the tool-call path. The two are
// mutually exclusive per agent.
func TriggerFor(agent *core.AgentDefinition) HandoffTrigger {
	if agent.SwitchFlag != "" {
		return TextFlagTrigger{}
	}
	return ToolCallTrigger{}
}

// HandoffResult describes a completed switch to the successor agent.
type HandoffResult struct {
	NextAgentID uuid.UUID
	Handle      core.RemoteAgentHandle
	// InitialPrompt is the successor's configured opening template, used by
	// the next inbound turn.
	InitialPrompt string
}

// ResolveHandoff provisions the current agent's successor and returns the
// data the executor needs to move the conversation over. An agent without a
// successor yields core.ErrNoSuccessor; the tracker is left untouched and
// the conversation degrades to staying on the current agent.
func (s *Service) ResolveHandoff(ctx context.Context, agent *core.AgentDefinition, tracker *core.Tracker) (*HandoffResult, error) {
	if !agent.HasSuccessor() {
		s.logger.Warn("hand-off requested without successor", "agent_id", agent.ID)
		return nil, core.ErrNoSuccessor
	}

	successor, err := s.repo.GetAgent(ctx, *agent.Successor)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("successor of agent %s: %w", agent.ID, core.ErrNoSuccessor)
		}
		return nil, fmt.Errorf("load successor definition: %w", err)
	}

	start := time.Now()
	handle, err := s.Provision(ctx, successor.ID, tracker)
	if err != nil {
		return nil, err
	}
	s.logger.Info("switched agents", "from", agent.ID, "to", successor.ID, "elapsed", time.Since(start))

	return &HandoffResult{
		NextAgentID:   successor.ID,
		Handle:        handle,
		InitialPrompt: successor.InitialPrompt,
	}, nil
}
