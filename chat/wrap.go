package chat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Dzamal6/AMS-API/core"
)

// Position selects where the user message sits relative to the wrapper
// instructions inside the envelope sent to the model.
type Position string

const (
	// PositionStart places the user message before the instructions.
	PositionStart Position = "start"
	// PositionEnd places the instructions before the user message.
	PositionEnd Position = "end"
)

// InitialMode selects how the first turn after a hand-off treats the user
// message.
type InitialMode string

const (
	// InitialConcat folds the user message into the envelope after the
	// initial prompt.
	InitialConcat InitialMode = "concat"
	// InitialIgnore discards the user message so the user cannot redirect
	// the opening of the new agent's turn.
	InitialIgnore InitialMode = "ignore"
)

const (
	userMarker        = "user_message:"
	instructionMarker = "instructions:"
	sectionSeparator  = "-----"
)

// citationPattern matches provider citation artifacts like 【12:3†source】
// that leak into assistant text when file search is active.
var citationPattern = regexp.MustCompile(`【[^】]*】`)

// Wrap folds the agent's wrapper prompt around a raw user message. Agents
// without a wrapper prompt get the message unchanged. The envelope is two
// labelled sections split by a separator line; pos decides their order.
func Wrap(message string, agent *core.AgentDefinition, pos Position) string {
	if agent == nil || agent.WrapperPrompt == "" {
		return message
	}
	switch pos {
	case PositionEnd:
		return fmt.Sprintf("\n%s\n%s\n%s\n%s\n%s", instructionMarker, agent.WrapperPrompt, sectionSeparator, userMarker, message)
	default:
		return fmt.Sprintf("\n%s\n%s\n%s\n%s\n%s\n", userMarker, message, sectionSeparator, instructionMarker, agent.WrapperPrompt)
	}
}

// Unwrap recovers the user-visible text from a wrapped envelope. Plain text
// without envelope markers passes through unchanged apart from citation
// stripping and trimming, so it is always safe to call on transcript text.
func Unwrap(text string) string {
	clean := citationPattern.ReplaceAllString(text, "")
	idx := strings.Index(clean, userMarker)
	if idx < 0 {
		return strings.TrimSpace(clean)
	}
	section := clean[idx+len(userMarker):]
	if sep := strings.Index(section, sectionSeparator); sep >= 0 {
		section = section[:sep]
	}
	section = strings.TrimSpace(section)
	// Initial-prompt envelopes quote the user message.
	if len(section) >= 2 && strings.HasPrefix(section, "'") && strings.HasSuffix(section, "'") {
		section = section[1 : len(section)-1]
	}
	return strings.TrimSpace(section)
}

// IncludeInitial builds the message for the first turn after a hand-off to
// this agent. It reports whether the agent's initial prompt was applied; an
// agent without one leaves the message untouched.
func IncludeInitial(message string, agent *core.AgentDefinition, mode InitialMode) (bool, string) {
	if agent == nil || agent.InitialPrompt == "" {
		return false, message
	}
	switch mode {
	case InitialIgnore:
		return true, fmt.Sprintf("%s\n'%s'", instructionMarker, agent.InitialPrompt)
	default:
		return true, fmt.Sprintf("%s\n%s\n---\n%s\n'%s'", instructionMarker, agent.InitialPrompt, userMarker, message)
	}
}

// DetectSwitchFlag reports whether the response contains the agent's textual
// hand-off flag (case-insensitive) and returns the response with every
// occurrence removed. An empty flag never matches.
func DetectSwitchFlag(response, flag string) (bool, string) {
	if flag == "" {
		return false, response
	}
	pattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(flag))
	if err != nil {
		return false, response
	}
	if !pattern.MatchString(response) {
		return false, response
	}
	return true, pattern.ReplaceAllString(response, "")
}
