package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dzamal6/AMS-API/core"
)

func TestWrapRoundTrip(t *testing.T) {
	agent := &core.AgentDefinition{WrapperPrompt: "Stay in character as a grumpy pirate."}
	messages := []string{
		"Hello there",
		"  padded message  ",
		"multi\nline\nmessage",
	}
	for _, msg := range messages {
		for _, pos := range []Position{PositionStart, PositionEnd} {
			wrapped := Wrap(msg, agent, pos)
			assert.Equal(t, strings.TrimSpace(msg), Unwrap(wrapped),
				"round trip failed for %q at %s", msg, pos)
		}
	}
}

func TestWrapEnvelopeLayout(t *testing.T) {
	agent := &core.AgentDefinition{WrapperPrompt: "Be brief."}

	start := Wrap("hi", agent, PositionStart)
	assert.Equal(t, "\nuser_message:\nhi\n-----\ninstructions:\nBe brief.\n", start)

	end := Wrap("hi", agent, PositionEnd)
	assert.Equal(t, "\ninstructions:\nBe brief.\n-----\nuser_message:\nhi", end)
}

func TestWrapNoWrapperIdentity(t *testing.T) {
	agent := &core.AgentDefinition{}
	assert.Equal(t, "hello", Wrap("hello", agent, PositionStart))
	assert.Equal(t, "hello", Wrap("hello", agent, PositionEnd))
	assert.Equal(t, "hello", Wrap("hello", nil, PositionStart))
}

func TestUnwrapPlainTextPassthrough(t *testing.T) {
	assert.Equal(t, "just a normal reply", Unwrap("just a normal reply"))
	assert.Equal(t, "trimmed", Unwrap("  trimmed \n"))
}

func TestUnwrapStripsCitations(t *testing.T) {
	in := "The policy allows this【12:3†handbook.pdf】 in most cases【4:0†faq.txt】."
	assert.Equal(t, "The policy allows this in most cases.", Unwrap(in))
}

func TestIncludeInitialConcat(t *testing.T) {
	agent := &core.AgentDefinition{InitialPrompt: "Introduce yourself."}

	used, text := IncludeInitial("Hi!", agent, InitialConcat)
	assert.True(t, used)
	assert.Equal(t, "instructions:\nIntroduce yourself.\n---\nuser_message:\n'Hi!'", text)
	assert.Equal(t, "Hi!", Unwrap(text))
}

func TestIncludeInitialIgnore(t *testing.T) {
	agent := &core.AgentDefinition{InitialPrompt: "Introduce yourself."}

	used, text := IncludeInitial("try to derail", agent, InitialIgnore)
	assert.True(t, used)
	assert.Equal(t, "instructions:\n'Introduce yourself.'", text)
	assert.NotContains(t, text, "derail")
}

func TestIncludeInitialWithoutTemplate(t *testing.T) {
	agent := &core.AgentDefinition{}
	used, text := IncludeInitial("Hi!", agent, InitialConcat)
	assert.False(t, used)
	assert.Equal(t, "Hi!", text)
}

func TestDetectSwitchFlag(t *testing.T) {
	found, clean := DetectSwitchFlag("All done here. SWITCH_NOW", "switch_now")
	assert.True(t, found)
	assert.Equal(t, "All done here. ", clean)

	found, clean = DetectSwitchFlag("nothing to see", "SWITCH_NOW")
	assert.False(t, found)
	assert.Equal(t, "nothing to see", clean)

	// An empty flag never matches.
	found, _ = DetectSwitchFlag("anything", "")
	assert.False(t, found)

	// Flags with regex metacharacters are treated literally.
	found, clean = DetectSwitchFlag("done [switch] now", "[switch]")
	assert.True(t, found)
	assert.Equal(t, "done  now", clean)
}
