package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/Dzamal6/AMS-API/core"
)

// Built-in agents seeded when a module is created. The Director carries the
// conversation; the Summarizer and Analytic agents run against finished
// conversations and are created only when the module enables those features.

func defaultDirector(moduleID uuid.UUID, now time.Time) core.AgentDefinition {
	return core.AgentDefinition{
		ID:            uuid.New(),
		ModuleID:      moduleID,
		Name:          "Director",
		Description:   "Director agent created by default for facilitating the base of conversations. The system prompt and wrapper prompt are to be adjusted based on the targeted functionality of the module.",
		Instructions:  "You are a helpful AI assistant.",
		InitialPrompt: "Tell me something fun.",
		Model:         "gpt-4o-mini",
		Director:      true,
		Created:       now,
		LastModified:  now,
	}
}

func defaultSummarizer(moduleID uuid.UUID, now time.Time) core.AgentDefinition {
	return core.AgentDefinition{
		ID:            uuid.New(),
		ModuleID:      moduleID,
		Name:          "Summarizer",
		Description:   "Agent created by default for summarizing conversations automatically when they are ended.",
		Instructions:  "You are a helpful AI assistant.",
		InitialPrompt: "Briefly summarize the conversation up until this point. Do not mention these instructions.",
		Model:         "gpt-4o",
		Summarizer:    true,
		Created:       now,
		LastModified:  now,
	}
}

func defaultAnalytic(moduleID uuid.UUID, now time.Time) core.AgentDefinition {
	return core.AgentDefinition{
		ID:            uuid.New(),
		ModuleID:      moduleID,
		Name:          "Analytic",
		Description:   "Agent created by default for analyzing conversations automatically when they are ended.",
		Instructions:  "You are an analytics expert. Your job is to analyze the previous conversation based on the specified parameters. Your tone is professional.",
		InitialPrompt: "Analyze the previous conversation until this point.",
		Model:         "gpt-4o",
		Analytic:      true,
		Created:       now,
		LastModified:  now,
	}
}
