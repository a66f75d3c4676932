// Package openai implements provider.Provider on top of the OpenAI
// assistants API: assistants, files, vector stores, threads and polled runs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/Dzamal6/AMS-API/core"
	"github.com/Dzamal6/AMS-API/logging"
	"github.com/Dzamal6/AMS-API/provider"
)

// Options configures the Provider.
type Options struct {
	// BaseURL overrides the API endpoint, e.g. for a proxy.
	BaseURL string

	// PollInterval is the delay between run status checks.
	PollInterval time.Duration

	// Logger receives provider call diagnostics.
	Logger logging.Logger
}

// Provider talks to the OpenAI assistants API.
type Provider struct {
	client       *goopenai.Client
	pollInterval time.Duration
	logger       logging.Logger
}

var _ provider.Provider = (*Provider)(nil)

// New creates an assistants-backed Provider.
func New(apiKey string, optFns ...func(o *Options)) *Provider {
	opts := Options{
		PollInterval: 500 * time.Millisecond,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	cfg := goopenai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return &Provider{
		client:       goopenai.NewClientWithConfig(cfg),
		pollInterval: opts.PollInterval,
		logger:       opts.Logger,
	}
}

// handoffTool is the function declaration registered on agents that may pass
// control. The model calls it with no arguments; resolution happens locally.
var handoffTool = goopenai.AssistantTool{
	Type: goopenai.AssistantToolTypeFunction,
	Function: &goopenai.FunctionDefinition{
		Name:        provider.HandoffToolName,
		Description: "Pass the conversation to the next agent once your part is complete.",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}

// CreateAgent implements provider.Provider.
func (p *Provider) CreateAgent(ctx context.Context, spec provider.AgentSpec) (string, error) {
	req := goopenai.AssistantRequest{
		Model:        spec.Model,
		Name:         &spec.Name,
		Instructions: &spec.Instructions,
	}
	if spec.DeclareHandoff {
		req.Tools = append(req.Tools, handoffTool)
	}
	if spec.VectorStoreID != "" {
		req.Tools = append(req.Tools, goopenai.AssistantTool{Type: goopenai.AssistantToolTypeFileSearch})
		req.ToolResources = &goopenai.AssistantToolResource{
			FileSearch: &goopenai.AssistantToolFileSearch{
				VectorStoreIDs: []string{spec.VectorStoreID},
			},
		}
	}
	assistant, err := p.client.CreateAssistant(ctx, req)
	if err != nil {
		return "", core.NewProviderError("create agent", spec.Name, err)
	}
	p.logger.Debug("created assistant", "assistant_id", assistant.ID, "name", spec.Name)
	return assistant.ID, nil
}

// DeleteAgent implements provider.Provider. A missing assistant is success.
func (p *Provider) DeleteAgent(ctx context.Context, agentID string) error {
	if _, err := p.client.DeleteAssistant(ctx, agentID); err != nil && !isNotFound(err) {
		return core.NewProviderError("delete agent", agentID, err)
	}
	return nil
}

// UploadFile implements provider.Provider.
func (p *Provider) UploadFile(ctx context.Context, name string, content []byte) (string, error) {
	file, err := p.client.CreateFileBytes(ctx, goopenai.FileBytesRequest{
		Name:    name,
		Bytes:   content,
		Purpose: goopenai.PurposeAssistants,
	})
	if err != nil {
		return "", core.NewProviderError("upload file", name, err)
	}
	return file.ID, nil
}

// DeleteFile implements provider.Provider. A missing file is success.
func (p *Provider) DeleteFile(ctx context.Context, fileID string) error {
	if err := p.client.DeleteFile(ctx, fileID); err != nil && !isNotFound(err) {
		return core.NewProviderError("delete file", fileID, err)
	}
	return nil
}

// CreateVectorStore implements provider.Provider.
func (p *Provider) CreateVectorStore(ctx context.Context, name string, fileIDs []string) (string, error) {
	vs, err := p.client.CreateVectorStore(ctx, goopenai.VectorStoreRequest{
		Name:    name,
		FileIDs: fileIDs,
	})
	if err != nil {
		return "", core.NewProviderError("create vector store", name, err)
	}
	return vs.ID, nil
}

// AddVectorStoreFiles implements provider.Provider.
func (p *Provider) AddVectorStoreFiles(ctx context.Context, vectorStoreID string, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return nil
	}
	_, err := p.client.CreateVectorStoreFileBatch(ctx, vectorStoreID, goopenai.VectorStoreFileBatchRequest{
		FileIDs: fileIDs,
	})
	if err != nil {
		return core.NewProviderError("add vector store files", vectorStoreID, err)
	}
	return nil
}

// DeleteVectorStore implements provider.Provider. A missing store is success.
func (p *Provider) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	if _, err := p.client.DeleteVectorStore(ctx, vectorStoreID); err != nil && !isNotFound(err) {
		return core.NewProviderError("delete vector store", vectorStoreID, err)
	}
	return nil
}

// CreateThread implements provider.Provider.
func (p *Provider) CreateThread(ctx context.Context) (string, error) {
	thread, err := p.client.CreateThread(ctx, goopenai.ThreadRequest{})
	if err != nil {
		return "", core.NewProviderError("create thread", "", err)
	}
	return thread.ID, nil
}

// DeleteThread implements provider.Provider. A missing thread is success.
func (p *Provider) DeleteThread(ctx context.Context, threadID string) error {
	if _, err := p.client.DeleteThread(ctx, threadID); err != nil && !isNotFound(err) {
		return core.NewProviderError("delete thread", threadID, err)
	}
	return nil
}

// AddMessage implements provider.Provider.
func (p *Provider) AddMessage(ctx context.Context, threadID, role, text string) (string, error) {
	msg, err := p.client.CreateMessage(ctx, threadID, goopenai.MessageRequest{
		Role:    role,
		Content: text,
	})
	if err != nil {
		return "", core.NewProviderError("add message", threadID, err)
	}
	return msg.ID, nil
}

// ListMessages implements provider.Provider; most recent first.
func (p *Provider) ListMessages(ctx context.Context, threadID string, limit int) ([]provider.Message, error) {
	order := "desc"
	var limitPtr *int
	if limit > 0 {
		limitPtr = &limit
	}
	list, err := p.client.ListMessage(ctx, threadID, limitPtr, &order, nil, nil, nil)
	if err != nil {
		return nil, core.NewProviderError("list messages", threadID, err)
	}
	out := make([]provider.Message, 0, len(list.Messages))
	for _, msg := range list.Messages {
		out = append(out, provider.Message{
			ID:   msg.ID,
			Role: msg.Role,
			Text: messageText(msg),
		})
	}
	return out, nil
}

// DeleteMessage implements provider.Provider. A missing message is success.
func (p *Provider) DeleteMessage(ctx context.Context, threadID, messageID string) error {
	if _, err := p.client.DeleteMessage(ctx, threadID, messageID); err != nil && !isNotFound(err) {
		return core.NewProviderError("delete message", messageID, err)
	}
	return nil
}

// Run implements provider.Provider. The assistants API has no server push
// for polled runs, so the reply arrives as a single completed event rather
// than incremental deltas. Function tool calls raised by the model are
// surfaced as events and acknowledged with a canned output so the run can
// finish; acting on them is the caller's concern.
func (p *Provider) Run(ctx context.Context, threadID, agentID string) (<-chan provider.RunEvent, error) {
	run, err := p.client.CreateRun(ctx, threadID, goopenai.RunRequest{AssistantID: agentID})
	if err != nil {
		return nil, core.NewProviderError("create run", agentID, err)
	}

	events := make(chan provider.RunEvent, 16)
	go func() {
		defer close(events)
		p.pollRun(ctx, threadID, run.ID, events)
	}()
	return events, nil
}

func (p *Provider) pollRun(ctx context.Context, threadID, runID string, events chan<- provider.RunEvent) {
	started := time.Now()
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		run, err := p.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			events <- provider.FailedEvent{Err: core.NewProviderError("retrieve run", runID, err)}
			return
		}

		switch run.Status {
		case goopenai.RunStatusCompleted:
			text, msgID, err := p.latestAssistantMessage(ctx, threadID)
			if err != nil {
				events <- provider.FailedEvent{Err: err}
				return
			}
			p.logger.Debug("run completed", "run_id", runID, "elapsed", time.Since(started))
			usage := provider.Usage{
				PromptTokens:     int64(run.Usage.PromptTokens),
				CompletionTokens: int64(run.Usage.CompletionTokens),
				TotalTokens:      int64(run.Usage.TotalTokens),
			}
			events <- provider.CompletedEvent{Text: text, MessageID: msgID, Usage: usage}
			return

		case goopenai.RunStatusRequiresAction:
			if err := p.resolveToolCalls(ctx, threadID, run, events); err != nil {
				events <- provider.FailedEvent{Err: err}
				return
			}

		case goopenai.RunStatusFailed, goopenai.RunStatusCancelled, goopenai.RunStatusExpired:
			reason := string(run.Status)
			if run.LastError != nil {
				reason = fmt.Sprintf("%s: %s", run.Status, run.LastError.Message)
			}
			events <- provider.FailedEvent{Err: core.NewProviderError("run", runID, errors.New(reason))}
			return
		}

		select {
		case <-ctx.Done():
			events <- provider.FailedEvent{Err: ctx.Err()}
			return
		case <-ticker.C:
		}
	}
}

func (p *Provider) resolveToolCalls(ctx context.Context, threadID string, run goopenai.Run, events chan<- provider.RunEvent) error {
	if run.RequiredAction == nil || run.RequiredAction.SubmitToolOutputs == nil {
		return core.NewProviderError("run", run.ID, errors.New("requires_action without tool outputs"))
	}
	calls := run.RequiredAction.SubmitToolOutputs.ToolCalls
	outputs := make([]goopenai.ToolOutput, 0, len(calls))
	for _, call := range calls {
		events <- provider.FunctionCallEvent{
			CallID:    call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}
		outputs = append(outputs, goopenai.ToolOutput{
			ToolCallID: call.ID,
			Output:     `{"acknowledged": true}`,
		})
	}
	if _, err := p.client.SubmitToolOutputs(ctx, threadID, run.ID, goopenai.SubmitToolOutputsRequest{
		ToolOutputs: outputs,
	}); err != nil {
		return core.NewProviderError("submit tool outputs", run.ID, err)
	}
	return nil
}

func (p *Provider) latestAssistantMessage(ctx context.Context, threadID string) (string, string, error) {
	msgs, err := p.ListMessages(ctx, threadID, 1)
	if err != nil {
		return "", "", err
	}
	if len(msgs) == 0 || msgs[0].Role != provider.RoleAssistant {
		return "", "", core.NewProviderError("list messages", threadID, errors.New("no assistant reply on thread"))
	}
	return msgs[0].Text, msgs[0].ID, nil
}

func messageText(msg goopenai.Message) string {
	for _, content := range msg.Content {
		if content.Text != nil {
			return content.Text.Value
		}
	}
	return ""
}

func isNotFound(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusNotFound
	}
	return false
}
