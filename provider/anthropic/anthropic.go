// Package anthropic implements provider.Provider on top of the Anthropic
// Messages API. Anthropic has no hosted agent or thread objects, so agents,
// files, vector stores and threads live in adapter state; only Run reaches
// the network. This keeps the orchestration layer identical across
// providers while trading away server-side persistence.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/Dzamal6/AMS-API/core"
	"github.com/Dzamal6/AMS-API/logging"
	"github.com/Dzamal6/AMS-API/provider"
)

// Options configures the Anthropic provider adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string

	// ContextBytesPerFile caps how much of each attached document is
	// inlined into the system prompt as reference material.
	ContextBytesPerFile int

	Logger logging.Logger
}

type agentState struct {
	spec provider.AgentSpec
}

type fileState struct {
	name    string
	content []byte
}

// Provider adapts the Messages API to the provider interface.
type Provider struct {
	client *anthropic.Client
	opts   Options

	mu           sync.Mutex
	nextID       int
	agents       map[string]agentState
	files        map[string]fileState
	vectorStores map[string][]string
	threads      map[string][]provider.Message
}

var _ provider.Provider = (*Provider)(nil)

// New creates a Messages-backed Provider using the official client.
func New(optFns ...func(o *Options)) *Provider {
	opts := Options{
		Model:               anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:         0.7,
		MaxTokens:           4096,
		ContextBytesPerFile: 16 * 1024,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Provider{
		client:       &client,
		opts:         opts,
		agents:       make(map[string]agentState),
		files:        make(map[string]fileState),
		vectorStores: make(map[string][]string),
		threads:      make(map[string][]provider.Message),
	}
}

func (p *Provider) newIDLocked(prefix string) string {
	p.nextID++
	return fmt.Sprintf("%s_%d", prefix, p.nextID)
}

// CreateAgent implements provider.Provider.
func (p *Provider) CreateAgent(ctx context.Context, spec provider.AgentSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.newIDLocked("agent")
	p.agents[id] = agentState{spec: spec}
	p.opts.Logger.Debug("registered agent", "agent_id", id, "name", spec.Name)
	return id, nil
}

// DeleteAgent implements provider.Provider.
func (p *Provider) DeleteAgent(ctx context.Context, agentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.agents, agentID)
	return nil
}

// UploadFile implements provider.Provider.
func (p *Provider) UploadFile(ctx context.Context, name string, content []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.newIDLocked("file")
	p.files[id] = fileState{name: name, content: append([]byte(nil), content...)}
	return id, nil
}

// DeleteFile implements provider.Provider.
func (p *Provider) DeleteFile(ctx context.Context, fileID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.files, fileID)
	return nil
}

// CreateVectorStore implements provider.Provider.
func (p *Provider) CreateVectorStore(ctx context.Context, name string, fileIDs []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.newIDLocked("vs")
	p.vectorStores[id] = append([]string(nil), fileIDs...)
	return id, nil
}

// AddVectorStoreFiles implements provider.Provider.
func (p *Provider) AddVectorStoreFiles(ctx context.Context, vectorStoreID string, fileIDs []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.vectorStores[vectorStoreID]; !ok {
		return core.ErrNotFound
	}
	p.vectorStores[vectorStoreID] = append(p.vectorStores[vectorStoreID], fileIDs...)
	return nil
}

// DeleteVectorStore implements provider.Provider.
func (p *Provider) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.vectorStores, vectorStoreID)
	return nil
}

// CreateThread implements provider.Provider.
func (p *Provider) CreateThread(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.newIDLocked("thread")
	p.threads[id] = []provider.Message{}
	return id, nil
}

// DeleteThread implements provider.Provider.
func (p *Provider) DeleteThread(ctx context.Context, threadID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.threads, threadID)
	return nil
}

// AddMessage implements provider.Provider.
func (p *Provider) AddMessage(ctx context.Context, threadID, role, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.threads[threadID]; !ok {
		return "", core.ErrNotFound
	}
	id := p.newIDLocked("msg")
	p.threads[threadID] = append(p.threads[threadID], provider.Message{ID: id, Role: role, Text: text})
	return id, nil
}

// ListMessages implements provider.Provider; most recent first.
func (p *Provider) ListMessages(ctx context.Context, threadID string, limit int) ([]provider.Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs, ok := p.threads[threadID]
	if !ok {
		return nil, core.ErrNotFound
	}
	out := make([]provider.Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

// DeleteMessage implements provider.Provider.
func (p *Provider) DeleteMessage(ctx context.Context, threadID, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.threads[threadID]
	for i, msg := range msgs {
		if msg.ID == messageID {
			p.threads[threadID] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return nil
}

// Run implements provider.Provider. The thread history and the agent's
// instructions are replayed into a single Messages call; file content
// attached via the agent's vector store rides along as system reference
// material. Tool use blocks surface as function call events.
func (p *Provider) Run(ctx context.Context, threadID, agentID string) (<-chan provider.RunEvent, error) {
	p.mu.Lock()
	agent, ok := p.agents[agentID]
	if !ok {
		p.mu.Unlock()
		return nil, core.NewProviderError("run", agentID, core.ErrNotFound)
	}
	msgs, ok := p.threads[threadID]
	if !ok {
		p.mu.Unlock()
		return nil, core.NewProviderError("run", threadID, core.ErrNotFound)
	}
	history := append([]provider.Message(nil), msgs...)
	system := p.buildSystemLocked(agent.spec)
	p.mu.Unlock()

	params := anthropic.MessageNewParams{
		Model:       p.opts.Model,
		Messages:    buildMessages(history),
		MaxTokens:   p.opts.MaxTokens,
		Temperature: anthropic.Float(p.opts.Temperature),
		System:      system,
	}
	if agent.spec.DeclareHandoff {
		params.Tools = []anthropic.ToolUnionParam{handoffTool()}
	}

	events := make(chan provider.RunEvent, 16)
	go func() {
		defer close(events)

		resp, err := p.client.Messages.New(ctx, params)
		if err != nil {
			events <- provider.FailedEvent{Err: core.NewProviderError("run", agentID, err)}
			return
		}

		var text strings.Builder
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textBlock := block.AsText()
				if textBlock.Text != "" {
					text.WriteString(textBlock.Text)
					events <- provider.TextDeltaEvent{Text: textBlock.Text}
				}
			case "tool_use":
				toolBlock := block.AsToolUse()
				args := ""
				if toolBlock.Input != nil {
					if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(argsBytes)
					}
				}
				events <- provider.FunctionCallEvent{
					CallID:    toolBlock.ID,
					Name:      toolBlock.Name,
					Arguments: args,
				}
			}
		}

		reply := text.String()
		p.mu.Lock()
		msgID := p.newIDLocked("msg")
		if _, ok := p.threads[threadID]; ok {
			p.threads[threadID] = append(p.threads[threadID], provider.Message{
				ID:   msgID,
				Role: provider.RoleAssistant,
				Text: reply,
			})
		}
		p.mu.Unlock()

		events <- provider.CompletedEvent{Text: reply, MessageID: msgID, Usage: provider.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}}
	}()
	return events, nil
}

func (p *Provider) buildSystemLocked(spec provider.AgentSpec) []anthropic.TextBlockParam {
	blocks := []anthropic.TextBlockParam{{Text: spec.Instructions}}
	if spec.VectorStoreID == "" {
		return blocks
	}
	for _, fileID := range p.vectorStores[spec.VectorStoreID] {
		f, ok := p.files[fileID]
		if !ok {
			continue
		}
		content := f.content
		if len(content) > p.opts.ContextBytesPerFile {
			content = content[:p.opts.ContextBytesPerFile]
		}
		blocks = append(blocks, anthropic.TextBlockParam{
			Text: fmt.Sprintf("Reference document %q:\n%s", f.name, content),
		})
	}
	return blocks
}

func buildMessages(history []provider.Message) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(history))
	for _, msg := range history {
		if msg.Text == "" {
			continue
		}
		block := anthropic.NewTextBlock(msg.Text)
		if msg.Role == provider.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	return messages
}

func handoffTool() anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{
		Type:       constant.Object("object"),
		Properties: map[string]any{},
	}
	return anthropic.ToolUnionParamOfTool(schema, provider.HandoffToolName)
}
