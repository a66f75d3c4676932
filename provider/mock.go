package provider

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a lightweight in-memory Provider useful for tests and
// examples. It keeps agents, files, vector stores and threads in maps,
// supports canned responses and scripted function calls, and records every
// operation in call order so tests can assert sequencing.
type MockProvider struct {
	mu sync.Mutex

	agents       map[string]AgentSpec
	files        map[string][]byte
	vectorStores map[string][]string
	threads      map[string][]Message

	responses     map[string]string
	agentReplies  map[string]string
	pendingCalls  map[string][]FunctionCallEvent
	errs          map[string]error
	nextID        int
	calls         []string
	defaultAnswer string
}

var _ Provider = (*MockProvider)(nil)

// NewMockProvider constructs an empty MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		agents:        make(map[string]AgentSpec),
		files:         make(map[string][]byte),
		vectorStores:  make(map[string][]string),
		threads:       make(map[string][]Message),
		responses:     make(map[string]string),
		agentReplies:  make(map[string]string),
		pendingCalls:  make(map[string][]FunctionCallEvent),
		errs:          make(map[string]error),
		defaultAnswer: "mock reply",
	}
}

// AddResponse registers a deterministic canned reply for an exact user
// message text.
func (m *MockProvider) AddResponse(userText, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[userText] = reply
}

// SetAgentReply registers a canned reply emitted whenever the given agent
// runs, regardless of input.
func (m *MockProvider) SetAgentReply(agentID, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agentReplies[agentID] = reply
}

// QueueFunctionCall scripts a function tool invocation for the agent's next
// run. Queued calls are emitted before the run's reply, oldest first.
func (m *MockProvider) QueueFunctionCall(agentID, name, arguments string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pendingCalls[agentID] = append(m.pendingCalls[agentID], FunctionCallEvent{
		CallID:    m.newIDLocked("call"),
		Name:      name,
		Arguments: arguments,
	})
}

// FailOn injects an error for a specific operation and resource id, e.g.
// FailOn("DeleteFile", "file_2", err). Pass an empty id to fail the
// operation for any resource.
func (m *MockProvider) FailOn(op, id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[op+":"+id] = err
}

// Calls returns the recorded operation log in invocation order.
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// AgentCount returns the number of live remote agents.
func (m *MockProvider) AgentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.agents)
}

// FileCount returns the number of live remote files.
func (m *MockProvider) FileCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// VectorStoreCount returns the number of live retrieval indexes.
func (m *MockProvider) VectorStoreCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectorStores)
}

// ThreadCount returns the number of live threads.
func (m *MockProvider) ThreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.threads)
}

// ThreadMessages returns a copy of a thread's messages in append order.
func (m *MockProvider) ThreadMessages(threadID string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.threads[threadID]...)
}

// AgentSpecFor returns the spec a remote agent was created with.
func (m *MockProvider) AgentSpecFor(agentID string) (AgentSpec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	spec, ok := m.agents[agentID]
	return spec, ok
}

func (m *MockProvider) newIDLocked(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s_%d", prefix, m.nextID)
}

func (m *MockProvider) record(op, id string) error {
	m.calls = append(m.calls, op+" "+id)
	if err, ok := m.errs[op+":"+id]; ok {
		return err
	}
	if err, ok := m.errs[op+":"]; ok {
		return err
	}
	return nil
}

// CreateAgent implements Provider.
func (m *MockProvider) CreateAgent(ctx context.Context, spec AgentSpec) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateAgent", spec.Name); err != nil {
		return "", err
	}
	id := m.newIDLocked("asst")
	m.agents[id] = spec
	return id, nil
}

// DeleteAgent implements Provider. Absent agents delete cleanly.
func (m *MockProvider) DeleteAgent(ctx context.Context, agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteAgent", agentID); err != nil {
		return err
	}
	delete(m.agents, agentID)
	return nil
}

// UploadFile implements Provider.
func (m *MockProvider) UploadFile(ctx context.Context, name string, content []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("UploadFile", name); err != nil {
		return "", err
	}
	id := m.newIDLocked("file")
	m.files[id] = append([]byte(nil), content...)
	return id, nil
}

// DeleteFile implements Provider. Absent files delete cleanly.
func (m *MockProvider) DeleteFile(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteFile", fileID); err != nil {
		return err
	}
	delete(m.files, fileID)
	return nil
}

// CreateVectorStore implements Provider.
func (m *MockProvider) CreateVectorStore(ctx context.Context, name string, fileIDs []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateVectorStore", name); err != nil {
		return "", err
	}
	id := m.newIDLocked("vs")
	m.vectorStores[id] = append([]string(nil), fileIDs...)
	return id, nil
}

// AddVectorStoreFiles implements Provider.
func (m *MockProvider) AddVectorStoreFiles(ctx context.Context, vectorStoreID string, fileIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("AddVectorStoreFiles", vectorStoreID); err != nil {
		return err
	}
	if _, ok := m.vectorStores[vectorStoreID]; !ok {
		return fmt.Errorf("vector store %s does not exist", vectorStoreID)
	}
	m.vectorStores[vectorStoreID] = append(m.vectorStores[vectorStoreID], fileIDs...)
	return nil
}

// DeleteVectorStore implements Provider. Absent stores delete cleanly.
func (m *MockProvider) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteVectorStore", vectorStoreID); err != nil {
		return err
	}
	delete(m.vectorStores, vectorStoreID)
	return nil
}

// CreateThread implements Provider.
func (m *MockProvider) CreateThread(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CreateThread", ""); err != nil {
		return "", err
	}
	id := m.newIDLocked("thread")
	m.threads[id] = []Message{}
	return id, nil
}

// DeleteThread implements Provider. Absent threads delete cleanly.
func (m *MockProvider) DeleteThread(ctx context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteThread", threadID); err != nil {
		return err
	}
	delete(m.threads, threadID)
	return nil
}

// AddMessage implements Provider.
func (m *MockProvider) AddMessage(ctx context.Context, threadID, role, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("AddMessage", threadID); err != nil {
		return "", err
	}
	if _, ok := m.threads[threadID]; !ok {
		return "", fmt.Errorf("thread %s does not exist", threadID)
	}
	id := m.newIDLocked("msg")
	m.threads[threadID] = append(m.threads[threadID], Message{ID: id, Role: role, Text: text})
	return id, nil
}

// ListMessages implements Provider; returns most recent first.
func (m *MockProvider) ListMessages(ctx context.Context, threadID string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListMessages", threadID); err != nil {
		return nil, err
	}
	msgs, ok := m.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %s does not exist", threadID)
	}
	out := make([]Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

// DeleteMessage implements Provider.
func (m *MockProvider) DeleteMessage(ctx context.Context, threadID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteMessage", messageID); err != nil {
		return err
	}
	msgs := m.threads[threadID]
	for i, msg := range msgs {
		if msg.ID == messageID {
			m.threads[threadID] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return nil
}

// Run implements Provider; emits scripted function calls, then streams the
// reply as character deltas followed by a CompletedEvent. The reply is also
// appended to the thread as an assistant message.
func (m *MockProvider) Run(ctx context.Context, threadID, agentID string) (<-chan RunEvent, error) {
	m.mu.Lock()
	if err := m.record("Run", agentID); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	msgs, ok := m.threads[threadID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("thread %s does not exist", threadID)
	}

	reply := m.agentReplies[agentID]
	if reply == "" {
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Role == RoleUser {
				if r, found := m.responses[msgs[i].Text]; found {
					reply = r
				}
				break
			}
		}
	}
	if reply == "" {
		reply = m.defaultAnswer
	}

	scripted := m.pendingCalls[agentID]
	delete(m.pendingCalls, agentID)

	msgID := m.newIDLocked("msg")
	m.threads[threadID] = append(m.threads[threadID], Message{ID: msgID, Role: RoleAssistant, Text: reply})

	// Deterministic pseudo-metering so usage plumbing is observable in tests.
	var promptLen int
	for _, msg := range msgs {
		promptLen += len(msg.Text)
	}
	usage := Usage{
		PromptTokens:     int64(promptLen/4 + 1),
		CompletionTokens: int64(len(reply)/4 + 1),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	m.mu.Unlock()

	events := make(chan RunEvent, 16)
	go func() {
		defer close(events)
		for _, call := range scripted {
			select {
			case <-ctx.Done():
				events <- FailedEvent{Err: ctx.Err()}
				return
			case events <- call:
			}
		}
		for _, r := range reply {
			select {
			case <-ctx.Done():
				events <- FailedEvent{Err: ctx.Err()}
				return
			case events <- TextDeltaEvent{Text: string(r)}:
			}
		}
		events <- CompletedEvent{Text: reply, MessageID: msgID, Usage: usage}
	}()
	return events, nil
}
