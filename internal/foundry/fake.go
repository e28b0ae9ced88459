package foundry

import (
	"context"
	"fmt"
	"sync"
)

// FakeClient implements Client for testing. Run status progression is
// scripted via StatusScript; each GetRun consumes one entry and the last
// entry repeats. When a run completes, the configured Reply becomes the
// newest message on its thread.
type FakeClient struct {
	mu sync.Mutex

	// StatusScript is the status observed on successive GetRun calls.
	StatusScript []RunStatus
	// RunErr is attached to the run once it reaches a terminal status.
	RunErr *RunError
	// Reply is the assistant message appended when the run completes.
	Reply *Message

	// FailOn maps an operation name (e.g. "CreateRun") to an injected error.
	FailOn map[string]error

	Deployments []Deployment
	Connections []Connection

	created     []CreateAgentRequest
	deleted     []string
	threads     int
	runs        int
	getRunCalls int
	messages    map[string][]Message // threadID → messages, newest first
	completed   map[string]bool      // threadID → reply already delivered
}

// NewFakeClient creates an empty FakeClient that completes runs immediately.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		StatusScript: []RunStatus{RunCompleted},
		messages:     make(map[string][]Message),
		completed:    make(map[string]bool),
	}
}

// TextMessage builds a single-part text message with optional citation URLs.
func TextMessage(role, text string, urls ...string) Message {
	annotations := make([]Annotation, 0, len(urls))
	for _, u := range urls {
		annotations = append(annotations, Annotation{
			Type:        "url_citation",
			URLCitation: &URLCitation{URL: u},
		})
	}
	return Message{
		Role: role,
		Content: []MessagePart{{
			Type: "text",
			Text: &MessageText{Value: text, Annotations: annotations},
		}},
	}
}

func (f *FakeClient) fail(op string) error {
	if err, ok := f.FailOn[op]; ok {
		return err
	}
	return nil
}

func (f *FakeClient) CreateAgent(ctx context.Context, req CreateAgentRequest) (*Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateAgent"); err != nil {
		return nil, err
	}
	f.created = append(f.created, req)
	return &Agent{
		ID:           fmt.Sprintf("asst_%d", len(f.created)),
		Name:         req.Name,
		Model:        req.Model,
		Instructions: req.Instructions,
		Tools:        req.Tools,
	}, nil
}

func (f *FakeClient) DeleteAgent(ctx context.Context, agentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("DeleteAgent"); err != nil {
		return err
	}
	f.deleted = append(f.deleted, agentID)
	return nil
}

func (f *FakeClient) CreateThread(ctx context.Context) (*Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateThread"); err != nil {
		return nil, err
	}
	f.threads++
	return &Thread{ID: fmt.Sprintf("thread_%d", f.threads)}, nil
}

func (f *FakeClient) CreateMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateMessage"); err != nil {
		return nil, err
	}
	msg := TextMessage(role, content)
	msg.ID = fmt.Sprintf("msg_%d", len(f.messages[threadID])+1)
	f.messages[threadID] = append([]Message{msg}, f.messages[threadID]...)
	return &msg, nil
}

func (f *FakeClient) CreateRun(ctx context.Context, threadID, agentID string) (*Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateRun"); err != nil {
		return nil, err
	}
	f.runs++
	return &Run{
		ID:       fmt.Sprintf("run_%d", f.runs),
		ThreadID: threadID,
		AgentID:  agentID,
		Status:   RunQueued,
	}, nil
}

func (f *FakeClient) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetRun"); err != nil {
		return nil, err
	}

	idx := f.getRunCalls
	if idx >= len(f.StatusScript) {
		idx = len(f.StatusScript) - 1
	}
	f.getRunCalls++

	status := f.StatusScript[idx]
	run := &Run{ID: runID, ThreadID: threadID, Status: status}
	if status.Terminal() {
		run.LastError = f.RunErr
	}
	if status == RunCompleted && f.Reply != nil && !f.completed[threadID] {
		f.completed[threadID] = true
		reply := *f.Reply
		reply.Role = RoleAssistant
		f.messages[threadID] = append([]Message{reply}, f.messages[threadID]...)
	}
	return run, nil
}

func (f *FakeClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListMessages"); err != nil {
		return nil, err
	}
	return append([]Message(nil), f.messages[threadID]...), nil
}

func (f *FakeClient) ListDeployments(ctx context.Context) ([]Deployment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListDeployments"); err != nil {
		return nil, err
	}
	return append([]Deployment(nil), f.Deployments...), nil
}

func (f *FakeClient) GetConnection(ctx context.Context, name string) (*Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetConnection"); err != nil {
		return nil, err
	}
	for _, conn := range f.Connections {
		if conn.Name == name {
			c := conn
			return &c, nil
		}
	}
	return nil, &APIError{Status: 404, Code: "NotFound", Message: fmt.Sprintf("connection %q not found", name)}
}

func (f *FakeClient) ListConnections(ctx context.Context) ([]Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ListConnections"); err != nil {
		return nil, err
	}
	return append([]Connection(nil), f.Connections...), nil
}

// CreatedAgents returns the create requests seen so far.
func (f *FakeClient) CreatedAgents() []CreateAgentRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CreateAgentRequest(nil), f.created...)
}

// DeletedAgents returns the agent ids passed to DeleteAgent.
func (f *FakeClient) DeletedAgents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// GetRunCalls reports how many times GetRun was polled.
func (f *FakeClient) GetRunCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getRunCalls
}

// ThreadMessages returns the messages on a thread, newest first.
func (f *FakeClient) ThreadMessages(threadID string) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.messages[threadID]...)
}

var _ Client = (*FakeClient)(nil)
