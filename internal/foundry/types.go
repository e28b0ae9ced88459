// Package foundry is a thin client for the Azure AI Foundry agents data
// plane: agent, thread, message and run lifecycle plus project connection and
// deployment lookup. The Client interface is the capability boundary the
// verifier and orchestrator program against; FakeClient backs the tests.
package foundry

import "strings"

// RunStatus is the lifecycle status of a run. Statuses move strictly forward
// and a run reaches exactly one terminal status.
type RunStatus string

const (
	RunQueued         RunStatus = "queued"
	RunInProgress     RunStatus = "in_progress"
	RunRequiresAction RunStatus = "requires_action"
	RunCancelling     RunStatus = "cancelling"
	RunCancelled      RunStatus = "cancelled"
	RunFailed         RunStatus = "failed"
	RunCompleted      RunStatus = "completed"
	RunExpired        RunStatus = "expired"
)

// Terminal reports whether the status ends the run.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired:
		return true
	}
	return false
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// RunError is the platform-reported reason for a failed run.
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run is one execution of an agent against a thread.
type Run struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	AgentID   string    `json:"assistant_id"`
	Status    RunStatus `json:"status"`
	LastError *RunError `json:"last_error"`
}

// Agent is a configured conversational entity bound to a model deployment.
type Agent struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Model        string           `json:"model"`
	Instructions string           `json:"instructions"`
	Tools        []ToolDefinition `json:"tools"`
}

// Thread is an opaque conversation context owning an ordered message list.
type Thread struct {
	ID string `json:"id"`
}

// Message is a single thread entry. Content is a list of typed parts; only
// text parts carry values and citation annotations.
type Message struct {
	ID      string        `json:"id"`
	Role    string        `json:"role"`
	Content []MessagePart `json:"content"`
}

// MessagePart is one content element of a message.
type MessagePart struct {
	Type string       `json:"type"`
	Text *MessageText `json:"text,omitempty"`
}

// MessageText holds a text value plus its annotation spans.
type MessageText struct {
	Value       string       `json:"value"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Annotation is a span-level marker inside a text part.
type Annotation struct {
	Type        string       `json:"type"`
	URLCitation *URLCitation `json:"url_citation,omitempty"`
}

// URLCitation is a source URL attached to grounded output.
type URLCitation struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Connection is a project-side record binding an external resource.
type Connection struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Target string `json:"target"`
}

// Deployment is a model deployment visible in the project.
type Deployment struct {
	Name      string `json:"name"`
	ModelName string `json:"modelName"`
}

// ToolDefinition describes one tool attached to an agent.
type ToolDefinition struct {
	Type          string              `json:"type"`
	BingGrounding *BingGroundingTool `json:"bing_grounding,omitempty"`
}

// BingGroundingTool parameterizes the web-search grounding tool.
type BingGroundingTool struct {
	SearchConfigurations []BingSearchConfiguration `json:"search_configurations"`
}

// BingSearchConfiguration binds the tool to one grounding connection.
type BingSearchConfiguration struct {
	ConnectionID string `json:"connection_id"`
}

// NewBingGroundingTool builds the tool definition for a connection reference
// (ARM-style id or bare connection name, the service accepts either here).
func NewBingGroundingTool(connectionRef string) ToolDefinition {
	return ToolDefinition{
		Type: "bing_grounding",
		BingGrounding: &BingGroundingTool{
			SearchConfigurations: []BingSearchConfiguration{{ConnectionID: connectionRef}},
		},
	}
}

// TextAndCitations flattens a message to its joined text value and the
// citation URLs found in its annotations, in order of appearance.
func (m Message) TextAndCitations() (string, []string) {
	var texts []string
	var citations []string

	for _, part := range m.Content {
		if part.Type != "text" || part.Text == nil {
			continue
		}
		if part.Text.Value != "" {
			texts = append(texts, part.Text.Value)
		}
		for _, ann := range part.Text.Annotations {
			if ann.URLCitation != nil && ann.URLCitation.URL != "" {
				citations = append(citations, ann.URLCitation.URL)
			}
		}
	}

	return strings.TrimSpace(strings.Join(texts, "\n")), citations
}
