package foundry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client is the capability surface of the agent platform. Everything the
// verifier and orchestrator do goes through this interface, so tests swap in
// a FakeClient without network access.
type Client interface {
	CreateAgent(ctx context.Context, req CreateAgentRequest) (*Agent, error)
	DeleteAgent(ctx context.Context, agentID string) error
	CreateThread(ctx context.Context) (*Thread, error)
	CreateMessage(ctx context.Context, threadID, role, content string) (*Message, error)
	CreateRun(ctx context.Context, threadID, agentID string) (*Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
	ListDeployments(ctx context.Context) ([]Deployment, error)
	GetConnection(ctx context.Context, name string) (*Connection, error)
	ListConnections(ctx context.Context) ([]Connection, error)
}

// CreateAgentRequest holds the fields for agent creation.
type CreateAgentRequest struct {
	Model        string           `json:"model"`
	Name         string           `json:"name"`
	Instructions string           `json:"instructions"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// APIError is a non-2xx response from the service. Transport-level failures
// are returned as ordinary wrapped errors, never as APIError.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("foundry: HTTP %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("foundry: HTTP %d: %s", e.Status, e.Message)
}

// HTTPClient implements Client against a Foundry project endpoint.
type HTTPClient struct {
	endpoint   string // project endpoint, no trailing slash
	apiVersion string
	http       *http.Client
}

// New creates an HTTPClient. httpClient must already inject bearer tokens
// (see auth.Client); nil falls back to http.DefaultClient for tests that
// stub auth at the server.
func New(endpoint, apiVersion string, httpClient *http.Client) *HTTPClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPClient{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiVersion: apiVersion,
		http:       httpClient,
	}
}

func (c *HTTPClient) CreateAgent(ctx context.Context, req CreateAgentRequest) (*Agent, error) {
	var agent Agent
	if err := c.do(ctx, http.MethodPost, "/assistants", req, &agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

func (c *HTTPClient) DeleteAgent(ctx context.Context, agentID string) error {
	return c.do(ctx, http.MethodDelete, "/assistants/"+url.PathEscape(agentID), nil, nil)
}

func (c *HTTPClient) CreateThread(ctx context.Context) (*Thread, error) {
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/threads", struct{}{}, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *HTTPClient) CreateMessage(ctx context.Context, threadID, role, content string) (*Message, error) {
	body := struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: role, Content: content}

	var msg Message
	path := "/threads/" + url.PathEscape(threadID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *HTTPClient) CreateRun(ctx context.Context, threadID, agentID string) (*Run, error) {
	body := struct {
		AgentID string `json:"assistant_id"`
	}{AgentID: agentID}

	var run Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs"
	if err := c.do(ctx, http.MethodPost, path, body, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *HTTPClient) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	var run Run
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, http.MethodGet, path, nil, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListMessages returns the thread's messages newest-first.
func (c *HTTPClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	var page struct {
		Data []Message `json:"data"`
	}
	path := "/threads/" + url.PathEscape(threadID) + "/messages?order=desc"
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (c *HTTPClient) ListDeployments(ctx context.Context) ([]Deployment, error) {
	var page struct {
		Value []Deployment `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, "/deployments", nil, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

func (c *HTTPClient) GetConnection(ctx context.Context, name string) (*Connection, error) {
	var conn Connection
	if err := c.do(ctx, http.MethodGet, "/connections/"+url.PathEscape(name), nil, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

func (c *HTTPClient) ListConnections(ctx context.Context) ([]Connection, error) {
	var page struct {
		Value []Connection `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, "/connections", nil, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

// do issues one request and decodes the response. path may carry its own
// query string; api-version is always appended.
func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	target := c.endpoint + path
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	target += sep + "api-version=" + url.QueryEscape(c.apiVersion)

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("foundry: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("foundry: build %s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("foundry: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("foundry: read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("foundry: decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// decodeAPIError parses the service error envelope, falling back to the raw
// body when it isn't JSON.
func decodeAPIError(status int, raw []byte) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
