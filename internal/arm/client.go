// Package arm issues Azure management-plane calls to provision the Bing
// grounding connection record at account and project scope.
package arm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultBase is the ARM endpoint.
const DefaultBase = "https://management.azure.com"

// Response is one management-plane reply. HTTP-level failures are data here
// (callers branch on Status); only transport failures are errors.
type Response struct {
	Status int
	Body   map[string]any
	Raw    string
}

// OK reports whether the response is a success status.
func (r *Response) OK() bool { return r.Status < 400 }

// Client is a minimal ARM HTTP client. The injected *http.Client must carry
// bearer tokens for the management scope (see auth.Client).
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a Client against base (empty means DefaultBase).
func NewClient(base string, httpClient *http.Client) *Client {
	if base == "" {
		base = DefaultBase
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}
}

// Do issues one request. path is an ARM resource path with its api-version
// query already attached. A nil body sends no payload.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("arm: encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return nil, fmt.Errorf("arm: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arm: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("arm: read %s %s: %w", method, path, err)
	}

	out := &Response{Status: resp.StatusCode, Raw: string(raw)}
	if len(raw) > 0 {
		// Non-JSON bodies are kept in Raw only.
		var parsed map[string]any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			out.Body = parsed
		}
	}
	return out, nil
}

// properties returns the body's properties object, never nil.
func properties(body map[string]any) map[string]any {
	if props, ok := body["properties"].(map[string]any); ok {
		return props
	}
	return map[string]any{}
}

// stringField reads a string value from a map.
func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
