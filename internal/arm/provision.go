package arm

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Exit codes for provisioning failures. Each maps to the step that failed so
// scripts can tell a broken Bing resource from a broken connection write.
const (
	ExitBingResource = 2
	ExitAccountPut   = 3
	ExitAccountGet   = 4
	ExitProjectPut   = 5
	ExitProjectGet   = 6
)

// StepError is a provisioning step that failed on an HTTP status. It carries
// the exit code the command should terminate with.
type StepError struct {
	Step     string
	ExitCode int
	Status   int
	Detail   string
}

func (e *StepError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("arm: %s: HTTP %d: %s", e.Step, e.Status, e.Detail)
	}
	return fmt.Sprintf("arm: %s: %s", e.Step, e.Detail)
}

// ProvisionOpts names the resources involved in one provisioning pass.
type ProvisionOpts struct {
	SubscriptionID string
	ResourceGroup  string
	Account        string
	Project        string

	// BingResourceID is the full ARM id of the Bing grounding resource.
	BingResourceID string
	ConnectionName string

	BingAPIVersion        string
	ConnectionsAPIVersion string
}

// ProvisionResult records the connection ids written at each scope.
type ProvisionResult struct {
	Endpoint            string
	AccountConnectionID string
	ProjectConnectionID string
	AccountShared       bool
	ProjectShared       bool
}

// Provision creates or updates the Bing grounding connection at account scope
// and project scope. Progress goes to out; the Bing API key is fetched but
// never written there. The returned error is a *StepError for HTTP failures.
func Provision(ctx context.Context, c *Client, opts ProvisionOpts, out io.Writer) (*ProvisionResult, error) {
	endpoint, key, err := bingResource(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Bing resource endpoint: %s\n", endpoint)

	body := connectionBody(endpoint, key, opts.BingResourceID)
	res := &ProvisionResult{Endpoint: endpoint}

	accountPath := fmt.Sprintf(
		"/subscriptions/%s/resourceGroups/%s/providers/Microsoft.CognitiveServices/accounts/%s/connections/%s?api-version=%s",
		opts.SubscriptionID, opts.ResourceGroup, opts.Account, opts.ConnectionName, opts.ConnectionsAPIVersion)
	shared, id, err := upsertConnection(ctx, c, accountPath, body, "account connection", ExitAccountPut, ExitAccountGet, out)
	if err != nil {
		return nil, err
	}
	res.AccountConnectionID, res.AccountShared = id, shared

	projectPath := fmt.Sprintf(
		"/subscriptions/%s/resourceGroups/%s/providers/Microsoft.CognitiveServices/accounts/%s/projects/%s/connections/%s?api-version=%s",
		opts.SubscriptionID, opts.ResourceGroup, opts.Account, opts.Project, opts.ConnectionName, opts.ConnectionsAPIVersion)
	shared, id, err = upsertConnection(ctx, c, projectPath, body, "project connection", ExitProjectPut, ExitProjectGet, out)
	if err != nil {
		return nil, err
	}
	res.ProjectConnectionID, res.ProjectShared = id, shared

	return res, nil
}

// bingResource reads the Bing resource's endpoint and primary API key.
func bingResource(ctx context.Context, c *Client, opts ProvisionOpts) (endpoint, key string, err error) {
	getPath := fmt.Sprintf("%s?api-version=%s", opts.BingResourceID, opts.BingAPIVersion)
	resp, err := c.Do(ctx, http.MethodGet, getPath, nil)
	if err != nil {
		return "", "", err
	}
	if !resp.OK() {
		return "", "", &StepError{Step: "get bing resource", ExitCode: ExitBingResource, Status: resp.Status, Detail: resp.Raw}
	}
	endpoint = stringField(properties(resp.Body), "endpoint")
	if endpoint == "" {
		return "", "", &StepError{Step: "get bing resource", ExitCode: ExitBingResource, Detail: "response has no properties.endpoint"}
	}

	keysPath := fmt.Sprintf("%s/listKeys?api-version=%s", opts.BingResourceID, opts.BingAPIVersion)
	resp, err = c.Do(ctx, http.MethodPost, keysPath, nil)
	if err != nil {
		return "", "", err
	}
	if !resp.OK() {
		return "", "", &StepError{Step: "list bing keys", ExitCode: ExitBingResource, Status: resp.Status, Detail: resp.Raw}
	}
	key = stringField(resp.Body, "key1")
	if key == "" {
		return "", "", &StepError{Step: "list bing keys", ExitCode: ExitBingResource, Detail: "response has no key1"}
	}
	return endpoint, key, nil
}

// connectionBody is the PUT payload for a Bing grounding connection record.
func connectionBody(endpoint, key, bingResourceID string) map[string]any {
	return map[string]any{
		"properties": map[string]any{
			"authType":    "ApiKey",
			"category":    "ApiKey",
			"target":      endpoint,
			"credentials": map[string]any{"key": key},
			"isSharedToAll": true,
			"metadata": map[string]any{
				"ApiType":    "Azure",
				"ResourceId": bingResourceID,
				"Type":       "bing_grounding",
			},
		},
	}
}

// upsertConnection writes the connection, reads it back, and forces
// isSharedToAll on when the read shows it off. The share fixup is best effort:
// a failed PATCH (or its PUT fallback on 405) is a warning, not a failure.
func upsertConnection(ctx context.Context, c *Client, path string, body map[string]any, label string, putCode, getCode int, out io.Writer) (shared bool, id string, err error) {
	resp, err := c.Do(ctx, http.MethodPut, path, body)
	if err != nil {
		return false, "", err
	}
	if !resp.OK() {
		return false, "", &StepError{Step: "create " + label, ExitCode: putCode, Status: resp.Status, Detail: resp.Raw}
	}

	resp, err = c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, "", err
	}
	if !resp.OK() {
		return false, "", &StepError{Step: "verify " + label, ExitCode: getCode, Status: resp.Status, Detail: resp.Raw}
	}
	id = stringField(resp.Body, "id")
	shared, _ = properties(resp.Body)["isSharedToAll"].(bool)
	fmt.Fprintf(out, "%s: %s (isSharedToAll=%v)\n", label, id, shared)
	if shared {
		return true, id, nil
	}

	// The PATCH body uses the casing the connections API expects for a
	// partial update; some api-versions reject PATCH with 405, in which
	// case a full PUT carries the flag instead.
	patch := map[string]any{
		"properties": map[string]any{
			"AuthType":      "ApiKey",
			"category":      "ApiKey",
			"isSharedToAll": true,
		},
	}
	resp, err = c.Do(ctx, http.MethodPatch, path, patch)
	if err != nil {
		return false, id, err
	}
	if resp.Status == http.StatusMethodNotAllowed {
		resp, err = c.Do(ctx, http.MethodPut, path, body)
		if err != nil {
			return false, id, err
		}
	}
	if !resp.OK() {
		fmt.Fprintf(out, "WARNING: could not enable isSharedToAll on %s (HTTP %d)\n", label, resp.Status)
		return false, id, nil
	}

	resp, err = c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, id, err
	}
	if resp.OK() {
		shared, _ = properties(resp.Body)["isSharedToAll"].(bool)
	}
	fmt.Fprintf(out, "%s updated (isSharedToAll=%v)\n", label, shared)
	return shared, id, nil
}
