package foundry

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/groundcheck/groundcheck/internal/config"
)

var (
	// projectConnectionIDPattern matches a project-scoped ARM connection id,
	// the form the grounding tool accepts directly.
	projectConnectionIDPattern = regexp.MustCompile(
		`^/subscriptions/[^/]+/resourceGroups/[^/]+/providers/[^/]+/accounts/[^/]+/projects/[^/]+/connections/[^/]+$`)

	// accountConnectionIDPattern matches the account-scoped form, which has
	// to be re-resolved through the project connections API.
	accountConnectionIDPattern = regexp.MustCompile(
		`^/subscriptions/[^/]+/resourceGroups/[^/]+/providers/[^/]+/accounts/[^/]+/connections/[^/]+$`)
)

// IsProjectConnectionID reports whether ref is a project-scoped ARM id.
func IsProjectConnectionID(ref string) bool {
	return projectConnectionIDPattern.MatchString(ref)
}

// ResolveBingConnection resolves the grounding connection reference to use in
// the tool definition. Resolution order: configured id (project-scoped used
// as-is, account-scoped re-resolved by name), configured name, then a
// best-effort scan for a single connection that looks like a Bing grounding
// one. Returns "" with a nil error when nothing resolves; the caller decides
// whether that is fatal. Warnings go to warn.
func ResolveBingConnection(ctx context.Context, c Client, cfg config.BingConfig, warn io.Writer) (string, error) {
	if cfg.ConnectionID != "" {
		if IsProjectConnectionID(cfg.ConnectionID) {
			return cfg.ConnectionID, nil
		}

		if accountConnectionIDPattern.MatchString(cfg.ConnectionID) {
			name := cfg.ConnectionID[strings.LastIndex(cfg.ConnectionID, "/")+1:]
			if cfg.UseConnectionName {
				return name, nil
			}
			conn, err := c.GetConnection(ctx, name)
			if err != nil {
				return "", fmt.Errorf("resolve account-scoped connection %q: %w", name, err)
			}
			return conn.ID, nil
		}

		if warn != nil {
			fmt.Fprintln(warn, "WARNING: ignoring invalid Bing connection id from environment (expected ARM id format)")
		}
	}

	if cfg.ConnectionName != "" {
		if cfg.UseConnectionName {
			return cfg.ConnectionName, nil
		}
		conn, err := c.GetConnection(ctx, cfg.ConnectionName)
		if err != nil {
			return "", fmt.Errorf("resolve connection %q: %w", cfg.ConnectionName, err)
		}
		return conn.ID, nil
	}

	// Best-effort auto-detect: a single connection whose name, target or
	// type suggests Bing grounding.
	conns, err := c.ListConnections(ctx)
	if err != nil {
		return "", fmt.Errorf("list connections: %w", err)
	}
	var candidates []Connection
	for _, conn := range conns {
		haystack := strings.ToLower(conn.Name + " " + conn.Target + " " + conn.Type)
		if strings.Contains(haystack, "bing") || strings.Contains(haystack, "ground") {
			candidates = append(candidates, conn)
		}
	}
	if len(candidates) == 1 {
		if cfg.UseConnectionName {
			return candidates[0].Name, nil
		}
		return candidates[0].ID, nil
	}

	return "", nil
}

// ChooseDeployment returns the configured model deployment name, or the
// project's only deployment when none is configured. Multiple (or zero)
// deployments without explicit configuration is an error that names the
// options.
func ChooseDeployment(ctx context.Context, c Client, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	deployments, err := c.ListDeployments(ctx)
	if err != nil {
		return "", fmt.Errorf("list deployments: %w", err)
	}

	names := make([]string, 0, len(deployments))
	seen := make(map[string]bool)
	for _, d := range deployments {
		if d.Name != "" && !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}

	switch len(names) {
	case 1:
		return names[0], nil
	case 0:
		return "", fmt.Errorf("no deployments found in this project; set MODEL_DEPLOYMENT_NAME explicitly")
	}

	sort.Strings(names)
	return "", fmt.Errorf("multiple deployments found; set MODEL_DEPLOYMENT_NAME to one of: %s",
		strings.Join(names, ", "))
}
