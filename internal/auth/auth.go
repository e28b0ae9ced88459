// Package auth builds Entra ID token sources for the Foundry data plane and
// the Azure management plane using the OAuth2 client-credentials flow.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/groundcheck/groundcheck/internal/config"
)

// Token audiences. Each plane wants its own .default scope.
const (
	ScopeFoundry    = "https://ai.azure.com/.default"
	ScopeManagement = "https://management.azure.com/.default"
)

// tokenURL is the Entra ID v2 token endpoint for a tenant.
func tokenURL(tenantID string) string {
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID)
}

// TokenSource returns a reusable token source for the given scope. A static
// token in the config short-circuits the token endpoint, which is how CI
// pipelines inject a pre-fetched CLI token.
func TokenSource(ctx context.Context, cfg config.AuthConfig, scope string) (oauth2.TokenSource, error) {
	if static := staticFor(cfg, scope); static != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: static}), nil
	}

	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("auth: client credentials incomplete (need AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET or a static token)")
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL(cfg.TenantID),
		Scopes:       []string{scope},
	}
	return cc.TokenSource(ctx), nil
}

func staticFor(cfg config.AuthConfig, scope string) string {
	if scope == ScopeManagement && cfg.StaticARMToken != "" {
		return cfg.StaticARMToken
	}
	if scope != ScopeManagement && cfg.StaticToken != "" {
		return cfg.StaticToken
	}
	return ""
}

// Client returns an *http.Client whose transport injects bearer tokens from
// the source. Base is the transport to wrap; nil means http.DefaultTransport.
func Client(src oauth2.TokenSource, base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: base},
	}
}
