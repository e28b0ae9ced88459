// Package config resolves groundcheck settings from the process environment,
// optionally seeded by a YAML defaults file. Configuration is loaded once and
// passed by value; nothing reads the environment after Load returns.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Getenv is the lookup used to resolve environment variables. Tests inject a
// map-backed lookup instead of the real environment.
type Getenv func(key string) string

// Config holds every setting the harness consumes.
type Config struct {
	// Endpoint is the Foundry project endpoint URL. When empty it is derived
	// from AccountName and ProjectName.
	Endpoint    string
	AccountName string
	ProjectName string

	// Model is the model deployment name. Empty means auto-pick when the
	// project has exactly one deployment.
	Model string

	Bing          BingConfig
	SkipGrounding bool

	Auth      AuthConfig
	Provision ProvisionConfig
	Poll      PollConfig
	History   HistoryConfig
	Notify    NotifyConfig

	// APIVersion is the agents data-plane api-version query value.
	APIVersion string
}

// BingConfig describes how to reference the Bing grounding connection.
type BingConfig struct {
	ConnectionID   string `yaml:"connection_id"`
	ConnectionName string `yaml:"connection_name"`
	// UseConnectionName passes the bare connection name to the tool
	// definition instead of resolving an ARM-style id.
	UseConnectionName bool `yaml:"use_connection_name"`
}

// AuthConfig holds Entra ID client-credential settings. StaticToken and
// StaticARMToken bypass the token endpoint entirely when set.
type AuthConfig struct {
	TenantID       string
	ClientID       string
	ClientSecret   string
	StaticToken    string
	StaticARMToken string
}

// ProvisionConfig holds the management-plane identifiers used by `gk provision`.
type ProvisionConfig struct {
	SubscriptionID        string
	ResourceGroup         string
	BingResourceID        string
	ConnectionName        string `yaml:"connection_name"`
	BingAPIVersion        string `yaml:"bing_api_version"`
	ConnectionsAPIVersion string `yaml:"connections_api_version"`
}

// PollConfig bounds the run-status polling loop.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// HistoryConfig selects the smoke-run history store. DSN switches the store
// to MySQL; otherwise Path names a local SQLite file.
type HistoryConfig struct {
	Path string `yaml:"path"`
	DSN  string `yaml:"dsn"`
}

// NotifyConfig holds chat notification credentials. An adapter is enabled
// when both its token and channel are set.
type NotifyConfig struct {
	SlackBotToken    string `yaml:"slack_bot_token"`
	SlackChannelID   string `yaml:"slack_channel_id"`
	DiscordBotToken  string `yaml:"discord_bot_token"`
	DiscordChannelID string `yaml:"discord_channel_id"`
}

// fileConfig is the YAML defaults file shape. Environment variables override
// every field here.
type fileConfig struct {
	Bing    BingConfig    `yaml:"bing"`
	History HistoryConfig `yaml:"history"`
	Notify  NotifyConfig  `yaml:"notify"`

	Poll struct {
		Interval    string `yaml:"interval"`
		MaxAttempts int    `yaml:"max_attempts"`
	} `yaml:"poll"`

	Provision ProvisionConfig `yaml:"provision"`

	APIVersion string `yaml:"api_version"`
	Model      string `yaml:"model"`
}

// MissingError reports every absent required key at once.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("config: missing required environment variables: %s",
		strings.Join(e.Keys, ", "))
}

// Load builds a Config from the optional YAML defaults file at path (empty
// path or a missing file is fine) overlaid with environment variables.
func Load(path string, getenv Getenv) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	var fc fileConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &fc); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{
		Endpoint:    firstEnv(getenv, "PROJECT_ENDPOINT", "AZURE_AI_PROJECT_ENDPOINT"),
		AccountName: firstEnv(getenv, "FOUNDRY_ACCOUNT_NAME", "AI_FOUNDRY_ACCOUNT_NAME"),
		ProjectName: firstEnv(getenv, "FOUNDRY_PROJECT_NAME", "PROJECT_NAME", "AI_FOUNDRY_PROJECT_NAME"),
		Model: overlay(firstEnv(getenv,
			"MODEL_DEPLOYMENT_NAME", "AZURE_AI_MODEL_DEPLOYMENT_NAME", "AZURE_OPENAI_DEPLOYMENT"),
			fc.Model),
		Bing: BingConfig{
			ConnectionID: overlay(firstEnv(getenv,
				"BING_GROUNDING_CONNECTION_ID", "BING_CONNECTION_ID",
				"BING_PROJECT_CONNECTION_ID", "BING_CUSTOM_SEARCH_PROJECT_CONNECTION_ID"),
				fc.Bing.ConnectionID),
			ConnectionName: overlay(firstEnv(getenv,
				"BING_GROUNDING_CONNECTION_NAME", "BING_CONNECTION_NAME"),
				fc.Bing.ConnectionName),
			UseConnectionName: Truthy(getenv("BING_GROUNDING_USE_CONNECTION_NAME")) || fc.Bing.UseConnectionName,
		},
		SkipGrounding: Truthy(getenv("SKIP_BING_GROUNDING")),
		Auth: AuthConfig{
			TenantID:       getenv("AZURE_TENANT_ID"),
			ClientID:       getenv("AZURE_CLIENT_ID"),
			ClientSecret:   getenv("AZURE_CLIENT_SECRET"),
			StaticToken:    getenv("AZURE_ACCESS_TOKEN"),
			StaticARMToken: getenv("AZURE_ARM_ACCESS_TOKEN"),
		},
		Provision: ProvisionConfig{
			SubscriptionID: getenv("AZURE_SUBSCRIPTION_ID"),
			ResourceGroup:  getenv("FOUNDRY_RESOURCE_GROUP"),
			BingResourceID: getenv("BING_RESOURCE_ID"),
			ConnectionName: overlay(firstEnv(getenv,
				"BING_GROUNDING_CONNECTION_NAME", "BING_CONNECTION_NAME"),
				fc.Provision.ConnectionName),
			BingAPIVersion:        overlay(getenv("BING_ARM_API_VERSION"), fc.Provision.BingAPIVersion),
			ConnectionsAPIVersion: overlay(getenv("FOUNDRY_CONNECTIONS_API_VERSION"), fc.Provision.ConnectionsAPIVersion),
		},
		Poll:       PollConfig{MaxAttempts: fc.Poll.MaxAttempts},
		History:    fc.History,
		APIVersion: overlay(getenv("GK_API_VERSION"), fc.APIVersion),
		Notify: NotifyConfig{
			SlackBotToken:    overlay(getenv("SLACK_BOT_TOKEN"), fc.Notify.SlackBotToken),
			SlackChannelID:   overlay(getenv("SLACK_CHANNEL_ID"), fc.Notify.SlackChannelID),
			DiscordBotToken:  overlay(getenv("DISCORD_BOT_TOKEN"), fc.Notify.DiscordBotToken),
			DiscordChannelID: overlay(getenv("DISCORD_CHANNEL_ID"), fc.Notify.DiscordChannelID),
		},
	}

	if fc.Poll.Interval != "" {
		d, err := time.ParseDuration(fc.Poll.Interval)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("config: poll.interval must be a positive duration, got %q", fc.Poll.Interval)
		}
		cfg.Poll.Interval = d
	}
	if v := getenv("GK_POLL_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("config: GK_POLL_INTERVAL must be a positive integer (seconds), got %q", v)
		}
		cfg.Poll.Interval = time.Duration(secs) * time.Second
	}
	if v := getenv("GK_POLL_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("config: GK_POLL_ATTEMPTS must be a positive integer, got %q", v)
		}
		cfg.Poll.MaxAttempts = n
	}
	if v := getenv("GK_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := getenv("GK_HISTORY_DSN"); v != "" {
		cfg.History.DSN = v
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Poll.Interval <= 0 {
		c.Poll.Interval = time.Second
	}
	if c.Poll.MaxAttempts <= 0 {
		c.Poll.MaxAttempts = 60
	}
	if c.APIVersion == "" {
		c.APIVersion = "v1"
	}
	if c.History.Path == "" {
		c.History.Path = "groundcheck.db"
	}
	if c.Provision.ConnectionName == "" {
		c.Provision.ConnectionName = "binggrounding"
	}
	if c.Provision.BingAPIVersion == "" {
		c.Provision.BingAPIVersion = "2025-05-01-preview"
	}
	if c.Provision.ConnectionsAPIVersion == "" {
		c.Provision.ConnectionsAPIVersion = "2025-10-01-preview"
	}
}

// ProjectEndpoint returns the explicit endpoint or derives one from the
// account and project names.
func (c *Config) ProjectEndpoint() (string, error) {
	if c.Endpoint != "" {
		return c.Endpoint, nil
	}
	if c.AccountName != "" && c.ProjectName != "" {
		return fmt.Sprintf("https://%s.services.ai.azure.com/api/projects/%s",
			c.AccountName, c.ProjectName), nil
	}
	return "", &MissingError{Keys: []string{"PROJECT_ENDPOINT (or FOUNDRY_ACCOUNT_NAME + FOUNDRY_PROJECT_NAME)"}}
}

// ValidateSmoke checks everything `gk smoke` needs before any network call.
// All missing keys are reported together.
func (c *Config) ValidateSmoke() error {
	var missing []string
	if c.Endpoint == "" && (c.AccountName == "" || c.ProjectName == "") {
		missing = append(missing, "PROJECT_ENDPOINT (or FOUNDRY_ACCOUNT_NAME + FOUNDRY_PROJECT_NAME)")
	}
	missing = append(missing, c.missingCredentials(c.Auth.StaticToken)...)
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

// ValidateProvision checks everything `gk provision` needs.
func (c *Config) ValidateProvision() error {
	var missing []string
	for _, req := range []struct{ key, val string }{
		{"AZURE_SUBSCRIPTION_ID", c.Provision.SubscriptionID},
		{"FOUNDRY_RESOURCE_GROUP", c.Provision.ResourceGroup},
		{"FOUNDRY_ACCOUNT_NAME", c.AccountName},
		{"FOUNDRY_PROJECT_NAME", c.ProjectName},
		{"BING_RESOURCE_ID", c.Provision.BingResourceID},
	} {
		if req.val == "" {
			missing = append(missing, req.key)
		}
	}
	missing = append(missing, c.missingCredentials(c.Auth.StaticARMToken)...)
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

// missingCredentials returns the credential keys still needed given an
// optional static-token bypass.
func (c *Config) missingCredentials(staticToken string) []string {
	if staticToken != "" {
		return nil
	}
	var missing []string
	if c.Auth.TenantID == "" {
		missing = append(missing, "AZURE_TENANT_ID")
	}
	if c.Auth.ClientID == "" {
		missing = append(missing, "AZURE_CLIENT_ID")
	}
	if c.Auth.ClientSecret == "" {
		missing = append(missing, "AZURE_CLIENT_SECRET")
	}
	return missing
}

// Truthy reports whether an environment value opts in to a flag.
func Truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(getenv Getenv, names ...string) string {
	for _, name := range names {
		if v := getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// overlay prefers the environment value over the file value.
func overlay(env, file string) string {
	if env != "" {
		return env
	}
	return file
}
