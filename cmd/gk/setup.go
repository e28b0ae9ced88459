package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/groundcheck/groundcheck/internal/auth"
	"github.com/groundcheck/groundcheck/internal/config"
	"github.com/groundcheck/groundcheck/internal/foundry"
	"github.com/groundcheck/groundcheck/internal/notify"
	"github.com/groundcheck/groundcheck/internal/notify/discord"
	"github.com/groundcheck/groundcheck/internal/notify/slack"
)

// commonFlags are shared by every command that talks to Azure.
type commonFlags struct {
	configPath string
	envFile    string
}

// loadConfig loads the optional env file, then the YAML defaults and
// environment overlay.
func loadConfig(flags commonFlags) (*config.Config, error) {
	if flags.envFile != "" {
		if err := godotenv.Load(flags.envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", flags.envFile, err)
		}
	}
	return config.Load(flags.configPath, os.Getenv)
}

// newFoundryClient builds the data-plane client for the project endpoint.
func newFoundryClient(ctx context.Context, cfg *config.Config) (*foundry.HTTPClient, string, error) {
	endpoint, err := cfg.ProjectEndpoint()
	if err != nil {
		return nil, "", err
	}
	src, err := auth.TokenSource(ctx, cfg.Auth, auth.ScopeFoundry)
	if err != nil {
		return nil, "", err
	}
	return foundry.New(endpoint, cfg.APIVersion, auth.Client(src, nil)), endpoint, nil
}

// newAdapters builds the notification adapters that have credentials
// configured. Zero adapters is not an error.
func newAdapters(cfg config.NotifyConfig) ([]notify.Adapter, error) {
	var adapters []notify.Adapter
	if cfg.SlackBotToken != "" && cfg.SlackChannelID != "" {
		a, err := slack.New(slack.AdapterOpts{BotToken: cfg.SlackBotToken, ChannelID: cfg.SlackChannelID})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if cfg.DiscordBotToken != "" && cfg.DiscordChannelID != "" {
		a, err := discord.New(discord.AdapterOpts{BotToken: cfg.DiscordBotToken, ChannelID: cfg.DiscordChannelID})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}
