package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/auth"
	"github.com/groundcheck/groundcheck/internal/config"
	"github.com/groundcheck/groundcheck/internal/db"
	"github.com/groundcheck/groundcheck/internal/foundry"
)

func newDoctorCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites and connectivity",
		Long:  "Runs diagnostic checks: config, endpoint, token acquisition, model deployments, the Bing grounding connection, the history store, and notification credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "groundcheck.yaml", "path to defaults file")
	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "load environment variables from this file first")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, flags commonFlags) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "groundcheck Doctor")
	fmt.Fprintln(out, "==================")

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var results []checkResult

	cfg, cfgResult := checkDoctorConfig(flags)
	results = append(results, cfgResult)

	if cfg != nil {
		results = append(results, checkEndpoint(cfg))

		client, _, err := newFoundryClient(ctx, cfg)
		if err != nil {
			results = append(results, checkResult{"Token source", "FAIL", err.Error()})
		} else {
			results = append(results, checkToken(ctx, cfg))
			results = append(results, checkARMToken(ctx, cfg))
			results = append(results, checkDeployments(ctx, client, cfg.Model))
			results = append(results, checkBingConnection(ctx, client, cfg))
		}

		results = append(results, checkHistory(cfg.History))
		results = append(results, checkNotify(cfg.Notify))
	}

	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", r.status, r.name, r.detail)
}

func checkDoctorConfig(flags commonFlags) (*config.Config, checkResult) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, checkResult{"Config", "FAIL", err.Error()}
	}
	if err := cfg.ValidateSmoke(); err != nil {
		return nil, checkResult{"Config", "FAIL", err.Error()}
	}
	return cfg, checkResult{"Config", "PASS", "all required variables set"}
}

func checkEndpoint(cfg *config.Config) checkResult {
	endpoint, err := cfg.ProjectEndpoint()
	if err != nil {
		return checkResult{"Endpoint", "FAIL", err.Error()}
	}
	return checkResult{"Endpoint", "PASS", endpoint}
}

// checkToken proves a bearer token can actually be minted. The token itself
// is never shown.
func checkToken(ctx context.Context, cfg *config.Config) checkResult {
	src, err := auth.TokenSource(ctx, cfg.Auth, auth.ScopeFoundry)
	if err != nil {
		return checkResult{"Token", "FAIL", err.Error()}
	}
	tok, err := src.Token()
	if err != nil {
		return checkResult{"Token", "FAIL", err.Error()}
	}
	detail := "acquired"
	if !tok.Expiry.IsZero() {
		detail = fmt.Sprintf("acquired, expires %s", tok.Expiry.Format(time.RFC3339))
	}
	return checkResult{"Token", "PASS", detail}
}

// checkARMToken covers the management-plane scope `gk provision` uses. A
// smoke-only setup legitimately has no ARM credentials, so absence is a WARN.
func checkARMToken(ctx context.Context, cfg *config.Config) checkResult {
	hasCreds := cfg.Auth.TenantID != "" && cfg.Auth.ClientID != "" && cfg.Auth.ClientSecret != ""
	if cfg.Auth.StaticARMToken == "" && !hasCreds {
		return checkResult{"ARM token", "WARN", "not configured (needed only for gk provision)"}
	}
	src, err := auth.TokenSource(ctx, cfg.Auth, auth.ScopeManagement)
	if err != nil {
		return checkResult{"ARM token", "FAIL", err.Error()}
	}
	if _, err := src.Token(); err != nil {
		return checkResult{"ARM token", "FAIL", err.Error()}
	}
	return checkResult{"ARM token", "PASS", "acquired"}
}

func checkDeployments(ctx context.Context, client foundry.Client, configured string) checkResult {
	deployments, err := client.ListDeployments(ctx)
	if err != nil {
		return checkResult{"Deployments", "FAIL", err.Error()}
	}
	if len(deployments) == 0 {
		return checkResult{"Deployments", "FAIL", "project has no model deployments"}
	}
	model, err := foundry.ChooseDeployment(ctx, client, configured)
	if err != nil {
		return checkResult{"Deployments", "WARN", err.Error()}
	}
	return checkResult{"Deployments", "PASS", fmt.Sprintf("%d found, using %q", len(deployments), model)}
}

func checkBingConnection(ctx context.Context, client foundry.Client, cfg *config.Config) checkResult {
	if cfg.SkipGrounding {
		return checkResult{"Bing connection", "WARN", "grounding scenario disabled"}
	}
	ref, err := foundry.ResolveBingConnection(ctx, client, cfg.Bing, io.Discard)
	if err != nil {
		return checkResult{"Bing connection", "FAIL", err.Error()}
	}
	if ref == "" {
		return checkResult{"Bing connection", "WARN", "no grounding connection resolved; the grounded scenario will fail"}
	}
	return checkResult{"Bing connection", "PASS", ref}
}

func checkHistory(cfg config.HistoryConfig) checkResult {
	gdb, err := db.Open(cfg)
	if err != nil {
		return checkResult{"History store", "FAIL", err.Error()}
	}
	sqlDB, err := gdb.DB()
	if err == nil {
		err = sqlDB.Ping()
		sqlDB.Close()
	}
	if err != nil {
		return checkResult{"History store", "FAIL", err.Error()}
	}
	target := cfg.Path
	if cfg.DSN != "" {
		target = "mysql"
	}
	return checkResult{"History store", "PASS", target}
}

func checkNotify(cfg config.NotifyConfig) checkResult {
	var enabled []string
	if cfg.SlackBotToken != "" && cfg.SlackChannelID != "" {
		enabled = append(enabled, "slack")
	}
	if cfg.DiscordBotToken != "" && cfg.DiscordChannelID != "" {
		enabled = append(enabled, "discord")
	}
	if len(enabled) == 0 {
		return checkResult{"Notifications", "WARN", "none configured"}
	}
	return checkResult{"Notifications", "PASS", strings.Join(enabled, ", ")}
}
