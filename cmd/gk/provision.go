package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/groundcheck/groundcheck/internal/arm"
	"github.com/groundcheck/groundcheck/internal/auth"
)

func newProvisionCmd() *cobra.Command {
	var (
		flags      commonFlags
		armBase    string
		connection string
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create or update the Bing grounding connection",
		Long:  "Reads the Bing resource's endpoint and key, then writes the grounding connection record at account scope and project scope, forcing isSharedToAll on.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runProvision(ctx, cmd, flags, armBase, connection)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "groundcheck.yaml", "path to defaults file")
	cmd.Flags().StringVar(&flags.envFile, "env-file", "", "load environment variables from this file first")
	cmd.Flags().StringVar(&armBase, "arm-endpoint", arm.DefaultBase, "management plane base URL")
	cmd.Flags().StringVar(&connection, "connection-name", "", "override the connection name to write")
	return cmd
}

func runProvision(ctx context.Context, cmd *cobra.Command, flags commonFlags, armBase, connection string) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if err := cfg.ValidateProvision(); err != nil {
		return err
	}
	name := cfg.Provision.ConnectionName
	if connection != "" {
		name = connection
	}

	src, err := auth.TokenSource(ctx, cfg.Auth, auth.ScopeManagement)
	if err != nil {
		return err
	}
	client := arm.NewClient(armBase, auth.Client(src, nil))

	out := cmd.OutOrStdout()
	res, err := arm.Provision(ctx, client, arm.ProvisionOpts{
		SubscriptionID:        cfg.Provision.SubscriptionID,
		ResourceGroup:         cfg.Provision.ResourceGroup,
		Account:               cfg.AccountName,
		Project:               cfg.ProjectName,
		BingResourceID:        cfg.Provision.BingResourceID,
		ConnectionName:        name,
		BingAPIVersion:        cfg.Provision.BingAPIVersion,
		ConnectionsAPIVersion: cfg.Provision.ConnectionsAPIVersion,
	}, out)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "\nProvisioning complete.")
	fmt.Fprintf(out, "  account connection: %s\n", res.AccountConnectionID)
	fmt.Fprintf(out, "  project connection: %s\n", res.ProjectConnectionID)
	if !res.AccountShared || !res.ProjectShared {
		fmt.Fprintln(out, "  note: isSharedToAll is still off on at least one scope")
	}
	return nil
}
